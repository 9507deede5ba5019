package decision

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	GateDailyWinCap     = "daily_win_cap"
	GateConsecutiveWins = "consecutive_wins"
	GateBigWinCooldown  = "big_win_cooldown"
	GateTargetWinRatio  = "target_win_ratio"
)

type GateResult struct {
	Gate    string `json:"gate"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

type GateReport struct {
	Allowed  bool         `json:"allowed"`
	DeniedBy string       `json:"denied_by,omitempty"`
	Results  []GateResult `json:"results"`
}

// GateStats is the user history snapshot the gates run against. Collecting
// it is the only impure step; the evaluation itself is deterministic.
type GateStats struct {
	WinsSinceMidnight float64
	RecentOutcomes    []bool // newest first, at most MaxConsecutiveWins entries
	LastBigWinAt      *time.Time
	WeeklyWins        int
	WeeklyLosses      int
	Now               time.Time
}

type Evaluator struct {
	db *sql.DB
}

func NewEvaluator(db *sql.DB) *Evaluator {
	return &Evaluator{db: db}
}

// Check runs the gates in fixed order and stops at the first denial.
func (e *Evaluator) Check(uid int64, cfg Config, proposed float64, skipRatio bool) (GateReport, error) {
	stats, err := e.collectStats(uid, cfg)
	if err != nil {
		return GateReport{}, err
	}
	return evaluateGates(stats, cfg, proposed, skipRatio, false), nil
}

// CheckAll evaluates every gate regardless of denials, for diagnostics.
func (e *Evaluator) CheckAll(uid int64, cfg Config, proposed float64) (GateReport, error) {
	stats, err := e.collectStats(uid, cfg)
	if err != nil {
		return GateReport{}, err
	}
	return evaluateGates(stats, cfg, proposed, false, true), nil
}

func (e *Evaluator) collectStats(uid int64, cfg Config) (GateStats, error) {
	now := time.Now()
	stats := GateStats{Now: now}

	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	err := e.db.QueryRow(`
	SELECT COALESCE(SUM(win_amount), 0) FROM game_results
	WHERE user_id = ? AND is_win = 1 AND created_at >= ?
	`, uid, midnight.Unix()).Scan(&stats.WinsSinceMidnight)
	if err != nil {
		return stats, fmt.Errorf("daily win total: %w", err)
	}

	rows, err := e.db.Query(`
	SELECT is_win FROM game_results
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`, uid, cfg.MaxConsecutiveWins)
	if err != nil {
		return stats, fmt.Errorf("recent outcomes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var isWin int
		if err := rows.Scan(&isWin); err != nil {
			return stats, err
		}
		stats.RecentOutcomes = append(stats.RecentOutcomes, isWin == 1)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var lastBig int64
	err = e.db.QueryRow(`
	SELECT created_at FROM game_results
	WHERE user_id = ? AND win_amount >= ?
	ORDER BY created_at DESC LIMIT 1
	`, uid, cfg.BigWinThreshold).Scan(&lastBig)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("last big win: %w", err)
	}
	if err == nil {
		t := time.Unix(lastBig, 0)
		stats.LastBigWinAt = &t
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	err = e.db.QueryRow(`
	SELECT
		COALESCE(SUM(is_win), 0),
		COALESCE(SUM(1 - is_win), 0)
	FROM game_results
	WHERE user_id = ? AND created_at >= ?
	`, uid, weekAgo.Unix()).Scan(&stats.WeeklyWins, &stats.WeeklyLosses)
	if err != nil {
		return stats, fmt.Errorf("weekly counts: %w", err)
	}

	return stats, nil
}

// evaluateGates is a pure function of its inputs: identical stats, config,
// and proposed amount always produce the identical report.
func evaluateGates(stats GateStats, cfg Config, proposed float64, skipRatio, full bool) GateReport {
	report := GateReport{Allowed: true}

	add := func(r GateResult) bool {
		report.Results = append(report.Results, r)
		if !r.Allowed {
			report.Allowed = false
			if report.DeniedBy == "" {
				report.DeniedBy = r.Gate
			}
			if !full {
				return true
			}
		}
		return false
	}

	if stop := add(dailyWinCapGate(stats, cfg)); stop {
		return report
	}
	if stop := add(consecutiveWinsGate(stats, cfg)); stop {
		return report
	}
	if stop := add(bigWinCooldownGate(stats, cfg, proposed)); stop {
		return report
	}
	if !skipRatio {
		add(targetWinRatioGate(stats, cfg))
	}

	return report
}

func dailyWinCapGate(stats GateStats, cfg Config) GateResult {
	r := GateResult{Gate: GateDailyWinCap, Allowed: true}
	if stats.WinsSinceMidnight >= cfg.DailyWinCap {
		r.Allowed = false
		r.Reason = fmt.Sprintf("daily wins %.2f at cap %.2f", stats.WinsSinceMidnight, cfg.DailyWinCap)
	}
	return r
}

func consecutiveWinsGate(stats GateStats, cfg Config) GateResult {
	r := GateResult{Gate: GateConsecutiveWins, Allowed: true}
	if len(stats.RecentOutcomes) < cfg.MaxConsecutiveWins {
		return r
	}

	for _, win := range stats.RecentOutcomes[:cfg.MaxConsecutiveWins] {
		if !win {
			return r
		}
	}
	r.Allowed = false
	r.Reason = fmt.Sprintf("last %d wagers all won", cfg.MaxConsecutiveWins)
	return r
}

func bigWinCooldownGate(stats GateStats, cfg Config, proposed float64) GateResult {
	r := GateResult{Gate: GateBigWinCooldown, Allowed: true}
	if proposed < cfg.BigWinThreshold || stats.LastBigWinAt == nil {
		return r
	}

	elapsed := stats.Now.Sub(*stats.LastBigWinAt)
	required := time.Duration(cfg.MinDelayBetweenBigWins) * time.Second
	if elapsed < required {
		r.Allowed = false
		r.Reason = fmt.Sprintf("big win %s ago, cooldown %s", elapsed.Truncate(time.Second), required)
	}
	return r
}

func targetWinRatioGate(stats GateStats, cfg Config) GateResult {
	r := GateResult{Gate: GateTargetWinRatio, Allowed: true}

	total := stats.WeeklyWins + stats.WeeklyLosses
	if total == 0 {
		return r
	}

	ratio := float64(stats.WeeklyWins) / float64(total)
	if ratio > cfg.TargetWinRatio {
		r.Allowed = false
		r.Reason = fmt.Sprintf("7d win ratio %.2f above target %.2f", ratio, cfg.TargetWinRatio)
	}
	return r
}
