package behavior

import (
	"math"
	"time"
)

const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// Record is the slice of a settled wager that profiling needs.
type Record struct {
	BetAmount float64
	WinAmount float64
	IsWin     bool
	CreatedAt time.Time
}

// Profile summarizes a user's recent wagering activity. It is derived data:
// recomputed from the newest wager records, never stored.
type Profile struct {
	UserID             int64         `json:"user_id"`
	TotalSpins         int           `json:"total_spins"`
	CurrentWinStreak   int           `json:"current_win_streak"`
	CurrentLossStreak  int           `json:"current_loss_streak"`
	LongestWinStreak   int           `json:"longest_win_streak"`
	LongestLossStreak  int           `json:"longest_loss_streak"`
	WinRate            float64       `json:"win_rate"`
	BalanceChangeRatio float64       `json:"balance_change_ratio"`
	SessionDuration    time.Duration `json:"session_duration"`
	BetVolatility      float64       `json:"bet_volatility"`
	RiskClass          string        `json:"risk_class"`
	CurrentBalance     float64       `json:"current_balance"`
}

// computeProfile derives a profile from records ordered newest first.
func computeProfile(records []Record, currentBalance, baseline float64) Profile {
	p := Profile{
		TotalSpins:     len(records),
		RiskClass:      RiskUnknown,
		CurrentBalance: currentBalance,
	}

	if baseline > 0 {
		p.BalanceChangeRatio = (currentBalance - baseline) / baseline
	}

	if len(records) == 0 {
		return p
	}

	// Current streaks: consecutive outcomes from the newest record, each
	// side stopping at the first opposite outcome.
	for _, r := range records {
		if !r.IsWin {
			break
		}
		p.CurrentWinStreak++
	}
	for _, r := range records {
		if r.IsWin {
			break
		}
		p.CurrentLossStreak++
	}

	wins := 0
	winRun, lossRun := 0, 0
	totalBet, maxBet := 0.0, 0.0
	var winAmounts []float64

	for _, r := range records {
		if r.IsWin {
			wins++
			winRun++
			lossRun = 0
			winAmounts = append(winAmounts, r.WinAmount)
		} else {
			lossRun++
			winRun = 0
		}
		if winRun > p.LongestWinStreak {
			p.LongestWinStreak = winRun
		}
		if lossRun > p.LongestLossStreak {
			p.LongestLossStreak = lossRun
		}

		totalBet += r.BetAmount
		if r.BetAmount > maxBet {
			maxBet = r.BetAmount
		}
	}

	p.WinRate = float64(wins) / float64(len(records))
	p.BetVolatility = volatility(winAmounts)
	p.SessionDuration = records[0].CreatedAt.Sub(records[len(records)-1].CreatedAt)

	if len(records) >= 10 {
		avgBet := totalBet / float64(len(records))
		ratio := 0.0
		if avgBet > 0 {
			ratio = maxBet / avgBet
		}
		switch {
		case ratio > 5:
			p.RiskClass = RiskHigh
		case ratio > 2:
			p.RiskClass = RiskMedium
		default:
			p.RiskClass = RiskLow
		}
	}

	return p
}

// volatility is the coefficient of variation of winning amounts; zero when
// there are fewer than two wins.
func volatility(wins []float64) float64 {
	if len(wins) < 2 {
		return 0
	}

	mean := 0.0
	for _, w := range wins {
		mean += w
	}
	mean /= float64(len(wins))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, w := range wins {
		variance += (w - mean) * (w - mean)
	}
	variance /= float64(len(wins))

	return math.Sqrt(variance) / mean
}
