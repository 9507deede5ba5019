package decision

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"wager-platform/internal/behavior"
	"wager-platform/internal/ledger"
)

const maxWinMultiple = 5.0

// Outcome is the engine's final word on a single wager. The fairness hash
// recorded next to it is derived afterwards and never feeds back into it.
type Outcome struct {
	Win                bool     `json:"win"`
	Amount             float64  `json:"amount"`
	Pattern            string   `json:"pattern"`
	MatchedPatterns    []string `json:"matched_patterns,omitempty"`
	DeniedBy           string   `json:"denied_by,omitempty"`
	NextLossStreakHint int      `json:"next_loss_streak,omitempty"`
}

type Engine struct {
	store     *ConfigStore
	evaluator *Evaluator
	log       *zap.Logger

	mu  sync.Mutex
	rnd func() float64
}

func NewEngine(store *ConfigStore, evaluator *Evaluator, log *zap.Logger) *Engine {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		store:     store,
		evaluator: evaluator,
		log:       log,
		rnd:       src.Float64,
	}
}

// SetRandFunc replaces the random source. Tests use it for determinism.
func (e *Engine) SetRandFunc(f func() float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rnd = f
}

func (e *Engine) random() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rnd()
}

// Decide settles win-or-lose and the amount for one wager against a single
// config snapshot. The pool argument only caps the amount; the conditional
// debit itself happens later at the ledger.
func (e *Engine) Decide(p behavior.Profile, bet float64, isAdmin bool, pool *ledger.Pool) (Outcome, error) {
	cfg := e.store.Current()

	if isAdmin && cfg.EnableAdminWins {
		return e.decideAdmin(cfg, bet, pool), nil
	}

	decision, matched := classify(p, e.random)
	out := Outcome{
		Pattern:            decision.Pattern,
		MatchedPatterns:    matched,
		NextLossStreakHint: decision.NextLossStreakHint,
	}

	if !decision.AllowWin {
		return out, nil
	}

	proposed := bet * decision.Multiplier
	report, err := e.evaluator.Check(p.UserID, cfg, proposed, decision.SkipRatioGate)
	if err != nil {
		return Outcome{}, err
	}
	if !report.Allowed {
		out.DeniedBy = report.DeniedBy
		e.log.Debug("win denied by gate",
			zap.Int64("uid", p.UserID),
			zap.String("gate", report.DeniedBy),
			zap.String("pattern", decision.Pattern))
		return out, nil
	}

	amount := proposed
	if cfg.EnableRandomness {
		amount *= 0.8 + 0.4*e.random()
	}
	amount = clamp(amount, bet*maxWinMultiple, pool)

	out.Win = amount > 0
	out.Amount = amount
	return out, nil
}

func (e *Engine) decideAdmin(cfg Config, bet float64, pool *ledger.Pool) Outcome {
	out := Outcome{Pattern: PatternAdmin, MatchedPatterns: []string{PatternAdmin}}

	if e.random() >= cfg.AdminWinRate {
		return out
	}

	amount := bet * 2
	if cfg.EnableRandomness {
		amount *= 0.9 + 0.2*e.random()
	}
	amount = clamp(amount, bet*maxWinMultiple, pool)

	out.Win = amount > 0
	out.Amount = amount
	return out
}

func clamp(amount, ceiling float64, pool *ledger.Pool) float64 {
	if amount > ceiling {
		amount = ceiling
	}
	if amount < 0 {
		amount = 0
	}
	if pool != nil {
		amount = pool.AffordablePayout(amount)
	}
	return math.Round(amount*100) / 100
}
