package ledger

import (
	"errors"
	"fmt"
)

// Pool names are a small fixed set; anything else is rejected up front.
const (
	MainPool       = "main_prize_pool"
	JackpotPool    = "jackpot_pool"
	TournamentPool = "tournament_pool"
)

const (
	StatusActive      = "active"
	StatusPaused      = "paused"
	StatusMaintenance = "maintenance"
)

const (
	HealthHealthy  = "healthy"
	HealthLow      = "low"
	HealthCritical = "critical"
)

type Pool struct {
	Name               string  `json:"name"`
	CurrentBalance     float64 `json:"current_balance"`
	TotalContributions float64 `json:"total_contributions"`
	TotalPayouts       float64 `json:"total_payouts"`
	ContributionRate   float64 `json:"contribution_rate"`
	MinimumBalance     float64 `json:"minimum_balance"`
	MaximumPayout      float64 `json:"maximum_payout"`
	Status             string  `json:"status"`
	UpdatedAt          int64   `json:"updated_at"`
}

// NetBalance is contributions minus payouts; at quiescence it equals
// CurrentBalance minus the pool's starting balance.
func (p *Pool) NetBalance() float64 {
	return p.TotalContributions - p.TotalPayouts
}

// AffordablePayout caps a proposed payout at both the live balance and the
// pool's configured maximum.
func (p *Pool) AffordablePayout(amount float64) float64 {
	if amount > p.MaximumPayout {
		amount = p.MaximumPayout
	}
	if amount > p.CurrentBalance {
		amount = p.CurrentBalance
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

var (
	ErrUnknownPool = errors.New("unknown pool")
	ErrConflict    = errors.New("concurrent update conflict")
)

// InsufficientReserveError reports the balance observed when the conditional
// payout failed.
type InsufficientReserveError struct {
	Pool      string
	Requested float64
	Balance   float64
}

func (e *InsufficientReserveError) Error() string {
	return fmt.Sprintf("insufficient reserve in %s: requested %.2f, balance %.2f",
		e.Pool, e.Requested, e.Balance)
}

func IsInsufficientReserve(err error) bool {
	var ire *InsufficientReserveError
	return errors.As(err, &ire)
}

func validName(name string) bool {
	switch name {
	case MainPool, JackpotPool, TournamentPool:
		return true
	}
	return false
}
