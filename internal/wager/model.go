package wager

import "errors"

var (
	ErrInvalidBet  = errors.New("invalid bet amount")
	ErrUnknownGame = errors.New("unknown game type")
)

type PlayRequest struct {
	UID        int64
	GameType   string
	Bet        float64
	ClientSeed string
	IsAdmin    bool
}

// Result is the settled wager as returned to the caller and published on the
// bus. The seed fields prove which seeds were in play; they never decide the
// outcome.
type Result struct {
	UID             int64   `json:"uid"`
	Success         bool    `json:"success"`
	GameType        string  `json:"game_type"`
	BetAmount       float64 `json:"bet_amount"`
	WinAmount       float64 `json:"win_amount"`
	NewBalance      float64 `json:"new_balance"`
	Pattern         string  `json:"pattern"`
	Contribution    float64 `json:"contribution"`
	NextLossStreak  int     `json:"next_loss_streak,omitempty"`
	Downgraded      bool    `json:"downgraded,omitempty"`
	DowngradeReason string  `json:"downgrade_reason,omitempty"`
	DeniedBy        string  `json:"denied_by,omitempty"`
	Nonce           int64   `json:"nonce"`
	ResultHash      string  `json:"result_hash"`
	ServerSeedHash  string  `json:"server_seed_hash"`
}
