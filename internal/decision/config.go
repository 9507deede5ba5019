package decision

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrInvalidConfig = errors.New("invalid decision config")

// Config drives the payout decision engine. It is read as an immutable
// snapshot: admin updates build a new value and swap it in atomically, so a
// decision in flight never sees a half-applied patch.
type Config struct {
	TargetWinRatio         float64 `json:"target_win_ratio"`
	DailyWinCap            float64 `json:"daily_win_cap"`
	MaxConsecutiveWins     int     `json:"max_consecutive_wins"`
	MinDelayBetweenBigWins int     `json:"min_delay_between_big_wins"` // seconds
	BigWinThreshold        float64 `json:"big_win_threshold"`
	EnableRandomness       bool    `json:"enable_randomness"`
	EnableAdminWins        bool    `json:"enable_admin_wins"`
	AdminWinRate           float64 `json:"admin_win_rate"`
}

func DefaultConfig() Config {
	return Config{
		TargetWinRatio:         0.65,
		DailyWinCap:            1000,
		MaxConsecutiveWins:     3,
		MinDelayBetweenBigWins: 3600,
		BigWinThreshold:        100,
		EnableRandomness:       true,
		EnableAdminWins:        false,
		AdminWinRate:           0.1,
	}
}

func (c Config) validate() error {
	if c.TargetWinRatio < 0 || c.TargetWinRatio > 1 {
		return fmt.Errorf("%w: target_win_ratio %.2f outside [0,1]", ErrInvalidConfig, c.TargetWinRatio)
	}
	if c.DailyWinCap <= 0 {
		return fmt.Errorf("%w: daily_win_cap must be positive", ErrInvalidConfig)
	}
	if c.MaxConsecutiveWins < 1 {
		return fmt.Errorf("%w: max_consecutive_wins must be at least 1", ErrInvalidConfig)
	}
	if c.MinDelayBetweenBigWins < 0 {
		return fmt.Errorf("%w: min_delay_between_big_wins must not be negative", ErrInvalidConfig)
	}
	if c.BigWinThreshold < 0 {
		return fmt.Errorf("%w: big_win_threshold must not be negative", ErrInvalidConfig)
	}
	if c.AdminWinRate < 0 || c.AdminWinRate > 1 {
		return fmt.Errorf("%w: admin_win_rate %.2f outside [0,1]", ErrInvalidConfig, c.AdminWinRate)
	}
	return nil
}

// Patch is a partial admin update; nil fields keep the current value.
type Patch struct {
	TargetWinRatio         *float64 `json:"target_win_ratio"`
	DailyWinCap            *float64 `json:"daily_win_cap"`
	MaxConsecutiveWins     *int     `json:"max_consecutive_wins"`
	MinDelayBetweenBigWins *int     `json:"min_delay_between_big_wins"`
	BigWinThreshold        *float64 `json:"big_win_threshold"`
	EnableRandomness       *bool    `json:"enable_randomness"`
	EnableAdminWins        *bool    `json:"enable_admin_wins"`
	AdminWinRate           *float64 `json:"admin_win_rate"`
}

type ConfigStore struct {
	current atomic.Pointer[Config]
}

func NewConfigStore(initial Config) (*ConfigStore, error) {
	if err := initial.validate(); err != nil {
		return nil, err
	}
	s := &ConfigStore{}
	s.current.Store(&initial)
	return s, nil
}

// Current returns the active snapshot by value.
func (s *ConfigStore) Current() Config {
	return *s.current.Load()
}

// Apply merges a patch onto the current snapshot, validates the result, and
// swaps it in. A patch that fails validation leaves the snapshot untouched.
func (s *ConfigStore) Apply(p Patch) (Config, error) {
	next := s.Current()

	if p.TargetWinRatio != nil {
		next.TargetWinRatio = *p.TargetWinRatio
	}
	if p.DailyWinCap != nil {
		next.DailyWinCap = *p.DailyWinCap
	}
	if p.MaxConsecutiveWins != nil {
		next.MaxConsecutiveWins = *p.MaxConsecutiveWins
	}
	if p.MinDelayBetweenBigWins != nil {
		next.MinDelayBetweenBigWins = *p.MinDelayBetweenBigWins
	}
	if p.BigWinThreshold != nil {
		next.BigWinThreshold = *p.BigWinThreshold
	}
	if p.EnableRandomness != nil {
		next.EnableRandomness = *p.EnableRandomness
	}
	if p.EnableAdminWins != nil {
		next.EnableAdminWins = *p.EnableAdminWins
	}
	if p.AdminWinRate != nil {
		next.AdminWinRate = *p.AdminWinRate
	}

	if err := next.validate(); err != nil {
		return Config{}, err
	}

	s.current.Store(&next)
	return next, nil
}
