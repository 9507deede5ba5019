package decision

import (
	"time"

	"wager-platform/internal/behavior"
)

const (
	PatternDefault         = "default"
	PatternNewUser         = "new_user"
	PatternExperienced     = "experienced"
	PatternRecovery        = "recovery"
	PatternProfitable      = "profitable"
	PatternDroughtBreaker  = "drought_breaker"
	PatternStreakCooldown  = "streak_cooldown"
	PatternEngagementBoost = "engagement_boost"
	PatternAdmin           = "admin"
)

// Thresholds for the pattern rules.
const (
	newUserSpins       = 10
	experiencedSpins   = 100
	recoveryDrawdown   = -0.5
	profitableUpswing  = 0.25
	droughtStreak      = 10
	coolingWinStreak   = 3
	longSessionElapsed = 2 * time.Hour
)

// ruleDecision is a tentative outcome. A later matching rule replaces an
// earlier one wholesale; only the matched-pattern trail survives.
type ruleDecision struct {
	AllowWin           bool
	Multiplier         float64
	Pattern            string
	NextLossStreakHint int
	// SkipRatioGate marks guaranteed streak-breaking wins that must not be
	// vetoed by the trailing win-ratio gate.
	SkipRatioGate bool
}

type rule struct {
	pattern string
	matches func(p behavior.Profile) bool
	apply   func(p behavior.Profile, rnd func() float64) ruleDecision
}

// patternRules is evaluated in order with last-match-wins semantics. The
// order reproduces the production cascade: session length beats streaks,
// streaks beat balance swings, balance swings beat spin count. Do not
// reorder without updating the pinned test.
var patternRules = []rule{
	{
		pattern: PatternNewUser,
		matches: func(p behavior.Profile) bool { return p.TotalSpins < newUserSpins },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: true, Multiplier: 1.5, Pattern: PatternNewUser}
		},
	},
	{
		pattern: PatternExperienced,
		matches: func(p behavior.Profile) bool { return p.TotalSpins >= experiencedSpins },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: rnd() < 0.4, Multiplier: 2.0, Pattern: PatternExperienced}
		},
	},
	{
		pattern: PatternRecovery,
		matches: func(p behavior.Profile) bool { return p.BalanceChangeRatio <= recoveryDrawdown },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: true, Multiplier: 3.0, Pattern: PatternRecovery, NextLossStreakHint: 3}
		},
	},
	{
		pattern: PatternProfitable,
		matches: func(p behavior.Profile) bool { return p.BalanceChangeRatio >= profitableUpswing },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: rnd() < 0.2, Multiplier: 1.2, Pattern: PatternProfitable, NextLossStreakHint: 5}
		},
	},
	{
		pattern: PatternDroughtBreaker,
		matches: func(p behavior.Profile) bool { return p.CurrentLossStreak >= droughtStreak },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{
				AllowWin:           true,
				Multiplier:         2.5,
				Pattern:            PatternDroughtBreaker,
				NextLossStreakHint: 2,
				SkipRatioGate:      true,
			}
		},
	},
	{
		pattern: PatternStreakCooldown,
		matches: func(p behavior.Profile) bool { return p.CurrentWinStreak >= coolingWinStreak },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: rnd() < 0.1, Multiplier: 0.5, Pattern: PatternStreakCooldown, NextLossStreakHint: 8}
		},
	},
	{
		pattern: PatternEngagementBoost,
		matches: func(p behavior.Profile) bool { return p.SessionDuration > longSessionElapsed },
		apply: func(p behavior.Profile, rnd func() float64) ruleDecision {
			return ruleDecision{AllowWin: true, Multiplier: 1.8, Pattern: PatternEngagementBoost}
		},
	},
}

// classify walks the rule list and returns the surviving decision plus the
// full trail of matched patterns for audit.
func classify(p behavior.Profile, rnd func() float64) (ruleDecision, []string) {
	decision := ruleDecision{Pattern: PatternDefault}
	var matched []string

	for _, r := range patternRules {
		if r.matches(p) {
			decision = r.apply(p, rnd)
			matched = append(matched, r.pattern)
		}
	}
	return decision, matched
}
