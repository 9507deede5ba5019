package withdraw

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
)

const (
	CeilingAmount = "amount"
	CeilingCount  = "count"
)

// Window is one rolling limit: total amount and entry count since now-Span.
type Window struct {
	Name          string
	Span          time.Duration
	AmountCeiling float64
	CountCeiling  int
}

var windows = []Window{
	{Name: WindowDaily, Span: 24 * time.Hour, AmountCeiling: 5000, CountCeiling: 5},
	{Name: WindowWeekly, Span: 7 * 24 * time.Hour, AmountCeiling: 20000, CountCeiling: 15},
	{Name: WindowMonthly, Span: 30 * 24 * time.Hour, AmountCeiling: 50000, CountCeiling: 30},
}

func Windows() []Window { return windows }

// Violation names the window and ceiling a request breached, with the usage
// observed at validation time.
type Violation struct {
	Window  string  `json:"window"`
	Kind    string  `json:"kind"`
	Current float64 `json:"current"`
	Ceiling float64 `json:"ceiling"`
}

// RateLimitError enumerates every violated window, never just the first.
type RateLimitError struct {
	Violations []Violation
}

func (e *RateLimitError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s %s limit exceeded (%.2f/%.2f)",
			v.Window, v.Kind, v.Current, v.Ceiling))
	}
	return "withdrawal limits exceeded: " + strings.Join(parts, ", ")
}

type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Validate checks the proposed amount against every window. Rejected and
// failed entries do not count: their money went back to the wallet.
func validate(q querier, uid int64, amount float64, now time.Time) error {
	var violations []Violation

	for _, w := range windows {
		since := now.Add(-w.Span).Unix()

		var total float64
		var count int
		err := q.QueryRow(`
		SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM withdrawals
		WHERE uid = ? AND created_at >= ? AND status IN (?, ?, ?)
		`, uid, since, StatusPending, StatusApproved, StatusCompleted).Scan(&total, &count)
		if err != nil {
			return fmt.Errorf("%s window usage: %w", w.Name, err)
		}

		if total+amount > w.AmountCeiling {
			violations = append(violations, Violation{
				Window: w.Name, Kind: CeilingAmount,
				Current: total, Ceiling: w.AmountCeiling,
			})
		}
		if count+1 > w.CountCeiling {
			violations = append(violations, Violation{
				Window: w.Name, Kind: CeilingCount,
				Current: float64(count), Ceiling: float64(w.CountCeiling),
			})
		}
	}

	if len(violations) > 0 {
		return &RateLimitError{Violations: violations}
	}
	return nil
}
