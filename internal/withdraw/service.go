package withdraw

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wager-platform/internal/audit"
	"wager-platform/internal/event"
	"wager-platform/internal/monitoring"
	"wager-platform/internal/wallet"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	ErrNotFound       = errors.New("withdrawal not found")
	ErrInvalidAmount  = errors.New("invalid withdrawal amount")
	ErrPendingExists  = errors.New("a pending withdrawal already exists")
	ErrBadTransition  = errors.New("invalid status transition")
	ErrAlreadySettled = errors.New("withdrawal already settled")
)

type Withdrawal struct {
	ID            string  `json:"id"`
	UID           int64   `json:"uid"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	AccountNumber string  `json:"account_number"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	ProcessedAt   int64   `json:"processed_at,omitempty"`
}

type Service struct {
	db     *sql.DB
	wallet *wallet.Service
	audit  *audit.Service
	bus    *event.Bus
	log    *zap.Logger
}

func New(db *sql.DB, w *wallet.Service, a *audit.Service, bus *event.Bus, log *zap.Logger) *Service {
	return &Service{db: db, wallet: w, audit: a, bus: bus, log: log}
}

// Request debits the wallet, validates the rolling windows, and creates the
// pending entry, all in one transaction. A limit violation rolls the debit
// back, so the wallet is untouched on any failure path.
func (s *Service) Request(uid int64, amount float64, method, accountNumber string) (*Withdrawal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}

	// Same lazy provisioning as the wager path, so a brand-new user gets a
	// real insufficient-funds answer instead of a missing-wallet one.
	if err := s.wallet.Ensure(uid); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var pending int
	err = tx.QueryRow(`
	SELECT COUNT(*) FROM withdrawals
	WHERE uid = ? AND status IN (?, ?)
	`, uid, StatusPending, StatusApproved).Scan(&pending)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrPendingExists
	}

	if err := s.wallet.DebitTx(tx, uid, amount); err != nil {
		return nil, err
	}

	if err := validate(tx, uid, amount, time.Now()); err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) {
			for _, v := range rle.Violations {
				monitoring.WithdrawalRejections.WithLabelValues(v.Window).Inc()
			}
			s.bus.Publish(event.EventWithdrawReject, rle)
		}
		return nil, err
	}

	w := &Withdrawal{
		ID:            uuid.NewString(),
		UID:           uid,
		Amount:        amount,
		Method:        method,
		AccountNumber: accountNumber,
		Status:        StatusPending,
		CreatedAt:     time.Now().Unix(),
	}

	_, err = tx.Exec(`
	INSERT INTO withdrawals (id, uid, amount, method, account_number, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.UID, w.Amount, w.Method, w.AccountNumber, w.Status, w.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(uid, "withdraw_request",
		fmt.Sprintf("id=%s amount=%.2f method=%s", w.ID, w.Amount, w.Method))
	s.bus.Publish(event.EventWithdrawRequest, w)
	return w, nil
}

// Approve moves a pending entry forward. Money already left the wallet at
// request time, so this is a pure status transition.
func (s *Service) Approve(id string) error {
	return s.transition(id, StatusApproved, "", StatusPending)
}

// Complete marks an approved entry paid out.
func (s *Service) Complete(id string) error {
	return s.transition(id, StatusCompleted, "", StatusApproved)
}

// Reject refunds the debit and closes the entry. The status flip is the
// guard: a second reject finds no pending or approved row and refunds
// nothing, so retrying after a partial failure is safe.
func (s *Service) Reject(id string, reason string) error {
	return s.refundTransition(id, StatusRejected, reason)
}

// Fail marks an approved entry as failed at the payment processor and
// refunds it, with the same idempotency guard as Reject.
func (s *Service) Fail(id string, reason string) error {
	return s.refundTransition(id, StatusFailed, reason)
}

func (s *Service) transition(id, to, reason string, from ...string) error {
	res, err := s.db.Exec(`
	UPDATE withdrawals SET status = ?, reason = ?, processed_at = ?
	WHERE id = ? AND status IN (`+placeholders(len(from))+`)
	`, append([]interface{}{to, reason, time.Now().Unix(), id}, toArgs(from)...)...)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return s.transitionFailure(id)
	}

	var uid int64
	if err := s.db.QueryRow(`SELECT uid FROM withdrawals WHERE id = ?`, id).Scan(&uid); err != nil {
		return err
	}

	s.audit.Log(uid, "withdraw_"+to, fmt.Sprintf("id=%s reason=%s", id, reason))
	return nil
}

func (s *Service) refundTransition(id, to, reason string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	UPDATE withdrawals SET status = ?, reason = ?, processed_at = ?
	WHERE id = ? AND status IN (?, ?)
	`, to, reason, time.Now().Unix(), id, StatusPending, StatusApproved)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return s.transitionFailure(id)
	}

	var uid int64
	var amount float64
	err = tx.QueryRow(`SELECT uid, amount FROM withdrawals WHERE id = ?`, id).Scan(&uid, &amount)
	if err != nil {
		return err
	}

	if err := s.wallet.CreditTx(tx, uid, amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.audit.Log(uid, "withdraw_"+to,
		fmt.Sprintf("id=%s amount=%.2f refunded reason=%s", id, amount, reason))
	s.log.Info("withdrawal refunded",
		zap.String("id", id), zap.Int64("uid", uid),
		zap.Float64("amount", amount), zap.String("status", to))
	return nil
}

func (s *Service) transitionFailure(id string) error {
	var status string
	err := s.db.QueryRow(`SELECT status FROM withdrawals WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	switch status {
	case StatusRejected, StatusCompleted, StatusFailed:
		return fmt.Errorf("%w: %s is %s", ErrAlreadySettled, id, status)
	}
	return fmt.Errorf("%w: %s is %s", ErrBadTransition, id, status)
}

func (s *Service) Get(id string) (*Withdrawal, error) {
	var w Withdrawal
	var processed sql.NullInt64
	err := s.db.QueryRow(`
	SELECT id, uid, amount, method, account_number, status,
	       COALESCE(reason, ''), created_at, processed_at
	FROM withdrawals WHERE id = ?
	`, id).Scan(&w.ID, &w.UID, &w.Amount, &w.Method, &w.AccountNumber,
		&w.Status, &w.Reason, &w.CreatedAt, &processed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	w.ProcessedAt = processed.Int64
	return &w, nil
}

// History lists the user's withdrawals over the trailing number of days,
// newest first.
func (s *Service) History(uid int64, days int) ([]Withdrawal, error) {
	since := time.Now().AddDate(0, 0, -days).Unix()

	rows, err := s.db.Query(`
	SELECT id, uid, amount, method, account_number, status,
	       COALESCE(reason, ''), created_at, processed_at
	FROM withdrawals
	WHERE uid = ? AND created_at >= ?
	ORDER BY created_at DESC
	`, uid, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Withdrawal
	for rows.Next() {
		var w Withdrawal
		var processed sql.NullInt64
		if err := rows.Scan(&w.ID, &w.UID, &w.Amount, &w.Method, &w.AccountNumber,
			&w.Status, &w.Reason, &w.CreatedAt, &processed); err != nil {
			return nil, err
		}
		w.ProcessedAt = processed.Int64
		out = append(out, w)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}

func toArgs(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
