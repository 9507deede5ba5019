package wallet

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("wallet not found")
)

const defaultInitialBalance = 1000

type Service struct {
	db *sql.DB
}

func New(db *sql.DB) *Service {
	return &Service{db: db}
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Ensure creates the wallet row if missing. The initial balance doubles as
// the drawdown baseline for behavior profiling.
func (s *Service) Ensure(uid int64) error {
	_, err := s.db.Exec(`
	INSERT OR IGNORE INTO wallets(uid, balance, initial_balance)
	VALUES (?, ?, ?)
	`, uid, defaultInitialBalance, defaultInitialBalance)
	return err
}

func (s *Service) Balance(uid int64) (float64, error) {
	return s.balance(s.db, uid)
}

func (s *Service) BalanceTx(tx *sql.Tx, uid int64) (float64, error) {
	return s.balance(tx, uid)
}

func (s *Service) balance(q execer, uid int64) (float64, error) {
	var b float64
	err := q.QueryRow(`SELECT balance FROM wallets WHERE uid = ?`, uid).Scan(&b)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return b, err
}

// Baseline returns the reference balance used for drawdown ratios. Missing
// wallets fall back to the fixed default.
func (s *Service) Baseline(uid int64) float64 {
	var b float64
	err := s.db.QueryRow(`SELECT initial_balance FROM wallets WHERE uid = ?`, uid).Scan(&b)
	if err != nil || b == 0 {
		return defaultInitialBalance
	}
	return b
}

// Debit withdraws funds only if the balance covers the amount; the guard
// lives in the UPDATE predicate.
func (s *Service) Debit(uid int64, amount float64) error {
	return s.debit(s.db, uid, amount)
}

func (s *Service) DebitTx(tx *sql.Tx, uid int64, amount float64) error {
	return s.debit(tx, uid, amount)
}

func (s *Service) debit(q execer, uid int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("invalid debit amount %.2f", amount)
	}

	res, err := q.Exec(`
	UPDATE wallets SET balance = balance - ?
	WHERE uid = ? AND balance >= ?
	`, amount, uid, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := s.balance(q, uid); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

func (s *Service) Credit(uid int64, amount float64) error {
	return s.credit(s.db, uid, amount)
}

func (s *Service) CreditTx(tx *sql.Tx, uid int64, amount float64) error {
	return s.credit(tx, uid, amount)
}

func (s *Service) credit(q execer, uid int64, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("invalid credit amount %.2f", amount)
	}
	if amount == 0 {
		return nil
	}

	res, err := q.Exec(`UPDATE wallets SET balance = balance + ? WHERE uid = ?`, amount, uid)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
