package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Defaults applied when a pool is created lazily on first reference.
type PoolDefaults struct {
	StartingBalance  float64
	ContributionRate float64
	MinimumBalance   float64
	MaximumPayout    float64
}

type Service struct {
	db       *sql.DB
	defaults PoolDefaults
	log      *zap.Logger
}

func New(db *sql.DB, defaults PoolDefaults, log *zap.Logger) *Service {
	return &Service{db: db, defaults: defaults, log: log}
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// GetOrCreate returns the named pool, creating it with the configured
// defaults if it does not exist yet. Creation is idempotent.
func (s *Service) GetOrCreate(name string) (*Pool, error) {
	return s.getOrCreate(s.db, name)
}

func (s *Service) GetOrCreateTx(tx *sql.Tx, name string) (*Pool, error) {
	return s.getOrCreate(tx, name)
}

func (s *Service) getOrCreate(q execer, name string) (*Pool, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}

	_, err := q.Exec(`
	INSERT OR IGNORE INTO pools
		(name, current_balance, contribution_rate, minimum_balance, maximum_payout, status, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, name, s.defaults.StartingBalance, s.defaults.ContributionRate,
		s.defaults.MinimumBalance, s.defaults.MaximumPayout, StatusActive, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return s.get(q, name)
}

func (s *Service) get(q execer, name string) (*Pool, error) {
	var p Pool
	err := q.QueryRow(`
	SELECT name, current_balance, total_contributions, total_payouts,
	       contribution_rate, minimum_balance, maximum_payout, status, updated_at
	FROM pools WHERE name = ?
	`, name).Scan(&p.Name, &p.CurrentBalance, &p.TotalContributions, &p.TotalPayouts,
		&p.ContributionRate, &p.MinimumBalance, &p.MaximumPayout, &p.Status, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Contribute adds to the pool balance and contribution total in one write.
func (s *Service) Contribute(name string, amount float64) error {
	return s.contribute(s.db, name, amount)
}

func (s *Service) ContributeTx(tx *sql.Tx, name string, amount float64) error {
	return s.contribute(tx, name, amount)
}

func (s *Service) contribute(q execer, name string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative contribution %.2f", amount)
	}
	if amount == 0 {
		return nil
	}

	res, err := q.Exec(`
	UPDATE pools SET
		current_balance = current_balance + ?,
		total_contributions = total_contributions + ?,
		updated_at = ?
	WHERE name = ?
	`, amount, amount, time.Now().Unix(), name)
	if err != nil {
		return fmt.Errorf("contribute: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	return nil
}

// Payout debits the pool only if the balance covers the amount. The guard is
// part of the UPDATE predicate, never a prior read, so two racing payouts
// cannot both see a stale balance and overdraw.
func (s *Service) Payout(name string, amount float64) error {
	return s.payout(s.db, name, amount)
}

func (s *Service) PayoutTx(tx *sql.Tx, name string, amount float64) error {
	return s.payout(tx, name, amount)
}

func (s *Service) payout(q execer, name string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative payout %.2f", amount)
	}
	if amount == 0 {
		return nil
	}

	res, err := q.Exec(`
	UPDATE pools SET
		current_balance = current_balance - ?,
		total_payouts = total_payouts + ?,
		updated_at = ?
	WHERE name = ? AND current_balance >= ?
	`, amount, amount, time.Now().Unix(), name, amount)
	if err != nil {
		return fmt.Errorf("payout: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	pool, err := s.get(q, name)
	if err != nil {
		return err
	}
	return &InsufficientReserveError{
		Pool:      name,
		Requested: amount,
		Balance:   pool.CurrentBalance,
	}
}

// Stats lists every pool with its running totals, mostly for the admin
// dashboard and the health watcher.
func (s *Service) Stats() ([]Pool, error) {
	rows, err := s.db.Query(`
	SELECT name, current_balance, total_contributions, total_payouts,
	       contribution_rate, minimum_balance, maximum_payout, status, updated_at
	FROM pools ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []Pool
	for rows.Next() {
		var p Pool
		if err := rows.Scan(&p.Name, &p.CurrentBalance, &p.TotalContributions,
			&p.TotalPayouts, &p.ContributionRate, &p.MinimumBalance,
			&p.MaximumPayout, &p.Status, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// Adjust applies an unconditional balance correction. Admin-only; callers
// must audit every invocation.
func (s *Service) Adjust(name string, delta float64, reason string) (*Pool, error) {
	res, err := s.db.Exec(`
	UPDATE pools SET current_balance = current_balance + ?, updated_at = ?
	WHERE name = ?
	`, delta, time.Now().Unix(), name)
	if err != nil {
		return nil, fmt.Errorf("adjust: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}

	pool, err := s.get(s.db, name)
	if err != nil {
		return nil, err
	}

	s.log.Info("pool adjusted",
		zap.String("pool", name),
		zap.Float64("delta", delta),
		zap.String("reason", reason),
		zap.Float64("balance", pool.CurrentBalance))

	return pool, nil
}

// Health classifies the balance against the pool's minimum. No side effects.
func Health(p *Pool) string {
	switch {
	case p.CurrentBalance < p.MinimumBalance:
		return HealthCritical
	case p.CurrentBalance < 10*p.MinimumBalance:
		return HealthLow
	default:
		return HealthHealthy
	}
}
