package db

import (
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS pools (
		name TEXT PRIMARY KEY,
		current_balance REAL NOT NULL DEFAULT 0,
		total_contributions REAL NOT NULL DEFAULT 0,
		total_payouts REAL NOT NULL DEFAULT 0,
		contribution_rate REAL NOT NULL DEFAULT 0.05,
		minimum_balance REAL NOT NULL DEFAULT 100,
		maximum_payout REAL NOT NULL DEFAULT 10000,
		status TEXT NOT NULL DEFAULT 'active',
		updated_at INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS game_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		game_type TEXT NOT NULL,
		bet_amount REAL NOT NULL,
		win_amount REAL NOT NULL DEFAULT 0,
		is_win INTEGER NOT NULL DEFAULT 0,
		pattern TEXT NOT NULL DEFAULT '',
		server_seed TEXT NOT NULL,
		client_seed TEXT NOT NULL,
		nonce INTEGER NOT NULL,
		result_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_results_user ON game_results(user_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS wallets (
		uid INTEGER PRIMARY KEY,
		balance REAL NOT NULL DEFAULT 0,
		initial_balance REAL NOT NULL DEFAULT 1000
	);`,

	`CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		uid INTEGER NOT NULL,
		amount REAL NOT NULL,
		method TEXT NOT NULL,
		account_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		processed_at INTEGER
	);`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals(uid, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid INTEGER NOT NULL,
		action TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);`,
}

func Migrate(db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
