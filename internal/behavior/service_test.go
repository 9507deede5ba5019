package behavior

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wager-platform/internal/db"
	"wager-platform/internal/wallet"
)

func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	database, err := db.Init(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	w := wallet.New(database)
	return New(database, w, zap.NewNop()), database
}

func insertResult(t *testing.T, database *sql.DB, uid int64, bet, win float64, at time.Time) {
	t.Helper()

	isWin := 0
	if win > 0 {
		isWin = 1
	}
	_, err := database.Exec(`
	INSERT INTO game_results
		(user_id, game_type, bet_amount, win_amount, is_win, pattern,
		 server_seed, client_seed, nonce, result_hash, created_at)
	VALUES (?, 'dice', ?, ?, ?, '', 's', 'c', 0, 'h', ?)
	`, uid, bet, win, isWin, at.Unix())
	require.NoError(t, err)
}

func TestBuildProfile_FromStorage(t *testing.T) {
	s, database := testService(t)
	require.NoError(t, s.wallet.Ensure(1))

	now := time.Now()
	insertResult(t, database, 1, 100, 0, now.Add(-3*time.Minute))
	insertResult(t, database, 1, 100, 150, now.Add(-2*time.Minute))
	insertResult(t, database, 1, 100, 0, now.Add(-1*time.Minute))

	p, err := s.BuildProfile(1)
	require.NoError(t, err)

	assert.Equal(t, 3, p.TotalSpins)
	assert.Equal(t, 1, p.CurrentLossStreak)
	assert.InDelta(t, 1.0/3.0, p.WinRate, 1e-9)
	assert.Equal(t, 1000.0, p.CurrentBalance)
}

func TestBuildProfile_CachedUntilInvalidated(t *testing.T) {
	s, database := testService(t)
	require.NoError(t, s.wallet.Ensure(1))

	now := time.Now()
	insertResult(t, database, 1, 100, 0, now.Add(-2*time.Minute))

	p, err := s.BuildProfile(1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalSpins)

	// New record is invisible while the cache entry is fresh.
	insertResult(t, database, 1, 100, 150, now.Add(-1*time.Minute))
	p, err = s.BuildProfile(1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalSpins)

	s.Invalidate(1)
	p, err = s.BuildProfile(1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalSpins)
	assert.Equal(t, 1, p.CurrentWinStreak)
}

func TestBuildProfile_NoWallet(t *testing.T) {
	s, _ := testService(t)

	p, err := s.BuildProfile(42)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalSpins)
	assert.Equal(t, 0.0, p.CurrentBalance)
}
