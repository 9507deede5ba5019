package decision

import (
	"database/sql"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wager-platform/internal/behavior"
	"wager-platform/internal/db"
	"wager-platform/internal/ledger"
)

func testEngine(t *testing.T, cfg Config) (*Engine, *sql.DB) {
	t.Helper()

	database, err := db.Init(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store, err := NewConfigStore(cfg)
	require.NoError(t, err)

	return NewEngine(store, NewEvaluator(database), zap.NewNop()), database
}

func testPool() *ledger.Pool {
	return &ledger.Pool{
		Name:           ledger.MainPool,
		CurrentBalance: 5000,
		MaximumPayout:  10000,
	}
}

func insertResult(t *testing.T, database *sql.DB, uid int64, win float64, isWin bool, at time.Time) {
	t.Helper()

	w := 0
	if isWin {
		w = 1
	}
	_, err := database.Exec(`
	INSERT INTO game_results
		(user_id, game_type, bet_amount, win_amount, is_win, pattern,
		 server_seed, client_seed, nonce, result_hash, created_at)
	VALUES (?, 'dice', 100, ?, ?, '', 's', 'c', 0, 'h', ?)
	`, uid, win, w, at.Unix())
	require.NoError(t, err)
}

// New user, five spins, bet 100: pattern new_user, base 150, jitter keeps
// the amount in [120,180], well inside the bet*5 ceiling.
func TestDecide_NewUserWinBounds(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())

	src := rand.New(rand.NewSource(1))
	e.SetRandFunc(src.Float64)

	p := behavior.Profile{UserID: 1, TotalSpins: 5}

	for i := 0; i < 50; i++ {
		out, err := e.Decide(p, 100, false, testPool())
		require.NoError(t, err)

		assert.True(t, out.Win)
		assert.Equal(t, PatternNewUser, out.Pattern)
		assert.GreaterOrEqual(t, out.Amount, 120.0)
		assert.LessOrEqual(t, out.Amount, 180.0)
		assert.LessOrEqual(t, out.Amount, 500.0)
	}
}

func TestDecide_WithoutRandomness_ExactAmount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRandomness = false
	e, _ := testEngine(t, cfg)

	out, err := e.Decide(behavior.Profile{UserID: 1, TotalSpins: 5}, 100, false, testPool())
	require.NoError(t, err)
	assert.Equal(t, 150.0, out.Amount)
}

// A 12-loss drought forces a win even when the trailing win ratio is
// already above target.
func TestDecide_DroughtBreakerSkipsRatioGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRandomness = false
	e, database := testEngine(t, cfg)

	// newest first: L W W W. Weekly ratio 0.75 (> 0.65 target), but the
	// last three outcomes are not all wins and no win reaches the big-win
	// threshold.
	now := time.Now()
	insertResult(t, database, 1, 0, false, now.Add(-1*time.Minute))
	insertResult(t, database, 1, 50, true, now.Add(-2*time.Minute))
	insertResult(t, database, 1, 50, true, now.Add(-3*time.Minute))
	insertResult(t, database, 1, 50, true, now.Add(-4*time.Minute))

	// The ratio gate does veto an ordinary pattern win.
	plain := behavior.Profile{UserID: 1, TotalSpins: 5}
	out, err := e.Decide(plain, 100, false, testPool())
	require.NoError(t, err)
	assert.False(t, out.Win)
	assert.Equal(t, GateTargetWinRatio, out.DeniedBy)

	// The drought breaker does not.
	drought := behavior.Profile{UserID: 1, TotalSpins: 40, CurrentLossStreak: 12}
	out, err = e.Decide(drought, 100, false, testPool())
	require.NoError(t, err)
	assert.True(t, out.Win)
	assert.Equal(t, PatternDroughtBreaker, out.Pattern)
	assert.Equal(t, 250.0, out.Amount)
}

func TestDecide_DefaultPatternLoses(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig())

	out, err := e.Decide(behavior.Profile{UserID: 1, TotalSpins: 50}, 100, false, testPool())
	require.NoError(t, err)
	assert.False(t, out.Win)
	assert.Equal(t, PatternDefault, out.Pattern)
	assert.Equal(t, 0.0, out.Amount)
}

func TestDecide_ClampsToPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRandomness = false
	e, _ := testEngine(t, cfg)

	pool := testPool()
	pool.CurrentBalance = 90

	out, err := e.Decide(behavior.Profile{UserID: 1, TotalSpins: 5}, 100, false, pool)
	require.NoError(t, err)
	assert.True(t, out.Win)
	assert.Equal(t, 90.0, out.Amount)
}

func TestDecide_AdminShortCircuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableAdminWins = true
	cfg.AdminWinRate = 1.0
	cfg.EnableRandomness = false
	e, database := testEngine(t, cfg)

	// Gates would deny: daily total far above the cap. Admin bypasses them.
	now := time.Now()
	insertResult(t, database, 1, 5000, true, now.Add(-time.Minute))

	out, err := e.Decide(behavior.Profile{UserID: 1, TotalSpins: 50}, 100, true, testPool())
	require.NoError(t, err)
	assert.True(t, out.Win)
	assert.Equal(t, PatternAdmin, out.Pattern)
	assert.Equal(t, 200.0, out.Amount)

	cfg2 := cfg
	cfg2.AdminWinRate = 0
	e2, _ := testEngine(t, cfg2)
	out, err = e2.Decide(behavior.Profile{UserID: 1, TotalSpins: 50}, 100, true, testPool())
	require.NoError(t, err)
	assert.False(t, out.Win)
}

func TestDecide_AdminFlagWithoutToggleUsesRules(t *testing.T) {
	e, _ := testEngine(t, DefaultConfig()) // EnableAdminWins false

	out, err := e.Decide(behavior.Profile{UserID: 1, TotalSpins: 50}, 100, true, testPool())
	require.NoError(t, err)
	assert.Equal(t, PatternDefault, out.Pattern)
}
