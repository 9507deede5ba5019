package decision

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestConfigStore_Apply(t *testing.T) {
	store, err := NewConfigStore(DefaultConfig())
	require.NoError(t, err)

	cfg, err := store.Apply(Patch{DailyWinCap: f(2500), MaxConsecutiveWins: i(5)})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cfg.DailyWinCap)
	assert.Equal(t, 5, cfg.MaxConsecutiveWins)

	// Untouched fields keep their values.
	assert.Equal(t, 0.65, cfg.TargetWinRatio)
	assert.Equal(t, cfg, store.Current())
}

func TestConfigStore_RejectsInvalidPatch(t *testing.T) {
	store, err := NewConfigStore(DefaultConfig())
	require.NoError(t, err)
	before := store.Current()

	_, err = store.Apply(Patch{TargetWinRatio: f(1.7)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = store.Apply(Patch{DailyWinCap: f(-10)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = store.Apply(Patch{MaxConsecutiveWins: i(0)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = store.Apply(Patch{AdminWinRate: f(-0.1)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, before, store.Current(), "failed patch leaves the snapshot untouched")
}

func TestNewConfigStore_ValidatesInitial(t *testing.T) {
	bad := DefaultConfig()
	bad.DailyWinCap = 0

	_, err := NewConfigStore(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigStore_ConcurrentReadsAndPatches(t *testing.T) {
	store, err := NewConfigStore(DefaultConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			store.Apply(Patch{DailyWinCap: f(1000 + v)})
		}(float64(n))
		go func() {
			defer wg.Done()
			cfg := store.Current()
			// Every observed snapshot is internally valid.
			assert.NoError(t, cfg.validate())
		}()
	}
	wg.Wait()
}
