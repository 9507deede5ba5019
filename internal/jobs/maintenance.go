package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wager-platform/internal/ledger"
	"wager-platform/internal/monitoring"
)

// SeedRotation periodically asks the seed manager to rotate if the current
// server seed is old enough.
type SeedRotation struct {
	Seeds    interface{ MaybeRotate() }
	Interval time.Duration
}

func (j *SeedRotation) Start(ctx context.Context) {
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Seeds.MaybeRotate()
		}
	}
}

// PoolHealthWatch samples every pool, keeps the balance gauge current, and
// logs health transitions.
type PoolHealthWatch struct {
	Ledger   *ledger.Service
	Interval time.Duration
	Log      *zap.Logger

	last map[string]string
}

func (j *PoolHealthWatch) Start(ctx context.Context) {
	j.last = make(map[string]string)

	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.sample()
		}
	}
}

func (j *PoolHealthWatch) sample() {
	for _, name := range []string{ledger.MainPool, ledger.JackpotPool, ledger.TournamentPool} {
		pool, err := j.Ledger.GetOrCreate(name)
		if err != nil {
			j.Log.Error("pool health sample failed", zap.String("pool", name), zap.Error(err))
			continue
		}

		monitoring.PoolBalance.WithLabelValues(name).Set(pool.CurrentBalance)

		health := ledger.Health(pool)
		if prev, ok := j.last[name]; ok && prev != health {
			j.Log.Warn("pool health changed",
				zap.String("pool", name),
				zap.String("from", prev),
				zap.String("to", health),
				zap.Float64("balance", pool.CurrentBalance))
		}
		j.last[name] = health
	}
}

// CacheSweep evicts expired profile cache entries so memory tracks the
// active user set rather than everyone ever seen.
type CacheSweep struct {
	Store    interface{ Sweep() }
	Interval time.Duration
}

func (j *CacheSweep) Start(ctx context.Context) {
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Store.Sweep()
		}
	}
}
