package behavior

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wager-platform/internal/cache"
	"wager-platform/internal/wallet"
)

const (
	sampleSize = 200
	cacheTTL   = 30 * time.Second
)

type Service struct {
	db     *sql.DB
	wallet *wallet.Service
	cache  *cache.TTLStore
	log    *zap.Logger
}

func New(db *sql.DB, w *wallet.Service, log *zap.Logger) *Service {
	return &Service{
		db:     db,
		wallet: w,
		cache:  cache.NewTTLStore(cacheTTL),
		log:    log,
	}
}

// BuildProfile returns the user's behavior profile, serving a cached copy
// when one is fresh. Staleness up to one TTL is accepted; it skews decision
// odds slightly and nothing else.
func (s *Service) BuildProfile(uid int64) (Profile, error) {
	key := cacheKey(uid)
	if v, ok := s.cache.Get(key); ok {
		return v.(Profile), nil
	}

	records, err := s.recentRecords(uid)
	if err != nil {
		return Profile{}, fmt.Errorf("load wager history: %w", err)
	}

	balance, err := s.wallet.Balance(uid)
	if err != nil && err != wallet.ErrNotFound {
		return Profile{}, err
	}

	p := computeProfile(records, balance, s.wallet.Baseline(uid))
	p.UserID = uid

	s.cache.Set(key, p)
	return p, nil
}

// Cache exposes the profile store for the periodic sweep job.
func (s *Service) Cache() *cache.TTLStore {
	return s.cache
}

// Invalidate drops the cached profile. The orchestrator calls this after
// every settlement so the next decision sees the new record.
func (s *Service) Invalidate(uid int64) {
	s.cache.Invalidate(cacheKey(uid))
}

func (s *Service) recentRecords(uid int64) ([]Record, error) {
	rows, err := s.db.Query(`
	SELECT bet_amount, win_amount, is_win, created_at
	FROM game_results
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`, uid, sampleSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var isWin int
		var ts int64
		if err := rows.Scan(&r.BetAmount, &r.WinAmount, &isWin, &ts); err != nil {
			return nil, err
		}
		r.IsWin = isWin == 1
		r.CreatedAt = time.Unix(ts, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

func cacheKey(uid int64) string {
	return fmt.Sprintf("behavior_%d", uid)
}
