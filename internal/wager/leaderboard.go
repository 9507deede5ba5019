package wager

import (
	"sort"
	"sync"
)

type LeaderboardEntry struct {
	UID    int64   `json:"uid"`
	Profit float64 `json:"profit"`
}

// Leaderboard is an in-memory profit ranking fed by settled wagers.
type Leaderboard struct {
	mu   sync.Mutex
	data map[int64]float64
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{data: make(map[int64]float64)}
}

func (l *Leaderboard) Record(uid int64, profit float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data[uid] += profit
}

func (l *Leaderboard) Top(n int) []LeaderboardEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]LeaderboardEntry, 0, len(l.data))
	for uid, profit := range l.data {
		entries = append(entries, LeaderboardEntry{UID: uid, Profit: profit})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Profit > entries[j].Profit
	})

	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
