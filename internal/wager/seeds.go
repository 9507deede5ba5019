package wager

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const seedRotationInterval = 24 * time.Hour

// SeedTriple is what gets written next to every wager record.
type SeedTriple struct {
	ServerSeed string
	ClientSeed string
	Nonce      int64
	ResultHash string
}

// SeedManager keeps the current server seed and a per-user nonce counter.
// Seeds and hashes only document a wager; outcome determination happens
// entirely in the decision engine.
type SeedManager struct {
	mu         sync.Mutex
	serverSeed string
	publicHash string
	rotatedAt  time.Time
	nonces     map[int64]int64
}

func NewSeedManager() *SeedManager {
	m := &SeedManager{nonces: make(map[int64]int64)}
	m.rotate()
	return m
}

func (m *SeedManager) rotate() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// An all-zero seed must never ship; entropy failure is fatal.
		panic(fmt.Sprintf("server seed entropy: %v", err))
	}
	m.serverSeed = hex.EncodeToString(buf)

	h := sha256.Sum256([]byte(m.serverSeed))
	m.publicHash = hex.EncodeToString(h[:])
	m.rotatedAt = time.Now()
}

// MaybeRotate swaps the server seed once it is older than the rotation
// interval. Nonces carry over so records stay unique per user.
func (m *SeedManager) MaybeRotate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.rotatedAt) > seedRotationInterval {
		m.rotate()
	}
}

// Next issues the seed triple for one wager and advances the user's nonce.
func (m *SeedManager) Next(uid int64, clientSeed string) SeedTriple {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clientSeed == "" {
		clientSeed = "default"
	}

	nonce := m.nonces[uid]
	m.nonces[uid]++

	h := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%d", m.serverSeed, clientSeed, nonce)))

	return SeedTriple{
		ServerSeed: m.serverSeed,
		ClientSeed: clientSeed,
		Nonce:      nonce,
		ResultHash: hex.EncodeToString(h[:]),
	}
}

// PublicHash is the sha256 of the current server seed, safe to show before
// the seed itself is revealed.
func (m *SeedManager) PublicHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicHash
}
