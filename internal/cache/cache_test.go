package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLStore_SetGet(t *testing.T) {
	s := NewTTLStore(time.Minute)

	s.Set("a", 42)

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestTTLStore_Expiry(t *testing.T) {
	s := NewTTLStore(10 * time.Millisecond)

	s.Set("a", "x")
	time.Sleep(20 * time.Millisecond)

	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Sweep()
	assert.Equal(t, 0, s.Len())
}

func TestTTLStore_Invalidate(t *testing.T) {
	s := NewTTLStore(time.Minute)

	s.Set("a", 1)
	s.Invalidate("a")

	_, ok := s.Get("a")
	assert.False(t, ok)
}
