package event

import "sync"

type Handler func(payload interface{})

// Bus fans settlement and admin events out to registered consumers. Delivery
// is asynchronous and best-effort: a slow consumer never blocks the wager
// path, and ordering across events is not guaranteed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe adds a consumer for one event name. All registration happens at
// startup; there is no unsubscribe.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish dispatches to a snapshot of the current consumers. The snapshot is
// taken under the read lock but handlers run outside it, so a handler may
// itself publish without deadlocking.
func (b *Bus) Publish(name string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[name]))
	copy(hs, b.handlers[name])
	b.mu.RUnlock()

	for _, h := range hs {
		go h(payload)
	}
}
