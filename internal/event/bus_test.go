package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	b := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var got []interface{}

	record := func(payload interface{}) {
		mu.Lock()
		got = append(got, payload)
		mu.Unlock()
		wg.Done()
	}

	b.Subscribe(EventWagerSettled, record)
	b.Subscribe(EventWagerSettled, record)
	b.Subscribe(EventWithdrawRequest, func(interface{}) {
		t.Error("unrelated event received")
	})

	b.Publish(EventWagerSettled, "payload")
	wg.Wait()

	assert.Equal(t, []interface{}{"payload", "payload"}, got)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	b := NewBus()
	done := make(chan struct{})

	b.Subscribe(EventWagerSettled, func(interface{}) {
		b.Publish(EventWagerDowngraded, nil)
	})
	b.Subscribe(EventWagerDowngraded, func(interface{}) {
		close(done)
	})

	b.Publish(EventWagerSettled, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chained publish never arrived")
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewBus()
	assert.NotPanics(t, func() {
		b.Publish(EventPoolAdjusted, nil)
	})
}
