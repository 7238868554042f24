package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rl1809/restaurant/internal/core/domain"
)

// Broker is an in-process publish-subscribe channel keyed by aggregate id.
// A subscriber whose buffer is full misses the record; Dropped counts those.
type Broker struct {
	mu      sync.RWMutex
	subs    map[string]map[chan domain.EventRecord]struct{}
	buffer  int
	dropped atomic.Int64
}

func NewBroker(buffer int) *Broker {
	return &Broker{
		subs:   make(map[string]map[chan domain.EventRecord]struct{}),
		buffer: buffer,
	}
}

func (b *Broker) Publish(ctx context.Context, rec domain.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[rec.AggregateID] {
		select {
		case ch <- rec:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, aggregateID string) (<-chan domain.EventRecord, func(), error) {
	ch := make(chan domain.EventRecord, b.buffer)

	b.mu.Lock()
	if _, ok := b.subs[aggregateID]; !ok {
		b.subs[aggregateID] = make(map[chan domain.EventRecord]struct{})
	}
	b.subs[aggregateID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	stop := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stop)
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[aggregateID], ch)
			if len(b.subs[aggregateID]) == 0 {
				delete(b.subs, aggregateID)
			}
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return ch, cancel, nil
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}
