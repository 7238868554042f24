package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rl1809/restaurant/internal/core/domain"
)

// MemoryEventStore is a process-local event log.
type MemoryEventStore struct {
	mu   sync.RWMutex
	logs map[string][]domain.EventRecord
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{logs: make(map[string][]domain.EventRecord)}
}

func (m *MemoryEventStore) Append(ctx context.Context, rec domain.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	last := uint64(len(m.logs[rec.AggregateID]))
	if rec.Seq != last+1 {
		return fmt.Errorf("%w: %s appending %d after %d", domain.ErrVersionConflict, rec.AggregateID, rec.Seq, last)
	}
	rec.Payload = bytes.Clone(rec.Payload)
	m.logs[rec.AggregateID] = append(m.logs[rec.AggregateID], rec)
	return nil
}

func (m *MemoryEventStore) Load(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.logs[aggregateID]
	if afterSeq >= uint64(len(log)) {
		return nil, nil
	}
	page := log[afterSeq:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	out := make([]domain.EventRecord, len(page))
	for i, rec := range page {
		rec.Payload = bytes.Clone(rec.Payload)
		out[i] = rec
	}
	return out, nil
}

// Len returns the number of records stored for aggregateID.
func (m *MemoryEventStore) Len(aggregateID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[aggregateID])
}
