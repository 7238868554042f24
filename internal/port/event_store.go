//go:generate go run go.uber.org/mock/mockgen -source=event_store.go -destination=../mocks/mock_event_store.go -package=mocks
package port

import (
	"context"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type EventStore interface {
	// Append stores rec at the end of its aggregate's log. rec.Seq must be
	// exactly one past the last stored sequence, otherwise
	// domain.ErrVersionConflict is returned and nothing is written.
	Append(ctx context.Context, rec domain.EventRecord) error

	// Load returns up to limit records of an aggregate with Seq > afterSeq,
	// in ascending sequence order.
	Load(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]domain.EventRecord, error)
}
