//go:generate go run go.uber.org/mock/mockgen -source=event_subscriber.go -destination=../mocks/mock_event_subscriber.go -package=mocks
package port

import (
	"context"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type EventSubscriber interface {
	// Subscribe delivers records published for aggregateID until cancel is
	// called or ctx is done.
	Subscribe(ctx context.Context, aggregateID string) (records <-chan domain.EventRecord, cancel func(), err error)
}
