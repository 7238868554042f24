//go:generate go run go.uber.org/mock/mockgen -source=event_publisher.go -destination=../mocks/mock_event_publisher.go -package=mocks
package port

import (
	"context"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type EventPublisher interface {
	// Publish emits an appended record on the channel keyed by its aggregate id.
	Publish(ctx context.Context, rec domain.EventRecord) error
}
