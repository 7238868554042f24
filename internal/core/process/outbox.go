package process

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

const defaultRetryInterval = 500 * time.Millisecond

// outbox publishes committed records in log order. A record that cannot be
// published waits in its aggregate's queue, and every later record of that
// aggregate queues behind it until the relay gets the head through.
type outbox struct {
	publisher port.EventPublisher
	retry     time.Duration
	log       *slog.Logger

	mu     sync.Mutex
	queues map[string][]domain.EventRecord
}

func newOutbox(publisher port.EventPublisher, retry time.Duration, log *slog.Logger) *outbox {
	return &outbox{
		publisher: publisher,
		retry:     retry,
		log:       log,
		queues:    make(map[string][]domain.EventRecord),
	}
}

// deliver publishes rec straight away when nothing of its aggregate is
// waiting. Only the live actor of an aggregate calls deliver, so records
// arrive in seq order.
func (o *outbox) deliver(ctx context.Context, rec domain.EventRecord) {
	id := rec.AggregateID

	o.mu.Lock()
	if len(o.queues[id]) > 0 {
		o.queues[id] = append(o.queues[id], rec)
		o.mu.Unlock()
		o.log.Debug("Event queued behind unpublished events", "id", id, "seq", rec.Seq)
		return
	}
	o.mu.Unlock()

	if err := o.publisher.Publish(ctx, rec); err != nil {
		o.mu.Lock()
		o.queues[id] = append(o.queues[id], rec)
		o.mu.Unlock()
		o.log.Warn("Event stored but not published, will retry", "id", id, "seq", rec.Seq, "error", err)
	}
}

// run retries queued records until ctx is done.
func (o *outbox) run(ctx context.Context) {
	ticker := time.NewTicker(o.retry)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if n := o.pending(); n > 0 {
				o.log.Warn("Unpublished events left on stop", "count", n)
			}
			return
		case <-ticker.C:
			o.mu.Lock()
			ids := lo.Keys(o.queues)
			o.mu.Unlock()
			for _, id := range ids {
				o.flush(ctx, id)
			}
		}
	}
}

// flush publishes the queue of one aggregate head first and stops at the
// first failure. The head is removed only after it was published.
func (o *outbox) flush(ctx context.Context, id string) {
	for {
		o.mu.Lock()
		queue := o.queues[id]
		if len(queue) == 0 {
			delete(o.queues, id)
			o.mu.Unlock()
			return
		}
		rec := queue[0]
		o.mu.Unlock()

		if err := o.publisher.Publish(ctx, rec); err != nil {
			o.log.Warn("Retry publish failed", "id", id, "seq", rec.Seq, "error", err)
			return
		}

		o.mu.Lock()
		o.queues[id] = o.queues[id][1:]
		if len(o.queues[id]) == 0 {
			delete(o.queues, id)
		}
		o.mu.Unlock()
		o.log.Debug("Republished event", "id", id, "seq", rec.Seq)
	}
}

func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, queue := range o.queues {
		n += len(queue)
	}
	return n
}
