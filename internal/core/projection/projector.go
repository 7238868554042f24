// Package projection rebuilds aggregate state by folding its event log.
package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

const defaultPageSize = 200

var (
	ErrEmptyHistory   = errors.New("aggregate has no history")
	ErrCorruptHistory = errors.New("aggregate history is corrupt")
	// ErrForeignHistory means the log exists but was started by another
	// aggregate kind. It counts as no history for this kind.
	ErrForeignHistory = fmt.Errorf("%w: log belongs to another aggregate kind", ErrEmptyHistory)
)

// State is anything that folds events with the same transition used live.
type State[E any] interface {
	AggregateID() string
	Apply(evt E) domain.Directive
}

// Snapshot is the state reached after the last record of a log.
type Snapshot[S any] struct {
	State      S
	Version    uint64
	Terminated bool
}

type Projector[S State[E], E any] struct {
	store    port.EventStore
	codec    domain.Codec[E]
	first    func(E) (S, error)
	pageSize int
}

// NewProjector returns a projector whose first constructor consumes the
// creation event of the log.
func NewProjector[S State[E], E any](store port.EventStore, codec domain.Codec[E], first func(E) (S, error)) *Projector[S, E] {
	return &Projector[S, E]{store: store, codec: codec, first: first, pageSize: defaultPageSize}
}

// ReplayToLatest folds the whole log of id. A terminal event is only allowed
// as the last record; the snapshot then reports Terminated.
func (p *Projector[S, E]) ReplayToLatest(ctx context.Context, id string) (Snapshot[S], error) {
	var (
		snap    Snapshot[S]
		started bool
	)
	for {
		page, err := p.store.Load(ctx, id, snap.Version, p.pageSize)
		if err != nil {
			return Snapshot[S]{}, fmt.Errorf("load %s after %d: %w", id, snap.Version, err)
		}

		for _, rec := range page {
			if rec.Seq != snap.Version+1 {
				return Snapshot[S]{}, fmt.Errorf("%w: %s expected seq %d, found %d", ErrCorruptHistory, id, snap.Version+1, rec.Seq)
			}
			if snap.Terminated {
				return Snapshot[S]{}, fmt.Errorf("%w: %s has %s at seq %d after its terminal event", ErrCorruptHistory, id, rec.Tag, rec.Seq)
			}

			evt, err := p.codec.Decode(rec.Tag, rec.Payload)
			if err != nil {
				if !started && errors.Is(err, domain.ErrUnknownEvent) {
					return Snapshot[S]{}, fmt.Errorf("%w: %s starts with %s", ErrForeignHistory, id, rec.Tag)
				}
				return Snapshot[S]{}, fmt.Errorf("%w: %s seq %d: %w", ErrCorruptHistory, id, rec.Seq, err)
			}

			if !started {
				state, err := p.first(evt)
				if err != nil {
					return Snapshot[S]{}, fmt.Errorf("%w: %w", ErrCorruptHistory, err)
				}
				if got := state.AggregateID(); got != id {
					return Snapshot[S]{}, fmt.Errorf("%w: log %s was created for %s", ErrCorruptHistory, id, got)
				}
				snap.State = state
				started = true
			} else {
				if _, ok := any(evt).(domain.Genesis); ok {
					return Snapshot[S]{}, fmt.Errorf("%w: %s has creation event %s at seq %d", ErrCorruptHistory, id, rec.Tag, rec.Seq)
				}
				if snap.State.Apply(evt) == domain.Terminate {
					snap.Terminated = true
				}
			}
			snap.Version = rec.Seq
		}

		if len(page) < p.pageSize {
			break
		}
	}

	if !started {
		return Snapshot[S]{}, fmt.Errorf("%w: %s", ErrEmptyHistory, id)
	}
	return snap, nil
}
