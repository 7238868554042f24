package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
)

// replayTimeout bounds a shared replay once it no longer follows the
// context of the caller that started it.
const replayTimeout = 30 * time.Second

// runtime glues the registry and the projector of one aggregate kind.
type runtime[S process.Aggregate[C, E], C process.Command, E process.Event] struct {
	manager   *process.Manager[S, C, E]
	projector *projection.Projector[S, E]
	replays   singleflight.Group
}

func newRuntime[S process.Aggregate[C, E], C process.Command, E process.Event](
	manager *process.Manager[S, C, E],
	projector *projection.Projector[S, E],
) *runtime[S, C, E] {
	return &runtime[S, C, E]{manager: manager, projector: projector}
}

// create spawns a never persisted aggregate and hands it its creation
// command. The actor is evicted again if the command fails.
func (r *runtime[S, C, E]) create(ctx context.Context, id string, state S, cmd C) error {
	ref, attached, err := r.manager.Spawn(id, state, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProcess, err)
	}
	if attached {
		return fmt.Errorf("%w: fresh id %s already has an actor", ErrProcess, id)
	}
	if err := r.manager.Employ(ctx, ref, cmd); err != nil {
		_ = r.manager.Evict(context.WithoutCancel(ctx), ref)
		return dispatchError(err)
	}
	return nil
}

// findOrReplay returns the live actor for id, rebuilding it from its log when
// none is live. Concurrent misses for one id share a single replay and the
// registry attaches any racer to the actor that won.
func (r *runtime[S, C, E]) findOrReplay(ctx context.Context, id string) (*process.Ref[S, C, E], error) {
	if ref, ok := r.manager.Find(id); ok {
		return ref, nil
	}

	// The replay is shared, so it runs detached from the first caller: a caller
	// giving up stops waiting without failing the others.
	replayed := r.replays.DoChan(id, func() (any, error) {
		if ref, ok := r.manager.Find(id); ok {
			return ref, nil
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replayTimeout)
		defer cancel()
		snap, err := r.projector.ReplayToLatest(ctx, id)
		if err != nil {
			return nil, err
		}
		if snap.Terminated {
			return nil, fmt.Errorf("%w: %s", process.ErrTerminated, id)
		}
		ref, _, err := r.manager.Spawn(id, snap.State, snap.Version)
		return ref, err
	})

	select {
	case res := <-replayed:
		if res.Err != nil {
			return nil, resolveError(res.Err)
		}
		return res.Val.(*process.Ref[S, C, E]), nil
	case <-ctx.Done():
		return nil, resolveError(ctx.Err())
	}
}

// dispatch resolves id and delivers cmd to its actor.
func (r *runtime[S, C, E]) dispatch(ctx context.Context, id string, cmd C) error {
	ref, err := r.findOrReplay(ctx, id)
	if err != nil {
		return err
	}
	return dispatchError(r.manager.Employ(ctx, ref, cmd))
}

// read runs fn against the live state of id or, when no actor is live,
// against a replayed copy. Terminated aggregates stay readable.
func (r *runtime[S, C, E]) read(ctx context.Context, id string, fn func(S)) error {
	if ref, ok := r.manager.Find(id); ok {
		if err := ref.Inspect(ctx, fn); err == nil {
			return nil
		}
	}
	snap, err := r.projector.ReplayToLatest(ctx, id)
	if errors.Is(err, projection.ErrEmptyHistory) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return resolveError(err)
	}
	fn(snap.State)
	return nil
}
