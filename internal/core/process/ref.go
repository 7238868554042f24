package process

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type envelope[S any, C any] struct {
	ctx     context.Context
	cmd     C
	inspect func(S)
	evict   bool
	reply   chan error
}

// Ref is the handle of a live actor. A Ref stays usable after its actor
// exits; every delivery then fails with the reason the actor left.
type Ref[S Aggregate[C, E], C Command, E Event] struct {
	id      string
	manager *Manager[S, C, E]
	mailbox chan envelope[S, C]
	done    chan struct{}
	reason  error

	state   S
	version atomic.Uint64
}

func newRef[S Aggregate[C, E], C Command, E Event](m *Manager[S, C, E], id string, state S, version uint64) *Ref[S, C, E] {
	ref := &Ref[S, C, E]{
		id:      id,
		manager: m,
		mailbox: make(chan envelope[S, C], m.mailbox),
		done:    make(chan struct{}),
		state:   state,
	}
	ref.version.Store(version)
	return ref
}

func (r *Ref[S, C, E]) ID() string { return r.id }

// Version is the sequence number of the last event applied by the actor.
func (r *Ref[S, C, E]) Version() uint64 { return r.version.Load() }

// Done is closed once the actor has left the registry.
func (r *Ref[S, C, E]) Done() <-chan struct{} { return r.done }

// Employ queues cmd behind any command already delivered to this actor and
// returns once it has been handled.
func (r *Ref[S, C, E]) Employ(ctx context.Context, cmd C) error {
	env := envelope[S, C]{ctx: ctx, cmd: cmd, reply: make(chan error, 1)}
	if err := r.send(ctx, env); err != nil {
		return err
	}
	return r.await(ctx, env.reply)
}

// Inspect runs fn against the actor state inside the actor loop. fn must not
// retain the state.
func (r *Ref[S, C, E]) Inspect(ctx context.Context, fn func(S)) error {
	env := envelope[S, C]{ctx: ctx, inspect: fn, reply: make(chan error, 1)}
	if err := r.send(ctx, env); err != nil {
		return err
	}
	return r.await(ctx, env.reply)
}

// evict asks the actor to leave the registry once earlier deliveries are
// handled.
func (r *Ref[S, C, E]) evict(ctx context.Context) error {
	env := envelope[S, C]{ctx: ctx, evict: true, reply: make(chan error, 1)}
	if err := r.send(ctx, env); err != nil {
		return err
	}
	return r.await(ctx, env.reply)
}

func (r *Ref[S, C, E]) send(ctx context.Context, env envelope[S, C]) error {
	select {
	case <-r.done:
		return r.reason
	default:
	}
	select {
	case r.mailbox <- env:
		return nil
	case <-r.done:
		return r.reason
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Ref[S, C, E]) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-r.done:
		select {
		case err := <-reply:
			return err
		default:
			return r.reason
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Ref[S, C, E]) run(ctx context.Context) {
	defer r.manager.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.exit(ErrStopped, nil)
			return
		case env := <-r.mailbox:
			if env.evict {
				r.exit(ErrEvicted, func() { env.reply <- nil })
				return
			}
			if env.inspect != nil {
				env.inspect(r.state)
				env.reply <- nil
				continue
			}
			if err := env.ctx.Err(); err != nil {
				env.reply <- err
				continue
			}
			reason, err := r.handle(env.ctx, env.cmd)
			if reason != nil {
				r.exit(reason, func() { env.reply <- err })
				return
			}
			env.reply <- err
		}
	}
}

// exit removes the actor from the registry, delivers the last reply and
// only then closes done so the reply wins over the exit reason.
func (r *Ref[S, C, E]) exit(reason error, lastReply func()) {
	r.manager.terminate(r)
	r.reason = reason
	if lastReply != nil {
		lastReply()
	}
	close(r.done)
	r.manager.log.Debug("Actor left registry", "id", r.id, "version", r.Version(), "reason", reason)
}

// handle runs validate-then-apply for one command. A non-nil reason means
// the actor must leave the registry once the reply is sent.
func (r *Ref[S, C, E]) handle(ctx context.Context, cmd C) (reason error, err error) {
	m := r.manager
	log := m.log.With("id", r.id, "command", cmd.CommandName())

	evt, err := r.state.Validate(cmd)
	if err != nil {
		log.Debug("Rejected command", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	tag, payload, err := m.codec.Encode(evt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	rec := domain.EventRecord{
		AggregateID: r.id,
		Seq:         r.Version() + 1,
		Tag:         tag,
		Payload:     payload,
		RecordedAt:  m.now().UTC(),
	}

	if err := m.store.Append(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			// The log moved without this actor; its state is stale.
			log.Warn("Event log ahead of actor", "seq", rec.Seq)
			return ErrEvicted, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	// The append is the commit point; publishing never undoes it.
	directive := r.state.Apply(evt)
	r.version.Store(rec.Seq)
	log.Debug("Applied event", "tag", tag, "seq", rec.Seq)

	m.outbox.deliver(ctx, rec)

	if directive == domain.Terminate {
		return ErrTerminated, nil
	}
	return nil, nil
}
