// Package process hosts live aggregates as actors. Each aggregate id owns at
// most one actor; the actor drains a mailbox so commands for one aggregate are
// handled one at a time while different aggregates run concurrently.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/port"
)

const (
	shardCount         = 32
	defaultMailboxSize = 16
)

var (
	ErrRejected   = errors.New("command rejected by aggregate")
	ErrPersist    = errors.New("event append failed")
	ErrTerminated = errors.New("aggregate terminated")
	ErrEvicted    = errors.New("actor evicted")
	ErrStopped    = errors.New("process manager stopped")
)

// Command is what an actor accepts.
type Command interface {
	CommandName() string
}

// Event is what an actor appends and publishes.
type Event interface {
	EventTag() string
}

// Aggregate is the state held by an actor. Validate must be free of side
// effects; Apply only mutates the receiver.
type Aggregate[C Command, E Event] interface {
	AggregateID() string
	Validate(cmd C) (E, error)
	Apply(evt E) domain.Directive
}

type Config struct {
	MailboxSize int

	// RetryInterval paces the relay that republishes events the publisher
	// refused after they were appended.
	RetryInterval time.Duration
}

type shard[S Aggregate[C, E], C Command, E Event] struct {
	mu   sync.RWMutex
	refs map[string]*Ref[S, C, E]
}

// Manager is the registry of live actors for one aggregate kind.
type Manager[S Aggregate[C, E], C Command, E Event] struct {
	shards  [shardCount]*shard[S, C, E]
	store   port.EventStore
	outbox  *outbox
	codec   domain.Codec[E]
	mailbox int
	log     *slog.Logger
	now     func() time.Time

	life   sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager[S Aggregate[C, E], C Command, E Event](
	store port.EventStore,
	publisher port.EventPublisher,
	codec domain.Codec[E],
	cfg Config,
	log *slog.Logger,
) *Manager[S, C, E] {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = defaultMailboxSize
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager[S, C, E]{
		store:   store,
		outbox:  newOutbox(publisher, cfg.RetryInterval, log),
		codec:   codec,
		mailbox: cfg.MailboxSize,
		log:     log,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := range m.shards {
		m.shards[i] = &shard[S, C, E]{refs: make(map[string]*Ref[S, C, E])}
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.outbox.run(ctx)
	}()
	return m
}

func (m *Manager[S, C, E]) shardFor(id string) *shard[S, C, E] {
	return m.shards[xxhash.Sum64String(id)%shardCount]
}

// Find returns the live actor for id, if any.
func (m *Manager[S, C, E]) Find(id string) (*Ref[S, C, E], bool) {
	sh := m.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ref, ok := sh.refs[id]
	return ref, ok
}

// Spawn starts an actor seeded with state at version. When an actor for id
// is already live, Spawn returns it with attached set and state is dropped.
func (m *Manager[S, C, E]) Spawn(id string, state S, version uint64) (ref *Ref[S, C, E], attached bool, err error) {
	if got := state.AggregateID(); got != id {
		return nil, false, fmt.Errorf("spawn %s: state belongs to %s", id, got)
	}

	m.life.RLock()
	defer m.life.RUnlock()
	if m.ctx.Err() != nil {
		return nil, false, ErrStopped
	}

	sh := m.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if existing, ok := sh.refs[id]; ok {
		return existing, true, nil
	}

	ref = newRef(m, id, state, version)
	sh.refs[id] = ref
	m.wg.Add(1)
	go ref.run(m.ctx)

	m.log.Debug("Spawned actor", "id", id, "version", version)
	return ref, false, nil
}

// Employ delivers cmd to the actor behind ref and waits for the outcome.
func (m *Manager[S, C, E]) Employ(ctx context.Context, ref *Ref[S, C, E], cmd C) error {
	return ref.Employ(ctx, cmd)
}

// Evict removes the actor behind ref from the registry. Evicting an actor
// that already left is not an error.
func (m *Manager[S, C, E]) Evict(ctx context.Context, ref *Ref[S, C, E]) error {
	if err := ref.evict(ctx); err != nil && !errors.Is(err, ErrEvicted) && !errors.Is(err, ErrTerminated) && !errors.Is(err, ErrStopped) {
		return err
	}
	return nil
}

// Len returns the number of live actors.
func (m *Manager[S, C, E]) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.refs)
		sh.mu.RUnlock()
	}
	return n
}

// Unpublished returns the number of appended events still waiting for the
// publisher.
func (m *Manager[S, C, E]) Unpublished() int {
	return m.outbox.pending()
}

// Stop terminates every actor and waits for their loops to return.
func (m *Manager[S, C, E]) Stop() {
	m.life.Lock()
	m.cancel()
	m.life.Unlock()
	m.wg.Wait()
}

// terminate removes ref from the registry unless another actor already
// replaced it.
func (m *Manager[S, C, E]) terminate(ref *Ref[S, C, E]) {
	sh := m.shardFor(ref.id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if current, ok := sh.refs[ref.id]; ok && current == ref {
		delete(sh.refs, ref.id)
	}
}
