package projection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rl1809/restaurant/internal/adapter/storage"
	"github.com/rl1809/restaurant/internal/adapter/stream"
	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/mocks"
)

func orderProjector(store *storage.MemoryEventStore) *Projector[*domain.Order, domain.OrderEvent] {
	return NewProjector[*domain.Order, domain.OrderEvent](store, domain.OrderCodec{}, domain.OrderFromHistory)
}

func appendOrderEvents(t *testing.T, store *storage.MemoryEventStore, id domain.OrderID, events ...domain.OrderEvent) {
	t.Helper()
	ctx := context.Background()
	base := uint64(store.Len(id.String()))
	for i, evt := range events {
		tag, payload, err := domain.OrderCodec{}.Encode(evt)
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, domain.EventRecord{
			AggregateID: id.String(),
			Seq:         base + uint64(i) + 1,
			Tag:         tag,
			Payload:     payload,
		}))
	}
}

func TestReplayToLatest_MatchesLiveState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := process.NewManager[*domain.Order, domain.OrderCommand, domain.OrderEvent](
		store, stream.NewBroker(8), domain.OrderCodec{}, process.Config{}, log)
	defer manager.Stop()

	id := domain.NewOrderID()
	table := domain.NewTableID()
	state, err := domain.NewOrder(id, domain.CreateOrder{Table: table})
	require.NoError(t, err)
	ref, _, err := manager.Spawn(id.String(), state, 0)
	require.NoError(t, err)

	p1, p2 := domain.NewProductID(), domain.NewProductID()
	commands := []domain.OrderCommand{
		domain.CreateOrder{Table: table},
		domain.AddProducts{Products: map[domain.ProductID]domain.Quantity{p1: 2}},
		domain.AddProducts{Products: map[domain.ProductID]domain.Quantity{p2: 1, p1: -1}},
	}
	for _, cmd := range commands {
		require.NoError(t, manager.Employ(ctx, ref, cmd))
	}

	var live domain.OrderView
	require.NoError(t, ref.Inspect(ctx, func(o *domain.Order) { live = o.View() }))

	snap, err := orderProjector(store).ReplayToLatest(ctx, id.String())
	require.NoError(t, err)
	require.Equal(t, live, snap.State.View())
	require.Equal(t, ref.Version(), snap.Version)
	require.False(t, snap.Terminated)
}

func TestReplayToLatest_TableMatchesLiveState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()

	id := domain.NewTableID()
	live, err := domain.NewTable(id, domain.RegisterTable{Name: "Patio"})
	require.NoError(t, err)

	for seq, cmd := range []domain.TableCommand{
		domain.RegisterTable{Name: "Patio"},
		domain.RenameTable{Name: "Terrace"},
		domain.RenameTable{Name: ""},
	} {
		evt, err := live.Validate(cmd)
		require.NoError(t, err)
		tag, payload, err := domain.TableCodec{}.Encode(evt)
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, domain.EventRecord{AggregateID: id.String(), Seq: uint64(seq + 1), Tag: tag, Payload: payload}))
		live.Apply(evt)
	}

	projector := NewProjector[*domain.Table, domain.TableEvent](store, domain.TableCodec{}, domain.TableFromHistory)
	snap, err := projector.ReplayToLatest(ctx, id.String())
	require.NoError(t, err)
	require.Equal(t, live.View(), snap.State.View())
	require.Equal(t, uint64(3), snap.Version)
}

func TestReplayToLatest_ReadsPastOnePage(t *testing.T) {
	store := storage.NewMemoryEventStore()
	id := domain.NewOrderID()

	events := []domain.OrderEvent{domain.OrderCreated{ID: id, Table: domain.NewTableID()}}
	for range 2*defaultPageSize + 10 {
		events = append(events, domain.ProductsAdded{ID: id, Products: map[domain.ProductID]domain.Quantity{domain.NewProductID(): 1}})
	}
	appendOrderEvents(t, store, id, events...)

	snap, err := orderProjector(store).ReplayToLatest(context.Background(), id.String())
	require.NoError(t, err)
	require.Equal(t, uint64(len(events)), snap.Version)
	require.Len(t, snap.State.Products(), len(events)-1)
}

func TestReplayToLatest_EmptyHistory(t *testing.T) {
	_, err := orderProjector(storage.NewMemoryEventStore()).ReplayToLatest(context.Background(), domain.NewOrderID().String())
	require.ErrorIs(t, err, ErrEmptyHistory)
}

func TestReplayToLatest_TerminalEventLastIsTerminated(t *testing.T) {
	store := storage.NewMemoryEventStore()
	id := domain.NewOrderID()
	table := domain.NewTableID()
	appendOrderEvents(t, store, id,
		domain.OrderCreated{ID: id, Table: table},
		domain.OrderSettled{ID: id, Table: table},
	)

	snap, err := orderProjector(store).ReplayToLatest(context.Background(), id.String())
	require.NoError(t, err)
	require.True(t, snap.Terminated)
	require.Equal(t, domain.StatusTerminal, snap.State.Status())
	require.Equal(t, uint64(2), snap.Version)
}

func TestReplayToLatest_CorruptHistory(t *testing.T) {
	id := domain.NewOrderID()
	table := domain.NewTableID()

	tests := []struct {
		name   string
		events []domain.OrderEvent
	}{
		{
			name: "event after terminal",
			events: []domain.OrderEvent{
				domain.OrderCreated{ID: id, Table: table},
				domain.OrderSettled{ID: id, Table: table},
				domain.ProductsAdded{ID: id},
			},
		},
		{
			name: "log does not start with creation",
			events: []domain.OrderEvent{
				domain.ProductsAdded{ID: id},
			},
		},
		{
			name: "second creation event",
			events: []domain.OrderEvent{
				domain.OrderCreated{ID: id, Table: table},
				domain.ProductsAdded{ID: id},
				domain.OrderCreated{ID: id, Table: domain.NewTableID()},
			},
		},
		{
			name: "creation event of another order",
			events: []domain.OrderEvent{
				domain.OrderCreated{ID: domain.NewOrderID(), Table: table},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryEventStore()
			appendOrderEvents(t, store, id, tt.events...)

			_, err := orderProjector(store).ReplayToLatest(context.Background(), id.String())
			require.ErrorIs(t, err, ErrCorruptHistory)
		})
	}
}

func TestReplayToLatest_UnknownTagIsCorrupt(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	id := domain.NewOrderID()
	appendOrderEvents(t, store, id, domain.OrderCreated{ID: id, Table: domain.NewTableID()})
	require.NoError(t, store.Append(ctx, domain.EventRecord{AggregateID: id.String(), Seq: 2, Tag: "order.refunded", Payload: []byte(`{}`)}))

	_, err := orderProjector(store).ReplayToLatest(ctx, id.String())
	require.ErrorIs(t, err, ErrCorruptHistory)
	require.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestReplayToLatest_GapIsCorrupt(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockEventStore(ctrl)
	id := domain.NewOrderID()

	tag, payload, err := domain.OrderCodec{}.Encode(domain.OrderCreated{ID: id})
	require.NoError(t, err)
	store.EXPECT().Load(gomock.Any(), id.String(), uint64(0), defaultPageSize).Return([]domain.EventRecord{
		{AggregateID: id.String(), Seq: 1, Tag: tag, Payload: payload},
		{AggregateID: id.String(), Seq: 3, Tag: tag, Payload: payload},
	}, nil)

	projector := NewProjector[*domain.Order, domain.OrderEvent](store, domain.OrderCodec{}, domain.OrderFromHistory)
	_, err = projector.ReplayToLatest(context.Background(), id.String())
	require.ErrorIs(t, err, ErrCorruptHistory)
}

func TestReplayToLatest_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockEventStore(ctrl)
	boom := errors.New("connection reset")
	store.EXPECT().Load(gomock.Any(), gomock.Any(), uint64(0), defaultPageSize).Return(nil, boom)

	projector := NewProjector[*domain.Order, domain.OrderEvent](store, domain.OrderCodec{}, domain.OrderFromHistory)
	_, err := projector.ReplayToLatest(context.Background(), domain.NewOrderID().String())
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrCorruptHistory)
}

func TestReplayToLatest_OtherKindIsEmptyHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	id := domain.NewTableID()

	tag, payload, err := domain.TableCodec{}.Encode(domain.TableRegistered{ID: id, Name: "Patio"})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, domain.EventRecord{AggregateID: id.String(), Seq: 1, Tag: tag, Payload: payload}))

	_, err = orderProjector(store).ReplayToLatest(ctx, id.String())
	require.ErrorIs(t, err, ErrForeignHistory)
	require.ErrorIs(t, err, ErrEmptyHistory)
	require.NotErrorIs(t, err, ErrCorruptHistory)
}
