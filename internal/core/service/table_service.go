package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
)

type (
	TableManager   = process.Manager[*domain.Table, domain.TableCommand, domain.TableEvent]
	TableProjector = projection.Projector[*domain.Table, domain.TableEvent]
)

type TableService struct {
	tables *runtime[*domain.Table, domain.TableCommand, domain.TableEvent]
	log    *slog.Logger
}

func NewTableService(manager *TableManager, projector *TableProjector, log *slog.Logger) *TableService {
	return &TableService{tables: newRuntime(manager, projector), log: log}
}

// Execute runs cmd against the table id. RegisterTable ignores id and
// returns the freshly minted one.
func (s *TableService) Execute(ctx context.Context, id *domain.TableID, cmd domain.TableCommand) (_ domain.TableID, err error) {
	if cmd == nil {
		return domain.TableID{}, fmt.Errorf("%w: nil table command", ErrKernel)
	}

	ctx, span := tracer.Start(ctx, "TableService.Execute", trace.WithAttributes(
		attribute.String("command", cmd.CommandName()),
	))
	defer func() { endSpan(span, err) }()

	if register, ok := cmd.(domain.RegisterTable); ok {
		tableID := domain.NewTableID()
		state, err := domain.NewTable(tableID, register)
		if err != nil {
			return domain.TableID{}, fmt.Errorf("%w: %w", ErrFormation, err)
		}
		if err := s.tables.create(ctx, tableID.String(), state, cmd); err != nil {
			return domain.TableID{}, err
		}
		s.log.InfoContext(ctx, "Table registered", "id", tableID.String(), "name", register.Name.String())
		return tableID, nil
	}

	if id == nil || id.IsZero() {
		return domain.TableID{}, fmt.Errorf("%w: %s", ErrRequiredID, cmd.CommandName())
	}
	span.SetAttributes(attribute.String("table.id", id.String()))

	if err := s.tables.dispatch(ctx, id.String(), cmd); err != nil {
		s.log.DebugContext(ctx, "Table command failed", "id", id.String(), "command", cmd.CommandName(), "error", err)
		return *id, err
	}
	return *id, nil
}

// Get returns a detached view of the table, including deregistered ones.
func (s *TableService) Get(ctx context.Context, id domain.TableID) (view domain.TableView, err error) {
	ctx, span := tracer.Start(ctx, "TableService.Get", trace.WithAttributes(attribute.String("table.id", id.String())))
	defer func() { endSpan(span, err) }()

	err = s.tables.read(ctx, id.String(), func(t *domain.Table) {
		view = t.View()
	})
	return view, err
}
