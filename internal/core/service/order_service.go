package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
	"github.com/rl1809/restaurant/internal/port"
)

const (
	defaultInquiryTimeout     = 2 * time.Second
	defaultInquiryConcurrency = 8
)

type (
	OrderManager   = process.Manager[*domain.Order, domain.OrderCommand, domain.OrderEvent]
	OrderProjector = projection.Projector[*domain.Order, domain.OrderEvent]
)

type OrderConfig struct {
	// InquiryTimeout bounds each product lookup.
	InquiryTimeout time.Duration
	// InquiryConcurrency caps parallel product lookups per command.
	InquiryConcurrency int
}

type OrderService struct {
	orders  *runtime[*domain.Order, domain.OrderCommand, domain.OrderEvent]
	inquiry port.ProductInquiry
	cfg     OrderConfig
	log     *slog.Logger
}

func NewOrderService(manager *OrderManager, projector *OrderProjector, inquiry port.ProductInquiry, cfg OrderConfig, log *slog.Logger) *OrderService {
	if cfg.InquiryTimeout <= 0 {
		cfg.InquiryTimeout = defaultInquiryTimeout
	}
	if cfg.InquiryConcurrency <= 0 {
		cfg.InquiryConcurrency = defaultInquiryConcurrency
	}
	return &OrderService{
		orders:  newRuntime(manager, projector),
		inquiry: inquiry,
		cfg:     cfg,
		log:     log,
	}
}

// Execute runs cmd against the order id. A CreateOrder ignores id and
// returns the freshly minted one; other commands return id unchanged.
func (s *OrderService) Execute(ctx context.Context, id *domain.OrderID, cmd domain.OrderCommand) (_ domain.OrderID, err error) {
	if cmd == nil {
		return domain.OrderID{}, fmt.Errorf("%w: nil order command", ErrKernel)
	}

	ctx, span := tracer.Start(ctx, "OrderService.Execute", trace.WithAttributes(
		attribute.String("command", cmd.CommandName()),
	))
	defer func() { endSpan(span, err) }()

	if create, ok := cmd.(domain.CreateOrder); ok {
		return s.create(ctx, create)
	}

	if id == nil || id.IsZero() {
		return domain.OrderID{}, fmt.Errorf("%w: %s", ErrRequiredID, cmd.CommandName())
	}
	span.SetAttributes(attribute.String("order.id", id.String()))

	ref, err := s.orders.findOrReplay(ctx, id.String())
	if err != nil {
		return *id, err
	}

	if add, ok := cmd.(domain.AddProducts); ok {
		if err := s.checkProducts(ctx, add.Products); err != nil {
			return *id, err
		}
	}

	if err := dispatchError(s.orders.manager.Employ(ctx, ref, cmd)); err != nil {
		s.log.DebugContext(ctx, "Order command failed", "id", id.String(), "command", cmd.CommandName(), "error", err)
		return *id, err
	}
	return *id, nil
}

func (s *OrderService) create(ctx context.Context, cmd domain.CreateOrder) (domain.OrderID, error) {
	id := domain.NewOrderID()
	state, err := domain.NewOrder(id, cmd)
	if err != nil {
		return domain.OrderID{}, fmt.Errorf("%w: %w", ErrFormation, err)
	}
	if err := s.orders.create(ctx, id.String(), state, cmd); err != nil {
		return domain.OrderID{}, err
	}

	s.log.InfoContext(ctx, "Order created", "id", id.String(), "table", cmd.Table.String())
	return id, nil
}

// checkProducts confirms every referenced product exists. Lookups run in
// parallel and the first failure cancels the rest.
func (s *OrderService) checkProducts(ctx context.Context, products map[domain.ProductID]domain.Quantity) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.InquiryConcurrency)

	for _, productID := range lo.Keys(products) {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, s.cfg.InquiryTimeout)
			defer cancel()

			product, err := s.inquiry.GetProduct(lookupCtx, productID)
			if err != nil {
				return fmt.Errorf("%w: product %s: %w", ErrIO, productID, err)
			}
			if product == nil {
				return fmt.Errorf("%w: product %s", ErrNotFound, productID)
			}
			return nil
		})
	}
	return g.Wait()
}

// Get returns a detached view of the order, including settled ones.
func (s *OrderService) Get(ctx context.Context, id domain.OrderID) (view domain.OrderView, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { endSpan(span, err) }()

	err = s.orders.read(ctx, id.String(), func(o *domain.Order) {
		view = o.View()
	})
	return view, err
}
