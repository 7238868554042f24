package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/restaurant/internal/adapter/catalog"
	"github.com/rl1809/restaurant/internal/adapter/handler"
	"github.com/rl1809/restaurant/internal/adapter/storage"
	"github.com/rl1809/restaurant/internal/adapter/stream"
	"github.com/rl1809/restaurant/internal/config"
	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
	"github.com/rl1809/restaurant/internal/core/service"
	"github.com/rl1809/restaurant/internal/port"
	"github.com/rl1809/restaurant/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := telemetry.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "restaurant", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracer setup failed: %w", err)
	}
	defer shutdownTracer(context.Background())

	// Event log
	store, closeStore, err := openEventStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info("Event store ready", "backend", cfg.StoreBackend)

	// Redis is optional: it carries the event stream and the product cache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer rdb.Close()
		log.Info("Connected to redis", "addr", cfg.RedisAddr)
	}

	var (
		publisher  port.EventPublisher
		subscriber port.EventSubscriber
	)
	if rdb != nil {
		adapter := stream.NewRedisAdapter(rdb, log)
		publisher, subscriber = adapter, adapter
	} else {
		broker := stream.NewBroker(cfg.BrokerBuffer)
		publisher, subscriber = broker, broker
	}

	inquiry, closeInquiry, err := openInquiry(cfg, rdb, log)
	if err != nil {
		return err
	}
	defer closeInquiry()

	// Process managers
	processCfg := process.Config{MailboxSize: cfg.MailboxSize, RetryInterval: cfg.PublishRetry}
	orderManager := process.NewManager[*domain.Order, domain.OrderCommand, domain.OrderEvent](
		store, publisher, domain.OrderCodec{}, processCfg, log.With("aggregate", "order"))
	tableManager := process.NewManager[*domain.Table, domain.TableCommand, domain.TableEvent](
		store, publisher, domain.TableCodec{}, processCfg, log.With("aggregate", "table"))
	defer func() {
		orderManager.Stop()
		tableManager.Stop()
		log.Info("Actors stopped")
	}()

	orders := service.NewOrderService(
		orderManager,
		projection.NewProjector[*domain.Order, domain.OrderEvent](store, domain.OrderCodec{}, domain.OrderFromHistory),
		inquiry,
		service.OrderConfig{InquiryTimeout: cfg.InquiryTimeout, InquiryConcurrency: cfg.InquiryConcurrency},
		log,
	)
	tables := service.NewTableService(
		tableManager,
		projection.NewProjector[*domain.Table, domain.TableEvent](store, domain.TableCodec{}, domain.TableFromHistory),
		log,
	)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(orders, tables, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(httpHandler, handler.NewEventStream(subscriber)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	log.Info("HTTP server stopped")
	return nil
}

func openEventStore(ctx context.Context, cfg config.Config, log *slog.Logger) (port.EventStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemoryEventStore(), func() {}, nil
	case config.BackendSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return store, closer(store, "sqlite", log), nil
	case config.BackendMySQL:
		store, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		return store, closer(store, "mysql", log), nil
	case config.BackendBadger:
		store, err := storage.OpenBadger(cfg.BadgerPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger: %w", err)
		}
		return store, closer(store, "badger", log), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openInquiry(cfg config.Config, rdb *redis.Client, log *slog.Logger) (port.ProductInquiry, func(), error) {
	var (
		inquiry port.ProductInquiry
		release = func() {}
	)
	if cfg.CatalogAddr != "" {
		client, err := catalog.DialInquiry(cfg.CatalogAddr)
		if err != nil {
			return nil, nil, err
		}
		inquiry, release = client, closer(client, "catalog", log)
		log.Info("Using remote catalog", "addr", cfg.CatalogAddr)
	} else {
		products, err := catalog.LoadProducts(cfg.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		inquiry = catalog.NewStaticInquiry(products)
		log.Info("Loaded catalog", "file", cfg.CatalogFile, "products", len(products))
	}

	if rdb != nil {
		inquiry = catalog.NewCachedInquiry(rdb, inquiry, cfg.ProductCacheTTL, log)
	}
	return inquiry, release, nil
}

func closer(c io.Closer, name string, log *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn("Close failed", "resource", name, "error", err)
		}
	}
}
