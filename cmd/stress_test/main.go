package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/restaurant/internal/adapter/catalog"
	"github.com/rl1809/restaurant/internal/adapter/storage"
	"github.com/rl1809/restaurant/internal/adapter/stream"
	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
	"github.com/rl1809/restaurant/internal/core/service"
	"github.com/rl1809/restaurant/internal/port"
)

const (
	totalRequests = 200
	lateRequests  = 50
	mailboxSize   = 16
)

type stack struct {
	manager *service.OrderManager
	service *service.OrderService
}

// newStack builds an order service over store, the way a freshly started
// server would.
func newStack(store port.EventStore, inquiry port.ProductInquiry) stack {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := process.NewManager[*domain.Order, domain.OrderCommand, domain.OrderEvent](
		store, stream.NewBroker(mailboxSize), domain.OrderCodec{}, process.Config{MailboxSize: mailboxSize}, discard)
	projector := projection.NewProjector[*domain.Order, domain.OrderEvent](store, domain.OrderCodec{}, domain.OrderFromHistory)
	return stack{
		manager: manager,
		service: service.NewOrderService(manager, projector, inquiry, service.OrderConfig{}, discard),
	}
}

func main() {
	ctx := context.Background()

	store := storage.NewMemoryEventStore()
	product := domain.Product{ID: domain.NewProductID(), Name: "Espresso", PriceCents: 250}
	inquiry := catalog.NewStaticInquiry([]domain.Product{product})

	// Create the order, then restart so every request has to replay it
	first := newStack(store, inquiry)
	orderID, err := first.service.Execute(ctx, nil, domain.CreateOrder{Table: domain.NewTableID()})
	if err != nil {
		log.Fatalf("failed to create order: %v", err)
	}
	first.manager.Stop()

	second := newStack(store, inquiry)
	defer second.manager.Stop()

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cmd := domain.AddProducts{Products: map[domain.ProductID]domain.Quantity{product.ID: 1}}
			if _, err := second.service.Execute(ctx, &orderID, cmd); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)
	actors := second.manager.Len()

	// Settle while late requests race against it
	var lateSuccess atomic.Int32
	for i := 0; i < lateRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := domain.AddProducts{Products: map[domain.ProductID]domain.Quantity{product.ID: 1}}
			if _, err := second.service.Execute(ctx, &orderID, cmd); err == nil {
				lateSuccess.Add(1)
			}
		}()
	}
	_, settleErr := second.service.Execute(ctx, &orderID, domain.SettleOrder{})
	wg.Wait()

	_, afterErr := second.service.Execute(ctx, &orderID, domain.AddProducts{Products: map[domain.ProductID]domain.Quantity{product.ID: 1}})
	view, err := second.service.Get(ctx, orderID)
	if err != nil {
		log.Fatalf("failed to read order: %v", err)
	}
	records := store.Len(orderID.String())

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Live Actors:      %d\n", actors)
	fmt.Printf("Late Successful:  %d\n", lateSuccess.Load())
	fmt.Printf("Log Records:      %d\n", records)
	fmt.Println("==========================================")

	// Assertions
	check(success == totalRequests && fail == 0,
		"all %d concurrent requests succeeded", totalRequests)
	check(actors == 1, "exactly one actor after concurrent replay, got %d", actors)
	check(settleErr == nil, "settle succeeded: %v", settleErr)
	check(afterErr != nil, "command after settle failed: %v", afterErr)
	check(view.Status == domain.StatusTerminal.String(), "order is %s", view.Status)

	want := 1 + int(success) + int(lateSuccess.Load()) + 1
	check(records == want, "log has %d records, want %d", records, want)
	check(len(view.Products) == int(success)+int(lateSuccess.Load()),
		"order holds %d batches", len(view.Products))
}

func check(ok bool, format string, args ...any) {
	if ok {
		fmt.Printf("PASS: "+format+"\n", args...)
		return
	}
	fmt.Printf("FAIL: "+format+"\n", args...)
}
