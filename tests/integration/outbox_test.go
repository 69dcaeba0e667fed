package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/adapter/repository/postgres"
	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/infrastructure/eventpublisher"
	"github.com/gavelmarket/gavel/internal/usecase"
	"github.com/gavelmarket/gavel/tests/testutil"
)

type collectingPublisher struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (p *collectingPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *collectingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType
	}
	return types
}

func TestOutboxDrain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	walletRepo := postgres.NewWalletRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	clock := usecase.SystemClock{}

	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, ledgerRepo, outboxRepo, idGen, clock, nil)

	if _, err := walletUC.Deposit(ctx, "alice", decimal.NewFromInt(100), "p1"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := walletUC.HoldFunds(ctx, "alice", decimal.NewFromInt(40), "bid-1", "bid hold"); err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	pending, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list unpublished events: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending events, got %d", len(pending))
	}

	sink := &collectingPublisher{}
	worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  sink,
		BatchSize:  10,
		Interval:   20 * time.Millisecond,
	})

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Start(workerCtx)
	}()

	deadline := time.After(3 * time.Second)
	for {
		pending, err = outboxRepo.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("failed to poll outbox: %v", err)
		}
		if len(pending) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("outbox not drained, %d events still pending", len(pending))
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	<-done

	types := sink.types()
	if len(types) != 2 {
		t.Fatalf("expected 2 published events, got %v", types)
	}
	if types[0] != domain.EventTypeWalletDeposited || types[1] != domain.EventTypeFundsHeld {
		t.Errorf("expected deposit then hold events in order, got %v", types)
	}
}
