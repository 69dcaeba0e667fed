package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/adapter/repository/postgres"
	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
	"github.com/gavelmarket/gavel/tests/testutil"
)

func TestWalletLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	walletRepo := postgres.NewWalletRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	clock := usecase.SystemClock{}

	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, ledgerRepo, outboxRepo, idGen, clock, nil)
	reconcileUC := usecase.NewReconciliationUseCase(walletRepo, ledgerRepo, clock, nil)

	t.Run("deposit creates wallet and ledger entry", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		wallet, err := walletUC.Deposit(ctx, "alice", decimal.NewFromInt(100), "payment-1")
		if err != nil {
			t.Fatalf("deposit failed: %v", err)
		}

		if !wallet.Balance.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected balance 100, got %s", wallet.Balance)
		}

		entries, err := ledgerRepo.ListAllByWallet(ctx, wallet.ID)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(entries) != 1 || entries[0].Type != domain.EntryTypeDeposit {
			t.Fatalf("expected one deposit entry, got %+v", entries)
		}
	})

	t.Run("hold release capture round trip", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		if _, err := walletUC.Deposit(ctx, "alice", decimal.NewFromInt(100), "payment-1"); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}

		wallet, err := walletUC.HoldFunds(ctx, "alice", decimal.NewFromInt(40), "bid-1", "bid hold")
		if err != nil {
			t.Fatalf("hold failed: %v", err)
		}
		if !wallet.Balance.Equal(decimal.NewFromInt(60)) || !wallet.HeldFunds.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected 60/40, got %s/%s", wallet.Balance, wallet.HeldFunds)
		}

		wallet, err = walletUC.ReleaseFunds(ctx, "alice", decimal.NewFromInt(40), "bid-1", "outbid")
		if err != nil {
			t.Fatalf("release failed: %v", err)
		}
		if !wallet.Balance.Equal(decimal.NewFromInt(100)) || !wallet.HeldFunds.IsZero() {
			t.Errorf("expected 100/0, got %s/%s", wallet.Balance, wallet.HeldFunds)
		}

		if _, err := walletUC.HoldFunds(ctx, "alice", decimal.NewFromInt(30), "bid-2", "bid hold"); err != nil {
			t.Fatalf("second hold failed: %v", err)
		}
		wallet, err = walletUC.CaptureFunds(ctx, "alice", decimal.NewFromInt(30), "bid-2", "order created")
		if err != nil {
			t.Fatalf("capture failed: %v", err)
		}
		if !wallet.Balance.Equal(decimal.NewFromInt(70)) || !wallet.HeldFunds.IsZero() {
			t.Errorf("expected 70/0 after capture, got %s/%s", wallet.Balance, wallet.HeldFunds)
		}

		result, err := reconcileUC.ReconcileWallet(ctx, "alice")
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if !result.Reconciled {
			t.Errorf("wallet must reconcile after the round trip: %+v", result)
		}
		if result.EntryCount != 5 {
			t.Errorf("expected 5 entries, got %d", result.EntryCount)
		}
	})

	t.Run("withdrawal cannot touch held funds", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		if _, err := walletUC.Deposit(ctx, "bob", decimal.NewFromInt(100), "payment-1"); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}
		if _, err := walletUC.HoldFunds(ctx, "bob", decimal.NewFromInt(80), "bid-1", "bid hold"); err != nil {
			t.Fatalf("hold failed: %v", err)
		}

		_, err := walletUC.Withdraw(ctx, "bob", decimal.NewFromInt(50), "payout-1")
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		wallet, err := walletUC.GetWallet(ctx, "bob")
		if err != nil {
			t.Fatalf("get wallet failed: %v", err)
		}
		if !wallet.Balance.Equal(decimal.NewFromInt(20)) || !wallet.HeldFunds.Equal(decimal.NewFromInt(80)) {
			t.Errorf("failed withdrawal must not move funds, got %s/%s", wallet.Balance, wallet.HeldFunds)
		}
	})

	t.Run("version conflict detected on stale update", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		wallet, err := walletUC.Deposit(ctx, "carol", decimal.NewFromInt(100), "payment-1")
		if err != nil {
			t.Fatalf("deposit failed: %v", err)
		}

		tx, err := txManager.Begin(ctx)
		if err != nil {
			t.Fatalf("begin failed: %v", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		// Same version twice: the second write must miss the guard.
		err = walletRepo.UpdateFunds(ctx, tx, wallet.ID, decimal.NewFromInt(90), decimal.Zero, wallet.Version+1, wallet.UpdatedAt)
		if err != nil {
			t.Fatalf("first update failed: %v", err)
		}
		err = walletRepo.UpdateFunds(ctx, tx, wallet.ID, decimal.NewFromInt(80), decimal.Zero, wallet.Version+1, wallet.UpdatedAt)
		if err == nil {
			t.Fatal("expected a version conflict on the stale update")
		}
	})
}
