package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/adapter/repository/postgres"
	"github.com/gavelmarket/gavel/internal/usecase"
	"github.com/gavelmarket/gavel/tests/testutil"
)

func TestLedgerIsAppendOnly(t *testing.T) {
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
	reconcileUC := usecase.NewReconciliationUseCase(walletRepo, ledgerRepo, clock, nil)

	wallet, err := walletUC.Deposit(ctx, "alice", decimal.NewFromInt(100), "p1")
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	// UPDATE and DELETE are rewritten to no-ops at the schema level.
	tag, err := pool.Exec(ctx, `UPDATE ledger_entries SET amount = 999 WHERE wallet_id = $1`, wallet.ID)
	if err != nil {
		t.Fatalf("update failed unexpectedly: %v", err)
	}
	if tag.RowsAffected() != 0 {
		t.Errorf("expected the update to be swallowed, affected %d rows", tag.RowsAffected())
	}

	tag, err = pool.Exec(ctx, `DELETE FROM ledger_entries WHERE wallet_id = $1`, wallet.ID)
	if err != nil {
		t.Fatalf("delete failed unexpectedly: %v", err)
	}
	if tag.RowsAffected() != 0 {
		t.Errorf("expected the delete to be swallowed, affected %d rows", tag.RowsAffected())
	}

	entries, err := ledgerRepo.ListAllByWallet(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 1 || !entries[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected the original entry intact, got %+v", entries)
	}

	t.Run("consistency detects tampered snapshots", func(t *testing.T) {
		if err := reconcileUC.CheckLedgerConsistency(ctx); err != nil {
			t.Fatalf("expected a consistent ledger, got %v", err)
		}

		// Corrupt the snapshot behind the engine's back.
		if _, err := pool.Exec(ctx, `UPDATE wallets SET balance = balance + 1 WHERE id = $1`, wallet.ID); err != nil {
			t.Fatalf("failed to corrupt wallet: %v", err)
		}

		if err := reconcileUC.CheckLedgerConsistency(ctx); err == nil {
			t.Error("expected the consistency check to catch the drift")
		}

		result, err := reconcileUC.ReconcileWallet(ctx, "alice")
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if result.Reconciled {
			t.Error("expected the wallet replay to catch the drift")
		}
	})
}
