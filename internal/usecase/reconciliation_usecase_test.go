package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
	"github.com/gavelmarket/gavel/internal/usecase/mocks"
)

func seedLedger(repo *mocks.MockLedgerRepository, walletID string, types []domain.EntryType, amounts []int64) {
	balance, held := decimal.Zero, decimal.Zero
	for i, typ := range types {
		amount := decimal.NewFromInt(amounts[i])
		balance, held, _ = typ.Apply(balance, held, amount)
		repo.Entries = append(repo.Entries, &domain.LedgerEntry{
			ID:            "e-" + string(rune('a'+i)),
			WalletID:      walletID,
			Type:          typ,
			Amount:        amount,
			BalanceAfter:  balance,
			HeldAfter:     held,
			WalletVersion: int64(i + 1),
		})
	}
}

func TestReconciliationUseCase_ReconcileWallet(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name           string
		balance, held  int64
		entryTypes     []domain.EntryType
		entryAmounts   []int64
		wantReconciled bool
	}{
		{
			name:    "snapshot matches replay",
			balance: 60, held: 40,
			entryTypes:     []domain.EntryType{domain.EntryTypeDeposit, domain.EntryTypeHold},
			entryAmounts:   []int64{100, 40},
			wantReconciled: true,
		},
		{
			name:    "capture flow reconciles",
			balance: 60, held: 0,
			entryTypes:     []domain.EntryType{domain.EntryTypeDeposit, domain.EntryTypeHold, domain.EntryTypeCapture},
			entryAmounts:   []int64{100, 40, 40},
			wantReconciled: true,
		},
		{
			name:    "empty ledger with zero wallet",
			balance: 0, held: 0,
			wantReconciled: true,
		},
		{
			name:    "drifted snapshot",
			balance: 50, held: 40,
			entryTypes:     []domain.EntryType{domain.EntryTypeDeposit, domain.EntryTypeHold},
			entryAmounts:   []int64{100, 40},
			wantReconciled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := mocks.NewMockWalletRepository()
			ledgerRepo := mocks.NewMockLedgerRepository()

			wallet := domain.NewWallet("w-alice", "alice", "USD", clock.Now())
			wallet.Balance = decimal.NewFromInt(tt.balance)
			wallet.HeldFunds = decimal.NewFromInt(tt.held)
			walletRepo.Seed(wallet)

			seedLedger(ledgerRepo, wallet.ID, tt.entryTypes, tt.entryAmounts)

			uc := usecase.NewReconciliationUseCase(walletRepo, ledgerRepo, clock, nil)

			result, err := uc.ReconcileWallet(context.Background(), "alice")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Reconciled != tt.wantReconciled {
				t.Errorf("expected reconciled=%v, got %+v", tt.wantReconciled, result)
			}
			if result.EntryCount != len(tt.entryTypes) {
				t.Errorf("expected %d entries, got %d", len(tt.entryTypes), result.EntryCount)
			}
			if !result.RecordedBalance.Equal(decimal.NewFromInt(tt.balance)) {
				t.Errorf("expected recorded balance %d, got %s", tt.balance, result.RecordedBalance)
			}
		})
	}
}

func TestReconciliationUseCase_ReconcileUnknownWallet(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	uc := usecase.NewReconciliationUseCase(mocks.NewMockWalletRepository(), mocks.NewMockLedgerRepository(), clock, nil)

	_, err := uc.ReconcileWallet(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestReconciliationUseCase_CheckLedgerConsistency(t *testing.T) {
	clock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name             string
		wallets, entries int64
		wantErr          bool
	}{
		{"consistent", 1000, 1000, false},
		{"empty ledger", 0, 0, false},
		{"drift", 1000, 990, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgerRepo := mocks.NewMockLedgerRepository()
			ledgerRepo.CheckConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
				return decimal.NewFromInt(tt.wallets), decimal.NewFromInt(tt.entries), nil
			}

			uc := usecase.NewReconciliationUseCase(mocks.NewMockWalletRepository(), ledgerRepo, clock, nil)

			err := uc.CheckLedgerConsistency(context.Background())
			if tt.wantErr {
				if !errors.Is(err, domain.ErrLedgerMismatch) {
					t.Fatalf("expected ErrLedgerMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
