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

type walletFixture struct {
	txManager  *mocks.MockTransactionManager
	walletRepo *mocks.MockWalletRepository
	ledgerRepo *mocks.MockLedgerRepository
	outboxRepo *mocks.MockOutboxRepository
	idGen      *mocks.MockIDGenerator
	clock      *mocks.MockClock
	uc         *usecase.WalletUseCase
}

func newWalletFixture() *walletFixture {
	f := &walletFixture{
		txManager:  mocks.NewMockTransactionManager(),
		walletRepo: mocks.NewMockWalletRepository(),
		ledgerRepo: mocks.NewMockLedgerRepository(),
		outboxRepo: mocks.NewMockOutboxRepository(),
		idGen:      mocks.NewMockIDGenerator(),
		clock:      mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.uc = usecase.NewWalletUseCase(f.txManager, f.walletRepo, f.ledgerRepo, f.outboxRepo, f.idGen, f.clock, nil)
	return f
}

func (f *walletFixture) seedWallet(userID string, balance, held int64) *domain.Wallet {
	w := domain.NewWallet("w-"+userID, userID, "USD", f.clock.Now())
	w.Balance = decimal.NewFromInt(balance)
	w.HeldFunds = decimal.NewFromInt(held)
	f.walletRepo.Seed(w)
	return w
}

func TestWalletUseCase_DepositCreatesWallet(t *testing.T) {
	f := newWalletFixture()

	wallet, err := f.uc.Deposit(context.Background(), "alice", decimal.NewFromInt(100), "payment-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !wallet.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", wallet.Balance)
	}
	if wallet.Version != 1 {
		t.Errorf("expected version 1, got %d", wallet.Version)
	}

	if len(f.ledgerRepo.Entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(f.ledgerRepo.Entries))
	}
	entry := f.ledgerRepo.Entries[0]
	if entry.Type != domain.EntryTypeDeposit {
		t.Errorf("expected deposit entry, got %s", entry.Type)
	}
	if entry.ReferenceID != "payment-1" {
		t.Errorf("expected reference payment-1, got %s", entry.ReferenceID)
	}
	if !entry.BalanceAfter.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance_after 100, got %s", entry.BalanceAfter)
	}

	types := f.outboxRepo.EventTypes()
	if len(types) != 1 || types[0] != domain.EventTypeWalletDeposited {
		t.Errorf("expected wallet deposited event, got %v", types)
	}

	if len(f.txManager.Transactions) != 1 || !f.txManager.Transactions[0].Committed {
		t.Error("expected a committed transaction")
	}
}

func TestWalletUseCase_DepositRejectsInvalidAmount(t *testing.T) {
	f := newWalletFixture()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := f.uc.Deposit(context.Background(), "alice", amount, "ref"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if len(f.txManager.Transactions) != 0 {
		t.Error("expected no transaction for invalid amounts")
	}
}

func TestWalletUseCase_WithdrawRequiresExistingWallet(t *testing.T) {
	f := newWalletFixture()

	_, err := f.uc.Withdraw(context.Background(), "ghost", decimal.NewFromInt(10), "ref")
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestWalletUseCase_WithdrawInsufficientFunds(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 50, 0)

	_, err := f.uc.Withdraw(context.Background(), "alice", decimal.NewFromInt(80), "ref")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if len(f.ledgerRepo.Entries) != 0 {
		t.Error("expected no ledger entries on rejection")
	}
	if len(f.txManager.Transactions) != 1 || !f.txManager.Transactions[0].RolledBack {
		t.Error("expected the transaction to roll back")
	}
}

func TestWalletUseCase_HeldFundsCannotBeWithdrawn(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 20, 80)

	_, err := f.uc.Withdraw(context.Background(), "alice", decimal.NewFromInt(50), "ref")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestWalletUseCase_HoldConservesTotal(t *testing.T) {
	f := newWalletFixture()
	w := f.seedWallet("alice", 100, 0)

	wallet, err := f.uc.HoldFunds(context.Background(), "alice", decimal.NewFromInt(40), "bid-1", "bid hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !wallet.Balance.Equal(decimal.NewFromInt(60)) || !wallet.HeldFunds.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected 60/40, got %s/%s", wallet.Balance, wallet.HeldFunds)
	}
	if !w.Balance.Add(w.HeldFunds).Equal(decimal.NewFromInt(100)) {
		t.Errorf("hold must conserve the total, got %s", w.Balance.Add(w.HeldFunds))
	}

	wallet, err = f.uc.ReleaseFunds(context.Background(), "alice", decimal.NewFromInt(40), "bid-1", "outbid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wallet.Balance.Equal(decimal.NewFromInt(100)) || !wallet.HeldFunds.IsZero() {
		t.Errorf("expected 100/0 after release, got %s/%s", wallet.Balance, wallet.HeldFunds)
	}
}

func TestWalletUseCase_MutationBumpsVersionOnce(t *testing.T) {
	f := newWalletFixture()
	w := f.seedWallet("alice", 100, 0)

	wallet, err := f.uc.HoldFunds(context.Background(), "alice", decimal.NewFromInt(40), "bid-1", "bid hold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wallet.Version != 1 {
		t.Errorf("expected version 1 on the returned wallet, got %d", wallet.Version)
	}
	if w.Version != 1 {
		t.Errorf("expected version 1 on the stored row, got %d", w.Version)
	}
}

func TestWalletUseCase_ReleaseExceedingHeldIsIntegrityError(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 50, 30)

	_, err := f.uc.ReleaseFunds(context.Background(), "alice", decimal.NewFromInt(40), "bid-1", "outbid")
	if !errors.Is(err, domain.ErrInvalidReleaseAmount) {
		t.Fatalf("expected ErrInvalidReleaseAmount, got %v", err)
	}
	if !domain.IsIntegrityError(err) {
		t.Error("release over held funds must be an integrity error")
	}
}

func TestWalletUseCase_CaptureRemovesHeldFunds(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 60, 40)

	wallet, err := f.uc.CaptureFunds(context.Background(), "alice", decimal.NewFromInt(40), "bid-1", "order created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Captured funds leave the wallet entirely.
	if !wallet.Balance.Equal(decimal.NewFromInt(60)) || !wallet.HeldFunds.IsZero() {
		t.Errorf("expected 60/0 after capture, got %s/%s", wallet.Balance, wallet.HeldFunds)
	}

	types := f.outboxRepo.EventTypes()
	if len(types) != 1 || types[0] != domain.EventTypeFundsCaptured {
		t.Errorf("expected funds captured event, got %v", types)
	}
}

func TestWalletUseCase_HoldOnInactiveWallet(t *testing.T) {
	f := newWalletFixture()
	w := f.seedWallet("alice", 100, 0)
	w.IsActive = false

	_, err := f.uc.HoldFunds(context.Background(), "alice", decimal.NewFromInt(10), "bid-1", "bid hold")
	if !errors.Is(err, domain.ErrWalletInactive) {
		t.Fatalf("expected ErrWalletInactive, got %v", err)
	}
}

func TestWalletUseCase_GetWalletCreatesOnFirstAccess(t *testing.T) {
	f := newWalletFixture()

	wallet, err := f.uc.GetWallet(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wallet.UserID != "alice" || !wallet.Balance.IsZero() || !wallet.IsActive {
		t.Errorf("expected empty active wallet, got %+v", wallet)
	}

	again, err := f.uc.GetWallet(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != wallet.ID {
		t.Error("expected the same wallet on repeated access")
	}
}

func TestWalletUseCase_DeactivateWallet(t *testing.T) {
	f := newWalletFixture()
	w := f.seedWallet("alice", 0, 0)

	if err := f.uc.DeactivateWallet(context.Background(), "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.IsActive {
		t.Error("expected wallet to be deactivated")
	}
}

func TestWalletUseCase_LedgerVersionsFollowWallet(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 0, 0)

	ctx := context.Background()
	if _, err := f.uc.Deposit(ctx, "alice", decimal.NewFromInt(100), "p1"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.uc.HoldFunds(ctx, "alice", decimal.NewFromInt(30), "bid-1", "hold"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := f.uc.ReleaseFunds(ctx, "alice", decimal.NewFromInt(30), "bid-1", "release"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if len(f.ledgerRepo.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(f.ledgerRepo.Entries))
	}
	for i, e := range f.ledgerRepo.Entries {
		if e.WalletVersion != int64(i+1) {
			t.Errorf("entry %d: expected wallet version %d, got %d", i, i+1, e.WalletVersion)
		}
	}

	balance, held, err := domain.ReplayEntries(f.ledgerRepo.Entries)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) || !held.IsZero() {
		t.Errorf("replay expected 100/0, got %s/%s", balance, held)
	}
}

func TestWalletUseCase_NoteTooLong(t *testing.T) {
	f := newWalletFixture()
	f.seedWallet("alice", 100, 0)

	note := make([]byte, 600)
	for i := range note {
		note[i] = 'x'
	}

	_, err := f.uc.HoldFunds(context.Background(), "alice", decimal.NewFromInt(10), "bid-1", string(note))
	if !errors.Is(err, domain.ErrNoteTooLong) {
		t.Fatalf("expected ErrNoteTooLong, got %v", err)
	}
}
