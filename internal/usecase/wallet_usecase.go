package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/infrastructure/metrics"
)

// WalletUseCase is the wallet engine: the only component that mutates
// balance/heldFunds. Every mutation writes exactly one ledger entry in
// the same transaction as the wallet snapshot, so the pair changes
// together or not at all.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	ledgerRepo LedgerRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      Clock
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
		metrics:    metrics,
	}
}

// GetWallet returns the user's wallet, creating an empty active one on
// first access.
func (uc *WalletUseCase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	fresh := domain.NewWallet(uc.idGen.Generate(), userID, DefaultCurrency, uc.clock.Now())
	if err := uc.walletRepo.Create(ctx, fresh); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	// Re-read in case a concurrent first access won the insert.
	return uc.walletRepo.GetByUserID(ctx, userID)
}

// Deposit credits the wallet. Deposits are always accepted for a valid
// positive amount; verification of external payment rails happens
// upstream.
func (uc *WalletUseCase) Deposit(ctx context.Context, userID string, amount decimal.Decimal, referenceID string) (*domain.Wallet, error) {
	return uc.mutate(ctx, userID, domain.EntryTypeDeposit, amount, referenceID, "deposit", domain.EventTypeWalletDeposited, true)
}

// Withdraw debits the wallet's spendable balance.
func (uc *WalletUseCase) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, referenceID string) (*domain.Wallet, error) {
	return uc.mutate(ctx, userID, domain.EntryTypeWithdrawal, amount, referenceID, "withdrawal", domain.EventTypeWalletWithdrawn, false)
}

// HoldFunds reserves amount for the reference (a bid id): balance goes
// down, held funds go up, the total is conserved.
func (uc *WalletUseCase) HoldFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error) {
	return uc.mutate(ctx, userID, domain.EntryTypeHold, amount, referenceID, note, domain.EventTypeFundsHeld, false)
}

// ReleaseFunds reverses a hold, restoring the pre-hold split. The
// release carries the reference of the hold it undoes.
func (uc *WalletUseCase) ReleaseFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error) {
	return uc.mutate(ctx, userID, domain.EntryTypeRelease, amount, referenceID, note, domain.EventTypeFundsReleased, false)
}

// CaptureFunds converts a hold into a permanent debit: the funds leave
// the wallet without returning to balance. Triggered by order creation
// after a won auction, never automatically by close.
func (uc *WalletUseCase) CaptureFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error) {
	return uc.mutate(ctx, userID, domain.EntryTypeCapture, amount, referenceID, note, domain.EventTypeFundsCaptured, false)
}

// DeactivateWallet soft-deactivates a wallet. Wallets are never deleted.
func (uc *WalletUseCase) DeactivateWallet(ctx context.Context, userID string) error {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	return uc.walletRepo.Deactivate(ctx, wallet.ID, uc.clock.Now())
}

// ListEntriesInput represents input for listing ledger entries.
type ListEntriesInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListEntries returns the wallet's ledger entries, newest first.
func (uc *WalletUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledgerRepo.ListByWallet(ctx, wallet.ID, limit, offset)
}

// mutate runs one wallet operation as a single transaction: lock the
// wallet row, validate, write snapshot + ledger entry + outbox event,
// commit.
func (uc *WalletUseCase) mutate(
	ctx context.Context,
	userID string,
	entryType domain.EntryType,
	amount decimal.Decimal,
	referenceID, note string,
	eventType string,
	createIfAbsent bool,
) (*domain.Wallet, error) {
	start := uc.clock.Now()

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateNote(note); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wallet, err := uc.lockWallet(txCtx, tx, userID, createIfAbsent)
	if err != nil {
		return nil, err
	}

	entry, err := uc.ApplyTx(txCtx, tx, wallet, entryType, amount, referenceID, note)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.WalletErrors.WithLabelValues(string(entryType)).Inc()
		}
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     eventType,
		Payload: map[string]any{
			"wallet_id":    wallet.ID,
			"user_id":      wallet.UserID,
			"amount":       amount.String(),
			"reference_id": referenceID,
			"entry_id":     entry.ID,
		},
		CreatedAt: entry.CreatedAt,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletOperations.WithLabelValues(string(entryType)).Inc()
		uc.metrics.HoldDuration.Observe(uc.clock.Now().Sub(start).Seconds())
	}

	return wallet, nil
}

// ApplyTx validates and applies one ledger mutation to an already-locked
// wallet inside the caller's transaction, persisting the new snapshot
// and the paired entry. The settlement coordinator uses this so a bid's
// hold and the superseded hold's release commit as one unit; everything
// else goes through the public operations.
func (uc *WalletUseCase) ApplyTx(
	ctx context.Context,
	tx Transaction,
	wallet *domain.Wallet,
	entryType domain.EntryType,
	amount decimal.Decimal,
	referenceID, note string,
) (*domain.LedgerEntry, error) {
	if err := uc.validateMutation(wallet, entryType, amount); err != nil {
		if domain.IsIntegrityError(err) {
			log.Error().
				Str("wallet_id", wallet.ID).
				Str("entry_type", string(entryType)).
				Str("amount", amount.String()).
				Str("held_funds", wallet.HeldFunds.String()).
				Str("reference_id", referenceID).
				Err(err).
				Msg("wallet integrity violation")
		}
		return nil, err
	}

	newBalance, newHeld, err := entryType.Apply(wallet.Balance, wallet.HeldFunds, amount)
	if err != nil {
		return nil, err
	}

	// Validation above makes negatives unreachable; treat one as
	// corrupted state, not an input error.
	if newBalance.IsNegative() || newHeld.IsNegative() {
		log.Error().
			Str("wallet_id", wallet.ID).
			Str("balance", newBalance.String()).
			Str("held_funds", newHeld.String()).
			Msg("wallet funds would go negative")

		return nil, domain.ErrLedgerMismatch
	}

	now := uc.clock.Now()
	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		WalletID:      wallet.ID,
		Type:          entryType,
		Amount:        amount,
		ReferenceID:   referenceID,
		Note:          note,
		BalanceAfter:  newBalance,
		HeldAfter:     newHeld,
		WalletVersion: wallet.Version + 1,
		CreatedAt:     now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateFunds(ctx, tx, wallet.ID, newBalance, newHeld, wallet.Version+1, now); err != nil {
		return nil, err
	}

	wallet.Balance = newBalance
	wallet.HeldFunds = newHeld
	wallet.Version++
	wallet.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.LedgerEntriesWritten.WithLabelValues(string(entryType)).Inc()
	}

	return entry, nil
}

func (uc *WalletUseCase) validateMutation(wallet *domain.Wallet, entryType domain.EntryType, amount decimal.Decimal) error {
	switch entryType {
	case domain.EntryTypeDeposit:
		return nil
	case domain.EntryTypeWithdrawal:
		return wallet.ValidateWithdrawal(amount)
	case domain.EntryTypeHold:
		return wallet.ValidateHold(amount)
	case domain.EntryTypeRelease:
		return wallet.ValidateRelease(amount)
	case domain.EntryTypeCapture:
		return wallet.ValidateCapture(amount)
	default:
		return domain.ErrInvalidEntryType
	}
}

func (uc *WalletUseCase) lockWallet(ctx context.Context, tx Transaction, userID string, createIfAbsent bool) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err == nil {
		return wallet, nil
	}
	if !createIfAbsent || !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	fresh := domain.NewWallet(uc.idGen.Generate(), userID, DefaultCurrency, uc.clock.Now())
	if err := uc.walletRepo.CreateTx(ctx, tx, fresh); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return uc.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
}
