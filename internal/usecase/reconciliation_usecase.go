package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/infrastructure/metrics"
)

// ReconciliationUseCase verifies that wallet snapshots match the replay
// of their ledger entries. A mismatch is a data-integrity failure: it is
// reported and logged, never auto-corrected.
type ReconciliationUseCase struct {
	walletRepo WalletRepository
	ledgerRepo LedgerRepository
	clock      Clock
	metrics    *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	walletRepo WalletRepository,
	ledgerRepo LedgerRepository,
	clock Clock,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		clock:      clock,
		metrics:    metrics,
	}
}

// ReconciliationResult represents the outcome of replaying one wallet's
// ledger.
type ReconciliationResult struct {
	WalletID        string
	RecordedBalance decimal.Decimal
	ReplayedBalance decimal.Decimal
	RecordedHeld    decimal.Decimal
	ReplayedHeld    decimal.Decimal
	EntryCount      int
	Reconciled      bool
	CheckedAt       time.Time
}

// ReconcileWallet replays every ledger entry of the user's wallet from
// zero and compares the result with the stored snapshot.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, userID string) (*ReconciliationResult, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.ListAllByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	balance, held, err := domain.ReplayEntries(entries)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		WalletID:        wallet.ID,
		RecordedBalance: wallet.Balance,
		ReplayedBalance: balance,
		RecordedHeld:    wallet.HeldFunds,
		ReplayedHeld:    held,
		EntryCount:      len(entries),
		Reconciled:      wallet.Balance.Equal(balance) && wallet.HeldFunds.Equal(held),
		CheckedAt:       uc.clock.Now(),
	}

	if !result.Reconciled {
		log.Error().
			Str("wallet_id", wallet.ID).
			Str("recorded_balance", wallet.Balance.String()).
			Str("replayed_balance", balance.String()).
			Str("recorded_held", wallet.HeldFunds.String()).
			Str("replayed_held", held.String()).
			Msg("wallet does not reconcile against its ledger")

		if uc.metrics != nil {
			uc.metrics.ReconciliationsFailed.Inc()
		}
	}

	return result, nil
}

// CheckLedgerConsistency verifies that the sum of all wallet snapshots
// equals the signed sum of all ledger entries.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totalWallets, totalEntries, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if !totalWallets.Equal(totalEntries) {
		return fmt.Errorf(
			"%w: wallets=%s entries=%s difference=%s",
			domain.ErrLedgerMismatch,
			totalWallets.String(),
			totalEntries.String(),
			totalWallets.Sub(totalEntries).String(),
		)
	}

	return nil
}
