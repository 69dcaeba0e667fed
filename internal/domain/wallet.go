package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's spendable balance and the funds currently
// reserved for outstanding bids. Both amounts are non-negative at all
// times; HeldFunds has already been subtracted from Balance.
type Wallet struct {
	ID        string
	UserID    string
	Currency  string
	Balance   decimal.Decimal
	HeldFunds decimal.Decimal
	IsActive  bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWallet returns an empty active wallet for the given user.
func NewWallet(id, userID, currency string, now time.Time) *Wallet {
	return &Wallet{
		ID:        id,
		UserID:    userID,
		Currency:  currency,
		Balance:   decimal.Zero,
		HeldFunds: decimal.Zero,
		IsActive:  true,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Available returns the spendable balance.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance
}

// ValidateWithdrawal checks whether amount can be withdrawn.
func (w *Wallet) ValidateWithdrawal(amount decimal.Decimal) error {
	if amount.GreaterThan(w.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateHold checks whether amount can be moved from Balance to HeldFunds.
func (w *Wallet) ValidateHold(amount decimal.Decimal) error {
	if !w.IsActive {
		return ErrWalletInactive
	}
	if amount.GreaterThan(w.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateRelease checks whether amount can be returned from HeldFunds.
// A violation means the hold bookkeeping is corrupted, not bad user input.
func (w *Wallet) ValidateRelease(amount decimal.Decimal) error {
	if amount.GreaterThan(w.HeldFunds) {
		return ErrInvalidReleaseAmount
	}
	return nil
}

// ValidateCapture checks whether amount can be captured out of HeldFunds.
func (w *Wallet) ValidateCapture(amount decimal.Decimal) error {
	if amount.GreaterThan(w.HeldFunds) {
		return ErrInvalidCaptureAmount
	}
	return nil
}
