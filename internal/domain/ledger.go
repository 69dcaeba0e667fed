package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the closed set of balance-affecting operations. Every
// consumer switches exhaustively over it so a new type is a
// compile-visible change.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeWithdrawal EntryType = "withdrawal"
	EntryTypeHold       EntryType = "hold"
	EntryTypeRelease    EntryType = "release"
	EntryTypeCapture    EntryType = "capture"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeHold, EntryTypeRelease, EntryTypeCapture:
		return true
	default:
		return false
	}
}

// Apply returns the wallet's balance/held pair after an entry of type t
// for the given positive amount.
func (t EntryType) Apply(balance, held, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	switch t {
	case EntryTypeDeposit:
		return balance.Add(amount), held, nil
	case EntryTypeWithdrawal:
		return balance.Sub(amount), held, nil
	case EntryTypeHold:
		return balance.Sub(amount), held.Add(amount), nil
	case EntryTypeRelease:
		return balance.Add(amount), held.Sub(amount), nil
	case EntryTypeCapture:
		return balance, held.Sub(amount), nil
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("unknown ledger entry type %q", t)
	}
}

// LedgerEntry is an immutable record of one wallet mutation. Entries are
// never updated or deleted; the wallet snapshot must always equal the
// replay of its entries from zero.
type LedgerEntry struct {
	ID            string
	WalletID      string
	Type          EntryType
	Amount        decimal.Decimal
	ReferenceID   string
	Note          string
	BalanceAfter  decimal.Decimal
	HeldAfter     decimal.Decimal
	WalletVersion int64
	CreatedAt     time.Time
}

// Validate checks the entry invariants.
func (e *LedgerEntry) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, e.Type)
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// ReplayEntries folds a wallet's entries from a zero wallet and returns
// the resulting balance and held funds. Used for reconciliation.
func ReplayEntries(entries []*LedgerEntry) (decimal.Decimal, decimal.Decimal, error) {
	balance, held := decimal.Zero, decimal.Zero

	for _, e := range entries {
		var err error

		balance, held, err = e.Type.Apply(balance, held, e.Amount)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}

	return balance, held, nil
}
