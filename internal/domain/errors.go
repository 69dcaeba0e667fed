package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletInactive    = errors.New("wallet is inactive")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Ledger integrity errors. These indicate corrupted bookkeeping and
	// are never user-retryable.
	ErrInvalidReleaseAmount = errors.New("release exceeds held funds")
	ErrInvalidCaptureAmount = errors.New("capture exceeds held funds")
	ErrInvalidEntryType     = errors.New("invalid ledger entry type")
	ErrLedgerMismatch       = errors.New("ledger replay does not match wallet snapshot")

	// Auction errors
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrAuctionNotActive = errors.New("auction is not open for bidding")
	ErrInvalidState     = errors.New("invalid auction state transition")

	// Bid errors
	ErrBidNotFound = errors.New("bid not found")
	ErrBidTooLow   = errors.New("bid does not exceed the current price")

	// Shared
	ErrForbidden     = errors.New("operation not permitted for this user")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// IsIntegrityError reports whether err signals corrupted wallet/ledger
// state rather than bad input or a business-rule rejection. Integrity
// errors are logged at high severity and surface as opaque internal
// errors.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrInvalidReleaseAmount) ||
		errors.Is(err, ErrInvalidCaptureAmount) ||
		errors.Is(err, ErrInvalidEntryType) ||
		errors.Is(err, ErrLedgerMismatch)
}
