package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus is the closed set of bid states. At most one bid per auction
// is active or won at any time.
type BidStatus string

const (
	BidStatusActive   BidStatus = "active"
	BidStatusOutbid   BidStatus = "outbid"
	BidStatusWon      BidStatus = "won"
	BidStatusRefunded BidStatus = "refunded"
)

// Valid reports whether s is a known bid status.
func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusActive, BidStatusOutbid, BidStatusWon, BidStatusRefunded:
		return true
	default:
		return false
	}
}

// Bid is one accepted offer on an auction. Its fund reservation is the
// HOLD ledger entry whose reference is the bid id; superseding the bid
// writes the matching RELEASE with the same reference.
type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	Status    BidStatus
	CreatedAt time.Time
}
