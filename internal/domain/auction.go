package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the closed set of auction lifecycle states.
type AuctionStatus string

const (
	AuctionStatusDraft     AuctionStatus = "draft"
	AuctionStatusPublished AuctionStatus = "published"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusClosed    AuctionStatus = "closed"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

// Valid reports whether s is a known auction status.
func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionStatusDraft, AuctionStatusPublished, AuctionStatusActive,
		AuctionStatusClosed, AuctionStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether s admits no further transitions.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionStatusClosed || s == AuctionStatusCancelled
}

// Auction is one listing moving through
// draft -> published -> active -> closed (or cancelled).
type Auction struct {
	ID            string
	SellerID      string
	Status        AuctionStatus
	StartingPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	StartsAt      time.Time
	EndsAt        time.Time
	LeadingBidID  *string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAuction returns a draft auction. CurrentPrice starts at
// StartingPrice and only moves up as bids are accepted.
func NewAuction(id, sellerID string, startingPrice decimal.Decimal, startsAt, endsAt, now time.Time) *Auction {
	return &Auction{
		ID:            id,
		SellerID:      sellerID,
		Status:        AuctionStatusDraft,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// BiddableAt reports whether a bid can be accepted at the given instant.
// A published auction whose start time has passed counts as biddable;
// the caller persists the published -> active promotion when it observes
// one (closing is enforced at settlement time, not by a timer).
func (a *Auction) BiddableAt(now time.Time) bool {
	if a.Status != AuctionStatusPublished && a.Status != AuctionStatusActive {
		return false
	}

	return !now.Before(a.StartsAt) && now.Before(a.EndsAt)
}

// ShouldActivate reports whether the lazy published -> active promotion
// is due.
func (a *Auction) ShouldActivate(now time.Time) bool {
	return a.Status == AuctionStatusPublished && !now.Before(a.StartsAt)
}

// Floor is the amount a new bid must strictly exceed. Before the first
// accepted bid it equals the starting price, so a bid at exactly the
// starting price is rejected.
func (a *Auction) Floor() decimal.Decimal {
	return a.CurrentPrice
}

// ValidateBid checks amount and bidder against the auction, assuming the
// auction is biddable.
func (a *Auction) ValidateBid(bidderID string, amount decimal.Decimal) error {
	if bidderID == a.SellerID {
		return ErrForbidden
	}
	if !amount.GreaterThan(a.Floor()) {
		return ErrBidTooLow
	}
	return nil
}

// Rebase moves the auction window so it starts now while preserving the
// originally configured duration. A draft created days ago must not
// expire the moment it is published; the duration is the durable
// contract, not the absolute timestamps.
func (a *Auction) Rebase(now time.Time) {
	duration := a.EndsAt.Sub(a.StartsAt)
	a.StartsAt = now
	a.EndsAt = now.Add(duration)
}

// Cancellable reports whether the seller may still cancel without a
// refund flow: only before any bid can exist.
func (a *Auction) Cancellable() bool {
	return a.Status == AuctionStatusDraft || a.Status == AuctionStatusPublished
}
