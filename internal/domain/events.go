package domain

import "time"

// Event types
const (
	EventTypeBidAccepted     = "bid.accepted"
	EventTypeBidOutbid       = "bid.outbid"
	EventTypeAuctionClosed   = "auction.closed"
	EventTypeWalletDeposited = "wallet.deposited"
	EventTypeWalletWithdrawn = "wallet.withdrawn"
	EventTypeFundsHeld       = "wallet.funds_held"
	EventTypeFundsReleased   = "wallet.funds_released"
	EventTypeFundsCaptured   = "wallet.funds_captured"
)

// Aggregate types
const (
	AggregateTypeWallet  = "wallet"
	AggregateTypeAuction = "auction"
	AggregateTypeBid     = "bid"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published after commit by the outbox worker, so
// collaborators never observe an event for an uncommitted settlement.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// BidAcceptedEvent payload
type BidAcceptedEvent struct {
	AuctionID string `json:"auction_id"`
	BidID     string `json:"bid_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
}

// BidOutbidEvent payload
type BidOutbidEvent struct {
	AuctionID        string `json:"auction_id"`
	PreviousBidID    string `json:"previous_bid_id"`
	PreviousBidderID string `json:"previous_bidder_id"`
}

// AuctionClosedEvent payload; WinningBidID is empty when the auction
// closed without bids.
type AuctionClosedEvent struct {
	AuctionID    string `json:"auction_id"`
	WinningBidID string `json:"winning_bid_id,omitempty"`
}
