package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/usecase"
)

// FundsRequest represents a wallet mutation: deposit, withdraw, hold,
// release or capture.
type FundsRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// CreateAuctionRequest represents a request to create a draft auction.
type CreateAuctionRequest struct {
	SellerID      string          `json:"seller_id"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAuctionRequest) ToUseCaseInput() usecase.CreateAuctionInput {
	return usecase.CreateAuctionInput{
		SellerID:      r.SellerID,
		StartingPrice: r.StartingPrice,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
	}
}

// SellerActionRequest identifies the seller for publish and cancel.
type SellerActionRequest struct {
	SellerID string `json:"seller_id"`
}

// CloseAuctionRequest represents a request to close an auction. Force
// closes before the end time and is meant for operational tooling.
type CloseAuctionRequest struct {
	Force bool `json:"force,omitempty"`
}

// PlaceBidRequest represents a bid on an auction.
type PlaceBidRequest struct {
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
}
