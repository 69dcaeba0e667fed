package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	HeldFunds decimal.Decimal `json:"held_funds"`
	Available decimal.Decimal `json:"available"`
	IsActive  bool            `json:"is_active"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  w.Currency,
		Balance:   w.Balance,
		HeldFunds: w.HeldFunds,
		Available: w.Available(),
		IsActive:  w.IsActive,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"wallet_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Note          string          `json:"note,omitempty"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	HeldAfter     decimal.Decimal `json:"held_after"`
	WalletVersion int64           `json:"wallet_version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		WalletID:      e.WalletID,
		Type:          string(e.Type),
		Amount:        e.Amount,
		ReferenceID:   e.ReferenceID,
		Note:          e.Note,
		BalanceAfter:  e.BalanceAfter,
		HeldAfter:     e.HeldAfter,
		WalletVersion: e.WalletVersion,
		CreatedAt:     e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of ledger entries.
type ListEntriesResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Total   int64                  `json:"total"`
}

// AuctionResponse represents an auction in API responses.
type AuctionResponse struct {
	ID            string          `json:"id"`
	SellerID      string          `json:"seller_id"`
	Status        string          `json:"status"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	LeadingBidID  *string         `json:"leading_bid_id,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AuctionFromDomain converts a domain auction to a response.
func AuctionFromDomain(a *domain.Auction) *AuctionResponse {
	return &AuctionResponse{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Status:        string(a.Status),
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		StartsAt:      a.StartsAt,
		EndsAt:        a.EndsAt,
		LeadingBidID:  a.LeadingBidID,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AuctionsFromDomain converts domain auctions to responses.
func AuctionsFromDomain(auctions []*domain.Auction) []*AuctionResponse {
	result := make([]*AuctionResponse, len(auctions))
	for i, a := range auctions {
		result[i] = AuctionFromDomain(a)
	}
	return result
}

// ListAuctionsResponse wraps a page of auctions.
type ListAuctionsResponse struct {
	Auctions []*AuctionResponse `json:"auctions"`
	Total    int64              `json:"total"`
}

// BidResponse represents a bid in API responses.
type BidResponse struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// BidFromDomain converts a domain bid to a response.
func BidFromDomain(b *domain.Bid) *BidResponse {
	return &BidResponse{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

// BidsFromDomain converts domain bids to responses.
func BidsFromDomain(bids []*domain.Bid) []*BidResponse {
	result := make([]*BidResponse, len(bids))
	for i, b := range bids {
		result[i] = BidFromDomain(b)
	}
	return result
}

// ListBidsResponse wraps a page of bids.
type ListBidsResponse struct {
	Bids  []*BidResponse `json:"bids"`
	Total int64          `json:"total"`
}

// ReconciliationResponse represents a wallet reconciliation result.
type ReconciliationResponse struct {
	WalletID        string          `json:"wallet_id"`
	RecordedBalance decimal.Decimal `json:"recorded_balance"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	RecordedHeld    decimal.Decimal `json:"recorded_held"`
	ReplayedHeld    decimal.Decimal `json:"replayed_held"`
	EntryCount      int             `json:"entry_count"`
	Reconciled      bool            `json:"reconciled"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// ReconciliationFromResult converts a use case result to a response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		WalletID:        r.WalletID,
		RecordedBalance: r.RecordedBalance,
		ReplayedBalance: r.ReplayedBalance,
		RecordedHeld:    r.RecordedHeld,
		ReplayedHeld:    r.ReplayedHeld,
		EntryCount:      r.EntryCount,
		Reconciled:      r.Reconciled,
		CheckedAt:       r.CheckedAt,
	}
}

// ConsistencyResponse represents a global ledger consistency check.
type ConsistencyResponse struct {
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
