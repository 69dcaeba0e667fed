package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/adapter/http/dto"
	"github.com/gavelmarket/gavel/internal/domain"
)

// BidService defines the behavior needed by BidHandler.
type BidService interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error)
}

// BidHandler handles bid placement.
type BidHandler struct {
	bidUC BidService
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(bidUC BidService) *BidHandler {
	return &BidHandler{bidUC: bidUC}
}

// Place settles one bid on an auction.
func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "id")
	if auctionID == "" {
		writeError(w, http.StatusBadRequest, "missing auction ID", "")
		return
	}

	var req dto.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.BidderID == "" {
		writeError(w, http.StatusBadRequest, "missing bidder ID", "")
		return
	}

	bid, err := h.bidUC.PlaceBid(r.Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		writeDomainError(w, err, "failed to place bid")
		return
	}

	writeJSON(w, http.StatusCreated, dto.BidFromDomain(bid))
}
