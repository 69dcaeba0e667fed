package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gavelmarket/gavel/internal/adapter/http/dto"
	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

// AuctionService defines the behavior needed by AuctionHandler.
type AuctionService interface {
	CreateAuction(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error)
	GetAuction(ctx context.Context, id string) (*domain.Auction, error)
	ListAuctions(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error)
	Publish(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error)
	Cancel(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error)
	Close(ctx context.Context, auctionID string, force bool) (*domain.Auction, error)
	ListBids(ctx context.Context, input usecase.ListBidsInput) ([]*domain.Bid, error)
}

// AuctionHandler handles auction-related HTTP requests.
type AuctionHandler struct {
	auctionUC AuctionService
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(auctionUC AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionUC: auctionUC}
}

// Create creates a draft auction.
func (h *AuctionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	auction, err := h.auctionUC.CreateAuction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to create auction")
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuctionFromDomain(auction))
}

// Get retrieves an auction by ID.
func (h *AuctionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing auction ID", "")
		return
	}

	auction, err := h.auctionUC.GetAuction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get auction")
		return
	}

	writeJSON(w, http.StatusOK, dto.AuctionFromDomain(auction))
}

// List lists auctions.
func (h *AuctionHandler) List(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.auctionUC.ListAuctions(r.Context(), usecase.ListAuctionsInput{
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list auctions")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAuctionsResponse{
		Auctions: dto.AuctionsFromDomain(auctions),
		Total:    int64(len(auctions)),
	})
}

// Publish opens a draft auction for bidding.
func (h *AuctionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.sellerAction(w, r, h.auctionUC.Publish, "failed to publish auction")
}

// Cancel terminates a draft or published auction.
func (h *AuctionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.sellerAction(w, r, h.auctionUC.Cancel, "failed to cancel auction")
}

// Close closes an auction whose end time has passed.
func (h *AuctionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing auction ID", "")
		return
	}

	var req dto.CloseAuctionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	auction, err := h.auctionUC.Close(r.Context(), id, req.Force)
	if err != nil {
		writeDomainError(w, err, "failed to close auction")
		return
	}

	writeJSON(w, http.StatusOK, dto.AuctionFromDomain(auction))
}

// ListBids lists an auction's bids.
func (h *AuctionHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing auction ID", "")
		return
	}

	bids, err := h.auctionUC.ListBids(r.Context(), usecase.ListBidsInput{
		AuctionID: id,
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list bids")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListBidsResponse{
		Bids:  dto.BidsFromDomain(bids),
		Total: int64(len(bids)),
	})
}

func (h *AuctionHandler) sellerAction(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error),
	message string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing auction ID", "")
		return
	}

	var req dto.SellerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.SellerID == "" {
		writeError(w, http.StatusBadRequest, "missing seller ID", "")
		return
	}

	auction, err := op(r.Context(), req.SellerID, id)
	if err != nil {
		writeDomainError(w, err, message)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuctionFromDomain(auction))
}
