package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

type stubAuctionService struct {
	CreateAuctionFunc func(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error)
	GetAuctionFunc    func(ctx context.Context, id string) (*domain.Auction, error)
	ListAuctionsFunc  func(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error)
	PublishFunc       func(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error)
	CancelFunc        func(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error)
	CloseFunc         func(ctx context.Context, auctionID string, force bool) (*domain.Auction, error)
	ListBidsFunc      func(ctx context.Context, input usecase.ListBidsInput) ([]*domain.Bid, error)
}

func (s *stubAuctionService) CreateAuction(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error) {
	return s.CreateAuctionFunc(ctx, input)
}

func (s *stubAuctionService) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	return s.GetAuctionFunc(ctx, id)
}

func (s *stubAuctionService) ListAuctions(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error) {
	return s.ListAuctionsFunc(ctx, input)
}

func (s *stubAuctionService) Publish(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
	return s.PublishFunc(ctx, sellerID, auctionID)
}

func (s *stubAuctionService) Cancel(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
	return s.CancelFunc(ctx, sellerID, auctionID)
}

func (s *stubAuctionService) Close(ctx context.Context, auctionID string, force bool) (*domain.Auction, error) {
	return s.CloseFunc(ctx, auctionID, force)
}

func (s *stubAuctionService) ListBids(ctx context.Context, input usecase.ListBidsInput) ([]*domain.Bid, error) {
	return s.ListBidsFunc(ctx, input)
}

func testAuction(id string) *domain.Auction {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewAuction(id, "seller", decimal.NewFromInt(100), now, now.Add(time.Hour), now)
}

func newAuctionRouter(h *AuctionHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auctions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/publish", h.Publish)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/close", h.Close)
		r.Get("/{id}/bids", h.ListBids)
	})
	return r
}

func TestAuctionHandlerCreate(t *testing.T) {
	svc := &stubAuctionService{
		CreateAuctionFunc: func(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error) {
			a := testAuction("01A")
			a.SellerID = input.SellerID
			return a, nil
		},
	}
	h := NewAuctionHandler(svc)

	body := `{"seller_id":"seller","starting_price":"100","starts_at":"2026-03-01T12:00:00Z","ends_at":"2026-03-01T13:00:00Z"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auctions", strings.NewReader(body))
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "draft" {
		t.Fatalf("expected draft auction, got %s", resp.Status)
	}
}

func TestAuctionHandlerPublishRequiresSeller(t *testing.T) {
	h := NewAuctionHandler(&stubAuctionService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auctions/01A/publish", strings.NewReader(`{}`))
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuctionHandlerPublishForbidden(t *testing.T) {
	svc := &stubAuctionService{
		PublishFunc: func(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
			return nil, domain.ErrForbidden
		},
	}
	h := NewAuctionHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auctions/01A/publish", strings.NewReader(`{"seller_id":"mallory"}`))
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuctionHandlerCancelInvalidState(t *testing.T) {
	svc := &stubAuctionService{
		CancelFunc: func(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
			return nil, domain.ErrInvalidState
		},
	}
	h := NewAuctionHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auctions/01A/cancel", strings.NewReader(`{"seller_id":"seller"}`))
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuctionHandlerCloseWithForce(t *testing.T) {
	var gotForce bool
	svc := &stubAuctionService{
		CloseFunc: func(ctx context.Context, auctionID string, force bool) (*domain.Auction, error) {
			gotForce = force
			a := testAuction(auctionID)
			a.Status = domain.AuctionStatusClosed
			return a, nil
		},
	}
	h := NewAuctionHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auctions/01A/close", strings.NewReader(`{"force":true}`))
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !gotForce {
		t.Fatalf("expected force close to be requested")
	}
}

func TestAuctionHandlerListBids(t *testing.T) {
	svc := &stubAuctionService{
		ListBidsFunc: func(ctx context.Context, input usecase.ListBidsInput) ([]*domain.Bid, error) {
			return []*domain.Bid{
				{ID: "01B", AuctionID: input.AuctionID, BidderID: "bob", Amount: decimal.NewFromInt(150), Status: domain.BidStatusActive},
			}, nil
		},
	}
	h := NewAuctionHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auctions/01A/bids", nil)
	newAuctionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected one bid, got %d", resp.Total)
	}
}
