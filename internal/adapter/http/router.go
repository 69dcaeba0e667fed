package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gavelmarket/gavel/internal/adapter/http/handler"
	"github.com/gavelmarket/gavel/internal/adapter/http/middleware"
	"github.com/gavelmarket/gavel/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler    *handler.WalletHandler
	AuctionHandler   *handler.AuctionHandler
	BidHandler       *handler.BidHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallets
		r.Route("/wallets/{userID}", func(r chi.Router) {
			r.Get("/", cfg.WalletHandler.Get)
			r.Delete("/", cfg.WalletHandler.Deactivate)
			r.Post("/deposit", cfg.WalletHandler.Deposit)
			r.Post("/withdraw", cfg.WalletHandler.Withdraw)
			r.Post("/hold", cfg.WalletHandler.Hold)
			r.Post("/release", cfg.WalletHandler.Release)
			r.Post("/capture", cfg.WalletHandler.Capture)
			r.Get("/entries", cfg.WalletHandler.ListEntries)
			r.Get("/reconcile", cfg.WalletHandler.Reconcile)
		})

		// Auctions and bids
		r.Route("/auctions", func(r chi.Router) {
			r.Post("/", cfg.AuctionHandler.Create)
			r.Get("/", cfg.AuctionHandler.List)
			r.Get("/{id}", cfg.AuctionHandler.Get)
			r.Post("/{id}/publish", cfg.AuctionHandler.Publish)
			r.Post("/{id}/cancel", cfg.AuctionHandler.Cancel)
			r.Post("/{id}/close", cfg.AuctionHandler.Close)
			r.Post("/{id}/bids", cfg.BidHandler.Place)
			r.Get("/{id}/bids", cfg.AuctionHandler.ListBids)
		})

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.Consistency)
	})

	return r
}
