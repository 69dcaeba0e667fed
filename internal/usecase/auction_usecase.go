package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/infrastructure/metrics"
)

// AuctionUseCase owns the auction lifecycle:
// draft -> published -> active -> closed, plus cancellation.
type AuctionUseCase struct {
	txManager   TransactionManager
	auctionRepo AuctionRepository
	bidRepo     BidRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	clock       Clock
	cache       Cache
	metrics     *metrics.Metrics
}

// NewAuctionUseCase creates a new AuctionUseCase.
func NewAuctionUseCase(
	txManager TransactionManager,
	auctionRepo AuctionRepository,
	bidRepo BidRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	cache Cache,
	metrics *metrics.Metrics,
) *AuctionUseCase {
	return &AuctionUseCase{
		txManager:   txManager,
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		clock:       clock,
		cache:       cache,
		metrics:     metrics,
	}
}

// CreateAuctionInput represents input for creating an auction.
type CreateAuctionInput struct {
	SellerID      string
	StartingPrice decimal.Decimal
	StartsAt      time.Time
	EndsAt        time.Time
}

// CreateAuction creates a draft auction.
func (uc *AuctionUseCase) CreateAuction(ctx context.Context, input CreateAuctionInput) (*domain.Auction, error) {
	if err := domain.ValidateAmount(input.StartingPrice); err != nil {
		return nil, err
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, domain.ErrInvalidWindow
	}

	auction := domain.NewAuction(
		uc.idGen.Generate(),
		input.SellerID,
		input.StartingPrice,
		input.StartsAt.UTC(),
		input.EndsAt.UTC(),
		uc.clock.Now(),
	)

	if err := uc.auctionRepo.Create(ctx, auction); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AuctionsCreated.Inc()
	}

	return auction, nil
}

// GetAuction retrieves an auction, served from cache when fresh.
// Readers see the effective status: a published auction inside its
// window reports active even before a settlement persists the
// promotion.
func (uc *AuctionUseCase) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, auctionCacheKey(id)); err == nil {
			var auction domain.Auction
			if err := json.Unmarshal([]byte(cached), &auction); err == nil {
				return uc.effective(&auction), nil
			}
		}
	}

	auction, err := uc.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(auction); err == nil {
			_ = uc.cache.Set(ctx, auctionCacheKey(id), string(raw), auctionCacheTTL)
		}
	}

	return uc.effective(auction), nil
}

// effective overlays the lazy published -> active promotion for readers
// without persisting it: the row only changes under the settlement lock.
func (uc *AuctionUseCase) effective(a *domain.Auction) *domain.Auction {
	now := uc.clock.Now()
	if a.ShouldActivate(now) && now.Before(a.EndsAt) {
		promoted := *a
		promoted.Status = domain.AuctionStatusActive
		return &promoted
	}
	return a
}

// ListAuctionsInput represents input for listing auctions.
type ListAuctionsInput struct {
	Limit  int
	Offset int
}

// ListAuctions lists auctions with pagination.
func (uc *AuctionUseCase) ListAuctions(ctx context.Context, input ListAuctionsInput) ([]*domain.Auction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.auctionRepo.List(ctx, limit, offset)
}

// Publish moves a draft to published, rebasing the window so the
// originally configured duration starts now.
func (uc *AuctionUseCase) Publish(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	auction, err := uc.auctionRepo.GetByIDForUpdate(txCtx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	if auction.Status != domain.AuctionStatusDraft {
		return nil, domain.ErrInvalidState
	}

	now := uc.clock.Now()
	auction.Rebase(now)
	auction.Status = domain.AuctionStatusPublished
	auction.Version++
	auction.UpdatedAt = now

	if err := uc.auctionRepo.Update(txCtx, tx, auction); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, auctionID)

	if uc.metrics != nil {
		uc.metrics.AuctionsPublished.Inc()
	}

	return auction, nil
}

// Cancel terminates a draft or published auction. No bid can exist yet
// in those states, so no hold exists and no wallet interaction happens.
func (uc *AuctionUseCase) Cancel(ctx context.Context, sellerID, auctionID string) (*domain.Auction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	auction, err := uc.auctionRepo.GetByIDForUpdate(txCtx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	if !auction.Cancellable() {
		return nil, domain.ErrInvalidState
	}

	now := uc.clock.Now()
	auction.Status = domain.AuctionStatusCancelled
	auction.Version++
	auction.UpdatedAt = now

	if err := uc.auctionRepo.Update(txCtx, tx, auction); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, auctionID)

	if uc.metrics != nil {
		uc.metrics.AuctionsCancelled.Inc()
	}

	return auction, nil
}

// Close terminates an auction whose end time has passed (or any
// non-terminal auction when forced). The leading bid, if any, becomes
// WON. Closing never captures the winner's hold: capture is a separate
// order-creation step through the wallet engine. A no-op on terminal
// auctions.
func (uc *AuctionUseCase) Close(ctx context.Context, auctionID string, force bool) (*domain.Auction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	auction, err := uc.auctionRepo.GetByIDForUpdate(txCtx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.Status.Terminal() {
		return auction, nil
	}

	now := uc.clock.Now()
	if !force && now.Before(auction.EndsAt) {
		return nil, domain.ErrInvalidState
	}

	auction.Status = domain.AuctionStatusClosed
	auction.Version++
	auction.UpdatedAt = now

	winningBidID := ""
	if auction.LeadingBidID != nil {
		winningBidID = *auction.LeadingBidID
		if err := uc.bidRepo.UpdateStatus(txCtx, tx, winningBidID, domain.BidStatusWon); err != nil {
			return nil, err
		}
	}

	if err := uc.auctionRepo.Update(txCtx, tx, auction); err != nil {
		return nil, err
	}

	payload := map[string]any{"auction_id": auction.ID}
	if winningBidID != "" {
		payload["winning_bid_id"] = winningBidID
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   auction.ID,
		AggregateType: domain.AggregateTypeAuction,
		EventType:     domain.EventTypeAuctionClosed,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, auctionID)

	if uc.metrics != nil {
		uc.metrics.AuctionsClosed.Inc()
	}

	return auction, nil
}

// CloseExpired closes up to limit auctions whose end time has passed.
// Used by the background sweeper; individual failures don't stop the
// batch.
func (uc *AuctionUseCase) CloseExpired(ctx context.Context, limit int) (int, error) {
	ids, err := uc.auctionRepo.ListExpiredIDs(ctx, uc.clock.Now(), limit)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range ids {
		if _, err := uc.Close(ctx, id, false); err != nil {
			continue
		}
		closed++

		if uc.metrics != nil {
			uc.metrics.AuctionsSwept.Inc()
		}
	}

	return closed, nil
}

// ListBidsInput represents input for listing an auction's bids.
type ListBidsInput struct {
	AuctionID string
	Limit     int
	Offset    int
}

// ListBids lists an auction's bids, newest first.
func (uc *AuctionUseCase) ListBids(ctx context.Context, input ListBidsInput) ([]*domain.Bid, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.bidRepo.ListByAuction(ctx, input.AuctionID, limit, offset)
}

func (uc *AuctionUseCase) invalidate(ctx context.Context, auctionID string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, auctionCacheKey(auctionID))
	}
}

func auctionCacheKey(id string) string {
	return "auction:" + id
}
