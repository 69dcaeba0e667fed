package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/infrastructure/metrics"
)

// errLeaderChanged signals that another bid won the auction row between
// the unlocked pre-check and the locked re-check. Internal to the
// coordinator: it triggers one retry against the fresh auction and is
// never surfaced.
var errLeaderChanged = errors.New("leading bid changed concurrently")

// BidUseCase is the bid settlement coordinator: the sole write path for
// bidding. One call validates the auction, reserves the bidder's funds,
// releases the superseded leader's reservation, and advances the
// auction, all inside a single transaction scoped to the auction row.
type BidUseCase struct {
	txManager   TransactionManager
	auctionRepo AuctionRepository
	bidRepo     BidRepository
	walletRepo  WalletRepository
	wallets     *WalletUseCase
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	clock       Clock
	cache       Cache
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewBidUseCase creates a new BidUseCase.
func NewBidUseCase(
	txManager TransactionManager,
	auctionRepo AuctionRepository,
	bidRepo BidRepository,
	walletRepo WalletRepository,
	wallets *WalletUseCase,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	cache Cache,
	retrier Retrier,
	metrics *metrics.Metrics,
) *BidUseCase {
	return &BidUseCase{
		txManager:   txManager,
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		walletRepo:  walletRepo,
		wallets:     wallets,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		clock:       clock,
		cache:       cache,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// PlaceBid settles one bid. Expected business failures (ErrBidTooLow,
// ErrInsufficientFunds, ErrAuctionNotActive, ErrForbidden) leave every
// row untouched. Losing the floor re-check to a concurrent winner
// retries the whole settlement once against the reloaded auction, then
// surfaces ErrBidTooLow.
func (uc *BidUseCase) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	start := uc.clock.Now()

	if err := domain.ValidateAmount(amount); err != nil {
		uc.countRejection(err)
		return nil, err
	}

	var bid *domain.Bid
	var err error

	for attempt := 0; ; attempt++ {
		bid, err = uc.runSettle(ctx, auctionID, bidderID, amount)
		if !errors.Is(err, errLeaderChanged) {
			break
		}

		if attempt >= settleRetries {
			err = domain.ErrBidTooLow
			break
		}

		if uc.metrics != nil {
			uc.metrics.SettlementRetries.Inc()
		}
	}

	if err != nil {
		uc.countRejection(err)
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, auctionCacheKey(auctionID))
	}

	if uc.metrics != nil {
		uc.metrics.BidsAccepted.Inc()
		amt, _ := amount.Float64()
		uc.metrics.BidAmount.Observe(amt)
		uc.metrics.SettlementDuration.Observe(uc.clock.Now().Sub(start).Seconds())
	}

	return bid, nil
}

// runSettle executes one settlement attempt, retrying transparently on
// transient storage contention (deadlocks, serialization failures) when
// a retrier is configured. Business errors pass through untouched.
func (uc *BidUseCase) runSettle(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	if uc.retrier == nil {
		return uc.settle(ctx, auctionID, bidderID, amount)
	}

	var bid *domain.Bid
	err := uc.retrier.Retry(ctx, func() error {
		var settleErr error
		bid, settleErr = uc.settle(ctx, auctionID, bidderID, amount)
		return settleErr
	})
	if err != nil {
		return nil, err
	}

	return bid, nil
}

func (uc *BidUseCase) settle(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	now := uc.clock.Now()

	// Unlocked pre-checks reject hopeless bids without opening a
	// transaction.
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.BiddableAt(now) {
		return nil, domain.ErrAuctionNotActive
	}
	if err := auction.ValidateBid(bidderID, amount); err != nil {
		return nil, err
	}
	floorSeen := auction.Floor()

	// Lazy wallet creation happens before the settlement transaction so
	// the row exists to lock.
	if _, err := uc.wallets.GetWallet(ctx, bidderID); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Serialize on the auction row; every check below is authoritative.
	locked, err := uc.auctionRepo.GetByIDForUpdate(txCtx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	if !locked.BiddableAt(now) {
		return nil, domain.ErrAuctionNotActive
	}
	if !amount.GreaterThan(locked.Floor()) {
		if !locked.Floor().Equal(floorSeen) {
			return nil, errLeaderChanged
		}
		return nil, domain.ErrBidTooLow
	}

	var prevBid *domain.Bid
	if locked.LeadingBidID != nil {
		prevBid, err = uc.bidRepo.GetByIDForUpdate(txCtx, tx, *locked.LeadingBidID)
		if err != nil {
			return nil, err
		}
	}

	wallets, err := uc.lockWallets(txCtx, tx, bidderID, prevBid)
	if err != nil {
		return nil, err
	}
	bidderWallet := wallets[bidderID]
	if bidderWallet == nil {
		return nil, domain.ErrWalletNotFound
	}

	// Release the superseded hold before placing the new one. Within
	// one transaction the order is unobservable, and it lets a leader
	// raising their own bid reuse the funds of the hold being replaced.
	if prevBid != nil {
		prevWallet := wallets[prevBid.BidderID]
		if prevWallet == nil {
			return nil, domain.ErrWalletNotFound
		}

		if _, err := uc.wallets.ApplyTx(txCtx, tx, prevWallet, domain.EntryTypeRelease,
			prevBid.Amount, prevBid.ID, "outbid on auction "+auctionID); err != nil {
			return nil, err
		}

		if err := uc.bidRepo.UpdateStatus(txCtx, tx, prevBid.ID, domain.BidStatusOutbid); err != nil {
			return nil, err
		}
	}

	bid := &domain.Bid{
		ID:        uc.idGen.Generate(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    domain.BidStatusActive,
		CreatedAt: now,
	}

	// Aborts the whole unit on ErrInsufficientFunds/ErrWalletInactive:
	// the release above rolls back with everything else.
	if _, err := uc.wallets.ApplyTx(txCtx, tx, bidderWallet, domain.EntryTypeHold,
		amount, bid.ID, "bid on auction "+auctionID); err != nil {
		return nil, err
	}

	if err := uc.bidRepo.Create(txCtx, tx, bid); err != nil {
		return nil, err
	}

	locked.CurrentPrice = amount
	locked.LeadingBidID = &bid.ID
	if locked.ShouldActivate(now) {
		locked.Status = domain.AuctionStatusActive
	}
	locked.Version++
	locked.UpdatedAt = now

	if err := uc.auctionRepo.Update(txCtx, tx, locked); err != nil {
		return nil, err
	}

	if err := uc.writeEvents(txCtx, tx, locked, bid, prevBid, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if prevBid != nil && uc.metrics != nil {
		uc.metrics.BidsOutbid.Inc()
	}

	return bid, nil
}

// lockWallets locks the bidder's wallet and, when a different bidder is
// being superseded, the previous leader's wallet. The repository locks
// rows in ascending wallet-id order so two settlements touching the same
// pair of wallets cannot deadlock.
func (uc *BidUseCase) lockWallets(ctx context.Context, tx Transaction, bidderID string, prevBid *domain.Bid) (map[string]*domain.Wallet, error) {
	userIDs := []string{bidderID}
	if prevBid != nil && prevBid.BidderID != bidderID {
		userIDs = append(userIDs, prevBid.BidderID)
	}

	wallets, err := uc.walletRepo.GetByUserIDsForUpdate(ctx, tx, userIDs)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		byUser[w.UserID] = w
	}

	return byUser, nil
}

func (uc *BidUseCase) writeEvents(ctx context.Context, tx Transaction, auction *domain.Auction, bid, prevBid *domain.Bid, now time.Time) error {
	accepted := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   bid.ID,
		AggregateType: domain.AggregateTypeBid,
		EventType:     domain.EventTypeBidAccepted,
		Payload: map[string]any{
			"auction_id": auction.ID,
			"bid_id":     bid.ID,
			"bidder_id":  bid.BidderID,
			"amount":     bid.Amount.String(),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(ctx, tx, accepted); err != nil {
		return err
	}

	if prevBid == nil {
		return nil
	}

	outbid := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   prevBid.ID,
		AggregateType: domain.AggregateTypeBid,
		EventType:     domain.EventTypeBidOutbid,
		Payload: map[string]any{
			"auction_id":         auction.ID,
			"previous_bid_id":    prevBid.ID,
			"previous_bidder_id": prevBid.BidderID,
		},
		CreatedAt: now,
		Published: false,
	}

	return uc.outboxRepo.Create(ctx, tx, outbid)
}

func (uc *BidUseCase) countRejection(err error) {
	if uc.metrics == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		uc.metrics.BidsRejected.WithLabelValues("bid_too_low").Inc()
	case errors.Is(err, domain.ErrInsufficientFunds):
		uc.metrics.BidsRejected.WithLabelValues("insufficient_funds").Inc()
	case errors.Is(err, domain.ErrWalletInactive):
		uc.metrics.BidsRejected.WithLabelValues("wallet_inactive").Inc()
	case errors.Is(err, domain.ErrAuctionNotActive):
		uc.metrics.BidsRejected.WithLabelValues("auction_not_active").Inc()
	case errors.Is(err, domain.ErrForbidden):
		uc.metrics.BidsRejected.WithLabelValues("forbidden").Inc()
	default:
		uc.metrics.BidsRejected.WithLabelValues("other").Inc()
	}
}
