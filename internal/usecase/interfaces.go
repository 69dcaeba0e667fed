package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
)

// WalletRepository defines data access for wallets. Wallet rows are only
// written through the WalletUseCase.
type WalletRepository interface {
	// Create inserts the wallet unless one already exists for its user.
	// Safe to race: first writer wins, later callers re-read.
	Create(ctx context.Context, wallet *domain.Wallet) error
	CreateTx(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx Transaction, userID string) (*domain.Wallet, error)
	// GetByUserIDsForUpdate locks the wallets of the given users in
	// ascending wallet-id order so concurrent settlements acquire locks
	// consistently.
	GetByUserIDsForUpdate(ctx context.Context, tx Transaction, userIDs []string) ([]*domain.Wallet, error)
	UpdateFunds(ctx context.Context, tx Transaction, id string, balance, heldFunds decimal.Decimal, version int64, updatedAt time.Time) error
	Deactivate(ctx context.Context, id string, updatedAt time.Time) error
}

// LedgerRepository defines data access for the append-only ledger.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// ListAllByWallet returns every entry in creation order for replay.
	ListAllByWallet(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error)
	ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error)
	// CheckConsistency returns the sum of all wallet snapshots
	// (balance + held) and the signed sum of all ledger entries; the two
	// must match for an intact ledger.
	CheckConsistency(ctx context.Context) (totalWallets, totalEntries decimal.Decimal, err error)
}

// AuctionRepository defines data access for auctions.
type AuctionRepository interface {
	Create(ctx context.Context, auction *domain.Auction) error
	GetByID(ctx context.Context, id string) (*domain.Auction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Auction, error)
	Update(ctx context.Context, tx Transaction, auction *domain.Auction) error
	List(ctx context.Context, limit, offset int) ([]*domain.Auction, error)
	// ListExpiredIDs returns ids of non-terminal auctions whose end time
	// has passed, for the closing sweep.
	ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// BidRepository defines data access for bids.
type BidRepository interface {
	Create(ctx context.Context, tx Transaction, bid *domain.Bid) error
	GetByID(ctx context.Context, id string) (*domain.Bid, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Bid, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.BidStatus) error
	ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.Bid, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Injected so state-machine transitions
// and auction expiry are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Retrier re-runs an operation on transient storage contention.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
