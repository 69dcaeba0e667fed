package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

// MockWalletRepository is a mock implementation of WalletRepository with
// an in-memory default behavior and per-method overrides.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet // keyed by user id

	CreateFunc                func(ctx context.Context, wallet *domain.Wallet) error
	CreateTxFunc              func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	GetByUserIDFunc           func(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error)
	GetByUserIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userIDs []string) ([]*domain.Wallet, error)
	UpdateFundsFunc           func(ctx context.Context, tx usecase.Transaction, id string, balance, heldFunds decimal.Decimal, version int64, updatedAt time.Time) error
	DeactivateFunc            func(ctx context.Context, id string, updatedAt time.Time) error
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{wallets: make(map[string]*domain.Wallet)}
}

// Seed stores a wallet for the default in-memory behavior. The stored
// object is the row: committed writes land on it, so tests can observe
// state through the pointer they seeded.
func (m *MockWalletRepository) Seed(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.UserID] = wallet
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[wallet.UserID]; !ok {
		m.wallets[wallet.UserID] = cloneWallet(wallet)
	}
	return nil
}

func (m *MockWalletRepository) CreateTx(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, wallet)
	}
	return m.Create(ctx, wallet)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[userID]; ok {
		// Reads hand out copies, like rows scanned from storage; a
		// caller's mutations only land via UpdateFunds.
		return cloneWallet(w), nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDForUpdateFunc != nil {
		return m.GetByUserIDForUpdateFunc(ctx, tx, userID)
	}
	return m.GetByUserID(ctx, userID)
}

func (m *MockWalletRepository) GetByUserIDsForUpdate(ctx context.Context, tx usecase.Transaction, userIDs []string) ([]*domain.Wallet, error) {
	if m.GetByUserIDsForUpdateFunc != nil {
		return m.GetByUserIDsForUpdateFunc(ctx, tx, userIDs)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, id := range userIDs {
		if w, ok := m.wallets[id]; ok {
			wallets = append(wallets, cloneWallet(w))
		}
	}
	return wallets, nil
}

func (m *MockWalletRepository) UpdateFunds(ctx context.Context, tx usecase.Transaction, id string, balance, heldFunds decimal.Decimal, version int64, updatedAt time.Time) error {
	if m.UpdateFundsFunc != nil {
		return m.UpdateFundsFunc(ctx, tx, id, balance, heldFunds, version, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.ID == id {
			// Version-guarded like the real UPDATE: a stale snapshot
			// matches no row.
			if version != w.Version+1 {
				return domain.ErrWalletNotFound
			}
			w.Balance = balance
			w.HeldFunds = heldFunds
			w.Version = version
			w.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrWalletNotFound
}

func (m *MockWalletRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.ID == id {
			w.IsActive = false
			w.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrWalletNotFound
}

// MockLedgerRepository is a mock implementation of LedgerRepository that
// appends entries in memory.
type MockLedgerRepository struct {
	mu      sync.RWMutex
	Entries []*domain.LedgerEntry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	ListByWalletFunc     func(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListAllByWalletFunc  func(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error)
	ListByReferenceFunc  func(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error)
	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockLedgerRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByWalletFunc != nil {
		return m.ListByWalletFunc(ctx, walletID, limit, offset)
	}
	return m.ListAllByWallet(ctx, walletID)
}

func (m *MockLedgerRepository) ListAllByWallet(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error) {
	if m.ListAllByWalletFunc != nil {
		return m.ListAllByWalletFunc(ctx, walletID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.Entries {
		if e.WalletID == walletID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockLedgerRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error) {
	if m.ListByReferenceFunc != nil {
		return m.ListByReferenceFunc(ctx, referenceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.Entries {
		if e.ReferenceID == referenceID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	return decimal.Zero, decimal.Zero, nil
}

// MockAuctionRepository is a mock implementation of AuctionRepository.
type MockAuctionRepository struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction

	CreateFunc           func(ctx context.Context, auction *domain.Auction) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Auction, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, auction *domain.Auction) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Auction, error)
	ListExpiredIDsFunc   func(ctx context.Context, now time.Time, limit int) ([]string, error)
}

func NewMockAuctionRepository() *MockAuctionRepository {
	return &MockAuctionRepository{auctions: make(map[string]*domain.Auction)}
}

func (m *MockAuctionRepository) Seed(auction *domain.Auction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions[auction.ID] = auction
}

func (m *MockAuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, auction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions[auction.ID] = auction
	return nil
}

func (m *MockAuctionRepository) GetByID(ctx context.Context, id string) (*domain.Auction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.auctions[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAuctionNotFound
}

func (m *MockAuctionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAuctionRepository) Update(ctx context.Context, tx usecase.Transaction, auction *domain.Auction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, auction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions[auction.ID] = auction
	return nil
}

func (m *MockAuctionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Auction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var auctions []*domain.Auction
	for _, a := range m.auctions {
		auctions = append(auctions, a)
	}
	return auctions, nil
}

func (m *MockAuctionRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if m.ListExpiredIDsFunc != nil {
		return m.ListExpiredIDsFunc(ctx, now, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, a := range m.auctions {
		if !a.Status.Terminal() && !now.Before(a.EndsAt) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

// MockBidRepository is a mock implementation of BidRepository.
type MockBidRepository struct {
	mu   sync.RWMutex
	bids map[string]*domain.Bid

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, bid *domain.Bid) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Bid, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bid, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.BidStatus) error
	ListByAuctionFunc    func(ctx context.Context, auctionID string, limit, offset int) ([]*domain.Bid, error)
}

func NewMockBidRepository() *MockBidRepository {
	return &MockBidRepository{bids: make(map[string]*domain.Bid)}
}

func (m *MockBidRepository) Seed(bid *domain.Bid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[bid.ID] = bid
}

// Get returns a stored bid for assertions.
func (m *MockBidRepository) Get(id string) *domain.Bid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bids[id]
}

func (m *MockBidRepository) Create(ctx context.Context, tx usecase.Transaction, bid *domain.Bid) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, bid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[bid.ID] = bid
	return nil
}

func (m *MockBidRepository) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bids[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBidNotFound
}

func (m *MockBidRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bid, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockBidRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BidStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bids[id]; ok {
		b.Status = status
		return nil
	}
	return domain.ErrBidNotFound
}

func (m *MockBidRepository) ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.Bid, error) {
	if m.ListByAuctionFunc != nil {
		return m.ListByAuctionFunc(ctx, auctionID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bids []*domain.Bid
	for _, b := range m.bids {
		if b.AuctionID == auctionID {
			bids = append(bids, b)
		}
	}
	return bids, nil
}

// MockOutboxRepository records events in memory.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			events = append(events, e)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the event types recorded so far, in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.EventType
	}
	return types
}

// MockTransaction is a no-op transaction that records its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "id-" + itoa(m.next)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// MockClock returns a fixed, advanceable time.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string]string)}
}

func (c *MockCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	return "", domain.ErrWalletNotFound
}

func (c *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
