package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. This prevents long-running settlements from blocking
	// auction or wallet rows.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultCurrency is assigned to lazily created wallets.
	DefaultCurrency = "USD"

	// settleRetries bounds the internal re-run of a settlement whose
	// optimistic floor check lost to a concurrent winner. One retry with
	// a fresh auction read, then the caller sees the business error.
	settleRetries = 1

	// auctionCacheTTL bounds staleness of cached auction reads; writes
	// invalidate eagerly.
	auctionCacheTTL = 2 * time.Second
)
