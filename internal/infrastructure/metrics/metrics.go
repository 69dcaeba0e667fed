package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Bid settlement metrics
	BidsAccepted       prometheus.Counter
	BidsRejected       *prometheus.CounterVec
	BidsOutbid         prometheus.Counter
	SettlementRetries  prometheus.Counter
	SettlementDuration prometheus.Histogram
	BidAmount          prometheus.Histogram

	// Wallet metrics
	WalletsCreated   prometheus.Counter
	WalletOperations *prometheus.CounterVec
	WalletErrors     *prometheus.CounterVec
	HoldDuration     prometheus.Histogram

	// Auction metrics
	AuctionsCreated   prometheus.Counter
	AuctionsPublished prometheus.Counter
	AuctionsClosed    prometheus.Counter
	AuctionsCancelled prometheus.Counter
	AuctionsSwept     prometheus.Counter

	// Ledger metrics
	LedgerEntriesWritten  *prometheus.CounterVec
	ReconciliationsFailed prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		BidsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_bids_accepted_total",
			Help: "Total number of bids accepted by settlement",
		}),
		BidsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_bids_rejected_total",
				Help: "Total number of bids rejected, by reason",
			},
			[]string{"reason"},
		),
		BidsOutbid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_bids_outbid_total",
			Help: "Total number of leading bids superseded",
		}),
		SettlementRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_settlement_retries_total",
			Help: "Total number of settlements re-run after losing the floor re-check",
		}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gavel_settlement_duration_seconds",
			Help:    "Duration of bid settlement transactions",
			Buckets: prometheus.DefBuckets,
		}),
		BidAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gavel_bid_amount",
			Help:    "Accepted bid amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_wallets_created_total",
			Help: "Total number of wallets lazily created",
		}),
		WalletOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_wallet_operations_total",
				Help: "Total number of wallet operations, by type",
			},
			[]string{"operation"},
		),
		WalletErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_wallet_errors_total",
				Help: "Total number of failed wallet operations, by type",
			},
			[]string{"operation"},
		),
		HoldDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gavel_hold_duration_seconds",
			Help:    "Duration of wallet hold/release/capture operations",
			Buckets: prometheus.DefBuckets,
		}),

		AuctionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_created_total",
			Help: "Total number of auctions created",
		}),
		AuctionsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_published_total",
			Help: "Total number of auctions published",
		}),
		AuctionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_closed_total",
			Help: "Total number of auctions closed",
		}),
		AuctionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_cancelled_total",
			Help: "Total number of auctions cancelled",
		}),
		AuctionsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_swept_total",
			Help: "Total number of expired auctions closed by the sweeper",
		}),

		LedgerEntriesWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_ledger_entries_total",
				Help: "Total number of ledger entries written, by type",
			},
			[]string{"type"},
		),
		ReconciliationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_reconciliations_failed_total",
			Help: "Total number of wallets whose ledger replay did not match the snapshot",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gavel_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gavel_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_db_errors_total",
				Help: "Total number of database errors, by kind",
			},
			[]string{"kind"},
		),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_events_published_total",
				Help: "Total number of outbox events published, by type",
			},
			[]string{"event_type"},
		),
		EventsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_events_failed_total",
				Help: "Total number of outbox events that failed to publish, by type",
			},
			[]string{"event_type"},
		),

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gavel_rate_limit_hits_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"path"},
		),
	}
}
