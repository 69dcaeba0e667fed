package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

const auctionColumns = `id, seller_id, status, starting_price, current_price, starts_at, ends_at, leading_bid_id, version, created_at, updated_at`

// AuctionRepository implements usecase.AuctionRepository.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

// NewAuctionRepository creates a new AuctionRepository.
func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// Create inserts a new auction.
func (r *AuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auctions (`+auctionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		auction.ID,
		auction.SellerID,
		string(auction.Status),
		decimalToNumeric(auction.StartingPrice),
		decimalToNumeric(auction.CurrentPrice),
		timeToPgTimestamptz(auction.StartsAt),
		timeToPgTimestamptz(auction.EndsAt),
		auction.LeadingBidID,
		auction.Version,
		timeToPgTimestamptz(auction.CreatedAt),
		timeToPgTimestamptz(auction.UpdatedAt),
	)

	return err
}

// GetByID retrieves an auction by ID.
func (r *AuctionRepository) GetByID(ctx context.Context, id string) (*domain.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE id = $1`,
		id,
	)

	return scanAuction(row)
}

// GetByIDForUpdate retrieves an auction by ID with a FOR UPDATE lock. The
// auction row is the serialization point for bid settlement.
func (r *AuctionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error) {
	row := tx.(*Tx).PgxTx().QueryRow(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE id = $1
		FOR UPDATE`,
		id,
	)

	return scanAuction(row)
}

// Update writes the auction's mutable fields, guarded by the version the
// caller read under its lock.
func (r *AuctionRepository) Update(ctx context.Context, tx usecase.Transaction, auction *domain.Auction) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, `
		UPDATE auctions
		SET status = $2, current_price = $3, starts_at = $4, ends_at = $5,
			leading_bid_id = $6, version = $7, updated_at = $8
		WHERE id = $1 AND version = $7 - 1`,
		auction.ID,
		string(auction.Status),
		decimalToNumeric(auction.CurrentPrice),
		timeToPgTimestamptz(auction.StartsAt),
		timeToPgTimestamptz(auction.EndsAt),
		auction.LeadingBidID,
		auction.Version,
		timeToPgTimestamptz(auction.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}

	return nil
}

// List lists auctions with pagination, newest first.
func (r *AuctionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Auction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}

	return auctions, rows.Err()
}

// ListExpiredIDs returns ids of non-terminal auctions whose end time has
// passed, oldest expiry first, for the closing sweep.
func (r *AuctionRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM auctions
		WHERE status IN ('published', 'active') AND ends_at <= $1
		ORDER BY ends_at ASC
		LIMIT $2`,
		timeToPgTimestamptz(now), int32(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var (
		auction            domain.Auction
		status             string
		starting, current  pgtype.Numeric
		startsAt, endsAt   pgtype.Timestamptz
		createdAt, updated pgtype.Timestamptz
	)

	err := row.Scan(
		&auction.ID,
		&auction.SellerID,
		&status,
		&starting,
		&current,
		&startsAt,
		&endsAt,
		&auction.LeadingBidID,
		&auction.Version,
		&createdAt,
		&updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}

		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	auction.StartingPrice = numericToDecimal(starting)
	auction.CurrentPrice = numericToDecimal(current)
	auction.StartsAt = startsAt.Time
	auction.EndsAt = endsAt.Time
	auction.CreatedAt = createdAt.Time
	auction.UpdatedAt = updated.Time

	return &auction, nil
}
