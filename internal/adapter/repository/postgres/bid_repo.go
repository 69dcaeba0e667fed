package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

const bidColumns = `id, auction_id, bidder_id, amount, status, created_at`

// BidRepository implements usecase.BidRepository.
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates a new BidRepository.
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Create inserts a bid within the settlement transaction.
func (r *BidRepository) Create(ctx context.Context, tx usecase.Transaction, bid *domain.Bid) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx, `
		INSERT INTO bids (`+bidColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bid.ID,
		bid.AuctionID,
		bid.BidderID,
		decimalToNumeric(bid.Amount),
		string(bid.Status),
		timeToPgTimestamptz(bid.CreatedAt),
	)

	return err
}

// GetByID retrieves a bid by ID.
func (r *BidRepository) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = $1`,
		id,
	)

	return scanBid(row)
}

// GetByIDForUpdate retrieves a bid by ID with a FOR UPDATE lock.
func (r *BidRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bid, error) {
	row := tx.(*Tx).PgxTx().QueryRow(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = $1
		FOR UPDATE`,
		id,
	)

	return scanBid(row)
}

// UpdateStatus moves a bid to a new status.
func (r *BidRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BidStatus) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, `
		UPDATE bids
		SET status = $2
		WHERE id = $1`,
		id,
		string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBidNotFound
	}

	return nil
}

// ListByAuction returns a page of an auction's bids, newest first.
func (r *BidRepository) ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		auctionID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	return bids, rows.Err()
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	var (
		bid       domain.Bid
		amount    pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&amount,
		&status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBidNotFound
		}

		return nil, err
	}

	bid.Amount = numericToDecimal(amount)
	bid.Status = domain.BidStatus(status)
	bid.CreatedAt = createdAt.Time

	return &bid, nil
}
