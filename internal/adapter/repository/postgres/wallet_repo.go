package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

const walletColumns = `id, user_id, currency, balance, held_funds, is_active, version, created_at, updated_at`

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create inserts the wallet unless one already exists for its user.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return createWallet(ctx, r.pool, wallet)
}

// CreateTx inserts the wallet inside the caller's transaction.
func (r *WalletRepository) CreateTx(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	return createWallet(ctx, tx.(*Tx).PgxTx(), wallet)
}

func createWallet(ctx context.Context, db dbtx, wallet *domain.Wallet) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallets (`+walletColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO NOTHING`,
		wallet.ID,
		wallet.UserID,
		wallet.Currency,
		decimalToNumeric(wallet.Balance),
		decimalToNumeric(wallet.HeldFunds),
		wallet.IsActive,
		wallet.Version,
		timeToPgTimestamptz(wallet.CreatedAt),
		timeToPgTimestamptz(wallet.UpdatedAt),
	)

	return err
}

// GetByUserID retrieves a wallet by its owner.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1`,
		userID,
	)

	return scanWallet(row)
}

// GetByUserIDForUpdate retrieves a wallet by owner with a FOR UPDATE lock.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	row := tx.(*Tx).PgxTx().QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE`,
		userID,
	)

	return scanWallet(row)
}

// GetByUserIDsForUpdate locks the wallets of the given users in ascending
// wallet-id order. The ordering keeps concurrent settlements that touch
// the same pair of wallets from deadlocking.
func (r *WalletRepository) GetByUserIDsForUpdate(ctx context.Context, tx usecase.Transaction, userIDs []string) ([]*domain.Wallet, error) {
	rows, err := tx.(*Tx).PgxTx().Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = ANY($1)
		ORDER BY id
		FOR UPDATE`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

// UpdateFunds writes a new balance/held snapshot, guarded by the version
// the caller read under its lock.
func (r *WalletRepository) UpdateFunds(ctx context.Context, tx usecase.Transaction, id string, balance, heldFunds decimal.Decimal, version int64, updatedAt time.Time) error {
	tag, err := tx.(*Tx).PgxTx().Exec(ctx, `
		UPDATE wallets
		SET balance = $2, held_funds = $3, version = $4, updated_at = $5
		WHERE id = $1 AND version = $4 - 1`,
		id,
		decimalToNumeric(balance),
		decimalToNumeric(heldFunds),
		version,
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// Deactivate soft-deactivates a wallet.
func (r *WalletRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE wallets
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1`,
		id,
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		wallet             domain.Wallet
		balance, heldFunds pgtype.Numeric
		createdAt, updated pgtype.Timestamptz
	)

	err := row.Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Currency,
		&balance,
		&heldFunds,
		&wallet.IsActive,
		&wallet.Version,
		&createdAt,
		&updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	wallet.Balance = numericToDecimal(balance)
	wallet.HeldFunds = numericToDecimal(heldFunds)
	wallet.CreatedAt = createdAt.Time
	wallet.UpdatedAt = updated.Time

	return &wallet, nil
}
