package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

const ledgerColumns = `id, wallet_id, entry_type, amount, reference_id, note, balance_after, held_after, wallet_version, created_at`

// LedgerRepository implements usecase.LedgerRepository. The table is
// append-only: there are no UPDATE or DELETE statements here.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create appends an entry within the caller's transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx, `
		INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID,
		entry.WalletID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		entry.ReferenceID,
		entry.Note,
		decimalToNumeric(entry.BalanceAfter),
		decimalToNumeric(entry.HeldAfter),
		entry.WalletVersion,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// ListByWallet returns a page of the wallet's entries, newest first.
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		walletID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return scanEntries(rows)
}

// ListAllByWallet returns every entry of the wallet in creation order,
// the order a replay must apply them in.
func (r *LedgerRepository) ListAllByWallet(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY wallet_version ASC`,
		walletID,
	)
	if err != nil {
		return nil, err
	}

	return scanEntries(rows)
}

// ListByReference returns the entries sharing a reference, i.e. a bid's
// hold and its matching release.
func (r *LedgerRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE reference_id = $1
		ORDER BY created_at ASC, id ASC`,
		referenceID,
	)
	if err != nil {
		return nil, err
	}

	return scanEntries(rows)
}

// CheckConsistency returns the sum of all wallet snapshots and the signed
// sum of all ledger entries. Holds and releases move funds between the
// two columns of the same wallet, so only deposits and the terminal
// debits change the signed total.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var totalWallets, totalEntries pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(balance + held_funds), 0) FROM wallets),
			(SELECT COALESCE(SUM(CASE entry_type
				WHEN 'deposit' THEN amount
				WHEN 'withdrawal' THEN -amount
				WHEN 'capture' THEN -amount
				ELSE 0
			END), 0) FROM ledger_entries)`,
	).Scan(&totalWallets, &totalEntries)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(totalWallets), numericToDecimal(totalEntries), nil
}

func scanEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var (
			entry                 domain.LedgerEntry
			entryType             string
			amount, balance, held pgtype.Numeric
			createdAt             pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.WalletID,
			&entryType,
			&amount,
			&entry.ReferenceID,
			&entry.Note,
			&balance,
			&held,
			&entry.WalletVersion,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Type = domain.EntryType(entryType)
		entry.Amount = numericToDecimal(amount)
		entry.BalanceAfter = numericToDecimal(balance)
		entry.HeldAfter = numericToDecimal(held)
		entry.CreatedAt = createdAt.Time

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
