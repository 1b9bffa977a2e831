package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// CreateWallet inserts a wallet row with a zero balance. Safe to call for an
// existing merchant: the conflict is ignored.
func (r *WalletRepo) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (merchant_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (merchant_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, w.MerchantID, w.Balance, w.Currency, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetWallet fetches a wallet without locking.
func (r *WalletRepo) GetWallet(ctx context.Context, merchantID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT merchant_id, balance, currency, created_at, updated_at
		FROM wallets WHERE merchant_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, merchantID))
}

// GetWalletForUpdate locks the wallet row for the settlement unit.
// MUST be called within a transaction.
func (r *WalletRepo) GetWalletForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT merchant_id, balance, currency, created_at, updated_at
		FROM wallets WHERE merchant_id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, merchantID))
}

// UpdateBalance sets the materialized balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, balance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE merchant_id = $2`

	tag, err := tx.Exec(ctx, query, balance, merchantID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", merchantID)
	}
	return nil
}

// AppendTransaction inserts a ledger entry within a transaction. The unique
// index on intent_id is the hard guard against double settlement.
func (r *WalletRepo) AppendTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	query := `INSERT INTO wallet_transactions (id, merchant_id, direction, amount, closing_balance, description, intent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.MerchantID, t.Direction, t.Amount, t.ClosingBalance,
		t.Description, t.IntentID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// GetTransactionByIntentID fetches the ledger entry a settled intent wrote,
// if any.
func (r *WalletRepo) GetTransactionByIntentID(ctx context.Context, intentID uuid.UUID) (*domain.WalletTransaction, error) {
	query := `SELECT id, merchant_id, direction, amount, closing_balance, description, intent_id, created_at
		FROM wallet_transactions WHERE intent_id = $1`

	t := &domain.WalletTransaction{}
	err := r.pool.QueryRow(ctx, query, intentID).Scan(
		&t.ID, &t.MerchantID, &t.Direction, &t.Amount, &t.ClosingBalance,
		&t.Description, &t.IntentID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by intent: %w", err)
	}
	return t, nil
}

// ListTransactions returns a page of ledger entries, newest first, plus the
// total count.
func (r *WalletRepo) ListTransactions(ctx context.Context, params ports.LedgerListParams) ([]domain.WalletTransaction, int64, error) {
	where := `WHERE merchant_id = $1`
	args := []any{params.MerchantID}
	if params.Direction != nil {
		where += ` AND direction = $2`
		args = append(args, *params.Direction)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM wallet_transactions ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(
		`SELECT id, merchant_id, direction, amount, closing_balance, description, intent_id, created_at
		 FROM wallet_transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.WalletTransaction
	for rows.Next() {
		t := domain.WalletTransaction{}
		if err := rows.Scan(
			&t.ID, &t.MerchantID, &t.Direction, &t.Amount, &t.ClosingBalance,
			&t.Description, &t.IntentID, &t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan wallet transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, total, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.MerchantID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}
