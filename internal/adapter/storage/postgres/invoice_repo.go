package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-intent-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvoiceRepo implements ports.InvoiceRepository.
type InvoiceRepo struct {
	pool Pool
}

// NewInvoiceRepo creates a new InvoiceRepo.
func NewInvoiceRepo(pool Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceColumns = `id, merchant_id, status, total_amount, paid_amount, paid_at, created_at, updated_at`

// Create inserts an invoice. Used by the billing collaborator's sync and by
// tests.
func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		inv.ID, inv.MerchantID, inv.Status, inv.TotalAmount, inv.PaidAmount,
		inv.PaidAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID fetches an invoice without locking.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return scanInvoice(r.pool.QueryRow(ctx, query, id))
}

// GetForUpdate locks the invoice row for the settlement unit.
// MUST be called within a transaction.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return scanInvoice(tx.QueryRow(ctx, query, id))
}

// UpdatePayment writes the invoice's paid amount, status, and paid-at within
// a transaction.
func (r *InvoiceRepo) UpdatePayment(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error {
	query := `UPDATE invoices SET paid_amount = $1, status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := tx.Exec(ctx, query, inv.PaidAmount, inv.Status, inv.PaidAt, inv.ID)
	if err != nil {
		return fmt.Errorf("update invoice payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice not found: %s", inv.ID)
	}
	return nil
}

// ApplicationExists reports whether this intent's payment was already
// applied to an invoice.
func (r *InvoiceRepo) ApplicationExists(ctx context.Context, intentID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM invoice_applications WHERE intent_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, intentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check invoice application: %w", err)
	}
	return exists, nil
}

// RecordApplication inserts the application record within a transaction.
// The intent id primary key rejects replays.
func (r *InvoiceRepo) RecordApplication(ctx context.Context, tx pgx.Tx, app *domain.InvoiceApplication) error {
	query := `INSERT INTO invoice_applications (intent_id, invoice_id, amount, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query, app.IntentID, app.InvoiceID, app.Amount, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice application: %w", err)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	err := row.Scan(
		&inv.ID, &inv.MerchantID, &inv.Status, &inv.TotalAmount, &inv.PaidAmount,
		&inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}
