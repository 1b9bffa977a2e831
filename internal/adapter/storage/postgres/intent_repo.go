package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// IntentRepo implements ports.IntentRepository.
type IntentRepo struct {
	pool Pool
}

// NewIntentRepo creates a new IntentRepo.
func NewIntentRepo(pool Pool) *IntentRepo {
	return &IntentRepo{pool: pool}
}

const intentColumns = `id, merchant_id, amount, currency, purpose, invoice_id, gateway_kind,
		gateway_order_id, gateway_payment_id, state, failure_reason, created_at, terminal_at`

// Create inserts a new payment intent.
func (r *IntentRepo) Create(ctx context.Context, p *domain.PaymentIntent) error {
	query := `INSERT INTO payment_intents (` + intentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.MerchantID, p.Amount, p.Currency, p.Purpose, p.InvoiceID, p.GatewayKind,
		p.GatewayOrderID, p.GatewayPaymentID, p.State, p.FailureReason, p.CreatedAt, p.TerminalAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateIntent
		}
		return fmt.Errorf("insert intent: %w", err)
	}
	return nil
}

// GetByID fetches an intent by its UUID.
func (r *IntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1`
	return r.scanIntent(r.pool.QueryRow(ctx, query, id))
}

// GetByGatewayOrderID maps a gateway order reference back to its intent.
func (r *IntentRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE gateway_order_id = $1`
	return r.scanIntent(r.pool.QueryRow(ctx, query, gatewayOrderID))
}

// HasNonTerminalForInvoice reports whether another intent for this invoice
// is still in flight.
func (r *IntentRepo) HasNonTerminalForInvoice(ctx context.Context, merchantID, invoiceID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM payment_intents
		WHERE merchant_id = $1 AND invoice_id = $2
		  AND state NOT IN ('SUCCEEDED', 'FAILED', 'CANCELLED'))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, merchantID, invoiceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending intent for invoice: %w", err)
	}
	return exists, nil
}

// MarkAwaitingGateway records the gateway order id and ensures the intent is
// in AWAITING_GATEWAY. Accepts CREATED (the create path) and AWAITING_GATEWAY
// (a recovered order id being backfilled after a transient open failure).
func (r *IntentRepo) MarkAwaitingGateway(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	query := `UPDATE payment_intents SET gateway_order_id = $1, state = $2
		WHERE id = $3 AND state = ANY($4)`

	from := stateStrings([]domain.IntentState{domain.IntentStateCreated, domain.IntentStateAwaitingGateway})
	tag, err := r.pool.Exec(ctx, query, gatewayOrderID, domain.IntentStateAwaitingGateway, id, from)
	if err != nil {
		return fmt.Errorf("mark awaiting gateway: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intent %s is not awaiting a gateway order", id)
	}
	return nil
}

// Transition performs a compare-and-swap state change; returns false if the
// intent was not in one of the from states.
func (r *IntentRepo) Transition(ctx context.Context, id uuid.UUID, from []domain.IntentState, to domain.IntentState, failureReason *string) (bool, error) {
	query := `UPDATE payment_intents
		SET state = $1,
		    failure_reason = COALESCE($2, failure_reason),
		    terminal_at = CASE WHEN $1 IN ('SUCCEEDED', 'FAILED', 'CANCELLED') THEN NOW() ELSE terminal_at END
		WHERE id = $3 AND state = ANY($4)`

	tag, err := r.pool.Exec(ctx, query, to, failureReason, id, stateStrings(from))
	if err != nil {
		return false, fmt.Errorf("transition intent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// TransitionTx is Transition inside the caller's settlement transaction; it
// also records the gateway payment id. RowsAffected decides the settlement
// race: exactly one transaction can move the intent to its terminal state.
func (r *IntentRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.IntentState, to domain.IntentState, gatewayPaymentID *string) (bool, error) {
	query := `UPDATE payment_intents
		SET state = $1,
		    gateway_payment_id = COALESCE($2, gateway_payment_id),
		    terminal_at = CASE WHEN $1 IN ('SUCCEEDED', 'FAILED', 'CANCELLED') THEN NOW() ELSE terminal_at END
		WHERE id = $3 AND state = ANY($4)`

	tag, err := tx.Exec(ctx, query, to, gatewayPaymentID, id, stateStrings(from))
	if err != nil {
		return false, fmt.Errorf("transition intent in tx: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListStuckAwaitingGateway returns intents awaiting a gateway confirmation
// since before the cutoff, oldest first.
func (r *IntentRepo) ListStuckAwaitingGateway(ctx context.Context, before time.Time, limit int) ([]domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents
		WHERE state = $1 AND created_at < $2
		ORDER BY created_at ASC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, domain.IntentStateAwaitingGateway, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list stuck intents: %w", err)
	}
	defer rows.Close()

	var intents []domain.PaymentIntent
	for rows.Next() {
		p := domain.PaymentIntent{}
		if err := rows.Scan(
			&p.ID, &p.MerchantID, &p.Amount, &p.Currency, &p.Purpose, &p.InvoiceID, &p.GatewayKind,
			&p.GatewayOrderID, &p.GatewayPaymentID, &p.State, &p.FailureReason, &p.CreatedAt, &p.TerminalAt,
		); err != nil {
			return nil, fmt.Errorf("scan stuck intent: %w", err)
		}
		intents = append(intents, p)
	}
	return intents, rows.Err()
}

func (r *IntentRepo) scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	p := &domain.PaymentIntent{}
	err := row.Scan(
		&p.ID, &p.MerchantID, &p.Amount, &p.Currency, &p.Purpose, &p.InvoiceID, &p.GatewayKind,
		&p.GatewayOrderID, &p.GatewayPaymentID, &p.State, &p.FailureReason, &p.CreatedAt, &p.TerminalAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get intent: %w", err)
	}
	return p, nil
}

func stateStrings(states []domain.IntentState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
