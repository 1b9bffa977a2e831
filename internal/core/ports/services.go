package ports

import (
	"context"
	"time"

	"payment-intent-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// --- Service Ports (Business Logic) ---

// IntentOrchestrator is the engine's public API: it creates intents, drives
// verification, and performs the atomic settlement unit.
type IntentOrchestrator interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResult, error)
	VerifyAndSettle(ctx context.Context, intentID uuid.UUID, proof domain.GatewayProof) (*SettlementResult, error)
	Cancel(ctx context.Context, intentID uuid.UUID) (*domain.PaymentIntent, error)
	SimulateSuccess(ctx context.Context, intentID uuid.UUID) (*SettlementResult, error)
	// SettleByCallback maps a gateway callback onto its intent and settles
	// it. Safe under at-least-once delivery.
	SettleByCallback(ctx context.Context, proof domain.GatewayProof) (*SettlementResult, error)
}

// CreateIntentRequest holds validated input for intent creation.
type CreateIntentRequest struct {
	MerchantID  uuid.UUID
	Amount      int64
	Currency    string
	Purpose     domain.IntentPurpose
	InvoiceID   *uuid.UUID
	GatewayKind domain.GatewayKind
	ClientIP    string
}

// CreateIntentResult is returned to the caller so it can hand the gateway
// order reference to the paying client.
type CreateIntentResult struct {
	Intent          *domain.PaymentIntent
	GatewayOrderRef string
}

// SettlementResult is the outcome of a (possibly replayed) settlement.
type SettlementResult struct {
	Intent      *domain.PaymentIntent
	Transaction *domain.WalletTransaction // nil unless the intent succeeded
	Invoice     *domain.Invoice           // nil unless an invoice was settled
	NewBalance  *int64                    // set for WALLET_TOPUP settlements
}

// WalletLedger is the only writer of balance changes. Credit and Debit run
// inside the caller's settlement transaction; both are no-ops returning the
// existing entry when the intent already has one.
type WalletLedger interface {
	Credit(ctx context.Context, tx pgx.Tx, req LedgerEntryRequest) (*domain.WalletTransaction, error)
	Debit(ctx context.Context, tx pgx.Tx, req LedgerEntryRequest) (*domain.WalletTransaction, error)
	CurrentBalance(ctx context.Context, merchantID uuid.UUID) (int64, string, error)
	ListTransactions(ctx context.Context, params LedgerListParams) ([]domain.WalletTransaction, int64, error)
}

// LedgerEntryRequest holds input for one ledger append.
type LedgerEntryRequest struct {
	MerchantID  uuid.UUID
	Amount      int64
	IntentID    uuid.UUID
	Description string
	Currency    string
}

// InvoiceSettlement applies a verified payment outcome to an invoice.
type InvoiceSettlement interface {
	// ApplyPayment increments the paid amount and, once paid >= total,
	// transitions the invoice to PAID. A second call with the same intent id
	// is a no-op returning the current invoice.
	ApplyPayment(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID, amount int64, intentID uuid.UUID) (*domain.Invoice, error)
}

// TokenService validates the external auth collaborator's bearer tokens.
// Generate exists for tests and local development.
type TokenService interface {
	Generate(merchantID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID uuid.UUID
}

// AuditService records audit events (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, event *domain.AuditEvent)
}

// BalanceCache is the read-side cache for CurrentBalance. It must be
// invalidated on every successful settlement.
type BalanceCache interface {
	Get(ctx context.Context, merchantID uuid.UUID) (int64, bool, error)
	Set(ctx context.Context, merchantID uuid.UUID, balance int64, ttl time.Duration) error
	Invalidate(ctx context.Context, merchantID uuid.UUID) error
}

// CallbackDedup is a best-effort fast path for spotting replayed gateway
// callbacks. CheckAndSet returns false when the key was already seen. The
// intent state machine and ledger constraints remain the real guards.
type CallbackDedup interface {
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
