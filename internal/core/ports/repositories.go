package ports

import (
	"context"
	"errors"
	"time"

	"payment-intent-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateIntent is returned by IntentRepository.Create when the partial
// unique index rejects a second non-terminal intent for the same invoice.
var ErrDuplicateIntent = errors.New("duplicate non-terminal intent for invoice")

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// IntentRepository defines persistence for payment intents. State changes go
// through the conditional transitions: the UPDATE matches the expected
// current states and reports whether this caller won the transition.
type IntentRepository interface {
	Create(ctx context.Context, intent *domain.PaymentIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error)
	// HasNonTerminalForInvoice reports whether another intent for this
	// invoice is still in flight.
	HasNonTerminalForInvoice(ctx context.Context, merchantID, invoiceID uuid.UUID) (bool, error)
	// MarkAwaitingGateway records the gateway order reference and ensures
	// the intent is in AWAITING_GATEWAY. It accepts intents in CREATED (the
	// create path) and in AWAITING_GATEWAY (the reconciler backfilling an
	// order id recovered by receipt after a transient open failure).
	MarkAwaitingGateway(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	// Transition performs a compare-and-swap state change outside any
	// caller-held transaction. Returns false if the intent was not in one
	// of the from states.
	Transition(ctx context.Context, id uuid.UUID, from []domain.IntentState, to domain.IntentState, failureReason *string) (bool, error)
	// TransitionTx is Transition inside the caller's settlement transaction,
	// additionally recording the gateway payment id. This is the single
	// serialization point of the settlement unit.
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.IntentState, to domain.IntentState, gatewayPaymentID *string) (bool, error)
	// ListStuckAwaitingGateway returns intents sitting in AWAITING_GATEWAY
	// since before the cutoff, for the reconciliation sweep.
	ListStuckAwaitingGateway(ctx context.Context, before time.Time, limit int) ([]domain.PaymentIntent, error)
}

// WalletRepository defines persistence for wallets and ledger entries.
// Methods accepting pgx.Tx run inside the settlement unit under the wallet
// row lock.
type WalletRepository interface {
	CreateWallet(ctx context.Context, w *domain.Wallet) error
	GetWallet(ctx context.Context, merchantID uuid.UUID) (*domain.Wallet, error)
	GetWalletForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, balance int64) error
	AppendTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error
	GetTransactionByIntentID(ctx context.Context, intentID uuid.UUID) (*domain.WalletTransaction, error)
	ListTransactions(ctx context.Context, params LedgerListParams) ([]domain.WalletTransaction, int64, error)
}

// LedgerListParams holds filter + pagination for listing ledger entries.
type LedgerListParams struct {
	MerchantID uuid.UUID
	Direction  *domain.TransactionDirection
	Page       int
	PageSize   int
}

// InvoiceRepository defines persistence for invoices and their payment
// applications. Invoice rows are owned by the billing collaborator; the
// engine only reads them and applies settlement outcomes.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Invoice, error)
	UpdatePayment(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error
	ApplicationExists(ctx context.Context, intentID uuid.UUID) (bool, error)
	RecordApplication(ctx context.Context, tx pgx.Tx, app *domain.InvoiceApplication) error
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
