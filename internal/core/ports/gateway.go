package ports

import (
	"context"
	"errors"

	"payment-intent-engine/internal/core/domain"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway.go -package=mocks

// Gateway outcome sentinels. Adapters classify every failure as one of these
// so the orchestrator can map them onto the error taxonomy: unavailable is
// retryable by the caller, rejected and invalid-proof are terminal.
var (
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrOrderRejected      = errors.New("gateway rejected order")
	ErrProofInvalid       = errors.New("gateway proof invalid")
)

// SimulatedPaymentPrefix marks synthetic payment ids accepted by the
// simulated gateway.
const SimulatedPaymentPrefix = "simpay_"

// OrderState is the gateway-side state of an external order.
type OrderState string

const (
	OrderStatePending OrderState = "PENDING"
	OrderStatePaid    OrderState = "PAID"
	OrderStateExpired OrderState = "EXPIRED"
	OrderStateFailed  OrderState = "FAILED"
)

// OpenOrderRequest asks the gateway to open an external order. Receipt is
// the intent id, which lets the reconciler find an order whose creation
// response was lost.
type OpenOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// OrderStatus is the reconciler's view of an external order. A PAID status
// carries the payment id and signature needed to build a verifiable proof.
type OrderStatus struct {
	OrderID   string
	State     OrderState
	PaymentID string
	Signature string
}

// GatewayAdapter is the uniform interface over the real and simulated
// payment gateways.
type GatewayAdapter interface {
	Kind() domain.GatewayKind
	// OpenOrder creates an external order and returns its id. Failures are
	// wrapped around ErrGatewayUnavailable or ErrOrderRejected.
	OpenOrder(ctx context.Context, req OpenOrderRequest) (string, error)
	// VerifyProof checks the proof against the expected order id and amount.
	// A nil return means verified. Invalid or forged proofs return an error
	// wrapping ErrProofInvalid.
	VerifyProof(proof domain.GatewayProof, expectedOrderID string, expectedAmount int64) error
	// FetchOrderStatus queries the gateway for the current order state.
	// When orderID is empty the lookup falls back to the receipt.
	FetchOrderStatus(ctx context.Context, orderID, receipt string) (*OrderStatus, error)
}
