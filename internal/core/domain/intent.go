package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentPurpose says what a successful settlement pays for.
type IntentPurpose string

const (
	PurposeWalletTopup    IntentPurpose = "WALLET_TOPUP"
	PurposeInvoicePayment IntentPurpose = "INVOICE_PAYMENT"
)

// GatewayKind selects the gateway variant an intent is bound to.
type GatewayKind string

const (
	GatewayKindReal      GatewayKind = "REAL"
	GatewayKindSimulated GatewayKind = "SIMULATED"
)

// IntentState is the lifecycle state of a payment intent.
// CREATED -> AWAITING_GATEWAY -> AWAITING_VERIFICATION -> {SUCCEEDED|FAILED|CANCELLED}.
type IntentState string

const (
	IntentStateCreated              IntentState = "CREATED"
	IntentStateAwaitingGateway      IntentState = "AWAITING_GATEWAY"
	IntentStateAwaitingVerification IntentState = "AWAITING_VERIFICATION"
	IntentStateSucceeded            IntentState = "SUCCEEDED"
	IntentStateFailed               IntentState = "FAILED"
	IntentStateCancelled            IntentState = "CANCELLED"
)

// PaymentIntent is the durable record of one request to move money.
// Amount is fixed at creation; the row is never deleted — terminal intents
// are retained for audit and idempotency lookups.
type PaymentIntent struct {
	ID               uuid.UUID     `json:"id"`
	MerchantID       uuid.UUID     `json:"merchant_id"`
	Amount           int64         `json:"amount"` // minor units, always > 0
	Currency         string        `json:"currency"`
	Purpose          IntentPurpose `json:"purpose"`
	InvoiceID        *uuid.UUID    `json:"invoice_id,omitempty"`
	GatewayKind      GatewayKind   `json:"gateway_kind"`
	GatewayOrderID   string        `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string       `json:"gateway_payment_id,omitempty"`
	State            IntentState   `json:"state"`
	FailureReason    *string       `json:"failure_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	TerminalAt       *time.Time    `json:"terminal_at,omitempty"`
}

// IsTerminal reports whether the intent reached a final state.
func (p *PaymentIntent) IsTerminal() bool {
	return p.State == IntentStateSucceeded ||
		p.State == IntentStateFailed ||
		p.State == IntentStateCancelled
}

// IsCancellable reports whether Cancel is still permitted. An intent that
// entered verification may have a gateway confirmation in flight.
func (p *PaymentIntent) IsCancellable() bool {
	return p.State == IntentStateCreated || p.State == IntentStateAwaitingGateway
}

// GatewayProof is the evidence a gateway supplies that an order was paid.
// For the real gateway the signature is HMAC-SHA256 over "orderID|paymentID".
type GatewayProof struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}
