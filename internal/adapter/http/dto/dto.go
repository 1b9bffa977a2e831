package dto

import (
	"time"

	"payment-intent-engine/internal/core/domain"
)

// CreateIntentRequest is the request body for intent creation.
type CreateIntentRequest struct {
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Purpose     string  `json:"purpose" binding:"required,oneof=WALLET_TOPUP INVOICE_PAYMENT"`
	InvoiceID   *string `json:"invoice_id,omitempty" binding:"omitempty,uuid"`
	GatewayKind string  `json:"gateway_kind" binding:"required,oneof=REAL SIMULATED"`
}

// VerifyRequest is the request body for proof verification.
type VerifyRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required,max=128,safe_id"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required,max=128,safe_id"`
	Signature        string `json:"signature" binding:"required,max=256"`
}

// GatewayCallbackRequest is the body the gateway posts to the callback
// endpoint. It carries the same proof fields as a merchant verification.
type GatewayCallbackRequest struct {
	Event            string `json:"event" binding:"required"`
	GatewayOrderID   string `json:"gateway_order_id" binding:"required,max=128,safe_id"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required,max=128,safe_id"`
	Signature        string `json:"signature" binding:"required,max=256"`
}

// IntentResponse is the wire form of a payment intent.
type IntentResponse struct {
	ID               string  `json:"id"`
	MerchantID       string  `json:"merchant_id"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Purpose          string  `json:"purpose"`
	InvoiceID        *string `json:"invoice_id,omitempty"`
	GatewayKind      string  `json:"gateway_kind"`
	GatewayOrderID   string  `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string `json:"gateway_payment_id,omitempty"`
	State            string  `json:"state"`
	FailureReason    *string `json:"failure_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
	TerminalAt       *string `json:"terminal_at,omitempty"`
}

// CreateIntentResponse is returned on intent creation.
type CreateIntentResponse struct {
	Intent          IntentResponse `json:"intent"`
	GatewayOrderRef string         `json:"gateway_order_ref"`
}

// LedgerEntryResponse is the wire form of one ledger entry.
type LedgerEntryResponse struct {
	ID             string  `json:"id"`
	Direction      string  `json:"direction"`
	Amount         int64   `json:"amount"`
	ClosingBalance int64   `json:"closing_balance"`
	Description    string  `json:"description,omitempty"`
	IntentID       *string `json:"intent_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// InvoiceResponse is the wire form of an invoice.
type InvoiceResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	TotalAmount int64   `json:"total_amount"`
	PaidAmount  int64   `json:"paid_amount"`
	PaidAt      *string `json:"paid_at,omitempty"`
}

// SettlementResponse is returned by verification, simulation, and callback
// settlement.
type SettlementResponse struct {
	Intent      IntentResponse       `json:"intent"`
	Transaction *LedgerEntryResponse `json:"transaction,omitempty"`
	Invoice     *InvoiceResponse     `json:"invoice,omitempty"`
	NewBalance  *int64               `json:"new_balance,omitempty"`
}

// WalletBalanceResponse is the response for balance query.
type WalletBalanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// LedgerListResponse wraps a paginated ledger page.
type LedgerListResponse struct {
	Items      []LedgerEntryResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ToIntentResponse converts a domain intent to its wire form.
func ToIntentResponse(intent *domain.PaymentIntent) IntentResponse {
	resp := IntentResponse{
		ID:               intent.ID.String(),
		MerchantID:       intent.MerchantID.String(),
		Amount:           intent.Amount,
		Currency:         intent.Currency,
		Purpose:          string(intent.Purpose),
		GatewayKind:      string(intent.GatewayKind),
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: intent.GatewayPaymentID,
		State:            string(intent.State),
		FailureReason:    intent.FailureReason,
		CreatedAt:        intent.CreatedAt.Format(time.RFC3339),
	}
	if intent.InvoiceID != nil {
		s := intent.InvoiceID.String()
		resp.InvoiceID = &s
	}
	if intent.TerminalAt != nil {
		s := intent.TerminalAt.Format(time.RFC3339)
		resp.TerminalAt = &s
	}
	return resp
}

// ToLedgerEntryResponse converts a domain ledger entry to its wire form.
func ToLedgerEntryResponse(entry *domain.WalletTransaction) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:             entry.ID.String(),
		Direction:      string(entry.Direction),
		Amount:         entry.Amount,
		ClosingBalance: entry.ClosingBalance,
		Description:    entry.Description,
		CreatedAt:      entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.IntentID != nil {
		s := entry.IntentID.String()
		resp.IntentID = &s
	}
	return resp
}

// ToInvoiceResponse converts a domain invoice to its wire form.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:          inv.ID.String(),
		Status:      string(inv.Status),
		TotalAmount: inv.TotalAmount,
		PaidAmount:  inv.PaidAmount,
	}
	if inv.PaidAt != nil {
		s := inv.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &s
	}
	return resp
}
