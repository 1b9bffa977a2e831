package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus mirrors the billing collaborator's invoice states.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is the billing collaborator's record, referenced here for
// settlement only. The engine transitions status to PAID exactly once, as a
// side effect of one verified payment intent.
type Invoice struct {
	ID          uuid.UUID     `json:"id"`
	MerchantID  uuid.UUID     `json:"merchant_id"`
	Status      InvoiceStatus `json:"status"`
	TotalAmount int64         `json:"total_amount"`
	PaidAmount  int64         `json:"paid_amount"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsSettleable reports whether a new payment intent may target this invoice.
func (i *Invoice) IsSettleable() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}

// InvoiceApplication records that one intent's payment was applied to an
// invoice. The intent id is the primary key, which makes ApplyPayment a
// no-op on redelivery.
type InvoiceApplication struct {
	IntentID  uuid.UUID `json:"intent_id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
