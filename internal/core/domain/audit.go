package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionIntentCreated      AuditAction = "INTENT_CREATED"
	AuditActionSettled            AuditAction = "SETTLED"
	AuditActionSimulated          AuditAction = "SIMULATED"
	AuditActionCancelled          AuditAction = "CANCELLED"
	AuditActionVerificationFailed AuditAction = "VERIFICATION_FAILED"
	AuditActionReconciled         AuditAction = "RECONCILED"
)

// AuditEvent records a single audited action in the system. Verification
// failures are security events and always carry the offending proof details.
type AuditEvent struct {
	ID           uuid.UUID   `json:"id"`
	MerchantID   *uuid.UUID  `json:"merchant_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
