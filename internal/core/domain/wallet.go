package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds the materialized current balance per merchant. The row is the
// per-merchant serialization point: every balance mutation locks it first.
type Wallet struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	Balance    int64     `json:"balance"` // minor units
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TransactionDirection is the sign of a ledger entry.
type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "CREDIT"
	DirectionDebit  TransactionDirection = "DEBIT"
)

// WalletTransaction is one immutable entry in the append-only ledger.
// ClosingBalance is the wallet balance after this entry was applied; the
// merchant's current balance equals the closing balance of the latest entry.
// IntentID is unique across the ledger — the final backstop against a
// replayed settlement writing twice.
type WalletTransaction struct {
	ID             uuid.UUID            `json:"id"`
	MerchantID     uuid.UUID            `json:"merchant_id"`
	Direction      TransactionDirection `json:"direction"`
	Amount         int64                `json:"amount"`
	ClosingBalance int64                `json:"closing_balance"`
	Description    string               `json:"description"`
	IntentID       *uuid.UUID           `json:"intent_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}
