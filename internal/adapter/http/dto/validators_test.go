package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := VerifyRequest{
		GatewayOrderID:   "  order_abc  ",
		GatewayPaymentID: " pay_123 ",
		Signature:        "  deadbeef  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "order_abc", req.GatewayOrderID)
	assert.Equal(t, "pay_123", req.GatewayPaymentID)
	assert.Equal(t, "deadbeef", req.Signature)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := GatewayCallbackRequest{
		Event:            "payment.captured<script>alert('x')</script>",
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Event, "&lt;script&gt;")
	assert.NotContains(t, req.Event, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	invoiceID := "  0d9cde9e-7d5a-4c86-9f23-3a1a1a3f2b1c  "
	req := CreateIntentRequest{
		Amount:      50000,
		Currency:    "INR",
		Purpose:     "INVOICE_PAYMENT",
		InvoiceID:   &invoiceID,
		GatewayKind: "REAL",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "0d9cde9e-7d5a-4c86-9f23-3a1a1a3f2b1c", *req.InvoiceID)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := CreateIntentRequest{
		Amount:      50000,
		Currency:    "INR",
		Purpose:     "WALLET_TOPUP",
		GatewayKind: "SIMULATED",
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.InvoiceID)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"order_R5xK9m2",
		"pay_ABC123",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"order 001",   // space
		"order<001>",  // angle brackets
		"order;DROP",  // semicolon
		"",            // empty
		"hello world", // space
		"order\n001",  // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
