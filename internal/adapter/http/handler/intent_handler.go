package handler

import (
	"payment-intent-engine/internal/adapter/http/dto"
	"payment-intent-engine/internal/adapter/http/middleware"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"
	"payment-intent-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntentHandler handles payment intent endpoints.
type IntentHandler struct {
	orchestrator ports.IntentOrchestrator
	intentRepo   ports.IntentRepository
}

// NewIntentHandler creates a new IntentHandler.
func NewIntentHandler(orchestrator ports.IntentOrchestrator, intentRepo ports.IntentRepository) *IntentHandler {
	return &IntentHandler{orchestrator: orchestrator, intentRepo: intentRepo}
}

// Create handles POST /api/v1/intents.
func (h *IntentHandler) Create(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	var invoiceID *uuid.UUID
	if req.InvoiceID != nil {
		id, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			response.Error(c, apperror.Validation("invalid invoice_id"))
			return
		}
		invoiceID = &id
	}

	result, err := h.orchestrator.CreateIntent(c.Request.Context(), ports.CreateIntentRequest{
		MerchantID:  merchantID.(uuid.UUID),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Purpose:     domain.IntentPurpose(req.Purpose),
		InvoiceID:   invoiceID,
		GatewayKind: domain.GatewayKind(req.GatewayKind),
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateIntentResponse{
		Intent:          dto.ToIntentResponse(result.Intent),
		GatewayOrderRef: result.GatewayOrderRef,
	})
}

// authorizeIntent parses the :id param, loads the intent, and checks it
// belongs to the authenticated merchant. Foreign intents read as not found.
// On failure the error response has already been written.
func (h *IntentHandler) authorizeIntent(c *gin.Context) (*domain.PaymentIntent, bool) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid intent id"))
		return nil, false
	}

	intent, err := h.intentRepo.GetByID(c.Request.Context(), intentID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return nil, false
	}
	if intent == nil || intent.MerchantID != merchantID.(uuid.UUID) {
		response.Error(c, apperror.ErrIntentNotFound())
		return nil, false
	}
	return intent, true
}

// Get handles GET /api/v1/intents/:id.
func (h *IntentHandler) Get(c *gin.Context) {
	intent, ok := h.authorizeIntent(c)
	if !ok {
		return
	}

	response.OK(c, dto.ToIntentResponse(intent))
}

// Verify handles POST /api/v1/intents/:id/verify.
func (h *IntentHandler) Verify(c *gin.Context) {
	intent, ok := h.authorizeIntent(c)
	if !ok {
		return
	}

	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.orchestrator.VerifyAndSettle(c.Request.Context(), intent.ID, domain.GatewayProof{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(result))
}

// Cancel handles POST /api/v1/intents/:id/cancel.
func (h *IntentHandler) Cancel(c *gin.Context) {
	intent, ok := h.authorizeIntent(c)
	if !ok {
		return
	}

	cancelled, err := h.orchestrator.Cancel(c.Request.Context(), intent.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToIntentResponse(cancelled))
}

// Simulate handles POST /api/v1/intents/:id/simulate.
func (h *IntentHandler) Simulate(c *gin.Context) {
	intent, ok := h.authorizeIntent(c)
	if !ok {
		return
	}

	result, err := h.orchestrator.SimulateSuccess(c.Request.Context(), intent.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toSettlementResponse(result))
}

// toSettlementResponse converts a settlement result to its wire form.
func toSettlementResponse(result *ports.SettlementResult) dto.SettlementResponse {
	resp := dto.SettlementResponse{
		Intent:     dto.ToIntentResponse(result.Intent),
		NewBalance: result.NewBalance,
	}
	if result.Transaction != nil {
		entry := dto.ToLedgerEntryResponse(result.Transaction)
		resp.Transaction = &entry
	}
	if result.Invoice != nil {
		inv := dto.ToInvoiceResponse(result.Invoice)
		resp.Invoice = &inv
	}
	return resp
}
