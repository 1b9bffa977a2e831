package handler

import (
	"payment-intent-engine/internal/adapter/http/dto"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"
	"payment-intent-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives gateway callbacks. The endpoint is not behind
// merchant auth; the callback signature is the authentication.
type WebhookHandler struct {
	orchestrator ports.IntentOrchestrator
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(orchestrator ports.IntentOrchestrator) *WebhookHandler {
	return &WebhookHandler{orchestrator: orchestrator}
}

// GatewayCallback handles POST /api/v1/webhooks/gateway.
func (h *WebhookHandler) GatewayCallback(c *gin.Context) {
	var req dto.GatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.orchestrator.SettleByCallback(c.Request.Context(), domain.GatewayProof{
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
