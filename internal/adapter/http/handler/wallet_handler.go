package handler

import (
	"strconv"

	"payment-intent-engine/internal/adapter/http/dto"
	"payment-intent-engine/internal/adapter/http/middleware"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"
	"payment-intent-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledger ports.WalletLedger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.WalletLedger) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// GetBalance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balance, currency, err := h.ledger.CurrentBalance(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		Balance:  balance,
		Currency: currency,
	})
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var direction *domain.TransactionDirection
	switch c.Query("direction") {
	case "":
	case string(domain.DirectionCredit):
		d := domain.DirectionCredit
		direction = &d
	case string(domain.DirectionDebit):
		d := domain.DirectionDebit
		direction = &d
	default:
		response.Error(c, apperror.Validation("direction must be CREDIT or DEBIT"))
		return
	}

	items, total, err := h.ledger.ListTransactions(c.Request.Context(), ports.LedgerListParams{
		MerchantID: merchantID.(uuid.UUID),
		Direction:  direction,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	entries := make([]dto.LedgerEntryResponse, 0, len(items))
	for i := range items {
		entries = append(entries, dto.ToLedgerEntryResponse(&items[i]))
	}

	response.OK(c, dto.LedgerListResponse{
		Items:      entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}
