package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-intent-engine/internal/adapter/http/dto"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/internal/core/ports/mocks"
	"payment-intent-engine/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testIntent(merchantID uuid.UUID, state domain.IntentState) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:             uuid.New(),
		MerchantID:     merchantID,
		Amount:         50000,
		Currency:       "INR",
		Purpose:        domain.PurposeWalletTopup,
		GatewayKind:    domain.GatewayKindReal,
		GatewayOrderID: "order_abc",
		State:          state,
		CreatedAt:      time.Now(),
	}
}

// --- Intent Handler Tests ---

func TestCreateIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateAwaitingGateway)

	mockOrch.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.CreateIntentRequest) (*ports.CreateIntentResult, error) {
			assert.Equal(t, merchantID, req.MerchantID)
			assert.Equal(t, int64(50000), req.Amount)
			assert.Equal(t, domain.PurposeWalletTopup, req.Purpose)
			return &ports.CreateIntentResult{Intent: intent, GatewayOrderRef: "order_abc"}, nil
		})

	body, _ := json.Marshal(dto.CreateIntentRequest{
		Amount:      50000,
		Currency:    "INR",
		Purpose:     "WALLET_TOPUP",
		GatewayKind: "REAL",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/intents", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", merchantID)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "order_abc", data["gateway_order_ref"])
	intentData := data["intent"].(map[string]interface{})
	assert.Equal(t, intent.ID.String(), intentData["id"])
	assert.Equal(t, "AWAITING_GATEWAY", intentData["state"])
}

func TestCreateIntent_MissingMerchantID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewIntentHandler(mocks.NewMockIntentOrchestrator(ctrl), mocks.NewMockIntentRepository(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateIntent_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewIntentHandler(mocks.NewMockIntentOrchestrator(ctrl), mocks.NewMockIntentRepository(ctrl))

	// Negative amount => binding error
	body := []byte(`{"amount":-5,"currency":"INR","purpose":"WALLET_TOPUP","gateway_kind":"REAL"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", uuid.New())

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIntent_InvoiceAlreadySettled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	h := NewIntentHandler(mockOrch, mocks.NewMockIntentRepository(ctrl))

	mockOrch.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInvoiceAlreadySettled())

	invoiceID := uuid.New().String()
	body, _ := json.Marshal(dto.CreateIntentRequest{
		Amount:      50000,
		Currency:    "INR",
		Purpose:     "INVOICE_PAYMENT",
		InvoiceID:   &invoiceID,
		GatewayKind: "REAL",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", uuid.New())

	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mocks.NewMockIntentOrchestrator(ctrl), mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateSucceeded)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "SUCCEEDED", data["state"])
}

func TestGetIntent_OtherMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mocks.NewMockIntentOrchestrator(ctrl), mockRepo)

	intent := testIntent(uuid.New(), domain.IntentStateSucceeded)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", uuid.New()) // different merchant

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateSucceeded)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	balance := int64(150000)
	entry := &domain.WalletTransaction{
		ID:             uuid.New(),
		MerchantID:     merchantID,
		Direction:      domain.DirectionCredit,
		Amount:         50000,
		ClosingBalance: balance,
		IntentID:       &intent.ID,
		CreatedAt:      time.Now(),
	}

	mockOrch.EXPECT().VerifyAndSettle(gomock.Any(), intent.ID, domain.GatewayProof{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	}).Return(&ports.SettlementResult{
		Intent:      intent,
		Transaction: entry,
		NewBalance:  &balance,
	}, nil)

	body, _ := json.Marshal(dto.VerifyRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(150000), data["new_balance"])
	txData := data["transaction"].(map[string]interface{})
	assert.Equal(t, "CREDIT", txData["direction"])
}

func TestVerifyIntent_InvalidProof(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateAwaitingGateway)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	mockOrch.EXPECT().VerifyAndSettle(gomock.Any(), intent.ID, gomock.Any()).Return(nil, apperror.ErrVerificationFailed())

	body, _ := json.Marshal(dto.VerifyRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "bad",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Verify(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestVerifyIntent_MissingProofFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mocks.NewMockIntentOrchestrator(ctrl), mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateAwaitingGateway)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyIntent_OtherMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	intent := testIntent(uuid.New(), domain.IntentStateAwaitingGateway)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	// The orchestrator must never see the request.

	body, _ := json.Marshal(dto.VerifyRequest{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", uuid.New()) // different merchant

	h.Verify(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateAwaitingGateway)
	cancelled := testIntent(merchantID, domain.IntentStateCancelled)
	cancelled.ID = intent.ID
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	mockOrch.EXPECT().Cancel(gomock.Any(), intent.ID).Return(cancelled, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", data["state"])
}

func TestCancelIntent_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateSucceeded)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	mockOrch.EXPECT().Cancel(gomock.Any(), intent.ID).Return(nil, apperror.ErrConflict("intent is past cancellation"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelIntent_OtherMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	intent := testIntent(uuid.New(), domain.IntentStateAwaitingGateway)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	// No Cancel expectation: a foreign intent must not reach the orchestrator.

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", uuid.New())

	h.Cancel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSimulateIntent_KindMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	merchantID := uuid.New()
	intent := testIntent(merchantID, domain.IntentStateAwaitingGateway)
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)
	mockOrch.EXPECT().SimulateSuccess(gomock.Any(), intent.ID).Return(nil, apperror.ErrGatewayKindMismatch())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.Simulate(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSimulateIntent_OtherMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	mockRepo := mocks.NewMockIntentRepository(ctrl)
	h := NewIntentHandler(mockOrch, mockRepo)

	intent := testIntent(uuid.New(), domain.IntentStateAwaitingGateway)
	intent.GatewayKind = domain.GatewayKindSimulated
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}
	c.Set("merchant_id", uuid.New())

	h.Simulate(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockWalletLedger(ctrl)
	h := NewWalletHandler(mockLedger)

	merchantID := uuid.New()
	mockLedger.EXPECT().CurrentBalance(gomock.Any(), merchantID).Return(int64(100000), "INR", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("merchant_id", merchantID)

	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(100000), data["balance"])
	assert.Equal(t, "INR", data["currency"])
}

func TestGetBalance_WalletNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockWalletLedger(ctrl)
	h := NewWalletHandler(mockLedger)

	merchantID := uuid.New()
	mockLedger.EXPECT().CurrentBalance(gomock.Any(), merchantID).Return(int64(0), "", apperror.ErrWalletNotFound())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("merchant_id", merchantID)

	h.GetBalance(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactions_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockWalletLedger(ctrl)
	h := NewWalletHandler(mockLedger)

	merchantID := uuid.New()
	intentID := uuid.New()

	mockLedger.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, params ports.LedgerListParams) ([]domain.WalletTransaction, int64, error) {
			assert.Equal(t, merchantID, params.MerchantID)
			require.NotNil(t, params.Direction)
			assert.Equal(t, domain.DirectionCredit, *params.Direction)
			return []domain.WalletTransaction{
				{
					ID:             uuid.New(),
					MerchantID:     merchantID,
					Direction:      domain.DirectionCredit,
					Amount:         50000,
					ClosingBalance: 50000,
					IntentID:       &intentID,
					CreatedAt:      time.Now(),
				},
			}, int64(1), nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=1&page_size=20&direction=CREDIT", nil)
	c.Set("merchant_id", merchantID)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["total_pages"])
}

func TestListTransactions_BadDirection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletLedger(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?direction=SIDEWAYS", nil)
	c.Set("merchant_id", uuid.New())

	h.ListTransactions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactions_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockWalletLedger(ctrl)
	h := NewWalletHandler(mockLedger)

	mockLedger.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("db down"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("merchant_id", uuid.New())

	h.ListTransactions(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- Webhook Handler Tests ---

func TestGatewayCallback_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	h := NewWebhookHandler(mockOrch)

	intent := testIntent(uuid.New(), domain.IntentStateSucceeded)
	mockOrch.EXPECT().SettleByCallback(gomock.Any(), domain.GatewayProof{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	}).Return(&ports.SettlementResult{Intent: intent}, nil)

	body, _ := json.Marshal(dto.GatewayCallbackRequest{
		Event:            "payment.captured",
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/gateway", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.GatewayCallback(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	intentData := data["intent"].(map[string]interface{})
	assert.Equal(t, "SUCCEEDED", intentData["state"])
}

func TestGatewayCallback_UnknownOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrch := mocks.NewMockIntentOrchestrator(ctrl)
	h := NewWebhookHandler(mockOrch)

	mockOrch.EXPECT().SettleByCallback(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrIntentNotFound())

	body, _ := json.Marshal(dto.GatewayCallbackRequest{
		Event:            "payment.captured",
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.GatewayCallback(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGatewayCallback_MissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWebhookHandler(mocks.NewMockIntentOrchestrator(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.GatewayCallback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check Test ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
