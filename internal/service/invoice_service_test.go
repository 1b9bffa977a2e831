package service

import (
	"context"
	"testing"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupInvoiceSettlement(t *testing.T) (*InvoiceSettlementService, *mocks.MockInvoiceRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockInvoiceRepository(ctrl)
	return NewInvoiceSettlementService(repo, zerolog.Nop()), repo, ctrl
}

func TestInvoiceSettlement_ApplyPayment_FullPaymentMarksPaid(t *testing.T) {
	svc, repo, ctrl := setupInvoiceSettlement(t)
	defer ctrl.Finish()

	ctx := context.Background()
	invoiceID := uuid.New()
	intentID := uuid.New()
	tx := &mockTx{}
	inv := &domain.Invoice{
		ID:          invoiceID,
		MerchantID:  uuid.New(),
		Status:      domain.InvoiceStatusPending,
		TotalAmount: 50000,
		PaidAmount:  0,
		CreatedAt:   time.Now().UTC(),
	}

	repo.EXPECT().ApplicationExists(ctx, intentID).Return(false, nil)
	repo.EXPECT().GetForUpdate(ctx, tx, invoiceID).Return(inv, nil)
	repo.EXPECT().UpdatePayment(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, updated *domain.Invoice) error {
			assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
			assert.Equal(t, int64(50000), updated.PaidAmount)
			assert.NotNil(t, updated.PaidAt)
			return nil
		})
	repo.EXPECT().RecordApplication(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, app *domain.InvoiceApplication) error {
			assert.Equal(t, intentID, app.IntentID)
			assert.Equal(t, int64(50000), app.Amount)
			return nil
		})

	result, err := svc.ApplyPayment(ctx, tx, invoiceID, 50000, intentID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, result.Status)
}

func TestInvoiceSettlement_ApplyPayment_ReplayIsNoOp(t *testing.T) {
	svc, repo, ctrl := setupInvoiceSettlement(t)
	defer ctrl.Finish()

	ctx := context.Background()
	invoiceID := uuid.New()
	intentID := uuid.New()
	tx := &mockTx{}
	inv := &domain.Invoice{ID: invoiceID, Status: domain.InvoiceStatusPaid, TotalAmount: 50000, PaidAmount: 50000}

	repo.EXPECT().ApplicationExists(ctx, intentID).Return(true, nil)
	repo.EXPECT().GetByID(ctx, invoiceID).Return(inv, nil)

	result, err := svc.ApplyPayment(ctx, tx, invoiceID, 50000, intentID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, result.Status)
}

func TestInvoiceSettlement_ApplyPayment_InvoiceNotFound(t *testing.T) {
	svc, repo, ctrl := setupInvoiceSettlement(t)
	defer ctrl.Finish()

	ctx := context.Background()
	invoiceID := uuid.New()
	intentID := uuid.New()
	tx := &mockTx{}

	repo.EXPECT().ApplicationExists(ctx, intentID).Return(false, nil)
	repo.EXPECT().GetForUpdate(ctx, tx, invoiceID).Return(nil, nil)

	_, err := svc.ApplyPayment(ctx, tx, invoiceID, 1000, intentID)
	assertAppError(t, err, "INV_001")
}

func TestInvoiceSettlement_ApplyPayment_AlreadyPaid(t *testing.T) {
	svc, repo, ctrl := setupInvoiceSettlement(t)
	defer ctrl.Finish()

	ctx := context.Background()
	invoiceID := uuid.New()
	intentID := uuid.New()
	tx := &mockTx{}
	inv := &domain.Invoice{ID: invoiceID, Status: domain.InvoiceStatusPaid, TotalAmount: 1000, PaidAmount: 1000}

	repo.EXPECT().ApplicationExists(ctx, intentID).Return(false, nil)
	repo.EXPECT().GetForUpdate(ctx, tx, invoiceID).Return(inv, nil)

	_, err := svc.ApplyPayment(ctx, tx, invoiceID, 1000, intentID)
	assertAppError(t, err, "INV_002")
}
