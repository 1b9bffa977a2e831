package service

import (
	"context"
	"fmt"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// InvoiceSettlementService implements ports.InvoiceSettlement.
type InvoiceSettlementService struct {
	invoiceRepo ports.InvoiceRepository
	log         zerolog.Logger
}

// NewInvoiceSettlementService creates a new InvoiceSettlementService.
func NewInvoiceSettlementService(invoiceRepo ports.InvoiceRepository, log zerolog.Logger) *InvoiceSettlementService {
	return &InvoiceSettlementService{invoiceRepo: invoiceRepo, log: log}
}

// ApplyPayment applies one verified payment to the invoice inside the
// caller's settlement transaction. Redelivery of the same intent is a no-op
// returning the current invoice.
func (s *InvoiceSettlementService) ApplyPayment(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID, amount int64, intentID uuid.UUID) (*domain.Invoice, error) {
	applied, err := s.invoiceRepo.ApplicationExists(ctx, intentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check application: %w", err))
	}
	if applied {
		inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get invoice: %w", err))
		}
		if inv == nil {
			return nil, apperror.ErrInvoiceNotFound()
		}
		return inv, nil
	}

	inv, err := s.invoiceRepo.GetForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock invoice: %w", err))
	}
	if inv == nil {
		return nil, apperror.ErrInvoiceNotFound()
	}
	if inv.Status == domain.InvoiceStatusPaid {
		return nil, apperror.ErrInvoiceAlreadySettled()
	}

	now := time.Now().UTC()
	inv.PaidAmount += amount
	if inv.PaidAmount >= inv.TotalAmount {
		inv.Status = domain.InvoiceStatusPaid
		inv.PaidAt = &now
	}
	inv.UpdatedAt = now

	if err := s.invoiceRepo.UpdatePayment(ctx, tx, inv); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update invoice: %w", err))
	}

	app := &domain.InvoiceApplication{
		IntentID:  intentID,
		InvoiceID: invoiceID,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := s.invoiceRepo.RecordApplication(ctx, tx, app); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record application: %w", err))
	}

	s.log.Info().
		Str("invoice_id", invoiceID.String()).
		Str("intent_id", intentID.String()).
		Int64("amount", amount).
		Str("status", string(inv.Status)).
		Msg("invoice payment applied")

	return inv, nil
}
