package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const callbackDedupTTL = 24 * time.Hour

// nonTerminalSettleStates are the states a proof submission may find the
// intent in. AWAITING_VERIFICATION is included so a settlement that rolled
// back on insufficient balance can be retried.
var nonTerminalSettleStates = []domain.IntentState{
	domain.IntentStateAwaitingGateway,
	domain.IntentStateAwaitingVerification,
}

// IntentOrchestratorService implements ports.IntentOrchestrator. It owns the
// intent state machine and the atomic settlement unit: the state CAS, the
// ledger write, and the invoice application commit or roll back together.
type IntentOrchestratorService struct {
	intentRepo        ports.IntentRepository
	walletRepo        ports.WalletRepository
	invoiceRepo       ports.InvoiceRepository
	ledger            ports.WalletLedger
	invoiceSettlement ports.InvoiceSettlement
	gateways          map[domain.GatewayKind]ports.GatewayAdapter
	transactor        ports.DBTransactor
	dedup             ports.CallbackDedup
	cache             ports.BalanceCache
	audit             ports.AuditService
	log               zerolog.Logger
}

// NewIntentOrchestratorService creates a new IntentOrchestratorService.
func NewIntentOrchestratorService(
	intentRepo ports.IntentRepository,
	walletRepo ports.WalletRepository,
	invoiceRepo ports.InvoiceRepository,
	ledger ports.WalletLedger,
	invoiceSettlement ports.InvoiceSettlement,
	gateways map[domain.GatewayKind]ports.GatewayAdapter,
	transactor ports.DBTransactor,
	dedup ports.CallbackDedup,
	cache ports.BalanceCache,
	audit ports.AuditService,
	log zerolog.Logger,
) *IntentOrchestratorService {
	return &IntentOrchestratorService{
		intentRepo:        intentRepo,
		walletRepo:        walletRepo,
		invoiceRepo:       invoiceRepo,
		ledger:            ledger,
		invoiceSettlement: invoiceSettlement,
		gateways:          gateways,
		transactor:        transactor,
		dedup:             dedup,
		cache:             cache,
		audit:             audit,
		log:               log,
	}
}

// CreateIntent validates the request, persists the intent, and opens the
// external gateway order.
func (s *IntentOrchestratorService) CreateIntent(ctx context.Context, req ports.CreateIntentRequest) (*ports.CreateIntentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}

	gw, ok := s.gateways[req.GatewayKind]
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("unknown gateway kind: %s", req.GatewayKind))
	}

	switch req.Purpose {
	case domain.PurposeWalletTopup:
		if req.InvoiceID != nil {
			return nil, apperror.Validation("invoice_id is not allowed for wallet topup")
		}
	case domain.PurposeInvoicePayment:
		if err := s.checkInvoicePayable(ctx, req); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown purpose: %s", req.Purpose))
	}

	intent := &domain.PaymentIntent{
		ID:          uuid.New(),
		MerchantID:  req.MerchantID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Purpose:     req.Purpose,
		InvoiceID:   req.InvoiceID,
		GatewayKind: req.GatewayKind,
		State:       domain.IntentStateCreated,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.intentRepo.Create(ctx, intent); err != nil {
		if errors.Is(err, ports.ErrDuplicateIntent) {
			return nil, apperror.ErrConflict("another payment intent for this invoice is already in flight")
		}
		return nil, apperror.InternalError(fmt.Errorf("create intent: %w", err))
	}

	orderID, err := gw.OpenOrder(ctx, ports.OpenOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  intent.ID.String(),
	})
	if err != nil {
		if errors.Is(err, ports.ErrOrderRejected) {
			reason := err.Error()
			if _, terr := s.intentRepo.Transition(ctx, intent.ID,
				[]domain.IntentState{domain.IntentStateCreated},
				domain.IntentStateFailed, &reason); terr != nil {
				s.log.Error().Err(terr).Str("intent_id", intent.ID.String()).Msg("failed to mark rejected intent")
			}
			return nil, apperror.ErrGatewayRejected(reason)
		}
		// Transient failure: the order may or may not exist on the gateway
		// side. Park the intent in AWAITING_GATEWAY with no order id so the
		// reconciler can resolve it through the receipt lookup, instead of
		// leaving it in CREATED where nothing ever picks it up.
		if merr := s.intentRepo.MarkAwaitingGateway(ctx, intent.ID, ""); merr != nil {
			s.log.Error().Err(merr).Str("intent_id", intent.ID.String()).Msg("failed to park intent for reconciliation")
		}
		return nil, apperror.ErrGatewayUnavailableForIntent(intent.ID.String(), err)
	}

	if err := s.intentRepo.MarkAwaitingGateway(ctx, intent.ID, orderID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark awaiting gateway: %w", err))
	}
	intent.State = domain.IntentStateAwaitingGateway
	intent.GatewayOrderID = orderID

	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &req.MerchantID,
		Action:       domain.AuditActionIntentCreated,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		IPAddress:    req.ClientIP,
		CreatedAt:    time.Now().UTC(),
	})

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Str("purpose", string(req.Purpose)).
		Int64("amount", req.Amount).
		Str("gateway_order_id", orderID).
		Msg("payment intent created")

	return &ports.CreateIntentResult{Intent: intent, GatewayOrderRef: orderID}, nil
}

func (s *IntentOrchestratorService) checkInvoicePayable(ctx context.Context, req ports.CreateIntentRequest) error {
	if req.InvoiceID == nil {
		return apperror.Validation("invoice_id is required for invoice payment")
	}

	inv, err := s.invoiceRepo.GetByID(ctx, *req.InvoiceID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get invoice: %w", err))
	}
	if inv == nil || inv.MerchantID != req.MerchantID {
		return apperror.ErrInvoiceNotFound()
	}
	if inv.Status == domain.InvoiceStatusPaid {
		return apperror.ErrInvoiceAlreadySettled()
	}
	if !inv.IsSettleable() {
		return apperror.ErrConflict(fmt.Sprintf("invoice is %s", strings.ToLower(string(inv.Status))))
	}
	if outstanding := inv.TotalAmount - inv.PaidAmount; req.Amount != outstanding {
		return apperror.Validation(fmt.Sprintf("amount must equal outstanding invoice balance (%d)", outstanding))
	}

	inFlight, err := s.intentRepo.HasNonTerminalForInvoice(ctx, req.MerchantID, *req.InvoiceID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check in-flight intents: %w", err))
	}
	if inFlight {
		return apperror.ErrConflict("another payment intent for this invoice is already in flight")
	}
	return nil
}

// VerifyAndSettle verifies the gateway proof and, when valid, runs the
// settlement unit. Replays of an already-settled intent return the stored
// result.
func (s *IntentOrchestratorService) VerifyAndSettle(ctx context.Context, intentID uuid.UUID, proof domain.GatewayProof) (*ports.SettlementResult, error) {
	intent, err := s.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get intent: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrIntentNotFound()
	}

	if intent.IsTerminal() {
		switch intent.State {
		case domain.IntentStateSucceeded, domain.IntentStateFailed:
			return s.storedResult(ctx, intent)
		default:
			return nil, apperror.ErrConflict("intent was cancelled")
		}
	}
	if intent.State == domain.IntentStateCreated {
		return nil, apperror.ErrConflict("intent has no gateway order yet")
	}

	gw, ok := s.gateways[intent.GatewayKind]
	if !ok {
		return nil, apperror.InternalError(fmt.Errorf("no adapter for gateway kind %s", intent.GatewayKind))
	}

	if err := gw.VerifyProof(proof, intent.GatewayOrderID, intent.Amount); err != nil {
		if errors.Is(err, ports.ErrProofInvalid) {
			return nil, s.failVerification(ctx, intent, proof, err)
		}
		return nil, apperror.ErrGatewayUnavailable(err)
	}

	// Claim the intent for settlement. The from set includes
	// AWAITING_VERIFICATION so an earlier rolled-back attempt can retry.
	claimed, err := s.intentRepo.Transition(ctx, intent.ID, nonTerminalSettleStates,
		domain.IntentStateAwaitingVerification, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("claim intent: %w", err))
	}
	if !claimed {
		return s.resolveLostRace(ctx, intent.ID)
	}
	intent.State = domain.IntentStateAwaitingVerification

	return s.settle(ctx, intent, proof.GatewayPaymentID, domain.AuditActionSettled)
}

// failVerification marks the intent FAILED and records the forged or
// malformed proof as a security event.
func (s *IntentOrchestratorService) failVerification(ctx context.Context, intent *domain.PaymentIntent, proof domain.GatewayProof, cause error) error {
	reason := cause.Error()
	if _, err := s.intentRepo.Transition(ctx, intent.ID, nonTerminalSettleStates,
		domain.IntentStateFailed, &reason); err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("failed to mark intent FAILED")
	}

	details, _ := json.Marshal(map[string]string{
		"gateway_order_id":   proof.GatewayOrderID,
		"gateway_payment_id": proof.GatewayPaymentID,
		"reason":             reason,
	})
	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &intent.MerchantID,
		Action:       domain.AuditActionVerificationFailed,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		Details:      string(details),
		CreatedAt:    time.Now().UTC(),
	})

	s.log.Warn().
		Str("intent_id", intent.ID.String()).
		Str("gateway_order_id", proof.GatewayOrderID).
		Msg("proof verification failed")

	return apperror.ErrVerificationFailed()
}

// settle runs the atomic settlement unit: state CAS, ledger write, and
// invoice application in a single database transaction.
func (s *IntentOrchestratorService) settle(ctx context.Context, intent *domain.PaymentIntent, gatewayPaymentID string, action domain.AuditAction) (*ports.SettlementResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Single serialization point: exactly one caller moves the intent to
	// SUCCEEDED. Everyone else lost the race.
	won, err := s.intentRepo.TransitionTx(ctx, dbTx, intent.ID,
		[]domain.IntentState{domain.IntentStateAwaitingVerification},
		domain.IntentStateSucceeded, &gatewayPaymentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transition intent: %w", err))
	}
	if !won {
		return s.resolveLostRace(ctx, intent.ID)
	}

	req := ports.LedgerEntryRequest{
		MerchantID: intent.MerchantID,
		Amount:     intent.Amount,
		IntentID:   intent.ID,
		Currency:   intent.Currency,
	}

	var entry *domain.WalletTransaction
	var invoice *domain.Invoice

	switch intent.Purpose {
	case domain.PurposeWalletTopup:
		req.Description = "Wallet topup " + intent.ID.String()
		entry, err = s.ledger.Credit(ctx, dbTx, req)
		if err != nil {
			return nil, err
		}
	case domain.PurposeInvoicePayment:
		req.Description = "Invoice payment " + intent.InvoiceID.String()
		entry, err = s.ledger.Debit(ctx, dbTx, req)
		if err != nil {
			// Insufficient balance rolls back the whole unit; the intent
			// stays AWAITING_VERIFICATION and the proof may be resubmitted
			// after a topup.
			return nil, err
		}
		invoice, err = s.invoiceSettlement.ApplyPayment(ctx, dbTx, *intent.InvoiceID, intent.Amount, intent.ID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperror.InternalError(fmt.Errorf("unknown purpose: %s", intent.Purpose))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit settlement: %w", err))
	}

	now := time.Now().UTC()
	intent.State = domain.IntentStateSucceeded
	intent.GatewayPaymentID = &gatewayPaymentID
	intent.TerminalAt = &now

	// Post-commit: best-effort cache invalidation and audit.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, intent.MerchantID); err != nil {
			s.log.Warn().Err(err).Str("merchant_id", intent.MerchantID.String()).Msg("failed to invalidate balance cache")
		}
	}
	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &intent.MerchantID,
		Action:       action,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		CreatedAt:    now,
	})

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("merchant_id", intent.MerchantID.String()).
		Str("purpose", string(intent.Purpose)).
		Int64("amount", intent.Amount).
		Msg("intent settled")

	result := &ports.SettlementResult{Intent: intent, Transaction: entry, Invoice: invoice}
	if intent.Purpose == domain.PurposeWalletTopup && entry != nil {
		result.NewBalance = &entry.ClosingBalance
	}
	return result, nil
}

// resolveLostRace re-reads the intent after a lost CAS. If a concurrent
// caller settled it, the stored result is returned; anything else is a
// conflict.
func (s *IntentOrchestratorService) resolveLostRace(ctx context.Context, intentID uuid.UUID) (*ports.SettlementResult, error) {
	intent, err := s.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reload intent: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrIntentNotFound()
	}
	if intent.State == domain.IntentStateSucceeded {
		return s.storedResult(ctx, intent)
	}
	return nil, apperror.ErrConflict("intent is being settled by another request")
}

// storedResult rebuilds the settlement outcome for a terminal intent from
// the durable records.
func (s *IntentOrchestratorService) storedResult(ctx context.Context, intent *domain.PaymentIntent) (*ports.SettlementResult, error) {
	result := &ports.SettlementResult{Intent: intent}

	if intent.State != domain.IntentStateSucceeded {
		return result, nil
	}

	entry, err := s.walletRepo.GetTransactionByIntentID(ctx, intent.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get ledger entry: %w", err))
	}
	result.Transaction = entry
	if intent.Purpose == domain.PurposeWalletTopup && entry != nil {
		result.NewBalance = &entry.ClosingBalance
	}

	if intent.Purpose == domain.PurposeInvoicePayment && intent.InvoiceID != nil {
		invoice, err := s.invoiceRepo.GetByID(ctx, *intent.InvoiceID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get invoice: %w", err))
		}
		result.Invoice = invoice
	}
	return result, nil
}

// Cancel moves a not-yet-verifying intent to CANCELLED. Terminal intents,
// including already-cancelled ones, report a conflict.
func (s *IntentOrchestratorService) Cancel(ctx context.Context, intentID uuid.UUID) (*domain.PaymentIntent, error) {
	intent, err := s.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get intent: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrIntentNotFound()
	}
	if !intent.IsCancellable() {
		return nil, apperror.ErrConflict(fmt.Sprintf("intent is %s", strings.ToLower(string(intent.State))))
	}

	ok, err := s.intentRepo.Transition(ctx, intent.ID,
		[]domain.IntentState{domain.IntentStateCreated, domain.IntentStateAwaitingGateway},
		domain.IntentStateCancelled, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("cancel intent: %w", err))
	}
	if !ok {
		// Lost a race against settlement or a concurrent cancel.
		return nil, apperror.ErrConflict("intent can no longer be cancelled")
	}

	now := time.Now().UTC()
	intent.State = domain.IntentStateCancelled
	intent.TerminalAt = &now

	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &intent.MerchantID,
		Action:       domain.AuditActionCancelled,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		CreatedAt:    now,
	})

	s.log.Info().Str("intent_id", intent.ID.String()).Msg("intent cancelled")
	return intent, nil
}

// SimulateSuccess settles a SIMULATED intent without an external proof. It
// runs the same settlement unit as a verified proof, so every idempotency
// guarantee carries over.
func (s *IntentOrchestratorService) SimulateSuccess(ctx context.Context, intentID uuid.UUID) (*ports.SettlementResult, error) {
	intent, err := s.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get intent: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrIntentNotFound()
	}
	if intent.GatewayKind != domain.GatewayKindSimulated {
		return nil, apperror.ErrGatewayKindMismatch()
	}

	if intent.IsTerminal() {
		if intent.State == domain.IntentStateSucceeded {
			return s.storedResult(ctx, intent)
		}
		return nil, apperror.ErrConflict(fmt.Sprintf("intent is %s", strings.ToLower(string(intent.State))))
	}
	if intent.State == domain.IntentStateCreated {
		return nil, apperror.ErrConflict("intent has no gateway order yet")
	}

	claimed, err := s.intentRepo.Transition(ctx, intent.ID, nonTerminalSettleStates,
		domain.IntentStateAwaitingVerification, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("claim intent: %w", err))
	}
	if !claimed {
		return s.resolveLostRace(ctx, intent.ID)
	}
	intent.State = domain.IntentStateAwaitingVerification

	paymentID := ports.SimulatedPaymentPrefix + strings.ReplaceAll(intent.ID.String(), "-", "")
	return s.settle(ctx, intent, paymentID, domain.AuditActionSimulated)
}

// SettleByCallback maps a gateway callback onto its intent and settles it.
// Safe under at-least-once delivery: a replay either short-circuits on the
// dedup key or resolves to the stored result through the state machine.
func (s *IntentOrchestratorService) SettleByCallback(ctx context.Context, proof domain.GatewayProof) (*ports.SettlementResult, error) {
	seen := false
	if s.dedup != nil {
		key := proof.GatewayOrderID + ":" + proof.GatewayPaymentID
		fresh, err := s.dedup.CheckAndSet(ctx, key, callbackDedupTTL)
		if err != nil {
			s.log.Warn().Err(err).Msg("callback dedup check failed, falling through to state machine")
		} else {
			seen = !fresh
		}
	}

	intent, err := s.intentRepo.GetByGatewayOrderID(ctx, proof.GatewayOrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get intent by order: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrIntentNotFound()
	}

	if seen && intent.State == domain.IntentStateSucceeded {
		return s.storedResult(ctx, intent)
	}
	return s.VerifyAndSettle(ctx, intent.ID, proof)
}
