package service

import (
	"context"
	"time"

	"payment-intent-engine/config"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconcilerService periodically sweeps intents stuck in AWAITING_GATEWAY
// and resolves them against the gateway's view: a paid order settles through
// the regular settlement unit, an expired or failed order moves the intent
// to FAILED, a pending order is left for the next sweep.
type ReconcilerService struct {
	intentRepo   ports.IntentRepository
	orchestrator ports.IntentOrchestrator
	gateways     map[domain.GatewayKind]ports.GatewayAdapter
	audit        ports.AuditService
	interval     time.Duration
	stuckAfter   time.Duration
	batchSize    int
	log          zerolog.Logger
}

// NewReconcilerService creates a new ReconcilerService.
func NewReconcilerService(
	intentRepo ports.IntentRepository,
	orchestrator ports.IntentOrchestrator,
	gateways map[domain.GatewayKind]ports.GatewayAdapter,
	audit ports.AuditService,
	cfg config.ReconcilerConfig,
	log zerolog.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		intentRepo:   intentRepo,
		orchestrator: orchestrator,
		gateways:     gateways,
		audit:        audit,
		interval:     cfg.Interval,
		stuckAfter:   cfg.StuckAfter,
		batchSize:    cfg.BatchSize,
		log:          log,
	}
}

// Run sweeps on a fixed interval until the context is cancelled. It is meant
// to be launched as a goroutine from main.
func (s *ReconcilerService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("stuck_after", s.stuckAfter).
		Msg("reconciler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reconciler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reconciles one batch of stuck intents. Exported so tests and the
// admin surface can trigger a pass directly.
func (s *ReconcilerService) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.stuckAfter)
	intents, err := s.intentRepo.ListStuckAwaitingGateway(ctx, cutoff, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("reconciler: list stuck intents failed")
		return
	}
	if len(intents) == 0 {
		return
	}

	s.log.Info().Int("count", len(intents)).Msg("reconciler: sweeping stuck intents")

	for i := range intents {
		if ctx.Err() != nil {
			return
		}
		s.reconcile(ctx, &intents[i])
	}
}

func (s *ReconcilerService) reconcile(ctx context.Context, intent *domain.PaymentIntent) {
	gw, ok := s.gateways[intent.GatewayKind]
	if !ok {
		s.log.Error().Str("intent_id", intent.ID.String()).Str("gateway_kind", string(intent.GatewayKind)).Msg("reconciler: no adapter for gateway kind")
		return
	}

	status, err := gw.FetchOrderStatus(ctx, intent.GatewayOrderID, intent.ID.String())
	if err != nil {
		// Gateway unavailable: leave the intent for the next sweep.
		s.log.Warn().Err(err).Str("intent_id", intent.ID.String()).Msg("reconciler: order status fetch failed")
		return
	}

	// An intent parked after a transient open failure carries no order id;
	// the receipt lookup recovers the order the gateway may have created.
	if intent.GatewayOrderID == "" && status.OrderID != "" {
		if err := s.intentRepo.MarkAwaitingGateway(ctx, intent.ID, status.OrderID); err != nil {
			// Lost to a concurrent cancel or settlement.
			s.log.Warn().Err(err).Str("intent_id", intent.ID.String()).Msg("reconciler: order id backfill failed")
			return
		}
		intent.GatewayOrderID = status.OrderID
		s.log.Info().
			Str("intent_id", intent.ID.String()).
			Str("gateway_order_id", status.OrderID).
			Msg("reconciler: recovered gateway order by receipt")
	}

	switch status.State {
	case ports.OrderStatePaid:
		s.settlePaid(ctx, intent, status)
	case ports.OrderStateExpired, ports.OrderStateFailed:
		s.failStuck(ctx, intent, status.State)
	default:
		// Still pending on the gateway side.
	}
}

func (s *ReconcilerService) settlePaid(ctx context.Context, intent *domain.PaymentIntent, status *ports.OrderStatus) {
	proof := domain.GatewayProof{
		GatewayOrderID:   status.OrderID,
		GatewayPaymentID: status.PaymentID,
		Signature:        status.Signature,
	}

	result, err := s.orchestrator.VerifyAndSettle(ctx, intent.ID, proof)
	if err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("reconciler: settlement failed")
		return
	}

	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &intent.MerchantID,
		Action:       domain.AuditActionReconciled,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		CreatedAt:    time.Now().UTC(),
	})

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("state", string(result.Intent.State)).
		Msg("reconciler: stuck intent settled")
}

func (s *ReconcilerService) failStuck(ctx context.Context, intent *domain.PaymentIntent, orderState ports.OrderState) {
	reason := "gateway order " + string(orderState)
	ok, err := s.intentRepo.Transition(ctx, intent.ID,
		[]domain.IntentState{domain.IntentStateAwaitingGateway},
		domain.IntentStateFailed, &reason)
	if err != nil {
		s.log.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("reconciler: fail transition errored")
		return
	}
	if !ok {
		// Someone settled or cancelled it between the list and now.
		return
	}

	s.audit.Log(ctx, &domain.AuditEvent{
		ID:           uuid.New(),
		MerchantID:   &intent.MerchantID,
		Action:       domain.AuditActionReconciled,
		ResourceType: "payment_intent",
		ResourceID:   intent.ID.String(),
		Details:      `{"outcome":"` + string(orderState) + `"}`,
		CreatedAt:    time.Now().UTC(),
	})

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("order_state", string(orderState)).
		Msg("reconciler: stuck intent failed")
}
