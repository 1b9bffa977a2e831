package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/google/uuid"
)

// SimulatedPaymentPrefix marks synthetic payment ids accepted by the
// simulated gateway.
const SimulatedPaymentPrefix = ports.SimulatedPaymentPrefix

type simOrder struct {
	state     ports.OrderState
	paymentID string
	receipt   string
	amount    int64
}

// SimulatedGateway implements ports.GatewayAdapter without any external
// calls. Orders live in memory; VerifyProof accepts any well-formed
// synthetic proof. Used in environments without a live gateway.
type SimulatedGateway struct {
	mu     sync.RWMutex
	orders map[string]*simOrder
}

// NewSimulatedGateway creates a simulated gateway adapter.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{orders: make(map[string]*simOrder)}
}

// Kind returns the gateway variant.
func (g *SimulatedGateway) Kind() domain.GatewayKind {
	return domain.GatewayKindSimulated
}

// OpenOrder registers a locally generated order id.
func (g *SimulatedGateway) OpenOrder(ctx context.Context, req ports.OpenOrderRequest) (string, error) {
	if req.Amount <= 0 {
		return "", fmt.Errorf("%w: non-positive amount", ports.ErrOrderRejected)
	}

	orderID := "simorder_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	g.mu.Lock()
	g.orders[orderID] = &simOrder{
		state:   ports.OrderStatePending,
		receipt: req.Receipt,
		amount:  req.Amount,
	}
	g.mu.Unlock()

	return orderID, nil
}

// VerifyProof accepts well-formed synthetic proofs: the order id must match
// and the payment id must carry the synthetic prefix.
func (g *SimulatedGateway) VerifyProof(proof domain.GatewayProof, expectedOrderID string, expectedAmount int64) error {
	if proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" {
		return fmt.Errorf("%w: missing fields", ports.ErrProofInvalid)
	}
	if proof.GatewayOrderID != expectedOrderID {
		return fmt.Errorf("%w: order id mismatch", ports.ErrProofInvalid)
	}
	if !strings.HasPrefix(proof.GatewayPaymentID, SimulatedPaymentPrefix) {
		return fmt.Errorf("%w: malformed synthetic payment id", ports.ErrProofInvalid)
	}
	return nil
}

// FetchOrderStatus returns the in-memory state of the order.
func (g *SimulatedGateway) FetchOrderStatus(ctx context.Context, orderID, receipt string) (*ports.OrderStatus, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	order, ok := g.orders[orderID]
	if !ok && receipt != "" {
		for id, o := range g.orders {
			if o.receipt == receipt {
				orderID, order, ok = id, o, true
				break
			}
		}
	}
	if !ok {
		return &ports.OrderStatus{OrderID: orderID, State: ports.OrderStateFailed}, nil
	}

	return &ports.OrderStatus{
		OrderID:   orderID,
		State:     order.state,
		PaymentID: order.paymentID,
	}, nil
}

// SyntheticProof builds a proof the simulated gateway will accept.
func SyntheticProof(orderID string) domain.GatewayProof {
	return domain.GatewayProof{
		GatewayOrderID:   orderID,
		GatewayPaymentID: SimulatedPaymentPrefix + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Signature:        "simulated",
	}
}

// MarkPaid flips an order to PAID. Test hook standing in for a customer
// completing checkout.
func (g *SimulatedGateway) MarkPaid(orderID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	paymentID := SimulatedPaymentPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
	if order, ok := g.orders[orderID]; ok {
		order.state = ports.OrderStatePaid
		order.paymentID = paymentID
	}
	return paymentID
}

// MarkExpired flips an order to EXPIRED. Test hook.
func (g *SimulatedGateway) MarkExpired(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if order, ok := g.orders[orderID]; ok {
		order.state = ports.OrderStateExpired
	}
}
