package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RealGateway implements ports.GatewayAdapter against a hosted payment
// gateway HTTP API. Proofs are verified locally with the shared secret;
// only OpenOrder and FetchOrderStatus touch the network.
type RealGateway struct {
	baseURL    string
	keyID      string
	secret     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewRealGateway creates a real gateway adapter.
func NewRealGateway(baseURL, keyID, secret string, httpClient HTTPClient, log zerolog.Logger) *RealGateway {
	return &RealGateway{
		baseURL:    baseURL,
		keyID:      keyID,
		secret:     secret,
		httpClient: httpClient,
		log:        log,
	}
}

// Kind returns the gateway variant.
func (g *RealGateway) Kind() domain.GatewayKind {
	return domain.GatewayKindReal
}

type openOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Error     struct {
		Description string `json:"description"`
	} `json:"error"`
}

// OpenOrder creates an external order at the gateway.
// Network failures and 5xx responses are transient (ErrGatewayUnavailable);
// 4xx responses are permanent rejections (ErrOrderRejected).
func (g *RealGateway) OpenOrder(ctx context.Context, req ports.OpenOrderRequest) (string, error) {
	body, err := json.Marshal(openOrderBody{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal order body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	order, err := decodeOrder(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: decode order response: %v", ports.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return order.ID, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", fmt.Errorf("%w: %s", ports.ErrOrderRejected, order.Error.Description)
	default:
		return "", fmt.Errorf("%w: gateway returned %d", ports.ErrGatewayUnavailable, resp.StatusCode)
	}
}

// VerifyProof checks the HMAC-SHA256 signature over "orderID|paymentID"
// using constant-time comparison.
func (g *RealGateway) VerifyProof(proof domain.GatewayProof, expectedOrderID string, expectedAmount int64) error {
	if proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" || proof.Signature == "" {
		return fmt.Errorf("%w: missing fields", ports.ErrProofInvalid)
	}
	if expectedAmount <= 0 {
		return fmt.Errorf("%w: non-positive expected amount", ports.ErrProofInvalid)
	}
	if proof.GatewayOrderID != expectedOrderID {
		return fmt.Errorf("%w: order id mismatch", ports.ErrProofInvalid)
	}

	expected := g.sign(proof.GatewayOrderID, proof.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(proof.Signature)) {
		return fmt.Errorf("%w: signature mismatch", ports.ErrProofInvalid)
	}
	return nil
}

// FetchOrderStatus queries the gateway for the order's current state.
// With an empty orderID the lookup falls back to the receipt.
func (g *RealGateway) FetchOrderStatus(ctx context.Context, orderID, receipt string) (*ports.OrderStatus, error) {
	endpoint := g.baseURL + "/v1/orders/" + url.PathEscape(orderID)
	if orderID == "" {
		endpoint = g.baseURL + "/v1/orders?receipt=" + url.QueryEscape(receipt)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &ports.OrderStatus{OrderID: orderID, State: ports.OrderStateFailed}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gateway returned %d", ports.ErrGatewayUnavailable, resp.StatusCode)
	}

	order, err := decodeOrder(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v", ports.ErrGatewayUnavailable, err)
	}

	return &ports.OrderStatus{
		OrderID:   order.ID,
		State:     mapOrderState(order.Status),
		PaymentID: order.PaymentID,
		Signature: order.Signature,
	}, nil
}

// Sign computes the gateway signature for a payment. Exposed so tests and
// the simulated webhook sender can build valid proofs.
func (g *RealGateway) Sign(orderID, paymentID string) string {
	return g.sign(orderID, paymentID)
}

func (g *RealGateway) sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeOrder(r io.Reader) (*orderResponse, error) {
	var order orderResponse
	if err := json.NewDecoder(r).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func mapOrderState(status string) ports.OrderState {
	switch status {
	case "paid":
		return ports.OrderStatePaid
	case "expired":
		return ports.OrderStateExpired
	case "failed":
		return ports.OrderStateFailed
	default:
		return ports.OrderStatePending
	}
}
