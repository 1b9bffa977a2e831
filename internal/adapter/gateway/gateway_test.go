package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHTTPClient returns canned responses or errors.
type stubHTTPClient struct {
	resp *http.Response
	err  error
	last *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestRealGateway(client HTTPClient) *RealGateway {
	return NewRealGateway("https://gw.test", "key_id", "shh_secret", client, zerolog.Nop())
}

func TestRealGateway_OpenOrder_Success(t *testing.T) {
	client := &stubHTTPClient{resp: jsonResponse(200, `{"id":"order_123","status":"created"}`)}
	g := newTestRealGateway(client)

	orderID, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{
		Amount: 100000, Currency: "INR", Receipt: "intent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_123", orderID)

	user, _, ok := client.last.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "key_id", user)
}

func TestRealGateway_OpenOrder_Rejected(t *testing.T) {
	client := &stubHTTPClient{resp: jsonResponse(400, `{"error":{"description":"amount below minimum"}}`)}
	g := newTestRealGateway(client)

	_, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{Amount: 1, Currency: "INR"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrOrderRejected))
	assert.Contains(t, err.Error(), "amount below minimum")
}

func TestRealGateway_OpenOrder_TransientFailures(t *testing.T) {
	t.Run("network error", func(t *testing.T) {
		g := newTestRealGateway(&stubHTTPClient{err: errors.New("connection refused")})
		_, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{Amount: 100, Currency: "INR"})
		assert.True(t, errors.Is(err, ports.ErrGatewayUnavailable))
	})

	t.Run("5xx", func(t *testing.T) {
		g := newTestRealGateway(&stubHTTPClient{resp: jsonResponse(503, `{}`)})
		_, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{Amount: 100, Currency: "INR"})
		assert.True(t, errors.Is(err, ports.ErrGatewayUnavailable))
	})
}

func TestRealGateway_VerifyProof(t *testing.T) {
	g := newTestRealGateway(&stubHTTPClient{})

	valid := domain.GatewayProof{
		GatewayOrderID:   "order_123",
		GatewayPaymentID: "pay_456",
		Signature:        g.Sign("order_123", "pay_456"),
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, g.VerifyProof(valid, "order_123", 100000))
	})

	t.Run("tampered signature", func(t *testing.T) {
		tampered := valid
		tampered.Signature = tampered.Signature[:len(tampered.Signature)-1] + "0"
		err := g.VerifyProof(tampered, "order_123", 100000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})

	t.Run("order id mismatch", func(t *testing.T) {
		err := g.VerifyProof(valid, "order_999", 100000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})

	t.Run("missing fields", func(t *testing.T) {
		err := g.VerifyProof(domain.GatewayProof{}, "order_123", 100000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})

	t.Run("signature from another secret", func(t *testing.T) {
		other := NewRealGateway("https://gw.test", "key_id", "other_secret", &stubHTTPClient{}, zerolog.Nop())
		forged := valid
		forged.Signature = other.Sign("order_123", "pay_456")
		err := g.VerifyProof(forged, "order_123", 100000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})
}

func TestRealGateway_FetchOrderStatus(t *testing.T) {
	t.Run("paid", func(t *testing.T) {
		client := &stubHTTPClient{resp: jsonResponse(200,
			`{"id":"order_123","status":"paid","payment_id":"pay_456","signature":"abc"}`)}
		g := newTestRealGateway(client)

		status, err := g.FetchOrderStatus(context.Background(), "order_123", "")
		require.NoError(t, err)
		assert.Equal(t, ports.OrderStatePaid, status.State)
		assert.Equal(t, "pay_456", status.PaymentID)
	})

	t.Run("unknown order is failed", func(t *testing.T) {
		client := &stubHTTPClient{resp: jsonResponse(404, `{}`)}
		g := newTestRealGateway(client)

		status, err := g.FetchOrderStatus(context.Background(), "order_missing", "")
		require.NoError(t, err)
		assert.Equal(t, ports.OrderStateFailed, status.State)
	})

	t.Run("receipt fallback", func(t *testing.T) {
		client := &stubHTTPClient{resp: jsonResponse(200, `{"id":"order_123","status":"created"}`)}
		g := newTestRealGateway(client)

		_, err := g.FetchOrderStatus(context.Background(), "", "intent-9")
		require.NoError(t, err)
		assert.Contains(t, client.last.URL.String(), "receipt=intent-9")
	})
}

func TestSimulatedGateway_OpenOrderAndVerify(t *testing.T) {
	g := NewSimulatedGateway()

	orderID, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{
		Amount: 50000, Currency: "INR", Receipt: "intent-1",
	})
	require.NoError(t, err)
	assert.Contains(t, orderID, "simorder_")

	proof := SyntheticProof(orderID)
	assert.NoError(t, g.VerifyProof(proof, orderID, 50000))

	t.Run("order mismatch", func(t *testing.T) {
		err := g.VerifyProof(proof, "simorder_other", 50000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})

	t.Run("malformed payment id", func(t *testing.T) {
		bad := proof
		bad.GatewayPaymentID = "pay_real_looking"
		err := g.VerifyProof(bad, orderID, 50000)
		assert.True(t, errors.Is(err, ports.ErrProofInvalid))
	})
}

func TestSimulatedGateway_OpenOrder_RejectsNonPositive(t *testing.T) {
	g := NewSimulatedGateway()
	_, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{Amount: 0, Currency: "INR"})
	assert.True(t, errors.Is(err, ports.ErrOrderRejected))
}

func TestSimulatedGateway_FetchOrderStatus(t *testing.T) {
	g := NewSimulatedGateway()
	orderID, err := g.OpenOrder(context.Background(), ports.OpenOrderRequest{
		Amount: 100, Currency: "INR", Receipt: "intent-7",
	})
	require.NoError(t, err)

	status, err := g.FetchOrderStatus(context.Background(), orderID, "")
	require.NoError(t, err)
	assert.Equal(t, ports.OrderStatePending, status.State)

	paymentID := g.MarkPaid(orderID)
	status, err = g.FetchOrderStatus(context.Background(), orderID, "")
	require.NoError(t, err)
	assert.Equal(t, ports.OrderStatePaid, status.State)
	assert.Equal(t, paymentID, status.PaymentID)

	t.Run("receipt lookup", func(t *testing.T) {
		status, err := g.FetchOrderStatus(context.Background(), "", "intent-7")
		require.NoError(t, err)
		assert.Equal(t, orderID, status.OrderID)
	})

	t.Run("unknown order", func(t *testing.T) {
		status, err := g.FetchOrderStatus(context.Background(), "simorder_nope", "")
		require.NoError(t, err)
		assert.Equal(t, ports.OrderStateFailed, status.State)
	})
}
