package postgres

import (
	"context"
	"testing"
	"time"

	"payment-intent-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIntent(merchantID uuid.UUID) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:             uuid.New(),
		MerchantID:     merchantID,
		Amount:         100000,
		Currency:       "INR",
		Purpose:        domain.PurposeWalletTopup,
		GatewayKind:    domain.GatewayKindReal,
		GatewayOrderID: "order_abc",
		State:          domain.IntentStateAwaitingGateway,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func intentColumnNames() []string {
	return []string{"id", "merchant_id", "amount", "currency", "purpose", "invoice_id", "gateway_kind",
		"gateway_order_id", "gateway_payment_id", "state", "failure_reason", "created_at", "terminal_at"}
}

func intentRow(p *domain.PaymentIntent) *pgxmock.Rows {
	return pgxmock.NewRows(intentColumnNames()).AddRow(
		p.ID, p.MerchantID, p.Amount, p.Currency, p.Purpose, p.InvoiceID, p.GatewayKind,
		p.GatewayOrderID, p.GatewayPaymentID, p.State, p.FailureReason, p.CreatedAt, p.TerminalAt,
	)
}

func TestIntentRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	p := newTestIntent(uuid.New())

	mock.ExpectExec("INSERT INTO payment_intents").
		WithArgs(p.ID, p.MerchantID, p.Amount, p.Currency, p.Purpose, p.InvoiceID, p.GatewayKind,
			p.GatewayOrderID, p.GatewayPaymentID, p.State, p.FailureReason, p.CreatedAt, p.TerminalAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	p := newTestIntent(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM payment_intents WHERE id").
		WithArgs(p.ID).
		WillReturnRows(intentRow(p))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.State, result.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM payment_intents WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(intentColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestIntentRepo_GetByGatewayOrderID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	p := newTestIntent(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM payment_intents WHERE gateway_order_id").
		WithArgs(p.GatewayOrderID).
		WillReturnRows(intentRow(p))

	result, err := repo.GetByGatewayOrderID(context.Background(), p.GatewayOrderID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
}

func TestIntentRepo_HasNonTerminalForInvoice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	merchantID, invoiceID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(merchantID, invoiceID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasNonTerminalForInvoice(context.Background(), merchantID, invoiceID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIntentRepo_MarkAwaitingGateway(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE payment_intents SET gateway_order_id").
		WithArgs("order_xyz", domain.IntentStateAwaitingGateway, id,
			[]string{"CREATED", "AWAITING_GATEWAY"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkAwaitingGateway(context.Background(), id, "order_xyz")
	assert.NoError(t, err)
}

func TestIntentRepo_MarkAwaitingGateway_AlreadyTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE payment_intents SET gateway_order_id").
		WithArgs("order_xyz", domain.IntentStateAwaitingGateway, id,
			[]string{"CREATED", "AWAITING_GATEWAY"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.MarkAwaitingGateway(context.Background(), id, "order_xyz")
	assert.Error(t, err)
}

func TestIntentRepo_Transition_Wins(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE payment_intents").
		WithArgs(domain.IntentStateCancelled, (*string)(nil), id,
			[]string{"CREATED", "AWAITING_GATEWAY"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	won, err := repo.Transition(context.Background(), id,
		[]domain.IntentState{domain.IntentStateCreated, domain.IntentStateAwaitingGateway},
		domain.IntentStateCancelled, nil)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestIntentRepo_Transition_Loses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE payment_intents").
		WithArgs(domain.IntentStateCancelled, (*string)(nil), id,
			[]string{"CREATED", "AWAITING_GATEWAY"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	won, err := repo.Transition(context.Background(), id,
		[]domain.IntentState{domain.IntentStateCreated, domain.IntentStateAwaitingGateway},
		domain.IntentStateCancelled, nil)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestIntentRepo_TransitionTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	id := uuid.New()
	paymentID := "pay_123"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payment_intents").
		WithArgs(domain.IntentStateSucceeded, &paymentID, id,
			[]string{"AWAITING_GATEWAY", "AWAITING_VERIFICATION"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	won, err := repo.TransitionTx(context.Background(), tx, id,
		[]domain.IntentState{domain.IntentStateAwaitingGateway, domain.IntentStateAwaitingVerification},
		domain.IntentStateSucceeded, &paymentID)
	require.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepo_ListStuckAwaitingGateway(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIntentRepo(mock)
	p := newTestIntent(uuid.New())
	cutoff := time.Now().Add(-15 * time.Minute)

	mock.ExpectQuery("SELECT .+ FROM payment_intents").
		WithArgs(domain.IntentStateAwaitingGateway, cutoff, 50).
		WillReturnRows(intentRow(p))

	intents, err := repo.ListStuckAwaitingGateway(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, p.ID, intents[0].ID)
}
