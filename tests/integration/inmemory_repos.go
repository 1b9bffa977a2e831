package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Intent Repo ---

type inMemoryIntentRepo struct {
	mu      sync.RWMutex
	intents map[uuid.UUID]*domain.PaymentIntent
}

func newInMemoryIntentRepo() *inMemoryIntentRepo {
	return &inMemoryIntentRepo{intents: make(map[uuid.UUID]*domain.PaymentIntent)}
}

func cloneIntent(p *domain.PaymentIntent) *domain.PaymentIntent {
	c := *p
	return &c
}

func (r *inMemoryIntentRepo) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if intent.InvoiceID != nil {
		for _, existing := range r.intents {
			if existing.InvoiceID != nil && *existing.InvoiceID == *intent.InvoiceID && !existing.IsTerminal() {
				return ports.ErrDuplicateIntent
			}
		}
	}
	r.intents[intent.ID] = cloneIntent(intent)
	return nil
}

func (r *inMemoryIntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.intents[id]
	if !ok {
		return nil, nil
	}
	return cloneIntent(p), nil
}

func (r *inMemoryIntentRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.intents {
		if p.GatewayOrderID == gatewayOrderID {
			return cloneIntent(p), nil
		}
	}
	return nil, nil
}

func (r *inMemoryIntentRepo) HasNonTerminalForInvoice(ctx context.Context, merchantID, invoiceID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.intents {
		if p.MerchantID == merchantID && p.InvoiceID != nil && *p.InvoiceID == invoiceID && !p.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryIntentRepo) MarkAwaitingGateway(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.intents[id]
	if !ok {
		return fmt.Errorf("intent not found")
	}
	if p.State != domain.IntentStateCreated && p.State != domain.IntentStateAwaitingGateway {
		return fmt.Errorf("intent not awaiting a gateway order")
	}
	p.State = domain.IntentStateAwaitingGateway
	p.GatewayOrderID = gatewayOrderID
	return nil
}

func (r *inMemoryIntentRepo) Transition(ctx context.Context, id uuid.UUID, from []domain.IntentState, to domain.IntentState, failureReason *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitionLocked(id, from, to, nil, failureReason)
}

func (r *inMemoryIntentRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.IntentState, to domain.IntentState, gatewayPaymentID *string) (bool, error) {
	r.mu.Lock()
	var prev *domain.PaymentIntent
	if p, ok := r.intents[id]; ok {
		prev = cloneIntent(p)
	}
	won, err := r.transitionLocked(id, from, to, gatewayPaymentID, nil)
	r.mu.Unlock()
	if won {
		stageUndo(tx, func() {
			r.mu.Lock()
			r.intents[id] = prev
			r.mu.Unlock()
		})
	}
	return won, err
}

func (r *inMemoryIntentRepo) transitionLocked(id uuid.UUID, from []domain.IntentState, to domain.IntentState, gatewayPaymentID, failureReason *string) (bool, error) {
	p, ok := r.intents[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if p.State == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	p.State = to
	if gatewayPaymentID != nil {
		p.GatewayPaymentID = gatewayPaymentID
	}
	if failureReason != nil {
		p.FailureReason = failureReason
	}
	if p.IsTerminal() {
		now := time.Now()
		p.TerminalAt = &now
	}
	return true, nil
}

func (r *inMemoryIntentRepo) ListStuckAwaitingGateway(ctx context.Context, before time.Time, limit int) ([]domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PaymentIntent
	for _, p := range r.intents {
		if p.State == domain.IntentStateAwaitingGateway && p.CreatedAt.Before(before) {
			result = append(result, *p)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu           sync.RWMutex
	wallets      map[uuid.UUID]*domain.Wallet
	transactions map[uuid.UUID]*domain.WalletTransaction
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets:      make(map[uuid.UUID]*domain.Wallet),
		transactions: make(map[uuid.UUID]*domain.WalletTransaction),
	}
}

func (r *inMemoryWalletRepo) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.MerchantID]; ok {
		return fmt.Errorf("wallet already exists")
	}
	c := *w
	r.wallets[w.MerchantID] = &c
	return nil
}

func (r *inMemoryWalletRepo) GetWallet(ctx context.Context, merchantID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[merchantID]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r *inMemoryWalletRepo) GetWalletForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (*domain.Wallet, error) {
	return r.GetWallet(ctx, merchantID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, balance int64) error {
	r.mu.Lock()
	w, ok := r.wallets[merchantID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("wallet not found")
	}
	prev := *w
	w.Balance = balance
	w.UpdatedAt = time.Now()
	r.mu.Unlock()
	stageUndo(tx, func() {
		r.mu.Lock()
		r.wallets[merchantID] = &prev
		r.mu.Unlock()
	})
	return nil
}

func (r *inMemoryWalletRepo) AppendTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	r.mu.Lock()
	if t.IntentID != nil {
		for _, existing := range r.transactions {
			if existing.IntentID != nil && *existing.IntentID == *t.IntentID {
				r.mu.Unlock()
				return fmt.Errorf("duplicate ledger entry for intent %s", t.IntentID)
			}
		}
	}
	c := *t
	r.transactions[t.ID] = &c
	r.mu.Unlock()
	stageUndo(tx, func() {
		r.mu.Lock()
		delete(r.transactions, t.ID)
		r.mu.Unlock()
	})
	return nil
}

func (r *inMemoryWalletRepo) GetTransactionByIntentID(ctx context.Context, intentID uuid.UUID) (*domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.IntentID != nil && *t.IntentID == intentID {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListTransactions(ctx context.Context, params ports.LedgerListParams) ([]domain.WalletTransaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WalletTransaction
	for _, t := range r.transactions {
		if t.MerchantID != params.MerchantID {
			continue
		}
		if params.Direction != nil && t.Direction != *params.Direction {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.WalletTransaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Invoice Repo ---

type inMemoryInvoiceRepo struct {
	mu           sync.RWMutex
	invoices     map[uuid.UUID]*domain.Invoice
	applications map[uuid.UUID]*domain.InvoiceApplication
}

func newInMemoryInvoiceRepo() *inMemoryInvoiceRepo {
	return &inMemoryInvoiceRepo{
		invoices:     make(map[uuid.UUID]*domain.Invoice),
		applications: make(map[uuid.UUID]*domain.InvoiceApplication),
	}
}

func (r *inMemoryInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *inv
	r.invoices[inv.ID] = &c
	return nil
}

func (r *inMemoryInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

func (r *inMemoryInvoiceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryInvoiceRepo) UpdatePayment(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error {
	r.mu.Lock()
	prev, ok := r.invoices[inv.ID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("invoice not found")
	}
	c := *inv
	c.UpdatedAt = time.Now()
	r.invoices[inv.ID] = &c
	r.mu.Unlock()
	stageUndo(tx, func() {
		r.mu.Lock()
		r.invoices[inv.ID] = prev
		r.mu.Unlock()
	})
	return nil
}

func (r *inMemoryInvoiceRepo) ApplicationExists(ctx context.Context, intentID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.applications[intentID]
	return ok, nil
}

func (r *inMemoryInvoiceRepo) RecordApplication(ctx context.Context, tx pgx.Tx, app *domain.InvoiceApplication) error {
	r.mu.Lock()
	if _, ok := r.applications[app.IntentID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("application already recorded for intent %s", app.IntentID)
	}
	c := *app
	r.applications[app.IntentID] = &c
	r.mu.Unlock()
	stageUndo(tx, func() {
		r.mu.Lock()
		delete(r.applications, app.IntentID)
		r.mu.Unlock()
	})
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx collects undo closures for every write made through it. Commit
// discards them; Rollback runs them in reverse, so a failed settlement
// reverts the intent transition the way the database transaction would.
type memTx struct {
	noopTx
	mu    sync.Mutex
	done  bool
	undos []func()
}

// onRollback registers an undo for a write that already took effect.
func (t *memTx) onRollback(undo func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undos = append(t.undos, undo)
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.undos = nil
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undos) - 1; i >= 0; i-- {
		t.undos[i]()
	}
	t.undos = nil
	return nil
}

// stageUndo attaches an undo to the transaction when there is one to attach
// to. Repo methods call it after mutating state under their own lock.
func stageUndo(tx pgx.Tx, undo func()) {
	if mtx, ok := tx.(*memTx); ok {
		mtx.onRollback(undo)
	}
}

// noopTx is a pgx.Tx stub; memTx embeds it and overrides Commit/Rollback.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
