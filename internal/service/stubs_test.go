package service_test

// In-memory repository stubs and collaborator fakes shared by the service
// tests. The stubs return gorm.ErrRecordNotFound exactly where the real
// repositories do, and keep payment/movement rows append-only so ledger
// assertions work the same way they would against Postgres.

import (
	"context"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Repository stubs ──────────────────────────────────────────────────────────

type stubTerminalRepo struct {
	terminals map[uuid.UUID]*model.Terminal
}

func newStubTerminalRepo() *stubTerminalRepo {
	return &stubTerminalRepo{terminals: make(map[uuid.UUID]*model.Terminal)}
}

func (r *stubTerminalRepo) Create(_ context.Context, t *model.Terminal) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.terminals[t.ID] = t
	return nil
}

func (r *stubTerminalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Terminal, error) {
	t, ok := r.terminals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTerminalRepo) FindByCode(_ context.Context, code string) (*model.Terminal, error) {
	for _, t := range r.terminals {
		if t.Code == code {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTerminalRepo) List(_ context.Context) ([]model.Terminal, error) {
	out := make([]model.Terminal, 0, len(r.terminals))
	for _, t := range r.terminals {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTerminalRepo) Update(_ context.Context, t *model.Terminal) error {
	r.terminals[t.ID] = t
	return nil
}

var _ repository.TerminalRepository = (*stubTerminalRepo)(nil)

type stubSessionRepo struct {
	sessions map[uuid.UUID]*model.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[uuid.UUID]*model.Session)}
}

func (r *stubSessionRepo) Create(_ context.Context, _ *gorm.DB, s *model.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) FindActiveByTerminal(_ context.Context, terminalID uuid.UUID) (*model.Session, error) {
	for _, s := range r.sessions {
		if s.TerminalID == terminalID && s.Status == model.SessionActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) FindActiveByCashier(_ context.Context, cashierID uuid.UUID) (*model.Session, error) {
	for _, s := range r.sessions {
		if s.CashierID == cashierID && s.Status == model.SessionActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) Update(_ context.Context, _ *gorm.DB, s *model.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) ListClosed(_ context.Context, _, _ int) ([]model.Session, int64, error) {
	var out []model.Session
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

var _ repository.SessionRepository = (*stubSessionRepo)(nil)

type stubTransactionRepo struct {
	txns     map[uuid.UUID]*model.Transaction
	payments []model.Payment
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{txns: make(map[uuid.UUID]*model.Transaction)}
}

func (r *stubTransactionRepo) Create(_ context.Context, _ *gorm.DB, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	assignLineIDs(t)
	r.txns[t.ID] = t
	return nil
}

func (r *stubTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Rebuild the payment preload from the append-only ledger.
	t.Payments = nil
	for _, p := range r.payments {
		if p.TransactionID == id {
			t.Payments = append(t.Payments, p)
		}
	}
	return t, nil
}

func (r *stubTransactionRepo) Save(_ context.Context, _ *gorm.DB, t *model.Transaction) error {
	assignLineIDs(t)
	r.txns[t.ID] = t
	return nil
}

func (r *stubTransactionRepo) ListBySession(_ context.Context, sessionID uuid.UUID, status model.TransactionStatus) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range r.txns {
		if t.SessionID == sessionID && t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTransactionRepo) CountBySessionStatus(_ context.Context, sessionID uuid.UUID, status model.TransactionStatus) (int64, error) {
	var n int64
	for _, t := range r.txns {
		if t.SessionID == sessionID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubTransactionRepo) FindLine(_ context.Context, lineID uuid.UUID) (*model.TransactionLine, error) {
	for _, t := range r.txns {
		for i := range t.Lines {
			if t.Lines[i].ID == lineID {
				return &t.Lines[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTransactionRepo) SaveLine(_ context.Context, _ *gorm.DB, _ *model.TransactionLine) error {
	return nil // lines are mutated in place by the services
}

func (r *stubTransactionRepo) DeleteLine(_ context.Context, _ *gorm.DB, lineID uuid.UUID) error {
	for _, t := range r.txns {
		for i := range t.Lines {
			if t.Lines[i].ID == lineID {
				t.Lines = append(t.Lines[:i], t.Lines[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *stubTransactionRepo) CreatePayment(_ context.Context, _ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *stubTransactionRepo) SumPaymentsByMethod(_ context.Context, sessionID uuid.UUID) ([]repository.MethodTotal, error) {
	totals := make(map[model.PaymentMethod]*repository.MethodTotal)
	var order []model.PaymentMethod
	for _, p := range r.payments {
		t, ok := r.txns[p.TransactionID]
		if !ok || t.SessionID != sessionID {
			continue
		}
		mt, ok := totals[p.Method]
		if !ok {
			mt = &repository.MethodTotal{Method: p.Method, Total: decimal.Zero}
			totals[p.Method] = mt
			order = append(order, p.Method)
		}
		mt.Total = mt.Total.Add(p.Amount)
		mt.Count++
	}
	out := make([]repository.MethodTotal, 0, len(order))
	for _, m := range order {
		out = append(out, *totals[m])
	}
	return out, nil
}

func (r *stubTransactionRepo) HourlySales(_ context.Context, _ uuid.UUID) ([]repository.HourlyBucket, error) {
	return nil, nil
}

func (r *stubTransactionRepo) DB() *gorm.DB { return nil }

var _ repository.TransactionRepository = (*stubTransactionRepo)(nil)

func assignLineIDs(t *model.Transaction) {
	for i := range t.Lines {
		if t.Lines[i].ID == uuid.Nil {
			t.Lines[i].ID = uuid.New()
		}
		t.Lines[i].TransactionID = t.ID
	}
}

type stubRefundRepo struct {
	refunds map[uuid.UUID]*model.Refund
	txRepo  *stubTransactionRepo
}

func newStubRefundRepo(txRepo *stubTransactionRepo) *stubRefundRepo {
	return &stubRefundRepo{refunds: make(map[uuid.UUID]*model.Refund), txRepo: txRepo}
}

func (r *stubRefundRepo) Create(_ context.Context, _ *gorm.DB, ref *model.Refund) error {
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	for i := range ref.Lines {
		if ref.Lines[i].ID == uuid.Nil {
			ref.Lines[i].ID = uuid.New()
		}
		ref.Lines[i].RefundID = ref.ID
	}
	r.refunds[ref.ID] = ref
	return nil
}

func (r *stubRefundRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Refund, error) {
	ref, ok := r.refunds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ref, nil
}

func (r *stubRefundRepo) Update(_ context.Context, _ *gorm.DB, ref *model.Refund) error {
	r.refunds[ref.ID] = ref
	return nil
}

func (r *stubRefundRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Refund, error) {
	var out []model.Refund
	for _, ref := range r.refunds {
		if t, ok := r.txRepo.txns[ref.OriginalTransactionID]; ok && t.SessionID == sessionID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (r *stubRefundRepo) SumCompletedBySession(_ context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, ref := range r.refunds {
		if ref.Status != model.RefundCompleted {
			continue
		}
		if t, ok := r.txRepo.txns[ref.OriginalTransactionID]; ok && t.SessionID == sessionID {
			sum = sum.Add(ref.Amount)
		}
	}
	return sum, nil
}

func (r *stubRefundRepo) SumRefundedQuantity(_ context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, ref := range r.refunds {
		if ref.Status == model.RefundRejected {
			continue
		}
		for _, l := range ref.Lines {
			if l.OriginalLineID == originalLineID {
				sum = sum.Add(l.Quantity)
			}
		}
	}
	return sum, nil
}

var _ repository.RefundRepository = (*stubRefundRepo)(nil)

type stubDrawerRepo struct {
	drawers   map[uuid.UUID]*model.CashDrawer // keyed by terminal ID
	movements []model.CashMovement
}

func newStubDrawerRepo() *stubDrawerRepo {
	return &stubDrawerRepo{drawers: make(map[uuid.UUID]*model.CashDrawer)}
}

func (r *stubDrawerRepo) Create(_ context.Context, _ *gorm.DB, d *model.CashDrawer) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.drawers[d.TerminalID] = d
	return nil
}

func (r *stubDrawerRepo) FindByTerminal(_ context.Context, terminalID uuid.UUID) (*model.CashDrawer, error) {
	d, ok := r.drawers[terminalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *stubDrawerRepo) Update(_ context.Context, _ *gorm.DB, d *model.CashDrawer) error {
	r.drawers[d.TerminalID] = d
	return nil
}

func (r *stubDrawerRepo) CreateMovement(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubDrawerRepo) ListMovements(_ context.Context, drawerID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.DrawerID == drawerID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.DrawerRepository = (*stubDrawerRepo)(nil)

// ── Collaborator fakes ────────────────────────────────────────────────────────

type fakePricing struct {
	products map[uuid.UUID]service.ProductInfo
}

func (f *fakePricing) GetPrice(_ context.Context, productID uuid.UUID, _ *uuid.UUID, _ decimal.Decimal) (service.ProductInfo, error) {
	p, ok := f.products[productID]
	if !ok {
		return service.ProductInfo{}, gorm.ErrRecordNotFound
	}
	return p, nil
}

type fakeTax struct {
	rate      decimal.Decimal
	inclusive bool
}

func (f *fakeTax) GetApplicableTaxRate(_ context.Context, _ uuid.UUID) (decimal.Decimal, bool, error) {
	return f.rate, f.inclusive, nil
}

type fakePromotion struct {
	coupons  map[string]service.Coupon
	discount decimal.Decimal
	used     map[uuid.UUID]int
	useErr   error
}

func (f *fakePromotion) ValidateCoupon(_ context.Context, code string, _ *uuid.UUID, _ decimal.Decimal) (bool, string, *service.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return false, "unknown coupon code", nil, nil
	}
	return true, "", &c, nil
}

func (f *fakePromotion) CalculateDiscount(_ context.Context, _ *service.Coupon, _ decimal.Decimal) (decimal.Decimal, error) {
	return f.discount, nil
}

func (f *fakePromotion) UseCoupon(_ context.Context, couponID uuid.UUID) error {
	if f.useErr != nil {
		return f.useErr
	}
	if f.used == nil {
		f.used = make(map[uuid.UUID]int)
	}
	f.used[couponID]++
	return nil
}

type fakeInventory struct {
	stock             map[uuid.UUID]decimal.Decimal
	removals          int
	restocks          int
	restockWarehouses []uuid.UUID
}

func (f *fakeInventory) RemoveStock(_ context.Context, productID, _ uuid.UUID, quantity decimal.Decimal, _ uuid.UUID, _ service.StockRef, allowNegative bool) error {
	have := f.stock[productID]
	if have.LessThan(quantity) && !allowNegative {
		return &service.InsufficientStockError{Product: productID.String(), Msg: "insufficient stock"}
	}
	f.stock[productID] = have.Sub(quantity)
	f.removals++
	return nil
}

func (f *fakeInventory) AddStock(_ context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal, _ uuid.UUID, _ service.StockRef) error {
	f.stock[productID] = f.stock[productID].Add(quantity)
	f.restocks++
	f.restockWarehouses = append(f.restockWarehouses, warehouseID)
	return nil
}

type fakeLoyalty struct {
	program   service.LoyaltyProgram
	awarded   []int64
	redeemed  []int64
	redeemErr error
}

func (f *fakeLoyalty) GetProgram(_ context.Context, _ uuid.UUID) (service.LoyaltyProgram, error) {
	return f.program, nil
}

func (f *fakeLoyalty) AwardPoints(_ context.Context, _ uuid.UUID, points int64, _ string, _ decimal.Decimal, _ string, _ uuid.UUID) error {
	f.awarded = append(f.awarded, points)
	return nil
}

func (f *fakeLoyalty) RedeemPoints(_ context.Context, _ uuid.UUID, points int64, _ string, _ uuid.UUID) error {
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeemed = append(f.redeemed, points)
	return nil
}

type fakeLedger struct {
	posts int
	err   error
}

func (f *fakeLedger) PostSaleToGL(_ context.Context, _ uuid.UUID, _, _ decimal.Decimal) error {
	if f.err != nil {
		return f.err
	}
	f.posts++
	return nil
}

type fakeEvents struct {
	emitted []string
}

func (f *fakeEvents) Emit(_ context.Context, event string, _ map[string]interface{}) error {
	f.emitted = append(f.emitted, event)
	return nil
}

type fakeReceipts struct {
	issued []model.ReceiptType
	err    error
}

func (f *fakeReceipts) IssueTx(_ context.Context, _ *gorm.DB, txn *model.Transaction, typ model.ReceiptType) (*model.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.issued = append(f.issued, typ)
	return &model.Receipt{ID: uuid.New(), TransactionID: txn.ID, Type: typ}, nil
}

// eq fails the test when got is not numerically equal to want.
func eq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	terminalRepo *stubTerminalRepo
	sessionRepo  *stubSessionRepo
	txRepo       *stubTransactionRepo
	refundRepo   *stubRefundRepo
	drawerRepo   *stubDrawerRepo

	pricing   *fakePricing
	tax       *fakeTax
	promotion *fakePromotion
	inventory *fakeInventory
	loyalty   *fakeLoyalty
	ledger    *fakeLedger
	events    *fakeEvents
	receipts  *fakeReceipts

	drawers  service.DrawerService
	sessions service.SessionService
	txsvc    service.TransactionService
	payments service.PaymentService
	refunds  service.RefundService
	reports  service.ReportService

	terminal *model.Terminal
	product  uuid.UUID
	cashier  uuid.UUID
}

// newFixture wires every service against the in-memory stubs, with one active
// terminal and one sellable product (price 10.00, 100 units in stock, no tax).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		terminalRepo: newStubTerminalRepo(),
		sessionRepo:  newStubSessionRepo(),
		txRepo:       newStubTransactionRepo(),
		drawerRepo:   newStubDrawerRepo(),
		cashier:      uuid.New(),
	}
	f.refundRepo = newStubRefundRepo(f.txRepo)

	f.terminal = &model.Terminal{
		Name:        "Front Counter",
		Code:        "POS-01",
		WarehouseID: uuid.New(),
		IsActive:    true,
	}
	require.NoError(t, f.terminalRepo.Create(context.Background(), f.terminal))

	f.product = uuid.New()
	f.pricing = &fakePricing{products: map[uuid.UUID]service.ProductInfo{
		f.product: {
			ID:             f.product,
			Name:           "Espresso Beans 1kg",
			SKU:            "BEAN-1KG",
			UnitPrice:      decimal.NewFromInt(10),
			TrackInventory: true,
			IsActive:       true,
		},
	}}
	f.tax = &fakeTax{rate: decimal.Zero, inclusive: false}
	f.promotion = &fakePromotion{coupons: map[string]service.Coupon{}}
	f.inventory = &fakeInventory{stock: map[uuid.UUID]decimal.Decimal{
		f.product: decimal.NewFromInt(100),
	}}
	f.loyalty = &fakeLoyalty{}
	f.ledger = &fakeLedger{}
	f.events = &fakeEvents{}
	f.receipts = &fakeReceipts{}

	f.drawers = service.NewDrawerService(f.drawerRepo, f.sessionRepo)
	f.sessions = service.NewSessionService(f.sessionRepo, f.terminalRepo, f.txRepo, f.refundRepo, f.drawers)
	f.txsvc = service.NewTransactionService(f.txRepo, f.sessionRepo, f.pricing, f.tax, f.promotion, f.inventory)
	f.payments = service.NewPaymentService(f.txRepo, f.sessionRepo, f.drawers, f.promotion, f.inventory,
		f.loyalty, f.ledger, f.events, f.receipts)
	f.refunds = service.NewRefundService(f.refundRepo, f.txRepo, f.sessionRepo, f.drawers, f.inventory,
		f.events, f.receipts, decimal.NewFromInt(50))
	f.reports = service.NewReportService(f.sessionRepo, f.txRepo, f.refundRepo, f.drawerRepo)

	return f
}

func (f *fixture) openSession(t *testing.T, openingCash decimal.Decimal) *model.Session {
	t.Helper()
	session, err := f.sessions.Open(context.Background(), f.terminal.ID, f.cashier, openingCash, "")
	require.NoError(t, err)
	return session
}

func (f *fixture) startTxn(t *testing.T, session *model.Session) *model.Transaction {
	t.Helper()
	txn, err := f.txsvc.Start(context.Background(), session.ID, f.cashier, service.CustomerDetails{}, "")
	require.NoError(t, err)
	return txn
}

func (f *fixture) addLine(t *testing.T, txn *model.Transaction, quantity int64) *model.Transaction {
	t.Helper()
	out, err := f.txsvc.AddLine(context.Background(), txn.ID, service.LineInput{
		ProductID: f.product,
		Quantity:  decimal.NewFromInt(quantity),
	})
	require.NoError(t, err)
	return out
}

// completedSale runs a full cash sale of the given quantity and returns the
// completed transaction.
func (f *fixture) completedSale(t *testing.T, session *model.Session, quantity int64) *model.Transaction {
	t.Helper()
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, quantity)
	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: txn.TotalAmount,
	})
	require.NoError(t, err)
	require.Equal(t, model.TxCompleted, out.Status)
	return out
}
