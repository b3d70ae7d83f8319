package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubReceiptRepo struct {
	receipts map[uuid.UUID]*model.Receipt
}

func newStubReceiptRepo() *stubReceiptRepo {
	return &stubReceiptRepo{receipts: make(map[uuid.UUID]*model.Receipt)}
}

func (r *stubReceiptRepo) Create(_ context.Context, _ *gorm.DB, rec *model.Receipt) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.receipts[rec.ID] = rec
	return nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	rec, ok := r.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Return a copy so callers see a fresh row per lookup, like the real repo.
	out := *rec
	return &out, nil
}

func (r *stubReceiptRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]model.Receipt, error) {
	var out []model.Receipt
	for _, rec := range r.receipts {
		if rec.TransactionID == transactionID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubReceiptRepo) Update(_ context.Context, rec *model.Receipt) error {
	r.receipts[rec.ID] = rec
	return nil
}

var _ repository.ReceiptRepository = (*stubReceiptRepo)(nil)

type fakeRenderer struct{}

func (fakeRenderer) Render(txn *model.Transaction, receipt *model.Receipt) ([]byte, error) {
	return []byte("%PDF " + receipt.ReceiptNumber), nil
}

type fakeQueueMailer struct {
	enqueued []string
}

func (f *fakeQueueMailer) EnqueueReceiptEmail(_ context.Context, _ uuid.UUID, to string) error {
	f.enqueued = append(f.enqueued, to)
	return nil
}

func newReceiptFixture(t *testing.T) (*fixture, service.ReceiptService, *stubReceiptRepo, *fakeQueueMailer) {
	t.Helper()
	f := newFixture(t)
	repo := newStubReceiptRepo()
	mailer := &fakeQueueMailer{}
	svc := service.NewReceiptService(repo, f.txRepo, f.terminalRepo, fakeRenderer{}, mailer, "SalesCompass Store")
	return f, svc, repo, mailer
}

func TestReceiptIssue(t *testing.T) {
	f, svc, _, _ := newReceiptFixture(t)
	f.terminal.ReceiptFooter = "Thank you for your purchase!"
	session := f.openSession(t, decimal.Zero)
	txn := f.completedSale(t, session, 1)

	receipt, err := svc.IssueTx(context.Background(), nil, txn, model.ReceiptSale)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(receipt.ReceiptNumber, "RCP-"))
	assert.Equal(t, model.ReceiptSale, receipt.Type)
	assert.Equal(t, "SalesCompass Store", receipt.HeaderText)
	assert.Equal(t, "Thank you for your purchase!", receipt.FooterText)

	listed, err := svc.ListByTransaction(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestReceiptReprintCounts(t *testing.T) {
	f, svc, _, _ := newReceiptFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.completedSale(t, session, 1)
	receipt, err := svc.IssueTx(context.Background(), nil, txn, model.ReceiptSale)
	require.NoError(t, err)

	first, err := svc.Reprint(context.Background(), receipt.ID)
	require.NoError(t, err)
	second, err := svc.Reprint(context.Background(), receipt.ID)
	require.NoError(t, err)

	assert.True(t, second.IsPrinted)
	assert.Equal(t, 1, first.PrintedCount)
	assert.Equal(t, 2, second.PrintedCount)
	require.NotNil(t, second.LastPrintedAt)
}

func TestReceiptRender(t *testing.T) {
	f, svc, _, _ := newReceiptFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.completedSale(t, session, 1)
	receipt, err := svc.IssueTx(context.Background(), nil, txn, model.ReceiptSale)
	require.NoError(t, err)

	pdf, rendered, err := svc.Render(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, rendered.ID)
	assert.NotEmpty(t, pdf)
}

func TestReceiptEmail(t *testing.T) {
	f, svc, repo, mailer := newReceiptFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.completedSale(t, session, 1)
	receipt, err := svc.IssueTx(context.Background(), nil, txn, model.ReceiptSale)
	require.NoError(t, err)

	_, err = svc.Email(context.Background(), receipt.ID, "")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)

	emailed, err := svc.Email(context.Background(), receipt.ID, "customer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "customer@example.com", emailed.EmailedTo)
	assert.Equal(t, []string{"customer@example.com"}, mailer.enqueued)
	assert.Equal(t, "customer@example.com", repo.receipts[receipt.ID].EmailedTo)
}

func TestReceiptGetUnknown(t *testing.T) {
	_, svc, _, _ := newReceiptFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())

	var nerr *service.NotFoundError
	require.ErrorAs(t, err, &nerr)
}
