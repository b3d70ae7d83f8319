package service_test

import (
	"context"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXReport(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	f.completedSale(t, session, 3) // 30.00
	f.completedSale(t, session, 2) // 20.00

	draft := f.startTxn(t, session)
	_, err := f.txsvc.Void(context.Background(), draft.ID, f.cashier, "abandoned")
	require.NoError(t, err)

	report, err := f.reports.XReport(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, "X", report.ReportType)
	assert.Equal(t, session.SessionNumber, report.SessionNumber)
	eq(t, "50", report.GrossSales)
	assert.EqualValues(t, 2, report.TransactionCount)
	assert.EqualValues(t, 1, report.VoidCount)
	eq(t, "100", report.OpeningCash)
	eq(t, "150", report.ExpectedCash)
	eq(t, "25", report.AverageSale)

	require.Len(t, report.ByMethod, 1)
	assert.Equal(t, model.PayCash, report.ByMethod[0].Method)
	eq(t, "50", report.ByMethod[0].Total)
	assert.EqualValues(t, 2, report.ByMethod[0].Count)
}

func TestXReportRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)
	_, err := f.sessions.Close(context.Background(), session.ID, f.cashier, decimal.Zero, "")
	require.NoError(t, err)

	_, err = f.reports.XReport(context.Background(), session.ID)

	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestZReport(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	f.completedSale(t, session, 3)

	_, err := f.sessions.Close(context.Background(), session.ID, f.cashier,
		decimal.NewFromInt(128), "two short")
	require.NoError(t, err)

	report, err := f.reports.ZReport(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, "Z", report.ReportType)
	require.NotNil(t, report.ClosedAt)
	require.NotNil(t, report.ClosingCash)
	eq(t, "128", *report.ClosingCash)
	require.NotNil(t, report.CashDifference)
	eq(t, "-2", *report.CashDifference)
	eq(t, "130", report.ExpectedCash)
	eq(t, "30", report.GrossSales)
}

func TestZReportRequiresClosedSession(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)

	_, err := f.reports.ZReport(context.Background(), session.ID)

	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestReportIncludesRefunds(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 3) // 30.00

	// Under the threshold, so the refund processes straight from Create.
	_, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"returned same day", model.PayCash)
	require.NoError(t, err)

	report, err := f.reports.XReport(context.Background(), session.ID)
	require.NoError(t, err)

	// The refunded sale still counts as gross; the refund shows separately
	// and the cash expectation nets out.
	eq(t, "30", report.GrossSales)
	eq(t, "30", report.RefundTotal)
	eq(t, "100", report.ExpectedCash)

	methods := make(map[model.PaymentMethod]decimal.Decimal, len(report.ByMethod))
	for _, m := range report.ByMethod {
		methods[m.Method] = m.Total
	}
	eq(t, "30", methods[model.PayCash])
	eq(t, "-30", methods[model.PayCash.RefundMethod()])
}

func TestReportDiscountTotals(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))

	txn := f.startTxn(t, session)
	txn, err := f.txsvc.AddLine(context.Background(), txn.ID, service.LineInput{
		ProductID:       f.product,
		Quantity:        decimal.NewFromInt(2),
		DiscountPercent: decimal.NewFromInt(10), // 2.00 line discount
	})
	require.NoError(t, err)
	txn, err = f.txsvc.ApplyDiscount(context.Background(), txn.ID, decimal.Zero,
		decimal.NewFromInt(3), "price match") // 3.00 header discount
	require.NoError(t, err)
	_, err = f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: txn.TotalAmount, // 15.00
	})
	require.NoError(t, err)

	report, err := f.reports.XReport(context.Background(), session.ID)
	require.NoError(t, err)

	eq(t, "15", report.GrossSales)
	eq(t, "5", report.DiscountTotal)
}
