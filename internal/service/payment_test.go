package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashPaymentCompletes(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3)

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, out.Status)
	require.NotNil(t, out.CompletedAt)
	eq(t, "0", out.ChangeDue)
	eq(t, "30", out.AmountPaid)

	// Completion side effects: stock, receipt, ledger, event.
	eq(t, "97", f.inventory.stock[f.product])
	assert.True(t, out.Lines[0].StockDeducted)
	require.Len(t, f.receipts.issued, 1)
	assert.Equal(t, model.ReceiptSale, f.receipts.issued[0])
	assert.Equal(t, 1, f.ledger.posts)
	assert.Equal(t, []string{service.EventSaleCompleted}, f.events.emitted)

	// The sale lands in the drawer.
	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	eq(t, "130", drawer.CurrentCash)
	movements, err := f.drawerRepo.ListMovements(context.Background(), drawer.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, model.MovementSale, movements[1].Type)
	eq(t, "30", movements[1].Amount)
	eq(t, "130", movements[1].BalanceAfter)
}

func TestCashOverpaymentReturnsChange(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 2) // 20.00

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, out.Status)
	eq(t, "30", out.ChangeDue)

	// The tender and the returned change are separate rows that net to what
	// the drawer kept.
	require.Len(t, out.Payments, 2)
	eq(t, "50", out.Payments[0].Amount)
	eq(t, "-30", out.Payments[1].Amount)
	assert.Equal(t, model.PayCash, out.Payments[1].Method)
	assert.Equal(t, "change returned", out.Payments[1].Notes)

	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	eq(t, "120", drawer.CurrentCash)
}

func TestSplitPayment(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3) // 30.00

	partial, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method:       model.PayCard,
		Amount:       decimal.NewFromInt(10),
		CardLastFour: "4242",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxDraft, partial.Status)
	eq(t, "10", partial.AmountPaid)
	eq(t, "20", partial.BalanceDue())

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, out.Status)
	require.Len(t, out.Payments, 2)

	// Only the cash leg moved drawer money.
	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	eq(t, "120", drawer.CurrentCash)
}

func TestNonCashCannotExceedBalance(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3)

	_, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCard,
		Amount: decimal.NewFromInt(40),
	})

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestPayValidation(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)

	var verr *service.ValidationError

	_, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: "gold_bars",
		Amount: decimal.NewFromInt(10),
	})
	require.ErrorAs(t, err, &verr)

	_, err = f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.Zero,
	})
	require.ErrorAs(t, err, &verr)

	// Empty cart.
	_, err = f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(10),
	})
	require.ErrorAs(t, err, &verr)
}

func TestStockFailureLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.inventory.stock[f.product] = decimal.NewFromInt(1)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 5) // 50.00, more than stock covers

	_, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(50),
	})
	var stockErr *service.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// The tender survived; the document is stranded in pending.
	stored, err := f.txRepo.FindByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	eq(t, "50", stored.AmountPaid)
	require.Len(t, stored.Payments, 1)
	drawer, _ := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	eq(t, "150", drawer.CurrentCash)

	// Once stock is back, the retry finishes the sale without re-tendering.
	f.inventory.stock[f.product] = decimal.NewFromInt(10)
	out, err := f.payments.RetryCompletion(context.Background(), txn.ID, f.cashier)
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, out.Status)
	eq(t, "5", f.inventory.stock[f.product])
}

func TestNegativeStockAllowedByTerminal(t *testing.T) {
	f := newFixture(t)
	f.terminal.AllowNegativeStock = true
	f.inventory.stock[f.product] = decimal.NewFromInt(1)
	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 5)

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, out.Status)
	eq(t, "-4", f.inventory.stock[f.product])
}

func TestRetryCompletionGuards(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)

	draft := f.startTxn(t, session)
	_, err := f.payments.RetryCompletion(context.Background(), draft.ID, f.cashier)
	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)

	done := f.completedSale(t, session, 1)
	_, err = f.payments.RetryCompletion(context.Background(), done.ID, f.cashier)
	require.ErrorAs(t, err, &serr)
}

func TestCouponConsumedOnCompletion(t *testing.T) {
	f := newFixture(t)
	coupon := service.Coupon{ID: uuid.New(), Code: "SAVE5"}
	f.promotion.coupons["SAVE5"] = coupon
	f.promotion.discount = decimal.NewFromInt(5)

	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3)
	txn, err := f.txsvc.ApplyCoupon(context.Background(), txn.ID, "SAVE5")
	require.NoError(t, err)

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	assert.True(t, out.CouponUsed)
	assert.Equal(t, 1, f.promotion.used[coupon.ID])
}

func TestCouponConsumeFailureDoesNotBlockSale(t *testing.T) {
	f := newFixture(t)
	coupon := service.Coupon{ID: uuid.New(), Code: "SAVE5"}
	f.promotion.coupons["SAVE5"] = coupon
	f.promotion.discount = decimal.NewFromInt(5)
	f.promotion.useErr = errors.New("promotion service unavailable")

	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3)
	txn, err := f.txsvc.ApplyCoupon(context.Background(), txn.ID, "SAVE5")
	require.NoError(t, err)

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, out.Status)
	assert.False(t, out.CouponUsed)
}

func TestLedgerFailureDoesNotBlockSale(t *testing.T) {
	f := newFixture(t)
	f.ledger.err = errors.New("ledger unavailable")
	session := f.openSession(t, decimal.Zero)

	out := f.completedSale(t, session, 1)

	assert.Equal(t, model.TxCompleted, out.Status)
}

func TestLoyaltyRedemption(t *testing.T) {
	f := newFixture(t)
	f.loyalty.program = service.LoyaltyProgram{
		Active:            true,
		PointsPerCurrency: decimal.NewFromInt(1),
		RedemptionRate:    decimal.RequireFromString("0.05"),
	}
	customerID := uuid.New()
	session := f.openSession(t, decimal.Zero)
	txn, err := f.txsvc.Start(context.Background(), session.ID, f.cashier,
		service.CustomerDetails{ID: &customerID}, "")
	require.NoError(t, err)
	txn = f.addLine(t, txn, 3) // 30.00

	partial, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayLoyalty,
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, f.loyalty.redeemed) // 10.00 / 0.05 per point
	eq(t, "20", partial.BalanceDue())

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, out.Status)
	// Points are earned on the 20.00 paid with money, never on the 10.00
	// covered by redeemed points.
	assert.Equal(t, []int64{20}, f.loyalty.awarded)
}

func TestLoyaltyAwardOnFullyRedeemedSale(t *testing.T) {
	f := newFixture(t)
	f.loyalty.program = service.LoyaltyProgram{
		Active:            true,
		PointsPerCurrency: decimal.NewFromInt(1),
		RedemptionRate:    decimal.RequireFromString("0.05"),
	}
	customerID := uuid.New()
	session := f.openSession(t, decimal.Zero)
	txn, err := f.txsvc.Start(context.Background(), session.ID, f.cashier,
		service.CustomerDetails{ID: &customerID}, "")
	require.NoError(t, err)
	txn = f.addLine(t, txn, 1) // 10.00

	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayLoyalty,
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, out.Status)
	// The whole sale was paid with points, so nothing is earned back.
	assert.Empty(t, f.loyalty.awarded)
}

func TestLoyaltyPaymentRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	f.loyalty.program = service.LoyaltyProgram{Active: true, RedemptionRate: decimal.NewFromInt(1)}
	session := f.openSession(t, decimal.Zero)
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 1)

	_, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayLoyalty,
		Amount: decimal.NewFromInt(5),
	})

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoyaltyRedemptionFailureRejectsTender(t *testing.T) {
	f := newFixture(t)
	f.loyalty.program = service.LoyaltyProgram{Active: true, RedemptionRate: decimal.NewFromInt(1)}
	f.loyalty.redeemErr = errors.New("insufficient points")
	customerID := uuid.New()
	session := f.openSession(t, decimal.Zero)
	txn, err := f.txsvc.Start(context.Background(), session.ID, f.cashier,
		service.CustomerDetails{ID: &customerID}, "")
	require.NoError(t, err)
	txn = f.addLine(t, txn, 1)

	_, err = f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayLoyalty,
		Amount: decimal.NewFromInt(5),
	})

	var lerr *service.LoyaltyError
	require.ErrorAs(t, err, &lerr)

	// Nothing was recorded against the transaction.
	stored, err := f.txRepo.FindByID(context.Background(), txn.ID)
	require.NoError(t, err)
	eq(t, "0", stored.AmountPaid)
	assert.Empty(t, stored.Payments)
}
