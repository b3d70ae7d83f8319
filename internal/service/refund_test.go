package service_test

import (
	"context"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundPartialProRated(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))

	// 3 units at 10.00 with a 6.00 header discount: the unit still refunds
	// at its full 10.00 line price, not its share of the discounted total.
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 3)
	txn, err := f.txsvc.ApplyDiscount(context.Background(), txn.ID, decimal.Zero,
		decimal.NewFromInt(6), "open box")
	require.NoError(t, err)
	txn, err = f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: txn.TotalAmount,
	})
	require.NoError(t, err)

	refund, err := f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(1), Restock: true}},
		"changed mind", model.PayCash)
	require.NoError(t, err)

	assert.Equal(t, model.RefundPartial, refund.Type)
	eq(t, "10", refund.Amount)
	// Under the threshold, so it went straight through.
	assert.False(t, refund.RequiresApproval)
	assert.Equal(t, model.RefundCompleted, refund.Status)
}

func TestRefundFullLandsOnTotal(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 3) // 30.00

	refund, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"defective batch", model.PayCash)
	require.NoError(t, err)

	assert.Equal(t, model.RefundFull, refund.Type)
	eq(t, "30", refund.Amount)
	assert.Equal(t, model.RefundCompleted, refund.Status)
}

func TestRefundFullIgnoresReturnedChange(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))

	// Tender 50 on a 20.00 sale: the negative change row must not count as a
	// prior refund when the full refund is sized.
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 2)
	txn, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	refund, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"order cancelled", model.PayCash)
	require.NoError(t, err)

	eq(t, "20", refund.Amount)
}

func TestRefundQuantityCapped(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 3)

	_, err := f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(2)}},
		"damaged", model.PayCash)
	require.NoError(t, err)

	// Only one unit remains; in-flight refunds count against it.
	_, err = f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(2)}},
		"damaged", model.PayCash)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRefundRejectionReleasesQuantity(t *testing.T) {
	f := newFixture(t)
	f.refunds = service.NewRefundService(f.refundRepo, f.txRepo, f.sessionRepo, f.drawers,
		f.inventory, f.events, f.receipts, decimal.NewFromInt(5))
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 3)

	first, err := f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(3)}},
		"damaged", model.PayCash)
	require.NoError(t, err)
	require.Equal(t, model.RefundPending, first.Status)

	_, err = f.refunds.Reject(context.Background(), first.ID, uuid.New(), "goods look fine")
	require.NoError(t, err)

	// The rejected quantity is refundable again.
	second, err := f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(3)}},
		"damaged", model.PayCash)
	require.NoError(t, err)
	assert.Equal(t, model.RefundFull, second.Type)
}

func TestRefundApprovalFlow(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 6) // 60.00, above the 50.00 threshold

	refund, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"bulk return", model.PayCash)
	require.NoError(t, err)
	assert.True(t, refund.RequiresApproval)
	assert.Equal(t, model.RefundPending, refund.Status)

	// Processing before approval is forbidden.
	_, err = f.refunds.Process(context.Background(), refund.ID, f.cashier)
	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)

	// The creator cannot approve their own refund.
	_, err = f.refunds.Approve(context.Background(), refund.ID, f.cashier)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)

	manager := uuid.New()
	approved, err := f.refunds.Approve(context.Background(), refund.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, model.RefundApproved, approved.Status)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, manager, *approved.ApprovedByID)

	processed, err := f.refunds.Process(context.Background(), refund.ID, f.cashier)
	require.NoError(t, err)
	assert.Equal(t, model.RefundCompleted, processed.Status)

	original, err := f.txRepo.FindByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxRefunded, original.Status)
	eq(t, "6", original.Lines[0].ReturnQuantity)
}

func TestRefundUnderThresholdProcessedImmediately(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 3) // 30.00, stock now 97

	// No approval needed, so Create alone moves the money and the goods.
	processed, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"defective batch", model.PayCash)
	require.NoError(t, err)
	assert.Equal(t, model.RefundCompleted, processed.Status)
	require.NotNil(t, processed.CompletedAt)

	// A negative refund_cash row joins the original's payment history.
	original, err := f.txRepo.FindByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxRefunded, original.Status)
	require.Len(t, original.Payments, 2)
	assert.Equal(t, model.PayCash.RefundMethod(), original.Payments[1].Method)
	eq(t, "-30", original.Payments[1].Amount)
	eq(t, "3", original.Lines[0].ReturnQuantity)
	eq(t, "0", original.Lines[0].RemainingQuantity())

	// Money left the drawer, goods went back to the terminal's warehouse.
	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	eq(t, "100", drawer.CurrentCash)
	eq(t, "100", f.inventory.stock[f.product])
	require.NotEmpty(t, f.inventory.restockWarehouses)
	assert.Equal(t, f.terminal.WarehouseID, f.inventory.restockWarehouses[0])

	assert.Contains(t, f.receipts.issued, model.ReceiptRefund)
	assert.Contains(t, f.events.emitted, service.EventRefundCompleted)
}

func TestRefundProcessRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 1)

	_, err := f.sessions.Close(context.Background(), session.ID, f.cashier,
		decimal.NewFromInt(110), "")
	require.NoError(t, err)

	// With the register closed the immediate processing fails, but the
	// refund record itself survives as pending.
	_, err = f.refunds.CreateFull(context.Background(), txn.ID, f.cashier,
		"wrong size", model.PayCash)
	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)

	var stored *model.Refund
	for _, r := range f.refundRepo.refunds {
		stored = r
	}
	require.NotNil(t, stored)
	assert.Equal(t, model.RefundPending, stored.Status)
	assert.False(t, stored.RequiresApproval)

	// Once the next shift opens, the pending refund needs no approval and
	// processes directly.
	f.openSession(t, decimal.NewFromInt(100))
	processed, err := f.refunds.Process(context.Background(), stored.ID, f.cashier)
	require.NoError(t, err)
	assert.Equal(t, model.RefundCompleted, processed.Status)
}

func TestRefundRequiresCompletedTransaction(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)
	draft := f.startTxn(t, session)
	draft = f.addLine(t, draft, 1)

	_, err := f.refunds.Create(context.Background(), draft.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: draft.Lines[0].ID, Quantity: decimal.NewFromInt(1)}},
		"not sold yet", model.PayCash)

	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestRefundValidation(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)
	txn := f.completedSale(t, session, 1)

	var verr *service.ValidationError

	_, err := f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(1)}},
		"", model.PayCash)
	require.ErrorAs(t, err, &verr)

	_, err = f.refunds.Create(context.Background(), txn.ID, f.cashier, nil,
		"no lines", model.PayCash)
	require.ErrorAs(t, err, &verr)

	_, err = f.refunds.Create(context.Background(), txn.ID, f.cashier,
		[]service.RefundLineInput{{OriginalLineID: txn.Lines[0].ID, Quantity: decimal.NewFromInt(-1)}},
		"negative", model.PayCash)
	require.ErrorAs(t, err, &verr)
}

func TestRefundNothingLeft(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	txn := f.completedSale(t, session, 1)

	_, err := f.refunds.CreateFull(context.Background(), txn.ID, f.cashier, "first", model.PayCash)
	require.NoError(t, err)

	_, err = f.refunds.CreateFull(context.Background(), txn.ID, f.cashier, "second", model.PayCash)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}
