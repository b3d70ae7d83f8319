package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionOpen(t *testing.T) {
	f := newFixture(t)

	session := f.openSession(t, decimal.NewFromInt(100))

	assert.Equal(t, model.SessionActive, session.Status)
	assert.True(t, strings.HasPrefix(session.SessionNumber, "SES-"))
	eq(t, "100", session.OpeningCash)

	// The drawer is reset to the opening float with an opening movement.
	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DrawerOpen, drawer.Status)
	eq(t, "100", drawer.CurrentCash)

	movements, err := f.drawerRepo.ListMovements(context.Background(), drawer.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementOpening, movements[0].Type)
	eq(t, "100", movements[0].BalanceAfter)
}

func TestSessionOpenNegativeFloat(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.Open(context.Background(), f.terminal.ID, f.cashier, decimal.NewFromInt(-1), "")

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSessionOpenInactiveTerminal(t *testing.T) {
	f := newFixture(t)
	f.terminal.IsActive = false

	_, err := f.sessions.Open(context.Background(), f.terminal.ID, f.cashier, decimal.Zero, "")

	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestSessionOpenTerminalAlreadyInUse(t *testing.T) {
	f := newFixture(t)
	f.openSession(t, decimal.NewFromInt(100))

	_, err := f.sessions.Open(context.Background(), f.terminal.ID, uuid.New(), decimal.Zero, "")

	var cerr *service.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestSessionOpenCashierAlreadyActive(t *testing.T) {
	f := newFixture(t)
	f.openSession(t, decimal.NewFromInt(100))

	second := &model.Terminal{Name: "Back Office", Code: "POS-02", WarehouseID: uuid.New(), IsActive: true}
	require.NoError(t, f.terminalRepo.Create(context.Background(), second))

	_, err := f.sessions.Open(context.Background(), second.ID, f.cashier, decimal.Zero, "")

	var cerr *service.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestSessionCloseReconciliation(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	f.completedSale(t, session, 2) // 20.00 cash

	// Counted five over: expected 120, difference +5.
	closed, err := f.sessions.Close(context.Background(), session.ID, f.cashier,
		decimal.NewFromInt(125), "over")
	require.NoError(t, err)

	assert.Equal(t, model.SessionClosed, closed.Status)
	require.NotNil(t, closed.ExpectedCash)
	eq(t, "120", *closed.ExpectedCash)
	require.NotNil(t, closed.CashDifference)
	eq(t, "5", *closed.CashDifference)
	eq(t, "20", closed.TotalSales)
	assert.Equal(t, 1, closed.TotalTransactions)

	drawer, err := f.drawerRepo.FindByTerminal(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DrawerClosed, drawer.Status)
	eq(t, "125", drawer.CurrentCash)
}

func TestSessionCloseShortage(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	f.completedSale(t, session, 3) // 30.00 cash

	closed, err := f.sessions.Close(context.Background(), session.ID, f.cashier,
		decimal.NewFromInt(120), "short")
	require.NoError(t, err)

	require.NotNil(t, closed.CashDifference)
	eq(t, "-10", *closed.CashDifference)
}

func TestSessionCloseAfterOverpayment(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))

	// 20.00 sale tendered with 50: the drawer keeps the 20, not the 50.
	txn := f.startTxn(t, session)
	txn = f.addLine(t, txn, 2)
	out, err := f.payments.Pay(context.Background(), txn.ID, f.cashier, service.PaymentInput{
		Method: model.PayCash,
		Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	eq(t, "30", out.ChangeDue)

	closed, err := f.sessions.Close(context.Background(), session.ID, f.cashier,
		decimal.NewFromInt(120), "")
	require.NoError(t, err)

	require.NotNil(t, closed.ExpectedCash)
	eq(t, "120", *closed.ExpectedCash)
	require.NotNil(t, closed.CashDifference)
	eq(t, "0", *closed.CashDifference)
}

func TestSessionCloseVoidsDrafts(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))
	draft := f.startTxn(t, session)

	_, err := f.sessions.Close(context.Background(), session.ID, f.cashier, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	stored, err := f.txRepo.FindByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxVoided, stored.Status)
	assert.Equal(t, "session closed with transaction in draft", stored.VoidReason)
}

func TestSessionCloseTwice(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.NewFromInt(100))

	_, err := f.sessions.Close(context.Background(), session.ID, f.cashier, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	_, err = f.sessions.Close(context.Background(), session.ID, f.cashier, decimal.NewFromInt(100), "")
	var serr *service.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestSessionGetActive(t *testing.T) {
	f := newFixture(t)
	session := f.openSession(t, decimal.Zero)

	found, err := f.sessions.GetActive(context.Background(), f.terminal.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	byCashier, err := f.sessions.GetActiveForCashier(context.Background(), f.cashier)
	require.NoError(t, err)
	assert.Equal(t, session.ID, byCashier.ID)

	_, err = f.sessions.GetActive(context.Background(), uuid.New())
	var nerr *service.NotFoundError
	require.ErrorAs(t, err, &nerr)
}
