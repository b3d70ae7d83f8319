package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DrawerService owns every mutation of a terminal's cash drawer. Balances
// change only through recordMovement-style helpers so that CurrentCash always
// equals the fold of the movement ledger.
type DrawerService interface {
	Open(ctx context.Context, terminalID, userID uuid.UUID, reason string) (*model.CashDrawer, error)
	PayIn(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, userID uuid.UUID, notes string) (*model.CashDrawer, error)
	PayOut(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, userID uuid.UUID, notes string) (*model.CashDrawer, error)
	Movements(ctx context.Context, terminalID uuid.UUID) ([]model.CashMovement, error)

	// Tx variants are called by the session and payment/refund services
	// inside their own atomic units.
	ResetForSessionTx(ctx context.Context, tx *gorm.DB, terminalID, sessionID, cashierID uuid.UUID, openingCash decimal.Decimal) error
	CloseForSessionTx(ctx context.Context, tx *gorm.DB, terminalID, sessionID, cashierID uuid.UUID, closingCash decimal.Decimal) error
	RecordMovementTx(ctx context.Context, tx *gorm.DB, terminalID uuid.UUID, sessionID, transactionID *uuid.UUID, typ model.MovementType, amount decimal.Decimal, performedBy uuid.UUID, notes string) error
}

type drawerService struct {
	repo        repository.DrawerRepository
	sessionRepo repository.SessionRepository
	locks       *keyedMutex
}

func NewDrawerService(repo repository.DrawerRepository, sessionRepo repository.SessionRepository) DrawerService {
	return &drawerService{repo: repo, sessionRepo: sessionRepo, locks: newKeyedMutex()}
}

// Open is an idempotent upsert: a terminal's drawer is created on first use
// with a zero balance and flipped to open on every call.
func (s *drawerService) Open(ctx context.Context, terminalID, userID uuid.UUID, reason string) (*model.CashDrawer, error) {
	unlock := s.locks.Lock(terminalID)
	defer unlock()

	drawer, err := s.findOrCreate(ctx, terminalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	drawer.Status = model.DrawerOpen
	drawer.LastOpenedAt = &now
	drawer.LastOpenedByID = &userID
	if err := s.repo.Update(ctx, s.db(), drawer); err != nil {
		return nil, err
	}
	return drawer, nil
}

func (s *drawerService) PayIn(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, userID uuid.UUID, notes string) (*model.CashDrawer, error) {
	return s.manualMovement(ctx, sessionID, amount, userID, notes, model.MovementPayIn)
}

func (s *drawerService) PayOut(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, userID uuid.UUID, notes string) (*model.CashDrawer, error) {
	return s.manualMovement(ctx, sessionID, amount, userID, notes, model.MovementPayOut)
}

func (s *drawerService) manualMovement(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal, userID uuid.UUID, notes string, typ model.MovementType) (*model.CashDrawer, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "amount must be positive"}
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.Status != model.SessionActive {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "record manual movement"}
	}

	unlock := s.locks.Lock(session.TerminalID)
	defer unlock()

	drawer, err := s.repo.FindByTerminal(ctx, session.TerminalID)
	if err != nil {
		return nil, &NotFoundError{Entity: "cash drawer"}
	}

	signed := amount
	if typ == model.MovementPayOut {
		if amount.GreaterThan(drawer.CurrentCash) {
			return nil, &InsufficientFundsError{Msg: fmt.Sprintf(
				"cannot pay out %s: drawer holds %s", amount, drawer.CurrentCash)}
		}
		signed = amount.Neg()
	}

	txErr := runTx(ctx, s.db(), func(tx *gorm.DB) error {
		return s.applyMovement(ctx, tx, drawer, &sessionID, nil, typ, signed, userID, notes)
	})
	if txErr != nil {
		return nil, txErr
	}
	return drawer, nil
}

func (s *drawerService) Movements(ctx context.Context, terminalID uuid.UUID) ([]model.CashMovement, error) {
	drawer, err := s.repo.FindByTerminal(ctx, terminalID)
	if err != nil {
		return nil, &NotFoundError{Entity: "cash drawer"}
	}
	return s.repo.ListMovements(ctx, drawer.ID)
}

// ResetForSessionTx sets the drawer to the session's opening float and
// records the opening movement. Called inside the session-open atomic unit.
func (s *drawerService) ResetForSessionTx(ctx context.Context, tx *gorm.DB, terminalID, sessionID, cashierID uuid.UUID, openingCash decimal.Decimal) error {
	drawer, err := s.findOrCreate(ctx, terminalID)
	if err != nil {
		return err
	}

	now := time.Now()
	drawer.Status = model.DrawerOpen
	drawer.CurrentCash = openingCash
	drawer.LastOpenedAt = &now
	drawer.LastOpenedByID = &cashierID
	if err := s.repo.Update(ctx, tx, drawer); err != nil {
		return err
	}

	return s.repo.CreateMovement(ctx, tx, &model.CashMovement{
		DrawerID:      drawer.ID,
		SessionID:     &sessionID,
		Type:          model.MovementOpening,
		Amount:        openingCash,
		BalanceAfter:  openingCash,
		PerformedByID: &cashierID,
	})
}

// CloseForSessionTx records the closing movement with the counted cash and
// closes the drawer. The counted amount becomes the drawer balance; any
// difference against the expected amount is the session's to report.
func (s *drawerService) CloseForSessionTx(ctx context.Context, tx *gorm.DB, terminalID, sessionID, cashierID uuid.UUID, closingCash decimal.Decimal) error {
	drawer, err := s.repo.FindByTerminal(ctx, terminalID)
	if err != nil {
		return &NotFoundError{Entity: "cash drawer"}
	}

	if err := s.repo.CreateMovement(ctx, tx, &model.CashMovement{
		DrawerID:      drawer.ID,
		SessionID:     &sessionID,
		Type:          model.MovementClosing,
		Amount:        closingCash,
		BalanceAfter:  closingCash,
		PerformedByID: &cashierID,
	}); err != nil {
		return err
	}

	drawer.Status = model.DrawerClosed
	drawer.CurrentCash = closingCash
	return s.repo.Update(ctx, tx, drawer)
}

// RecordMovementTx applies a signed amount to the drawer and appends the
// ledger row, preserving balance_after = balance_before + amount.
func (s *drawerService) RecordMovementTx(ctx context.Context, tx *gorm.DB, terminalID uuid.UUID, sessionID, transactionID *uuid.UUID, typ model.MovementType, amount decimal.Decimal, performedBy uuid.UUID, notes string) error {
	drawer, err := s.repo.FindByTerminal(ctx, terminalID)
	if err != nil {
		return &NotFoundError{Entity: "cash drawer"}
	}
	mv := &model.CashMovement{
		DrawerID:      drawer.ID,
		SessionID:     sessionID,
		TransactionID: transactionID,
		Type:          typ,
		Notes:         notes,
		PerformedByID: &performedBy,
	}
	return s.applyMovementRow(ctx, tx, drawer, mv, amount)
}

func (s *drawerService) applyMovement(ctx context.Context, tx *gorm.DB, drawer *model.CashDrawer, sessionID, transactionID *uuid.UUID, typ model.MovementType, amount decimal.Decimal, performedBy uuid.UUID, notes string) error {
	mv := &model.CashMovement{
		DrawerID:      drawer.ID,
		SessionID:     sessionID,
		TransactionID: transactionID,
		Type:          typ,
		Notes:         notes,
		PerformedByID: &performedBy,
	}
	return s.applyMovementRow(ctx, tx, drawer, mv, amount)
}

func (s *drawerService) applyMovementRow(ctx context.Context, tx *gorm.DB, drawer *model.CashDrawer, mv *model.CashMovement, amount decimal.Decimal) error {
	drawer.CurrentCash = drawer.CurrentCash.Add(amount)
	mv.Amount = amount
	mv.BalanceAfter = drawer.CurrentCash

	if err := s.repo.Update(ctx, tx, drawer); err != nil {
		return err
	}
	return s.repo.CreateMovement(ctx, tx, mv)
}

func (s *drawerService) findOrCreate(ctx context.Context, terminalID uuid.UUID) (*model.CashDrawer, error) {
	drawer, err := s.repo.FindByTerminal(ctx, terminalID)
	switch {
	case err == nil:
		return drawer, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		drawer = &model.CashDrawer{
			TerminalID:  terminalID,
			Status:      model.DrawerClosed,
			CurrentCash: decimal.Zero,
		}
		if createErr := s.repo.Create(ctx, s.db(), drawer); createErr != nil {
			return nil, createErr
		}
		return drawer, nil
	default:
		return nil, err
	}
}

func (s *drawerService) db() *gorm.DB { return s.sessionRepo.DB() }
