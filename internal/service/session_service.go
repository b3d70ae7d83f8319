package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SessionService manages the cashier session lifecycle: open with a counted
// float, close with a counted drawer, and the reconciliation between the two.
type SessionService interface {
	Open(ctx context.Context, terminalID, cashierID uuid.UUID, openingCash decimal.Decimal, notes string) (*model.Session, error)
	Close(ctx context.Context, sessionID, closedByID uuid.UUID, closingCash decimal.Decimal, notes string) (*model.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetActive(ctx context.Context, terminalID uuid.UUID) (*model.Session, error)
	GetActiveForCashier(ctx context.Context, cashierID uuid.UUID) (*model.Session, error)
	History(ctx context.Context, page, limit int) ([]model.Session, int64, error)
}

type sessionService struct {
	repo         repository.SessionRepository
	terminalRepo repository.TerminalRepository
	txRepo       repository.TransactionRepository
	refundRepo   repository.RefundRepository
	drawers      DrawerService
	locks        *keyedMutex
}

func NewSessionService(
	repo repository.SessionRepository,
	terminalRepo repository.TerminalRepository,
	txRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	drawers DrawerService,
) SessionService {
	return &sessionService{
		repo:         repo,
		terminalRepo: terminalRepo,
		txRepo:       txRepo,
		refundRepo:   refundRepo,
		drawers:      drawers,
		locks:        newKeyedMutex(),
	}
}

// Open starts a session on a terminal. The session row, the drawer reset to
// the opening float and the opening cash movement are one atomic unit.
func (s *sessionService) Open(ctx context.Context, terminalID, cashierID uuid.UUID, openingCash decimal.Decimal, notes string) (*model.Session, error) {
	if openingCash.IsNegative() {
		return nil, &ValidationError{Msg: "opening cash cannot be negative"}
	}

	terminal, err := s.terminalRepo.FindByID(ctx, terminalID)
	if err != nil {
		return nil, &NotFoundError{Entity: "terminal"}
	}
	if !terminal.IsActive {
		return nil, &InvalidStateError{Entity: "terminal", State: "inactive", Op: "open session"}
	}

	unlock := s.locks.Lock(terminalID)
	defer unlock()

	if existing, err := s.repo.FindActiveByTerminal(ctx, terminalID); err == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf(
			"terminal already has active session %s", existing.SessionNumber)}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing, err := s.repo.FindActiveByCashier(ctx, cashierID); err == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf(
			"cashier already has active session %s on terminal %s",
			existing.SessionNumber, existing.Terminal.Code)}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		SessionNumber: model.NewSessionNumber(now),
		TerminalID:    terminalID,
		CashierID:     cashierID,
		Status:        model.SessionActive,
		OpenedAt:      now,
		OpeningCash:   openingCash,
		OpeningNotes:  notes,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, session); err != nil {
			return err
		}
		return s.drawers.ResetForSessionTx(ctx, tx, terminalID, session.ID, cashierID, openingCash)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("session", session.SessionNumber).
		Str("terminal", terminal.Code).
		Stringer("cashier", cashierID).
		Msg("session opened")

	session.Terminal = terminal
	return session, nil
}

// Close reconciles and closes an active session. The expected cash is the
// opening float plus every cash payment minus every cash refund; the counted
// amount is accepted as-is and any difference is recorded, never rejected.
// Draft transactions left in the session are voided first.
func (s *sessionService) Close(ctx context.Context, sessionID, closedByID uuid.UUID, closingCash decimal.Decimal, notes string) (*model.Session, error) {
	if closingCash.IsNegative() {
		return nil, &ValidationError{Msg: "closing cash cannot be negative"}
	}

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}

	unlock := s.locks.Lock(session.TerminalID)
	defer unlock()

	if session.Status != model.SessionActive {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "close"}
	}

	expected, err := s.expectedCash(ctx, session)
	if err != nil {
		return nil, err
	}
	difference := closingCash.Sub(expected)

	completed, err := s.txRepo.ListBySession(ctx, sessionID, model.TxCompleted)
	if err != nil {
		return nil, err
	}
	drafts, err := s.txRepo.ListBySession(ctx, sessionID, model.TxDraft)
	if err != nil {
		return nil, err
	}

	totalSales := decimal.Zero
	totalDiscounts := decimal.Zero
	for i := range completed {
		totalSales = totalSales.Add(completed[i].TotalAmount)
		totalDiscounts = totalDiscounts.Add(completed[i].DiscountAmount)
		for j := range completed[i].Lines {
			totalDiscounts = totalDiscounts.Add(completed[i].Lines[j].DiscountAmount)
		}
	}
	totalRefunds, err := s.refundRepo.SumCompletedBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session.Status = model.SessionClosed
	session.ClosedAt = &now
	session.ClosingCash = &closingCash
	session.ExpectedCash = &expected
	session.CashDifference = &difference
	session.ClosingNotes = notes
	session.TotalSales = totalSales
	session.TotalTransactions = len(completed)
	session.TotalRefunds = totalRefunds
	session.TotalDiscounts = totalDiscounts

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range drafts {
			draft := &drafts[i]
			draft.Status = model.TxVoided
			draft.VoidedAt = &now
			draft.VoidedByID = &closedByID
			draft.VoidReason = "session closed with transaction in draft"
			if err := s.txRepo.Save(ctx, tx, draft); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, tx, session); err != nil {
			return err
		}
		return s.drawers.CloseForSessionTx(ctx, tx, session.TerminalID, session.ID, closedByID, closingCash)
	})
	if txErr != nil {
		return nil, txErr
	}

	evt := log.Info()
	if !difference.IsZero() {
		evt = log.Warn()
	}
	evt.Str("session", session.SessionNumber).
		Str("expected", expected.StringFixed(2)).
		Str("counted", closingCash.StringFixed(2)).
		Str("difference", difference.StringFixed(2)).
		Int("voided_drafts", len(drafts)).
		Msg("session closed")

	return session, nil
}

// expectedCash folds cash tenders over the opening float. Cash refunds are
// stored as negative refund_cash payment rows so a plain sum works.
func (s *sessionService) expectedCash(ctx context.Context, session *model.Session) (decimal.Decimal, error) {
	totals, err := s.txRepo.SumPaymentsByMethod(ctx, session.ID)
	if err != nil {
		return decimal.Zero, err
	}
	expected := session.OpeningCash
	for _, mt := range totals {
		if mt.Method == model.PayCash || mt.Method == model.PayCash.RefundMethod() {
			expected = expected.Add(mt.Total)
		}
	}
	return expected, nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	return session, nil
}

func (s *sessionService) GetActive(ctx context.Context, terminalID uuid.UUID) (*model.Session, error) {
	session, err := s.repo.FindActiveByTerminal(ctx, terminalID)
	if err != nil {
		return nil, &NotFoundError{Entity: "active session"}
	}
	return session, nil
}

func (s *sessionService) GetActiveForCashier(ctx context.Context, cashierID uuid.UUID) (*model.Session, error) {
	session, err := s.repo.FindActiveByCashier(ctx, cashierID)
	if err != nil {
		return nil, &NotFoundError{Entity: "active session"}
	}
	return session, nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) ([]model.Session, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListClosed(ctx, page, limit)
}
