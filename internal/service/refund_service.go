package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundLineInput selects a quantity of one original line for refund.
type RefundLineInput struct {
	OriginalLineID uuid.UUID
	Quantity       decimal.Decimal
	Restock        bool
	Notes          string
}

// RefundService creates, approves and processes refunds against completed
// transactions. A refund never mutates the original document beyond the
// per-line returned quantity and the final refunded status.
type RefundService interface {
	Create(ctx context.Context, originalTransactionID, processedByID uuid.UUID, lines []RefundLineInput, reason string, method model.PaymentMethod) (*model.Refund, error)
	CreateFull(ctx context.Context, originalTransactionID, processedByID uuid.UUID, reason string, method model.PaymentMethod) (*model.Refund, error)
	Approve(ctx context.Context, refundID, approverID uuid.UUID) (*model.Refund, error)
	Reject(ctx context.Context, refundID, approverID uuid.UUID, reason string) (*model.Refund, error)
	Process(ctx context.Context, refundID, processedByID uuid.UUID) (*model.Refund, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Refund, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Refund, error)
}

type refundService struct {
	repo        repository.RefundRepository
	txRepo      repository.TransactionRepository
	sessionRepo repository.SessionRepository
	drawers     DrawerService
	inventory   Inventory
	events      EventBus
	receipts    ReceiptIssuer

	// approvalThreshold is the refund amount above which a second pair of
	// eyes must approve before processing.
	approvalThreshold decimal.Decimal
	locks             *keyedMutex
}

func NewRefundService(
	repo repository.RefundRepository,
	txRepo repository.TransactionRepository,
	sessionRepo repository.SessionRepository,
	drawers DrawerService,
	inventory Inventory,
	events EventBus,
	receipts ReceiptIssuer,
	approvalThreshold decimal.Decimal,
) RefundService {
	return &refundService{
		repo:              repo,
		txRepo:            txRepo,
		sessionRepo:       sessionRepo,
		drawers:           drawers,
		inventory:         inventory,
		events:            events,
		receipts:          receipts,
		approvalThreshold: approvalThreshold,
		locks:             newKeyedMutex(),
	}
}

// Create builds a partial refund over the selected lines. Each quantity is
// checked against what remains refundable on the original line, counting
// refunds still in flight. Amounts are pro-rated from the original line
// totals at the per-unit price. A refund under the approval threshold is
// processed immediately; anything above waits for a second approver.
func (s *refundService) Create(ctx context.Context, originalTransactionID, processedByID uuid.UUID, lines []RefundLineInput, reason string, method model.PaymentMethod) (*model.Refund, error) {
	if reason == "" {
		return nil, &ValidationError{Msg: "refund reason is required"}
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Msg: "refund requires at least one line"}
	}
	if !method.Valid() {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown refund method %q", method)}
	}

	unlock := s.locks.Lock(originalTransactionID)
	defer unlock()

	original, err := s.txRepo.FindByID(ctx, originalTransactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	if original.Status != model.TxCompleted && original.Status != model.TxRefunded {
		return nil, &InvalidStateError{Entity: "transaction", State: string(original.Status), Op: "refund"}
	}

	refund := &model.Refund{
		RefundNumber:          model.NewRefundNumber(time.Now()),
		OriginalTransactionID: original.ID,
		Type:                  model.RefundPartial,
		Status:                model.RefundPending,
		Method:                method,
		Reason:                reason,
		ProcessedByID:         processedByID,
	}

	total := decimal.Zero
	fullReturn := true
	for _, in := range lines {
		if !in.Quantity.IsPositive() {
			return nil, &ValidationError{Msg: "refund quantity must be positive"}
		}
		origLine := findLine(original, in.OriginalLineID)
		if origLine == nil {
			return nil, &NotFoundError{Entity: "transaction line"}
		}

		pending, err := s.repo.SumRefundedQuantity(ctx, origLine.ID)
		if err != nil {
			return nil, err
		}
		available := origLine.Quantity.Sub(pending)
		if in.Quantity.GreaterThan(available) {
			return nil, &ValidationError{Msg: fmt.Sprintf(
				"cannot refund %s of %s: only %s remaining",
				in.Quantity, origLine.ProductName, available)}
		}
		if in.Quantity.LessThan(available) {
			fullReturn = false
		}

		amount := origLine.LineTotal.
			Mul(in.Quantity).Div(origLine.Quantity).Round(2)
		total = total.Add(amount)

		refund.Lines = append(refund.Lines, model.RefundLine{
			OriginalLineID: origLine.ID,
			Quantity:       in.Quantity,
			Amount:         amount,
			Restock:        in.Restock,
			Notes:          in.Notes,
		})
	}
	if fullReturn && len(lines) == len(original.Lines) {
		refund.Type = model.RefundFull
		total = original.TotalAmount.Sub(alreadyRefunded(original))
	}
	refund.Amount = total

	refund.RequiresApproval = total.GreaterThan(s.approvalThreshold)

	if err := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, refund)
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("refund", refund.RefundNumber).
		Str("transaction", original.TransactionNumber).
		Str("amount", refund.Amount.StringFixed(2)).
		Bool("requires_approval", refund.RequiresApproval).
		Msg("refund created")

	if !refund.RequiresApproval {
		// Still under the transaction lock taken above.
		return s.process(ctx, refund, processedByID)
	}
	return refund, nil
}

// CreateFull refunds every remaining quantity of every line, restocking all.
func (s *refundService) CreateFull(ctx context.Context, originalTransactionID, processedByID uuid.UUID, reason string, method model.PaymentMethod) (*model.Refund, error) {
	original, err := s.txRepo.FindByID(ctx, originalTransactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}

	var lines []RefundLineInput
	for i := range original.Lines {
		l := &original.Lines[i]
		pending, err := s.repo.SumRefundedQuantity(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		remaining := l.Quantity.Sub(pending)
		if remaining.IsPositive() {
			lines = append(lines, RefundLineInput{
				OriginalLineID: l.ID,
				Quantity:       remaining,
				Restock:        true,
			})
		}
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Msg: "nothing left to refund on this transaction"}
	}
	return s.Create(ctx, originalTransactionID, processedByID, lines, reason, method)
}

// Approve requires a different user than the one who created the refund.
func (s *refundService) Approve(ctx context.Context, refundID, approverID uuid.UUID) (*model.Refund, error) {
	refund, err := s.repo.FindByID(ctx, refundID)
	if err != nil {
		return nil, &NotFoundError{Entity: "refund"}
	}
	if refund.Status != model.RefundPending {
		return nil, &InvalidStateError{Entity: "refund", State: string(refund.Status), Op: "approve"}
	}
	if approverID == refund.ProcessedByID {
		return nil, &ValidationError{Msg: "refund cannot be approved by its creator"}
	}

	now := time.Now()
	refund.Status = model.RefundApproved
	refund.ApprovedByID = &approverID
	refund.ApprovedAt = &now

	if err := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, refund)
	}); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *refundService) Reject(ctx context.Context, refundID, approverID uuid.UUID, reason string) (*model.Refund, error) {
	refund, err := s.repo.FindByID(ctx, refundID)
	if err != nil {
		return nil, &NotFoundError{Entity: "refund"}
	}
	if refund.Status != model.RefundPending {
		return nil, &InvalidStateError{Entity: "refund", State: string(refund.Status), Op: "reject"}
	}

	now := time.Now()
	refund.Status = model.RefundRejected
	refund.ApprovedByID = &approverID
	refund.ApprovedAt = &now
	if reason != "" {
		refund.Reason = fmt.Sprintf("%s (rejected: %s)", refund.Reason, reason)
	}

	if err := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, refund)
	}); err != nil {
		return nil, err
	}
	return refund, nil
}

// Process executes a refund: money moves out, restockable lines go back to
// the warehouse, returned quantities accumulate on the original lines, and
// the original flips to refunded once everything came back. The whole step is
// one atomic unit. Approval-free refunds are processable straight from
// pending, typically when their immediate processing at creation failed.
func (s *refundService) Process(ctx context.Context, refundID, processedByID uuid.UUID) (*model.Refund, error) {
	refund, err := s.repo.FindByID(ctx, refundID)
	if err != nil {
		return nil, &NotFoundError{Entity: "refund"}
	}
	// Pending is processable only when no approval was ever required.
	processable := refund.Status == model.RefundApproved ||
		(refund.Status == model.RefundPending && !refund.RequiresApproval)
	if !processable {
		return nil, &InvalidStateError{Entity: "refund", State: string(refund.Status), Op: "process"}
	}

	unlock := s.locks.Lock(refund.OriginalTransactionID)
	defer unlock()
	return s.process(ctx, refund, processedByID)
}

// process executes the refund. The caller holds the original transaction's
// lock.
func (s *refundService) process(ctx context.Context, refund *model.Refund, processedByID uuid.UUID) (*model.Refund, error) {
	original, err := s.txRepo.FindByID(ctx, refund.OriginalTransactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}

	// The refund pays out of the terminal's currently active session.
	session, err := s.sessionRepo.FindActiveByTerminal(ctx, original.TerminalID)
	if err != nil {
		return nil, &InvalidStateError{Entity: "terminal", State: "no active session", Op: "process refund"}
	}

	now := time.Now()
	refund.Status = model.RefundCompleted
	refund.CompletedAt = &now

	txErr := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		// Negative payment row keeps the original's tender history append-only.
		payment := &model.Payment{
			TransactionID: original.ID,
			Method:        refund.Method.RefundMethod(),
			Amount:        refund.Amount.Neg(),
			Status:        model.PaymentCompleted,
			Notes:         fmt.Sprintf("refund %s", refund.RefundNumber),
			ProcessedByID: processedByID,
		}
		if err := s.txRepo.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}

		if refund.Method.IsCash() {
			if err := s.drawers.RecordMovementTx(ctx, tx, original.TerminalID, &session.ID, &original.ID,
				model.MovementRefund, refund.Amount.Neg(), processedByID,
				fmt.Sprintf("refund %s", refund.RefundNumber)); err != nil {
				return err
			}
		}

		fullyReturned := true
		for _, rl := range refund.Lines {
			origLine := findLine(original, rl.OriginalLineID)
			if origLine == nil {
				return &NotFoundError{Entity: "transaction line"}
			}
			origLine.ReturnQuantity = origLine.ReturnQuantity.Add(rl.Quantity)
			if err := s.txRepo.SaveLine(ctx, tx, origLine); err != nil {
				return err
			}
			if rl.Restock && origLine.TrackInventory {
				ref := StockRef{Type: "pos_refund", ID: refund.ID}
				if err := s.inventory.AddStock(ctx, origLine.ProductID, warehouseOf(session),
					rl.Quantity, processedByID, ref); err != nil {
					return err
				}
			}
		}
		for i := range original.Lines {
			if original.Lines[i].RemainingQuantity().IsPositive() {
				fullyReturned = false
				break
			}
		}
		if fullyReturned {
			original.Status = model.TxRefunded
			if err := s.txRepo.Save(ctx, tx, original); err != nil {
				return err
			}
		}

		if _, err := s.receipts.IssueTx(ctx, tx, original, model.ReceiptRefund); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, refund)
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.events.Emit(ctx, EventRefundCompleted, map[string]interface{}{
		"refund_id":          refund.ID.String(),
		"refund_number":      refund.RefundNumber,
		"transaction_id":     original.ID.String(),
		"transaction_number": original.TransactionNumber,
		"amount":             refund.Amount.StringFixed(2),
	}); err != nil {
		log.Warn().Err(err).Str("refund", refund.RefundNumber).Msg("refund event emit failed")
	}

	log.Info().
		Str("refund", refund.RefundNumber).
		Str("amount", refund.Amount.StringFixed(2)).
		Msg("refund processed")
	return refund, nil
}

func (s *refundService) Get(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "refund"}
	}
	return refund, nil
}

func (s *refundService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Refund, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// alreadyRefunded sums prior refund payouts on the original so a closing full
// refund lands exactly on the original total. Only refund-tagged rows count;
// returned change is also negative but is not a refund.
func alreadyRefunded(original *model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for i := range original.Payments {
		p := &original.Payments[i]
		if strings.HasPrefix(string(p.Method), "refund_") {
			sum = sum.Sub(p.Amount)
		}
	}
	return sum
}
