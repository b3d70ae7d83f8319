package service

import (
	"context"
	"fmt"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentInput is one tender being applied to a transaction.
type PaymentInput struct {
	Method          model.PaymentMethod
	Amount          decimal.Decimal
	ReferenceNumber string
	CardLastFour    string
	CardType        string
	MobileNumber    string
	MobileProvider  string
	VoucherCode     string
	Notes           string
}

// PaymentService records tenders against a transaction and drives completion.
// Recording and completion are two separate atomic units: the payment row
// commits first, so a failure in the completion steps can never lose money
// already taken from the customer. A transaction stranded in pending is
// finished later with RetryCompletion.
type PaymentService interface {
	Pay(ctx context.Context, transactionID, processedByID uuid.UUID, in PaymentInput) (*model.Transaction, error)
	RetryCompletion(ctx context.Context, transactionID, processedByID uuid.UUID) (*model.Transaction, error)
}

type paymentService struct {
	repo        repository.TransactionRepository
	sessionRepo repository.SessionRepository
	drawers     DrawerService
	promotion   Promotion
	inventory   Inventory
	loyalty     Loyalty
	ledger      Ledger
	events      EventBus
	receipts    ReceiptIssuer
	locks       *keyedMutex
}

// ReceiptIssuer is the slice of the receipt service the payment engine needs.
type ReceiptIssuer interface {
	IssueTx(ctx context.Context, tx *gorm.DB, txn *model.Transaction, typ model.ReceiptType) (*model.Receipt, error)
}

func NewPaymentService(
	repo repository.TransactionRepository,
	sessionRepo repository.SessionRepository,
	drawers DrawerService,
	promotion Promotion,
	inventory Inventory,
	loyalty Loyalty,
	ledger Ledger,
	events EventBus,
	receipts ReceiptIssuer,
) PaymentService {
	return &paymentService{
		repo:        repo,
		sessionRepo: sessionRepo,
		drawers:     drawers,
		promotion:   promotion,
		inventory:   inventory,
		loyalty:     loyalty,
		ledger:      ledger,
		events:      events,
		receipts:    receipts,
		locks:       newKeyedMutex(),
	}
}

// Pay validates and records one tender. When the running paid amount covers
// the total, the transaction moves to pending and the completion steps run.
func (s *paymentService) Pay(ctx context.Context, transactionID, processedByID uuid.UUID, in PaymentInput) (*model.Transaction, error) {
	if !in.Method.Valid() {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown payment method %q", in.Method)}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Msg: "payment amount must be positive"}
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	if txn.Status != model.TxDraft && txn.Status != model.TxPending {
		return nil, &InvalidStateError{Entity: "transaction", State: string(txn.Status), Op: "record payment"}
	}
	if len(txn.Lines) == 0 {
		return nil, &ValidationError{Msg: "cannot pay an empty transaction"}
	}

	// Only cash may exceed the balance; the overage is change.
	balance := txn.BalanceDue()
	if !in.Method.IsCash() && in.Amount.GreaterThan(balance) {
		return nil, &ValidationError{Msg: fmt.Sprintf(
			"%s payment of %s exceeds balance due %s", in.Method, in.Amount, balance)}
	}

	session, err := s.sessionRepo.FindByID(ctx, txn.SessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.Status != model.SessionActive {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "record payment"}
	}

	if in.Method == model.PayLoyalty {
		if err := s.redeemLoyalty(ctx, txn, in.Amount, processedByID); err != nil {
			return nil, err
		}
	}

	payment := &model.Payment{
		TransactionID:   txn.ID,
		Method:          in.Method,
		Amount:          in.Amount,
		Status:          model.PaymentCompleted,
		ReferenceNumber: in.ReferenceNumber,
		CardLastFour:    in.CardLastFour,
		CardType:        in.CardType,
		MobileNumber:    in.MobileNumber,
		MobileProvider:  in.MobileProvider,
		VoucherCode:     in.VoucherCode,
		Notes:           in.Notes,
		ProcessedByID:   processedByID,
	}

	txn.AmountPaid = txn.AmountPaid.Add(in.Amount)
	settled := txn.IsPaid()
	if settled {
		txn.ChangeDue = txn.AmountPaid.Sub(txn.TotalAmount)
		txn.Status = model.TxPending
	}

	// Phase one: the tender, the paid amount and the drawer movement commit
	// together, before any completion step can fail.
	var changeRow *model.Payment
	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}
		if in.Method.IsCash() {
			drawerAmount := in.Amount
			if settled && txn.ChangeDue.IsPositive() {
				drawerAmount = drawerAmount.Sub(txn.ChangeDue)
				// Change goes back as a negative cash row so the payment
				// ledger sums to what the drawer actually kept.
				changeRow = &model.Payment{
					TransactionID: txn.ID,
					Method:        model.PayCash,
					Amount:        txn.ChangeDue.Neg(),
					Status:        model.PaymentCompleted,
					Notes:         "change returned",
					ProcessedByID: processedByID,
				}
				if err := s.repo.CreatePayment(ctx, tx, changeRow); err != nil {
					return err
				}
			}
			if err := s.drawers.RecordMovementTx(ctx, tx, txn.TerminalID, &txn.SessionID, &txn.ID,
				model.MovementSale, drawerAmount, processedByID,
				fmt.Sprintf("sale %s", txn.TransactionNumber)); err != nil {
				return err
			}
		}
		return s.repo.Save(ctx, tx, txn)
	}); err != nil {
		return nil, err
	}
	txn.Payments = append(txn.Payments, *payment)
	if changeRow != nil {
		txn.Payments = append(txn.Payments, *changeRow)
	}

	if !settled {
		return txn, nil
	}
	return s.complete(ctx, txn, session, processedByID)
}

// RetryCompletion re-runs the completion steps for a transaction that was
// fully paid but stranded in pending by an earlier failure. Steps already
// done are skipped via the per-step flags.
func (s *paymentService) RetryCompletion(ctx context.Context, transactionID, processedByID uuid.UUID) (*model.Transaction, error) {
	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	if txn.Status != model.TxPending {
		return nil, &InvalidStateError{Entity: "transaction", State: string(txn.Status), Op: "retry completion"}
	}
	if !txn.IsPaid() {
		return nil, &InsufficientFundsError{Msg: fmt.Sprintf(
			"transaction %s still owes %s", txn.TransactionNumber, txn.BalanceDue())}
	}

	session, err := s.sessionRepo.FindByID(ctx, txn.SessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	return s.complete(ctx, txn, session, processedByID)
}

// complete runs the post-payment steps: consume the coupon, award loyalty
// points, deduct stock, post to the general ledger, issue the receipt and
// emit the sale event. Stock failure aborts and leaves the transaction
// pending; coupon, loyalty and ledger failures are logged and skipped.
func (s *paymentService) complete(ctx context.Context, txn *model.Transaction, session *model.Session, processedByID uuid.UUID) (*model.Transaction, error) {
	now := time.Now()

	if txn.CouponID != nil && !txn.CouponUsed {
		if err := s.promotion.UseCoupon(ctx, *txn.CouponID); err != nil {
			log.Warn().Err(err).
				Str("transaction", txn.TransactionNumber).
				Str("coupon", txn.CouponCode).
				Msg("coupon consumption failed, continuing")
		} else {
			txn.CouponUsed = true
		}
	}

	if txn.CustomerID != nil {
		s.awardLoyalty(ctx, txn, processedByID)
	}

	txn.Status = model.TxCompleted
	txn.CompletedAt = &now

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range txn.Lines {
			line := &txn.Lines[i]
			if !line.TrackInventory || line.StockDeducted {
				continue
			}
			ref := StockRef{Type: "pos_sale", ID: txn.ID}
			allowNegative := session.Terminal != nil && session.Terminal.AllowNegativeStock
			if err := s.inventory.RemoveStock(ctx, line.ProductID, warehouseOf(session),
				line.Quantity, processedByID, ref, allowNegative); err != nil {
				return err
			}
			line.StockDeducted = true
		}
		if _, err := s.receipts.IssueTx(ctx, tx, txn, model.ReceiptSale); err != nil {
			return err
		}
		return s.repo.Save(ctx, tx, txn)
	})
	if err != nil {
		// Leave the document pending with whatever step flags stuck; the
		// payment from phase one is already committed.
		txn.Status = model.TxPending
		txn.CompletedAt = nil
		if saveErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.repo.Save(ctx, tx, txn)
		}); saveErr != nil {
			log.Error().Err(saveErr).
				Str("transaction", txn.TransactionNumber).
				Msg("failed to persist pending state after completion failure")
		}
		return nil, err
	}

	if err := s.ledger.PostSaleToGL(ctx, txn.ID, txn.TotalAmount, txn.TaxAmount); err != nil {
		log.Warn().Err(err).
			Str("transaction", txn.TransactionNumber).
			Msg("general ledger posting failed, continuing")
	}

	if err := s.events.Emit(ctx, EventSaleCompleted, map[string]interface{}{
		"transaction_id":     txn.ID.String(),
		"transaction_number": txn.TransactionNumber,
		"session_id":         txn.SessionID.String(),
		"terminal_id":        txn.TerminalID.String(),
		"total_amount":       txn.TotalAmount.StringFixed(2),
		"completed_at":       now.UTC().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).
			Str("transaction", txn.TransactionNumber).
			Msg("sale event emit failed")
	}

	log.Info().
		Str("transaction", txn.TransactionNumber).
		Str("total", txn.TotalAmount.StringFixed(2)).
		Str("change", txn.ChangeDue.StringFixed(2)).
		Msg("sale completed")
	return txn, nil
}

// redeemLoyalty converts the tendered amount to points and debits the
// customer account. Runs before the payment row is written so an uncovered
// balance rejects the whole tender.
func (s *paymentService) redeemLoyalty(ctx context.Context, txn *model.Transaction, amount decimal.Decimal, processedByID uuid.UUID) error {
	if txn.CustomerID == nil {
		return &ValidationError{Msg: "loyalty payment requires a customer"}
	}
	program, err := s.loyalty.GetProgram(ctx, *txn.CustomerID)
	if err != nil {
		return &LoyaltyError{Reason: "program lookup failed", Err: err}
	}
	if !program.Active || !program.RedemptionRate.IsPositive() {
		return &LoyaltyError{Reason: "no active loyalty program for customer"}
	}
	points := amount.Div(program.RedemptionRate).Ceil().IntPart()
	if err := s.loyalty.RedeemPoints(ctx, *txn.CustomerID, points,
		fmt.Sprintf("redeemed on sale %s", txn.TransactionNumber), processedByID); err != nil {
		return &LoyaltyError{Reason: "point redemption failed", Err: err}
	}
	return nil
}

// awardLoyalty is best-effort: failures are logged and never block the sale.
// Points redeemed as tender never earn points back, so the award base is the
// total minus whatever was paid with the loyalty method.
func (s *paymentService) awardLoyalty(ctx context.Context, txn *model.Transaction, processedByID uuid.UUID) {
	program, err := s.loyalty.GetProgram(ctx, *txn.CustomerID)
	if err != nil || !program.Active || !program.PointsPerCurrency.IsPositive() {
		if err != nil {
			log.Warn().Err(err).
				Str("transaction", txn.TransactionNumber).
				Msg("loyalty program lookup failed, skipping award")
		}
		return
	}
	base := txn.TotalAmount
	for i := range txn.Payments {
		if txn.Payments[i].Method == model.PayLoyalty {
			base = base.Sub(txn.Payments[i].Amount)
		}
	}
	if !base.IsPositive() {
		return
	}
	points := base.Mul(program.PointsPerCurrency).Floor().IntPart()
	if points <= 0 {
		return
	}
	if err := s.loyalty.AwardPoints(ctx, *txn.CustomerID, points,
		fmt.Sprintf("earned on sale %s", txn.TransactionNumber),
		base, txn.TransactionNumber, processedByID); err != nil {
		log.Warn().Err(err).
			Str("transaction", txn.TransactionNumber).
			Int64("points", points).
			Msg("loyalty award failed, continuing")
	}
}

func warehouseOf(session *model.Session) uuid.UUID {
	if session.Terminal != nil {
		return session.Terminal.WarehouseID
	}
	return uuid.Nil
}
