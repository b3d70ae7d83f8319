package service

import (
	"context"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerDetails is the optional customer capture on a sale. A nil ID with
// populated name/phone records a walk-in customer.
type CustomerDetails struct {
	ID    *uuid.UUID
	Name  string
	Phone string
	Email string
}

// LineInput describes one product being added to a cart.
type LineInput struct {
	ProductID       uuid.UUID
	Quantity        decimal.Decimal
	UnitPrice       *decimal.Decimal // nil means resolve via pricing
	DiscountPercent decimal.Decimal
}

// TransactionService runs the cart state machine up to the point where the
// payment engine takes over: draft creation, line edits, discounts, coupons
// and voiding.
type TransactionService interface {
	Start(ctx context.Context, sessionID, cashierID uuid.UUID, customer CustomerDetails, notes string) (*model.Transaction, error)
	AddLine(ctx context.Context, transactionID uuid.UUID, in LineInput) (*model.Transaction, error)
	UpdateLine(ctx context.Context, transactionID, lineID uuid.UUID, quantity, discountPercent decimal.Decimal) (*model.Transaction, error)
	RemoveLine(ctx context.Context, transactionID, lineID uuid.UUID) (*model.Transaction, error)
	ApplyDiscount(ctx context.Context, transactionID uuid.UUID, percent, amount decimal.Decimal, reason string) (*model.Transaction, error)
	ApplyCoupon(ctx context.Context, transactionID uuid.UUID, code string) (*model.Transaction, error)
	RemoveCoupon(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, error)
	SetCustomer(ctx context.Context, transactionID uuid.UUID, customer CustomerDetails) (*model.Transaction, error)
	Void(ctx context.Context, transactionID, voidedByID uuid.UUID, reason string) (*model.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) ([]model.Transaction, error)
}

type transactionService struct {
	repo        repository.TransactionRepository
	sessionRepo repository.SessionRepository
	pricing     Pricing
	tax         Tax
	promotion   Promotion
	inventory   Inventory
	locks       *keyedMutex
}

func NewTransactionService(
	repo repository.TransactionRepository,
	sessionRepo repository.SessionRepository,
	pricing Pricing,
	tax Tax,
	promotion Promotion,
	inventory Inventory,
) TransactionService {
	return &transactionService{
		repo:        repo,
		sessionRepo: sessionRepo,
		pricing:     pricing,
		tax:         tax,
		promotion:   promotion,
		inventory:   inventory,
		locks:       newKeyedMutex(),
	}
}

// Start opens a draft transaction on an active session.
func (s *transactionService) Start(ctx context.Context, sessionID, cashierID uuid.UUID, customer CustomerDetails, notes string) (*model.Transaction, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.Status != model.SessionActive {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "start transaction"}
	}
	if session.Terminal != nil && session.Terminal.RequireCustomer && customer.ID == nil && customer.Name == "" {
		return nil, &ValidationError{Msg: "terminal requires a customer on every sale"}
	}

	txn := &model.Transaction{
		TransactionNumber: model.NewTransactionNumber(time.Now()),
		SessionID:         sessionID,
		TerminalID:        session.TerminalID,
		Status:            model.TxDraft,
		CustomerID:        customer.ID,
		CustomerName:      customer.Name,
		CustomerPhone:     customer.Phone,
		CustomerEmail:     customer.Email,
		Notes:             notes,
		CashierID:         cashierID,
	}
	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, txn)
	}); err != nil {
		return nil, err
	}
	return txn, nil
}

// AddLine resolves price and tax for the product and appends a cart line.
// Adding the same product at the same effective price merges into the
// existing line instead of duplicating it.
func (s *transactionService) AddLine(ctx context.Context, transactionID uuid.UUID, in LineInput) (*model.Transaction, error) {
	if !in.Quantity.IsPositive() {
		return nil, &ValidationError{Msg: "quantity must be positive"}
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Msg: "discount percent must be between 0 and 100"}
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "add line")
	if err != nil {
		return nil, err
	}

	product, err := s.pricing.GetPrice(ctx, in.ProductID, txn.CustomerID, in.Quantity)
	if err != nil {
		return nil, &NotFoundError{Entity: "product"}
	}
	if !product.IsActive {
		return nil, &ValidationError{Msg: "product is not sellable"}
	}

	unitPrice := product.UnitPrice
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, &ValidationError{Msg: "unit price cannot be negative"}
		}
		unitPrice = *in.UnitPrice
	}

	rate, inclusive, err := s.tax.GetApplicableTaxRate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	var line *model.TransactionLine
	for i := range txn.Lines {
		l := &txn.Lines[i]
		if l.ProductID == in.ProductID && l.UnitPrice.Equal(unitPrice) &&
			l.DiscountPercent.Equal(in.DiscountPercent) {
			line = l
			break
		}
	}
	if line != nil {
		line.Quantity = line.Quantity.Add(in.Quantity)
	} else {
		txn.Lines = append(txn.Lines, model.TransactionLine{
			TransactionID:   txn.ID,
			ProductID:       in.ProductID,
			Quantity:        in.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: in.DiscountPercent,
			TaxRate:         rate,
			TaxInclusive:    inclusive,
			ProductName:     product.Name,
			ProductSKU:      product.SKU,
			TrackInventory:  product.TrackInventory,
		})
		line = &txn.Lines[len(txn.Lines)-1]
	}
	line.Recalculate()

	if err := s.saveRecalculated(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) UpdateLine(ctx context.Context, transactionID, lineID uuid.UUID, quantity, discountPercent decimal.Decimal) (*model.Transaction, error) {
	if !quantity.IsPositive() {
		return nil, &ValidationError{Msg: "quantity must be positive"}
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Msg: "discount percent must be between 0 and 100"}
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "update line")
	if err != nil {
		return nil, err
	}

	line := findLine(txn, lineID)
	if line == nil {
		return nil, &NotFoundError{Entity: "transaction line"}
	}
	line.Quantity = quantity
	line.DiscountPercent = discountPercent
	line.DiscountAmount = decimal.Zero
	line.Recalculate()

	if err := s.saveRecalculated(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) RemoveLine(ctx context.Context, transactionID, lineID uuid.UUID) (*model.Transaction, error) {
	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "remove line")
	if err != nil {
		return nil, err
	}

	if findLine(txn, lineID) == nil {
		return nil, &NotFoundError{Entity: "transaction line"}
	}
	kept := txn.Lines[:0]
	for _, l := range txn.Lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	txn.Lines = kept

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.DeleteLine(ctx, tx, lineID); err != nil {
			return err
		}
		if err := s.recomputeTotals(ctx, txn); err != nil {
			return err
		}
		return s.repo.Save(ctx, tx, txn)
	}); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyDiscount sets a transaction-level discount as either a percent of the
// line total or a fixed amount; passing zero for both clears it.
func (s *transactionService) ApplyDiscount(ctx context.Context, transactionID uuid.UUID, percent, amount decimal.Decimal, reason string) (*model.Transaction, error) {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Msg: "discount percent must be between 0 and 100"}
	}
	if amount.IsNegative() {
		return nil, &ValidationError{Msg: "discount amount cannot be negative"}
	}
	if percent.IsPositive() && amount.IsPositive() {
		return nil, &ValidationError{Msg: "specify a percent or an amount, not both"}
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "apply discount")
	if err != nil {
		return nil, err
	}

	txn.DiscountPercent = percent
	txn.DiscountAmount = amount
	txn.DiscountReason = reason

	if err := s.saveRecalculated(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyCoupon validates the code against the promotion subsystem and records
// it on the draft. The coupon is only consumed at completion.
func (s *transactionService) ApplyCoupon(ctx context.Context, transactionID uuid.UUID, code string) (*model.Transaction, error) {
	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "apply coupon")
	if err != nil {
		return nil, err
	}
	if txn.CouponID != nil {
		return nil, &CouponError{Code: txn.CouponCode, Reason: "a coupon is already applied"}
	}

	valid, reason, coupon, err := s.promotion.ValidateCoupon(ctx, code, txn.CustomerID, lineTotal(txn))
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, &CouponError{Code: code, Reason: reason}
	}

	txn.CouponID = &coupon.ID
	txn.CouponCode = coupon.Code

	if err := s.saveRecalculated(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) RemoveCoupon(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, error) {
	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "remove coupon")
	if err != nil {
		return nil, err
	}
	txn.CouponID = nil
	txn.CouponCode = ""

	if err := s.saveRecalculated(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *transactionService) SetCustomer(ctx context.Context, transactionID uuid.UUID, customer CustomerDetails) (*model.Transaction, error) {
	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.draft(ctx, transactionID, "set customer")
	if err != nil {
		return nil, err
	}
	txn.CustomerID = customer.ID
	txn.CustomerName = customer.Name
	txn.CustomerPhone = customer.Phone
	txn.CustomerEmail = customer.Email

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Save(ctx, tx, txn)
	}); err != nil {
		return nil, err
	}
	return txn, nil
}

// Void cancels a transaction. Draft and pending carts simply flip to voided;
// a completed sale additionally restocks every line whose stock was deducted.
// Recorded payments are never deleted, and the drawer keeps its movements;
// the discrepancy surfaces at session close.
func (s *transactionService) Void(ctx context.Context, transactionID, voidedByID uuid.UUID, reason string) (*model.Transaction, error) {
	if reason == "" {
		return nil, &ValidationError{Msg: "void reason is required"}
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	switch txn.Status {
	case model.TxDraft, model.TxPending, model.TxCompleted:
	default:
		return nil, &InvalidStateError{Entity: "transaction", State: string(txn.Status), Op: "void"}
	}

	session, err := s.sessionRepo.FindByID(ctx, txn.SessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}

	now := time.Now()
	txn.Status = model.TxVoided
	txn.VoidedAt = &now
	txn.VoidedByID = &voidedByID
	txn.VoidReason = reason

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for i := range txn.Lines {
			line := &txn.Lines[i]
			if !line.StockDeducted {
				continue
			}
			ref := StockRef{Type: "pos_void", ID: txn.ID}
			if err := s.inventory.AddStock(ctx, line.ProductID, warehouseOf(session),
				line.Quantity, voidedByID, ref); err != nil {
				return err
			}
			line.StockDeducted = false
		}
		return s.repo.Save(ctx, tx, txn)
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction", txn.TransactionNumber).
		Str("reason", reason).
		Msg("transaction voided")
	return txn, nil
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	return txn, nil
}

func (s *transactionService) ListBySession(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) ([]model.Transaction, error) {
	return s.repo.ListBySession(ctx, sessionID, status)
}

// draft loads a transaction and rejects any status other than draft.
func (s *transactionService) draft(ctx context.Context, id uuid.UUID, op string) (*model.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "transaction"}
	}
	if txn.Status != model.TxDraft {
		return nil, &InvalidStateError{Entity: "transaction", State: string(txn.Status), Op: op}
	}
	return txn, nil
}

func (s *transactionService) saveRecalculated(ctx context.Context, txn *model.Transaction) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.recomputeTotals(ctx, txn); err != nil {
			return err
		}
		return s.repo.Save(ctx, tx, txn)
	})
}

// recomputeTotals folds the lines into the header. Line totals already carry
// their tax, so the grand total is the line sum minus the header discount
// (manual and coupon combined).
func (s *transactionService) recomputeTotals(ctx context.Context, txn *model.Transaction) error {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range txn.Lines {
		subtotal = subtotal.Add(txn.Lines[i].LineTotal)
		taxTotal = taxTotal.Add(txn.Lines[i].TaxAmount)
	}

	discount := txn.DiscountAmount
	if txn.DiscountPercent.IsPositive() {
		discount = subtotal.Mul(txn.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
		txn.DiscountAmount = discount
	}

	if txn.CouponID != nil {
		couponDiscount, err := s.promotion.CalculateDiscount(ctx,
			&Coupon{ID: *txn.CouponID, Code: txn.CouponCode}, subtotal.Sub(discount))
		if err != nil {
			return err
		}
		discount = discount.Add(couponDiscount)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	txn.Subtotal = subtotal
	txn.TaxAmount = taxTotal
	txn.TotalAmount = subtotal.Sub(discount).Round(2)
	return nil
}

func findLine(txn *model.Transaction, lineID uuid.UUID) *model.TransactionLine {
	for i := range txn.Lines {
		if txn.Lines[i].ID == lineID {
			return &txn.Lines[i]
		}
	}
	return nil
}

func lineTotal(txn *model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txn.Lines {
		total = total.Add(txn.Lines[i].LineTotal)
	}
	return total
}
