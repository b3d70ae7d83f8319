package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus drives the cart state machine:
// draft → pending → completed; draft|pending → voided; completed → refunded.
type TransactionStatus string

const (
	TxDraft     TransactionStatus = "draft"
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxVoided    TransactionStatus = "voided"
	TxRefunded  TransactionStatus = "refunded"
)

// Transaction is a single POS sale. Lines, discount and coupon are mutable
// only while the transaction is a draft; payments accumulate in draft and
// pending; completion fixes the document.
type Transaction struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionNumber string            `gorm:"uniqueIndex;not null"`
	SessionID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	TerminalID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status            TransactionStatus `gorm:"type:varchar(20);not null;default:'draft'"`

	// Walk-in customers carry no account reference, just the captured info.
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	Subtotal        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountReason  string
	TotalAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	// AmountPaid is the gross tender received. Returned change is written as
	// a negative payment row, so Σ(payment rows) = AmountPaid − ChangeDue;
	// the two are not interchangeable.
	AmountPaid decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ChangeDue  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// Coupon state lives with the promotion collaborator; the transaction
	// only keeps the reference and code for the applied coupon.
	CouponID   *uuid.UUID `gorm:"type:uuid"`
	CouponCode string
	// CouponUsed marks the coupon-consumption completion step as done, so a
	// retried completion does not burn the coupon twice.
	CouponUsed bool `gorm:"not null;default:false"`

	Notes     string
	CashierID uuid.UUID `gorm:"type:uuid;not null"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	VoidedAt    *time.Time
	VoidedByID  *uuid.UUID `gorm:"type:uuid"`
	VoidReason  string

	Lines    []TransactionLine `gorm:"foreignKey:TransactionID"`
	Payments []Payment         `gorm:"foreignKey:TransactionID"`
}

// IsPaid reports whether recorded payments cover the total.
func (t *Transaction) IsPaid() bool {
	return t.AmountPaid.GreaterThanOrEqual(t.TotalAmount)
}

// BalanceDue is the outstanding amount, never negative.
func (t *Transaction) BalanceDue() decimal.Decimal {
	if t.IsPaid() {
		return decimal.Zero
	}
	return t.TotalAmount.Sub(t.AmountPaid)
}

// TransactionLine is one cart row. Product details are snapshotted at add
// time so later catalog edits cannot rewrite sold history.
type TransactionLine struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index"`

	Quantity        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TaxInclusive    bool            `gorm:"not null;default:true"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	ProductName    string `gorm:"not null"`
	ProductSKU     string
	TrackInventory bool `gorm:"not null;default:true"`

	// StockDeducted marks the inventory completion step as done for this
	// line. A completion retried after a stock failure skips deducted lines.
	StockDeducted bool `gorm:"not null;default:false"`

	// ReturnQuantity accumulates across refunds; the refund engine rejects
	// any refund that would push it past Quantity.
	ReturnQuantity decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	CreatedAt time.Time
}

// Recalculate derives discount, tax and line total from the pricing fields.
// Inclusive tax is carved out of the discounted amount; exclusive tax is
// added on top.
func (l *TransactionLine) Recalculate() {
	subtotal := l.UnitPrice.Mul(l.Quantity)
	if l.DiscountPercent.IsPositive() {
		l.DiscountAmount = subtotal.Mul(l.DiscountPercent).Div(decimal.NewFromInt(100))
	}
	afterDiscount := subtotal.Sub(l.DiscountAmount)

	if l.TaxInclusive {
		divisor := decimal.NewFromInt(1).Add(l.TaxRate.Div(decimal.NewFromInt(100)))
		l.TaxAmount = afterDiscount.Sub(afterDiscount.Div(divisor)).Round(2)
		l.LineTotal = afterDiscount
	} else {
		l.TaxAmount = afterDiscount.Mul(l.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
		l.LineTotal = afterDiscount.Add(l.TaxAmount)
	}
}

// RemainingQuantity is the quantity still eligible for refund.
func (l *TransactionLine) RemainingQuantity() decimal.Decimal {
	return l.Quantity.Sub(l.ReturnQuantity)
}

// NewTransactionNumber returns a TXN-YYYYMMDD-XXXXXXXX document number.
func NewTransactionNumber(now time.Time) string {
	return fmt.Sprintf("TXN-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}
