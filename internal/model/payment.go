package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates every way value can move on a transaction.
// Refund entries reuse the sale methods under a Refund* variant so that the
// payment history stays a pure append-only record.
type PaymentMethod string

const (
	PayCash         PaymentMethod = "cash"
	PayCard         PaymentMethod = "card"
	PayMobileMoney  PaymentMethod = "mobile_money"
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayCheck        PaymentMethod = "check"
	PayVoucher      PaymentMethod = "voucher"
	PayStoreCredit  PaymentMethod = "credit"
	PayLoyalty      PaymentMethod = "loyalty"
)

// Valid reports whether m is a known sale-side payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayMobileMoney, PayBankTransfer, PayCheck,
		PayVoucher, PayStoreCredit, PayLoyalty:
		return true
	}
	return false
}

// IsCash reports whether the method moves physical drawer cash.
func (m PaymentMethod) IsCash() bool { return m == PayCash }

// RefundMethod returns the refund-tagged variant of a sale method, e.g.
// "refund_cash". Recorded on the negative payment a processed refund appends.
func (m PaymentMethod) RefundMethod() PaymentMethod {
	return PaymentMethod("refund_" + string(m))
}

// PaymentStatus is the settlement state of an individual payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is an immutable settlement record against a transaction. Refunds
// never mutate prior payments; they append a negative-amount row instead.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        PaymentMethod   `gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null;default:'completed'"`

	ReferenceNumber string

	// Method-specific detail fields; unused ones stay empty.
	CardLastFour   string `gorm:"type:varchar(4)"`
	CardType       string
	MobileNumber   string
	MobileProvider string
	VoucherCode    string

	Notes         string
	ProcessedByID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
}
