package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundType distinguishes a full return of every original line from a
// partial one.
type RefundType string

const (
	RefundFull    RefundType = "full"
	RefundPartial RefundType = "partial"
)

// RefundStatus: pending → approved → completed; rejected is terminal.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// Refund reverses part or all of a completed transaction. Amounts are
// pro-rated per line from the original line totals.
type Refund struct {
	ID                    uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RefundNumber          string       `gorm:"uniqueIndex;not null"`
	OriginalTransactionID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type                  RefundType   `gorm:"type:varchar(20);not null"`
	Status                RefundStatus `gorm:"type:varchar(20);not null;default:'pending'"`

	Amount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Method PaymentMethod   `gorm:"type:varchar(30);not null;default:'cash'"`
	Reason string          `gorm:"not null"`

	RequiresApproval bool       `gorm:"not null;default:true"`
	ApprovedByID     *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt       *time.Time

	ProcessedByID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
	CompletedAt   *time.Time

	Lines []RefundLine `gorm:"foreignKey:RefundID"`
}

// RefundLine refunds a quantity of one original transaction line.
type RefundLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RefundID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Restock controls whether the quantity returns to warehouse stock when
	// the refund is processed (damaged goods are refunded without restock).
	Restock bool `gorm:"not null;default:true"`
	Notes   string
}

// NewRefundNumber returns a REF-YYYYMMDD-XXXXXXXX document number.
func NewRefundNumber(now time.Time) string {
	return fmt.Sprintf("REF-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}
