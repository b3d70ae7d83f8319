package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a cashier session.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionClosing SessionStatus = "closing"
	SessionClosed  SessionStatus = "closed"
)

// Session is a cashier's working period on one terminal, bounded by open and
// close. At most one active session may exist per terminal; the guard is
// enforced at open time. Sessions are never deleted.
type Session struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionNumber string        `gorm:"uniqueIndex;not null"`
	TerminalID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	CashierID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'active'"`

	OpenedAt     time.Time
	OpeningCash  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OpeningNotes string

	// Closing fields are populated by Close and nil while the session runs.
	ClosedAt       *time.Time
	ClosingCash    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedCash   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CashDifference *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingNotes   string

	// Aggregates over completed transactions, computed on close.
	TotalSales        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalTransactions int             `gorm:"not null;default:0"`
	TotalRefunds      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalDiscounts    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Terminal *Terminal `gorm:"foreignKey:TerminalID"`
}

// NewSessionNumber returns a SES-YYYYMMDD-XXXXXX document number.
func NewSessionNumber(now time.Time) string {
	return fmt.Sprintf("SES-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:6]))
}
