package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DrawerStatus mirrors the physical drawer: open during a session, closed
// otherwise.
type DrawerStatus string

const (
	DrawerClosed DrawerStatus = "closed"
	DrawerOpen   DrawerStatus = "open"
)

// CashDrawer tracks the running cash balance of one terminal. CurrentCash is
// only ever mutated alongside a recorded CashMovement, so the balance is
// always the fold of the movement history from the last opening value.
type CashDrawer struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TerminalID  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Status      DrawerStatus    `gorm:"type:varchar(20);not null;default:'closed'"`
	CurrentCash decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	LastOpenedAt   *time.Time
	LastOpenedByID *uuid.UUID `gorm:"type:uuid"`

	UpdatedAt time.Time
}

// MovementType classifies a cash ledger entry.
type MovementType string

const (
	MovementOpening MovementType = "opening"
	MovementSale    MovementType = "sale"
	MovementRefund  MovementType = "refund"
	MovementPayIn   MovementType = "pay_in"
	MovementPayOut  MovementType = "pay_out"
	MovementClosing MovementType = "closing"
)

// CashMovement is an immutable row in a drawer's cash ledger. Amounts are
// signed (refunds and pay-outs are negative) and BalanceAfter snapshots the
// drawer balance the movement produced. Movements are never updated or
// deleted; corrections append inverse entries.
type CashMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DrawerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionID     *uuid.UUID      `gorm:"type:uuid;index"`
	Type          MovementType    `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TransactionID *uuid.UUID      `gorm:"type:uuid"`
	Notes         string
	PerformedByID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
}
