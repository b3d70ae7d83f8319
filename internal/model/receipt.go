package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReceiptType classifies the issued receipt record.
type ReceiptType string

const (
	ReceiptSale      ReceiptType = "sale"
	ReceiptRefund    ReceiptType = "refund"
	ReceiptDuplicate ReceiptType = "duplicate"
	ReceiptGift      ReceiptType = "gift"
)

// Receipt is the issued receipt record for a transaction. Rendering and
// delivery (PDF, print, email) happen downstream; the record tracks what was
// issued and how often it was reprinted.
type Receipt struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID   `gorm:"type:uuid;not null;index"`
	ReceiptNumber string      `gorm:"uniqueIndex;not null"`
	Type          ReceiptType `gorm:"type:varchar(20);not null;default:'sale'"`

	HeaderText string
	FooterText string

	IsPrinted     bool `gorm:"not null;default:false"`
	PrintedCount  int  `gorm:"not null;default:0"`
	LastPrintedAt *time.Time

	EmailedTo string

	CreatedAt time.Time
}

// NewReceiptNumber returns an RCP-YYYYMMDD-XXXXXXXX document number.
func NewReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}
