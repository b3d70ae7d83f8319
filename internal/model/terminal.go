package model

import (
	"time"

	"github.com/google/uuid"
)

// Terminal is a registered checkout station. Capability flags gate engine
// behaviour: AllowNegativeStock controls whether a sale may complete when the
// warehouse cannot cover a line, RequireCustomer forces a customer reference
// on every transaction, AutoPrintReceipt issues a receipt on completion.
type Terminal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Code        string    `gorm:"uniqueIndex;not null"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Location    string

	IsActive      bool `gorm:"not null;default:true"`
	IsOnline      bool `gorm:"not null;default:true"`
	LastHeartbeat *time.Time

	AllowNegativeStock bool `gorm:"not null;default:false"`
	RequireCustomer    bool `gorm:"not null;default:false"`
	AutoPrintReceipt   bool `gorm:"not null;default:true"`
	ReceiptFooter      string

	CreatedAt time.Time
	UpdatedAt time.Time
}
