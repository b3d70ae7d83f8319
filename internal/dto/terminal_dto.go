package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterTerminalRequest struct {
	Name        string `json:"name"         validate:"required,min=2,max=100"`
	Code        string `json:"code"         validate:"required,min=2,max=30"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Location    string `json:"location"     validate:"max=200"`
}

type UpdateTerminalRequest struct {
	Name               *string `json:"name"     validate:"omitempty,min=2,max=100"`
	Location           *string `json:"location" validate:"omitempty,max=200"`
	IsActive           *bool   `json:"is_active"`
	AllowNegativeStock *bool   `json:"allow_negative_stock"`
	RequireCustomer    *bool   `json:"require_customer"`
	AutoPrintReceipt   *bool   `json:"auto_print_receipt"`
	ReceiptFooter      *string `json:"receipt_footer" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TerminalResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Code               string     `json:"code"`
	WarehouseID        string     `json:"warehouse_id"`
	Location           string     `json:"location"`
	IsActive           bool       `json:"is_active"`
	IsOnline           bool       `json:"is_online"`
	LastHeartbeat      *time.Time `json:"last_heartbeat"`
	AllowNegativeStock bool       `json:"allow_negative_stock"`
	RequireCustomer    bool       `json:"require_customer"`
	AutoPrintReceipt   bool       `json:"auto_print_receipt"`
	ReceiptFooter      string     `json:"receipt_footer"`
}

func FromTerminal(t *model.Terminal) TerminalResponse {
	return TerminalResponse{
		ID:                 t.ID.String(),
		Name:               t.Name,
		Code:               t.Code,
		WarehouseID:        t.WarehouseID.String(),
		Location:           t.Location,
		IsActive:           t.IsActive,
		IsOnline:           t.IsOnline,
		LastHeartbeat:      t.LastHeartbeat,
		AllowNegativeStock: t.AllowNegativeStock,
		RequireCustomer:    t.RequireCustomer,
		AutoPrintReceipt:   t.AutoPrintReceipt,
		ReceiptFooter:      t.ReceiptFooter,
	}
}
