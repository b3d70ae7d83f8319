package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CashMovementRequest struct {
	SessionID string          `json:"session_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"     validate:"required"`
	Notes     string          `json:"notes"      validate:"required,min=3,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DrawerResponse struct {
	ID           string          `json:"id"`
	TerminalID   string          `json:"terminal_id"`
	Status       string          `json:"status"`
	CurrentCash  decimal.Decimal `json:"current_cash"`
	LastOpenedAt *time.Time      `json:"last_opened_at,omitempty"`
}

type MovementResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	SessionID     *string         `json:"session_id,omitempty"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func FromDrawer(d *model.CashDrawer) DrawerResponse {
	return DrawerResponse{
		ID:           d.ID.String(),
		TerminalID:   d.TerminalID.String(),
		Status:       string(d.Status),
		CurrentCash:  d.CurrentCash,
		LastOpenedAt: d.LastOpenedAt,
	}
}

func FromMovement(m *model.CashMovement) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID.String(),
		Type:         string(m.Type),
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
	if m.SessionID != nil {
		id := m.SessionID.String()
		resp.SessionID = &id
	}
	if m.TransactionID != nil {
		id := m.TransactionID.String()
		resp.TransactionID = &id
	}
	return resp
}
