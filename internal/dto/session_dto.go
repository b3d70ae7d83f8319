package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	TerminalID  string          `json:"terminal_id"  validate:"required,uuid"`
	OpeningCash decimal.Decimal `json:"opening_cash" validate:"required"`
	Notes       string          `json:"notes"        validate:"max=500"`
}

type CloseSessionRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash" validate:"required"`
	Notes       string          `json:"notes"        validate:"max=500"`
}

type SessionHistoryFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID            string `json:"id"`
	SessionNumber string `json:"session_number"`
	TerminalID    string `json:"terminal_id"`
	TerminalCode  string `json:"terminal_code,omitempty"`
	CashierID     string `json:"cashier_id"`
	Status        string `json:"status"`

	OpenedAt     time.Time       `json:"opened_at"`
	OpeningCash  decimal.Decimal `json:"opening_cash"`
	OpeningNotes string          `json:"opening_notes,omitempty"`

	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	ClosingCash    *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash   *decimal.Decimal `json:"expected_cash,omitempty"`
	CashDifference *decimal.Decimal `json:"cash_difference,omitempty"`
	ClosingNotes   string           `json:"closing_notes,omitempty"`

	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int             `json:"total_transactions"`
	TotalRefunds      decimal.Decimal `json:"total_refunds"`
	TotalDiscounts    decimal.Decimal `json:"total_discounts"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func FromSession(s *model.Session) SessionResponse {
	resp := SessionResponse{
		ID:                s.ID.String(),
		SessionNumber:     s.SessionNumber,
		TerminalID:        s.TerminalID.String(),
		CashierID:         s.CashierID.String(),
		Status:            string(s.Status),
		OpenedAt:          s.OpenedAt,
		OpeningCash:       s.OpeningCash,
		OpeningNotes:      s.OpeningNotes,
		ClosedAt:          s.ClosedAt,
		ClosingCash:       s.ClosingCash,
		ExpectedCash:      s.ExpectedCash,
		CashDifference:    s.CashDifference,
		ClosingNotes:      s.ClosingNotes,
		TotalSales:        s.TotalSales,
		TotalTransactions: s.TotalTransactions,
		TotalRefunds:      s.TotalRefunds,
		TotalDiscounts:    s.TotalDiscounts,
	}
	if s.Terminal != nil {
		resp.TerminalCode = s.Terminal.Code
	}
	return resp
}
