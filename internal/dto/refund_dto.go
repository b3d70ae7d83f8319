package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RefundLineRequest struct {
	OriginalLineID string          `json:"original_line_id" validate:"required,uuid"`
	Quantity       decimal.Decimal `json:"quantity"         validate:"required"`
	Restock        *bool           `json:"restock"` // nil defaults to true
	Notes          string          `json:"notes" validate:"max=200"`
}

type CreateRefundRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
	// Full refunds every remaining quantity; Lines must be empty when set.
	Full   bool                `json:"full"`
	Lines  []RefundLineRequest `json:"lines"  validate:"omitempty,dive"`
	Reason string              `json:"reason" validate:"required,min=3,max=500"`
	Method string              `json:"method" validate:"required,oneof=cash card mobile_money bank_transfer check voucher credit loyalty"`
}

type RejectRefundRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RefundLineResponse struct {
	ID             string          `json:"id"`
	OriginalLineID string          `json:"original_line_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Amount         decimal.Decimal `json:"amount"`
	Restock        bool            `json:"restock"`
	Notes          string          `json:"notes,omitempty"`
}

type RefundResponse struct {
	ID                    string               `json:"id"`
	RefundNumber          string               `json:"refund_number"`
	OriginalTransactionID string               `json:"original_transaction_id"`
	Type                  string               `json:"type"`
	Status                string               `json:"status"`
	Amount                decimal.Decimal      `json:"amount"`
	Method                string               `json:"method"`
	Reason                string               `json:"reason"`
	RequiresApproval      bool                 `json:"requires_approval"`
	ApprovedByID          *string              `json:"approved_by_id,omitempty"`
	ApprovedAt            *time.Time           `json:"approved_at,omitempty"`
	ProcessedByID         string               `json:"processed_by_id"`
	CreatedAt             time.Time            `json:"created_at"`
	CompletedAt           *time.Time           `json:"completed_at,omitempty"`
	Lines                 []RefundLineResponse `json:"lines"`
}

func FromRefund(r *model.Refund) RefundResponse {
	resp := RefundResponse{
		ID:                    r.ID.String(),
		RefundNumber:          r.RefundNumber,
		OriginalTransactionID: r.OriginalTransactionID.String(),
		Type:                  string(r.Type),
		Status:                string(r.Status),
		Amount:                r.Amount,
		Method:                string(r.Method),
		Reason:                r.Reason,
		RequiresApproval:      r.RequiresApproval,
		ApprovedAt:            r.ApprovedAt,
		ProcessedByID:         r.ProcessedByID.String(),
		CreatedAt:             r.CreatedAt,
		CompletedAt:           r.CompletedAt,
		Lines:                 make([]RefundLineResponse, 0, len(r.Lines)),
	}
	if r.ApprovedByID != nil {
		id := r.ApprovedByID.String()
		resp.ApprovedByID = &id
	}
	for i := range r.Lines {
		l := &r.Lines[i]
		resp.Lines = append(resp.Lines, RefundLineResponse{
			ID:             l.ID.String(),
			OriginalLineID: l.OriginalLineID.String(),
			Quantity:       l.Quantity,
			Amount:         l.Amount,
			Restock:        l.Restock,
			Notes:          l.Notes,
		})
	}
	return resp
}
