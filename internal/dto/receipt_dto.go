package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EmailReceiptRequest struct {
	To string `json:"to" validate:"required,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReceiptResponse struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	ReceiptNumber string     `json:"receipt_number"`
	Type          string     `json:"type"`
	IsPrinted     bool       `json:"is_printed"`
	PrintedCount  int        `json:"printed_count"`
	LastPrintedAt *time.Time `json:"last_printed_at,omitempty"`
	EmailedTo     string     `json:"emailed_to,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func FromReceipt(r *model.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            r.ID.String(),
		TransactionID: r.TransactionID.String(),
		ReceiptNumber: r.ReceiptNumber,
		Type:          string(r.Type),
		IsPrinted:     r.IsPrinted,
		PrintedCount:  r.PrintedCount,
		LastPrintedAt: r.LastPrintedAt,
		EmailedTo:     r.EmailedTo,
		CreatedAt:     r.CreatedAt,
	}
}
