package dto

import (
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CustomerInput struct {
	CustomerID *string `json:"customer_id" validate:"omitempty,uuid"`
	Name       string  `json:"name"        validate:"max=200"`
	Phone      string  `json:"phone"       validate:"max=30"`
	Email      string  `json:"email"       validate:"omitempty,email"`
}

type StartTransactionRequest struct {
	SessionID string        `json:"session_id" validate:"required,uuid"`
	Customer  CustomerInput `json:"customer"`
	Notes     string        `json:"notes" validate:"max=500"`
}

type AddLineRequest struct {
	ProductID       string           `json:"product_id" validate:"required,uuid"`
	Quantity        decimal.Decimal  `json:"quantity"   validate:"required"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

type UpdateLineRequest struct {
	Quantity        decimal.Decimal `json:"quantity" validate:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type ApplyDiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason" validate:"max=200"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=50"`
}

type VoidTransactionRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type PayRequest struct {
	Method          string          `json:"method" validate:"required,oneof=cash card mobile_money bank_transfer check voucher credit loyalty"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	CardLastFour    string          `json:"card_last_four"   validate:"omitempty,len=4,numeric"`
	CardType        string          `json:"card_type"        validate:"max=30"`
	MobileNumber    string          `json:"mobile_number"    validate:"max=30"`
	MobileProvider  string          `json:"mobile_provider"  validate:"max=50"`
	VoucherCode     string          `json:"voucher_code"     validate:"max=50"`
	Notes           string          `json:"notes"            validate:"max=500"`
}

type TransactionFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=draft pending completed voided refunded"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductSKU      string          `json:"product_sku,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxInclusive    bool            `json:"tax_inclusive"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
	ReturnQuantity  decimal.Decimal `json:"return_quantity"`
}

type PaymentResponse struct {
	ID              string          `json:"id"`
	Method          string          `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TransactionResponse struct {
	ID                string `json:"id"`
	TransactionNumber string `json:"transaction_number"`
	SessionID         string `json:"session_id"`
	TerminalID        string `json:"terminal_id"`
	Status            string `json:"status"`

	CustomerID    *string `json:"customer_id,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`

	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountReason  string          `json:"discount_reason,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
	ChangeDue       decimal.Decimal `json:"change_due"`

	CouponCode string `json:"coupon_code,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CashierID  string `json:"cashier_id"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`
	VoidReason  string     `json:"void_reason,omitempty"`

	Lines    []LineResponse    `json:"lines"`
	Payments []PaymentResponse `json:"payments"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int                   `json:"total"`
}

func FromTransaction(t *model.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID.String(),
		TransactionNumber: t.TransactionNumber,
		SessionID:         t.SessionID.String(),
		TerminalID:        t.TerminalID.String(),
		Status:            string(t.Status),
		CustomerName:      t.CustomerName,
		CustomerPhone:     t.CustomerPhone,
		CustomerEmail:     t.CustomerEmail,
		Subtotal:          t.Subtotal,
		TaxAmount:         t.TaxAmount,
		DiscountAmount:    t.DiscountAmount,
		DiscountPercent:   t.DiscountPercent,
		DiscountReason:    t.DiscountReason,
		TotalAmount:       t.TotalAmount,
		AmountPaid:        t.AmountPaid,
		BalanceDue:        t.BalanceDue(),
		ChangeDue:         t.ChangeDue,
		CouponCode:        t.CouponCode,
		Notes:             t.Notes,
		CashierID:         t.CashierID.String(),
		CreatedAt:         t.CreatedAt,
		CompletedAt:       t.CompletedAt,
		VoidedAt:          t.VoidedAt,
		VoidReason:        t.VoidReason,
		Lines:             make([]LineResponse, 0, len(t.Lines)),
		Payments:          make([]PaymentResponse, 0, len(t.Payments)),
	}
	if t.CustomerID != nil {
		id := t.CustomerID.String()
		resp.CustomerID = &id
	}
	for i := range t.Lines {
		l := &t.Lines[i]
		resp.Lines = append(resp.Lines, LineResponse{
			ID:              l.ID.String(),
			ProductID:       l.ProductID.String(),
			ProductName:     l.ProductName,
			ProductSKU:      l.ProductSKU,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			TaxRate:         l.TaxRate,
			TaxInclusive:    l.TaxInclusive,
			TaxAmount:       l.TaxAmount,
			LineTotal:       l.LineTotal,
			ReturnQuantity:  l.ReturnQuantity,
		})
	}
	for i := range t.Payments {
		p := &t.Payments[i]
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:              p.ID.String(),
			Method:          string(p.Method),
			Amount:          p.Amount,
			Status:          string(p.Status),
			ReferenceNumber: p.ReferenceNumber,
			CreatedAt:       p.CreatedAt,
		})
	}
	return resp
}
