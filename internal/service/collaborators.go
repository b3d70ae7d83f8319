package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collaborator interfaces for the subsystems the engine calls but does not
// own: catalog pricing, tax resolution, inventory, promotions, loyalty, the
// general ledger and the event bus. Concrete implementations are injected at
// the composition root; tests substitute fakes.

// ProductInfo is the catalog snapshot the engine needs for one cart line.
type ProductInfo struct {
	ID             uuid.UUID
	Name           string
	SKU            string
	UnitPrice      decimal.Decimal
	TrackInventory bool
	IsActive       bool
}

// Pricing resolves the effective unit price of a product, optionally for a
// specific customer account and quantity break.
type Pricing interface {
	GetPrice(ctx context.Context, productID uuid.UUID, customerID *uuid.UUID, quantity decimal.Decimal) (ProductInfo, error)
}

// Tax resolves the applicable tax rate (percent) and inclusive/exclusive
// treatment for a product.
type Tax interface {
	GetApplicableTaxRate(ctx context.Context, productID uuid.UUID) (rate decimal.Decimal, inclusive bool, err error)
}

// Coupon is the promotion collaborator's view of a validated coupon.
type Coupon struct {
	ID   uuid.UUID
	Code string
}

// Promotion validates and consumes coupons.
type Promotion interface {
	// ValidateCoupon checks the code against its validity window, usage cap
	// and minimum purchase. A business rejection returns valid=false with a
	// reason; err is reserved for transport failures.
	ValidateCoupon(ctx context.Context, code string, customerID *uuid.UUID, cartTotal decimal.Decimal) (valid bool, reason string, coupon *Coupon, err error)
	CalculateDiscount(ctx context.Context, coupon *Coupon, total decimal.Decimal) (decimal.Decimal, error)
	UseCoupon(ctx context.Context, couponID uuid.UUID) error
}

// StockRef identifies the document that caused an inventory movement.
type StockRef struct {
	Type string
	ID   uuid.UUID
}

// Inventory mutates warehouse stock. RemoveStock fails when the warehouse
// cannot cover the quantity and allowNegative is false.
type Inventory interface {
	RemoveStock(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal, userID uuid.UUID, ref StockRef, allowNegative bool) error
	AddStock(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal, userID uuid.UUID, ref StockRef) error
}

// LoyaltyProgram carries the conversion rates of a customer's active program.
type LoyaltyProgram struct {
	Active            bool
	PointsPerCurrency decimal.Decimal
	// RedemptionRate is the currency value of one point.
	RedemptionRate decimal.Decimal
}

// Loyalty awards and redeems points for customer accounts.
type Loyalty interface {
	GetProgram(ctx context.Context, customerID uuid.UUID) (LoyaltyProgram, error)
	AwardPoints(ctx context.Context, customerID uuid.UUID, points int64, description string, saleAmount decimal.Decimal, reference string, memberID uuid.UUID) error
	// RedeemPoints fails when the account balance cannot cover points.
	RedeemPoints(ctx context.Context, customerID uuid.UUID, points int64, description string, memberID uuid.UUID) error
}

// Ledger posts completed sales to the general ledger. Posting is best-effort
// from the engine's point of view; failures are logged, never fatal.
type Ledger interface {
	PostSaleToGL(ctx context.Context, transactionID uuid.UUID, totalAmount, taxAmount decimal.Decimal) error
}

// Event names emitted by the engine.
const (
	EventSaleCompleted   = "pos.sale.completed"
	EventRefundCompleted = "pos.refund.completed"
)

// EventBus publishes domain events to the rest of the suite.
type EventBus interface {
	Emit(ctx context.Context, event string, payload map[string]interface{}) error
}
