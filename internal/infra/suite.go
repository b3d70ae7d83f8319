package infra

// suite.go — HTTP client for the sibling suite services (catalog, tax,
// promotions, inventory, loyalty). The engine does not own any of that data;
// it calls the suite gateway and maps the responses onto the collaborator
// interfaces the services consume.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuiteClient implements the Pricing, Tax, Promotion, Inventory and Loyalty
// collaborator interfaces over the suite's REST gateway.
type SuiteClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSuiteClient(baseURL string) *SuiteClient {
	return &SuiteClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ─── Pricing ─────────────────────────────────────────────────────────────────

type productPriceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TrackInventory bool            `json:"track_inventory"`
	IsActive       bool            `json:"is_active"`
}

func (c *SuiteClient) GetPrice(ctx context.Context, productID uuid.UUID, customerID *uuid.UUID, quantity decimal.Decimal) (service.ProductInfo, error) {
	q := url.Values{"quantity": {quantity.String()}}
	if customerID != nil {
		q.Set("customer_id", customerID.String())
	}
	path := fmt.Sprintf("/v1/catalog/products/%s/price?%s", productID, q.Encode())

	var resp productPriceResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return service.ProductInfo{}, err
	}
	return service.ProductInfo{
		ID:             resp.ID,
		Name:           resp.Name,
		SKU:            resp.SKU,
		UnitPrice:      resp.UnitPrice,
		TrackInventory: resp.TrackInventory,
		IsActive:       resp.IsActive,
	}, nil
}

// ─── Tax ─────────────────────────────────────────────────────────────────────

type taxRateResponse struct {
	Rate      decimal.Decimal `json:"rate"`
	Inclusive bool            `json:"inclusive"`
}

func (c *SuiteClient) GetApplicableTaxRate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, bool, error) {
	var resp taxRateResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/tax/products/%s", productID), &resp); err != nil {
		return decimal.Zero, false, err
	}
	return resp.Rate, resp.Inclusive, nil
}

// ─── Promotions ──────────────────────────────────────────────────────────────

type couponValidateRequest struct {
	Code       string          `json:"code"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	CartTotal  decimal.Decimal `json:"cart_total"`
}

type couponValidateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
	Coupon *struct {
		ID   uuid.UUID `json:"id"`
		Code string    `json:"code"`
	} `json:"coupon"`
}

func (c *SuiteClient) ValidateCoupon(ctx context.Context, code string, customerID *uuid.UUID, cartTotal decimal.Decimal) (bool, string, *service.Coupon, error) {
	req := couponValidateRequest{Code: code, CustomerID: customerID, CartTotal: cartTotal}
	var resp couponValidateResponse
	if err := c.post(ctx, "/v1/promotions/coupons/validate", req, &resp); err != nil {
		return false, "", nil, err
	}
	if !resp.Valid || resp.Coupon == nil {
		return false, resp.Reason, nil, nil
	}
	return true, "", &service.Coupon{ID: resp.Coupon.ID, Code: resp.Coupon.Code}, nil
}

func (c *SuiteClient) CalculateDiscount(ctx context.Context, coupon *service.Coupon, total decimal.Decimal) (decimal.Decimal, error) {
	req := map[string]interface{}{"total": total}
	var resp struct {
		Discount decimal.Decimal `json:"discount"`
	}
	path := fmt.Sprintf("/v1/promotions/coupons/%s/discount", coupon.ID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Discount, nil
}

func (c *SuiteClient) UseCoupon(ctx context.Context, couponID uuid.UUID) error {
	return c.post(ctx, fmt.Sprintf("/v1/promotions/coupons/%s/use", couponID), nil, nil)
}

// ─── Inventory ───────────────────────────────────────────────────────────────

type stockMovementRequest struct {
	ProductID     uuid.UUID       `json:"product_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Direction     string          `json:"direction"` // in | out
	UserID        uuid.UUID       `json:"user_id"`
	RefType       string          `json:"ref_type"`
	RefID         uuid.UUID       `json:"ref_id"`
	AllowNegative bool            `json:"allow_negative"`
}

func (c *SuiteClient) RemoveStock(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal, userID uuid.UUID, ref service.StockRef, allowNegative bool) error {
	req := stockMovementRequest{
		ProductID:     productID,
		WarehouseID:   warehouseID,
		Quantity:      quantity,
		Direction:     "out",
		UserID:        userID,
		RefType:       ref.Type,
		RefID:         ref.ID,
		AllowNegative: allowNegative,
	}
	err := c.post(ctx, "/v1/inventory/movements", req, nil)
	var httpErr *suiteHTTPError
	if asSuiteError(err, &httpErr) && httpErr.Status == http.StatusConflict {
		return &service.InsufficientStockError{Product: productID.String(), Msg: httpErr.Detail}
	}
	return err
}

func (c *SuiteClient) AddStock(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal, userID uuid.UUID, ref service.StockRef) error {
	req := stockMovementRequest{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Direction:   "in",
		UserID:      userID,
		RefType:     ref.Type,
		RefID:       ref.ID,
	}
	return c.post(ctx, "/v1/inventory/movements", req, nil)
}

// ─── Loyalty ─────────────────────────────────────────────────────────────────

type loyaltyProgramResponse struct {
	Active            bool            `json:"active"`
	PointsPerCurrency decimal.Decimal `json:"points_per_currency"`
	RedemptionRate    decimal.Decimal `json:"redemption_rate"`
}

func (c *SuiteClient) GetProgram(ctx context.Context, customerID uuid.UUID) (service.LoyaltyProgram, error) {
	var resp loyaltyProgramResponse
	err := c.get(ctx, fmt.Sprintf("/v1/loyalty/accounts/%s/program", customerID), &resp)
	var httpErr *suiteHTTPError
	if asSuiteError(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		// No account means no program — not an error for the engine
		return service.LoyaltyProgram{}, nil
	}
	if err != nil {
		return service.LoyaltyProgram{}, err
	}
	return service.LoyaltyProgram{
		Active:            resp.Active,
		PointsPerCurrency: resp.PointsPerCurrency,
		RedemptionRate:    resp.RedemptionRate,
	}, nil
}

func (c *SuiteClient) AwardPoints(ctx context.Context, customerID uuid.UUID, points int64, description string, saleAmount decimal.Decimal, reference string, memberID uuid.UUID) error {
	req := map[string]interface{}{
		"points":      points,
		"description": description,
		"sale_amount": saleAmount,
		"reference":   reference,
		"member_id":   memberID,
	}
	return c.post(ctx, fmt.Sprintf("/v1/loyalty/accounts/%s/award", customerID), req, nil)
}

func (c *SuiteClient) RedeemPoints(ctx context.Context, customerID uuid.UUID, points int64, description string, memberID uuid.UUID) error {
	req := map[string]interface{}{
		"points":      points,
		"description": description,
		"member_id":   memberID,
	}
	err := c.post(ctx, fmt.Sprintf("/v1/loyalty/accounts/%s/redeem", customerID), req, nil)
	var httpErr *suiteHTTPError
	if asSuiteError(err, &httpErr) && httpErr.Status == http.StatusConflict {
		return &service.LoyaltyError{Reason: httpErr.Detail}
	}
	return err
}

// ─── HTTP plumbing ───────────────────────────────────────────────────────────

type suiteHTTPError struct {
	Status int
	Detail string
}

func (e *suiteHTTPError) Error() string {
	return fmt.Sprintf("suite: HTTP %d: %s", e.Status, e.Detail)
}

func asSuiteError(err error, target **suiteHTTPError) bool {
	return err != nil && errors.As(err, target)
}

func (c *SuiteClient) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *SuiteClient) post(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("suite: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *SuiteClient) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("suite: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("suite: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &envelope)
		if envelope.Detail == "" {
			envelope.Detail = string(data)
		}
		return &suiteHTTPError{Status: resp.StatusCode, Detail: envelope.Detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("suite: decode response: %w", err)
		}
	}
	return nil
}
