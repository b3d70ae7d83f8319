package handler

import (
	"net/http"

	"github.com/silaschege/salescompass-sub004/internal/apierror"
	"github.com/silaschege/salescompass-sub004/internal/dto"
	"github.com/silaschege/salescompass-sub004/internal/middleware"
	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TransactionsHandler struct {
	svc      service.TransactionService
	payments service.PaymentService
}

func NewTransactionsHandler(svc service.TransactionService, payments service.PaymentService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, payments: payments}
}

func (h *TransactionsHandler) Start(c *gin.Context) {
	var req dto.StartTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	customer, ok := parseCustomer(c, req.Customer)
	if !ok {
		return
	}
	cashierID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	txn, err := h.svc.Start(c.Request.Context(), sessionID, cashierID, customer, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	txn, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	var filter dto.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	txns, err := h.svc.ListBySession(c.Request.Context(), sessionID, model.TransactionStatus(filter.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.TransactionListResponse{Data: make([]dto.TransactionResponse, 0, len(txns)), Total: len(txns)}
	for i := range txns {
		resp.Data = append(resp.Data, dto.FromTransaction(&txns[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionsHandler) AddLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AddLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}

	txn, err := h.svc.AddLine(c.Request.Context(), id, service.LineInput{
		ProductID:       productID,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) UpdateLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid line id"))
		return
	}
	var req dto.UpdateLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txn, err := h.svc.UpdateLine(c.Request.Context(), id, lineID, req.Quantity, req.DiscountPercent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) RemoveLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid line id"))
		return
	}
	txn, err := h.svc.RemoveLine(c.Request.Context(), id, lineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) ApplyDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.ApplyDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txn, err := h.svc.ApplyDiscount(c.Request.Context(), id, req.Percent, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) ApplyCoupon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.ApplyCouponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txn, err := h.svc.ApplyCoupon(c.Request.Context(), id, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) RemoveCoupon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	txn, err := h.svc.RemoveCoupon(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) SetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CustomerInput
	if !bindAndValidate(c, &req) {
		return
	}
	customer, ok := parseCustomer(c, req)
	if !ok {
		return
	}
	txn, err := h.svc.SetCustomer(c.Request.Context(), id, customer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// Pay records one tender and, when it settles the balance, runs completion.
func (h *TransactionsHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.PayRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	txn, err := h.payments.Pay(c.Request.Context(), id, userID, service.PaymentInput{
		Method:          model.PaymentMethod(req.Method),
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
		CardLastFour:    req.CardLastFour,
		CardType:        req.CardType,
		MobileNumber:    req.MobileNumber,
		MobileProvider:  req.MobileProvider,
		VoucherCode:     req.VoucherCode,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// RetryCompletion pushes a fully paid but stranded transaction to completed.
func (h *TransactionsHandler) RetryCompletion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	txn, err := h.payments.RetryCompletion(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func (h *TransactionsHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.VoidTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	txn, err := h.svc.Void(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

func parseCustomer(c *gin.Context, in dto.CustomerInput) (service.CustomerDetails, bool) {
	customer := service.CustomerDetails{
		Name:  in.Name,
		Phone: in.Phone,
		Email: in.Email,
	}
	if in.CustomerID != nil {
		id, err := uuid.Parse(*in.CustomerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid customer id"))
			return customer, false
		}
		customer.ID = &id
	}
	return customer, true
}
