package handler

import (
	"fmt"
	"net/http"

	"github.com/silaschege/salescompass-sub004/internal/apierror"
	"github.com/silaschege/salescompass-sub004/internal/dto"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReceiptsHandler struct{ svc service.ReceiptService }

func NewReceiptsHandler(svc service.ReceiptService) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc}
}

func (h *ReceiptsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	receipt, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReceipt(receipt))
}

func (h *ReceiptsHandler) ListByTransaction(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid transaction id"))
		return
	}
	receipts, err := h.svc.ListByTransaction(c.Request.Context(), txID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		resp = append(resp, dto.FromReceipt(&receipts[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReceiptsHandler) Reprint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	receipt, err := h.svc.Reprint(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReceipt(receipt))
}

// Download streams the rendered PDF.
func (h *ReceiptsHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	pdf, receipt, err := h.svc.Render(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", receipt.ReceiptNumber))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *ReceiptsHandler) Email(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.EmailReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	receipt, err := h.svc.Email(c.Request.Context(), id, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.FromReceipt(receipt))
}
