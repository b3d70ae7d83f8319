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

type RefundsHandler struct{ svc service.RefundService }

func NewRefundsHandler(svc service.RefundService) *RefundsHandler {
	return &RefundsHandler{svc: svc}
}

func (h *RefundsHandler) Create(c *gin.Context) {
	var req dto.CreateRefundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid transaction id"))
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)
	method := model.PaymentMethod(req.Method)

	var refund *model.Refund
	if req.Full {
		if len(req.Lines) > 0 {
			c.JSON(http.StatusBadRequest, apierror.New("full refund takes no line selection"))
			return
		}
		refund, err = h.svc.CreateFull(c.Request.Context(), txID, userID, req.Reason, method)
	} else {
		lines := make([]service.RefundLineInput, 0, len(req.Lines))
		for _, l := range req.Lines {
			lineID, perr := uuid.Parse(l.OriginalLineID)
			if perr != nil {
				c.JSON(http.StatusBadRequest, apierror.New("invalid line id"))
				return
			}
			restock := true
			if l.Restock != nil {
				restock = *l.Restock
			}
			lines = append(lines, service.RefundLineInput{
				OriginalLineID: lineID,
				Quantity:       l.Quantity,
				Restock:        restock,
				Notes:          l.Notes,
			})
		}
		refund, err = h.svc.Create(c.Request.Context(), txID, userID, lines, req.Reason, method)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRefund(refund))
}

func (h *RefundsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	refund, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRefund(refund))
}

// Approve requires manager role; routing enforces it.
func (h *RefundsHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	refund, err := h.svc.Approve(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRefund(refund))
}

func (h *RefundsHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.RejectRefundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	refund, err := h.svc.Reject(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRefund(refund))
}

func (h *RefundsHandler) Process(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	refund, err := h.svc.Process(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRefund(refund))
}

func (h *RefundsHandler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	refunds, err := h.svc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.RefundResponse, 0, len(refunds))
	for i := range refunds {
		resp = append(resp, dto.FromRefund(&refunds[i]))
	}
	c.JSON(http.StatusOK, resp)
}
