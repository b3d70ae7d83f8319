package handler

import (
	"net/http"

	"github.com/silaschege/salescompass-sub004/internal/apierror"
	"github.com/silaschege/salescompass-sub004/internal/dto"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TerminalsHandler struct{ svc service.TerminalService }

func NewTerminalsHandler(svc service.TerminalService) *TerminalsHandler {
	return &TerminalsHandler{svc: svc}
}

func (h *TerminalsHandler) Register(c *gin.Context) {
	var req dto.RegisterTerminalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse id"))
		return
	}
	terminal, err := h.svc.Register(c.Request.Context(), req.Name, req.Code, warehouseID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTerminal(terminal))
}

func (h *TerminalsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateTerminalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	terminal, err := h.svc.Update(c.Request.Context(), id, service.TerminalUpdate{
		Name:               req.Name,
		Location:           req.Location,
		IsActive:           req.IsActive,
		AllowNegativeStock: req.AllowNegativeStock,
		RequireCustomer:    req.RequireCustomer,
		AutoPrintReceipt:   req.AutoPrintReceipt,
		ReceiptFooter:      req.ReceiptFooter,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTerminal(terminal))
}

func (h *TerminalsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	terminal, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTerminal(terminal))
}

func (h *TerminalsHandler) List(c *gin.Context) {
	terminals, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.TerminalResponse, 0, len(terminals))
	for i := range terminals {
		resp = append(resp, dto.FromTerminal(&terminals[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Heartbeat is pinged periodically by each register to report liveness.
func (h *TerminalsHandler) Heartbeat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	terminal, err := h.svc.Heartbeat(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTerminal(terminal))
}
