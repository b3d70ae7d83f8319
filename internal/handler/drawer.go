package handler

import (
	"net/http"

	"github.com/silaschege/salescompass-sub004/internal/apierror"
	"github.com/silaschege/salescompass-sub004/internal/dto"
	"github.com/silaschege/salescompass-sub004/internal/middleware"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DrawerHandler struct{ svc service.DrawerService }

func NewDrawerHandler(svc service.DrawerService) *DrawerHandler {
	return &DrawerHandler{svc: svc}
}

// PayIn adds non-sale cash to the drawer (e.g. a change float top-up).
func (h *DrawerHandler) PayIn(c *gin.Context) {
	h.manualMovement(c, true)
}

// PayOut removes cash from the drawer (e.g. a bank drop).
func (h *DrawerHandler) PayOut(c *gin.Context) {
	h.manualMovement(c, false)
}

func (h *DrawerHandler) manualMovement(c *gin.Context, in bool) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	userID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	var drawer interface{}
	if in {
		d, err := h.svc.PayIn(c.Request.Context(), sessionID, req.Amount, userID, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		drawer = dto.FromDrawer(d)
	} else {
		d, err := h.svc.PayOut(c.Request.Context(), sessionID, req.Amount, userID, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		drawer = dto.FromDrawer(d)
	}
	c.JSON(http.StatusOK, drawer)
}

// Movements lists a terminal's cash ledger.
func (h *DrawerHandler) Movements(c *gin.Context) {
	terminalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
		return
	}
	movements, err := h.svc.Movements(c.Request.Context(), terminalID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		resp = append(resp, dto.FromMovement(&movements[i]))
	}
	c.JSON(http.StatusOK, resp)
}
