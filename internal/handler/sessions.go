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

type SessionsHandler struct {
	svc     service.SessionService
	reports service.ReportService
}

func NewSessionsHandler(svc service.SessionService, reports service.ReportService) *SessionsHandler {
	return &SessionsHandler{svc: svc, reports: reports}
}

// Open starts a cashier session with a counted opening float.
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
		return
	}
	cashierID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	session, err := h.svc.Open(c.Request.Context(), terminalID, cashierID, req.OpeningCash, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromSession(session))
}

// Close reconciles the drawer and closes the session.
func (h *SessionsHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	closedByID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	session, err := h.svc.Close(c.Request.Context(), id, closedByID, req.ClosingCash, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSession(session))
}

func (h *SessionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	session, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSession(session))
}

// Active resolves the caller's running session, falling back to the terminal
// query parameter for supervisors looking at another register.
func (h *SessionsHandler) Active(c *gin.Context) {
	if terminal := c.Query("terminal_id"); terminal != "" {
		terminalID, err := uuid.Parse(terminal)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
			return
		}
		session, err := h.svc.GetActive(c.Request.Context(), terminalID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromSession(session))
		return
	}

	cashierID, _ := uuid.Parse(middleware.GetClaims(c).UserID)
	session, err := h.svc.GetActiveForCashier(c.Request.Context(), cashierID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSession(session))
}

func (h *SessionsHandler) History(c *gin.Context) {
	var filter dto.SessionHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	sessions, total, err := h.svc.History(c.Request.Context(), filter.Page, filter.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.SessionListResponse{
		Data:  make([]dto.SessionResponse, 0, len(sessions)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range sessions {
		resp.Data = append(resp.Data, dto.FromSession(&sessions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// XReport snapshots a running session.
func (h *SessionsHandler) XReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	report, err := h.reports.XReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ZReport reads back a closed session's reconciliation.
func (h *SessionsHandler) ZReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	report, err := h.reports.ZReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
