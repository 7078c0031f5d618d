// Package handlers exposes the synchronized dashboard state and its actions
// over HTTP.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/dashboard/service"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

type Handlers struct {
	svc    *service.Service
	logger *logger.Logger
}

func NewHandlers(svc *service.Service, log *logger.Logger) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: log.WithFields(zap.String("component", "dashboard-handlers")),
	}
}

func RegisterRoutes(router *gin.Engine, svc *service.Service, log *logger.Logger) {
	h := NewHandlers(svc, log)
	router.GET("/health", h.httpHealth)

	api := router.Group("/api/v1")
	api.GET("/state", h.httpGetState)
	api.GET("/squads", h.httpListSquads)
	api.GET("/squads/:id/messages", h.httpListMessages)
	api.POST("/squads/:id/messages", h.httpSendMessage)
	api.POST("/squads/:id/halt", h.httpHaltSquad)
	api.GET("/tasks", h.httpListTasks)
	api.POST("/tasks/:id/approve", h.httpApproveTask)
	api.POST("/selection", h.httpSelect)
	api.GET("/agents", h.httpListAgents)
	api.GET("/governance/alerts", h.httpGovernanceAlerts)
}

func (h *Handlers) httpHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "squadwatch",
		"connectivity": h.svc.Store().Connectivity(),
	})
}

func (h *Handlers) httpGetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Store().Snapshot())
}

func (h *Handlers) httpListSquads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"squads": nonNil(h.svc.Store().Squads())})
}

func (h *Handlers) httpListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": nonNil(h.svc.Store().MessagesFor(c.Param("id")))})
}

func (h *Handlers) httpListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": nonNil(h.svc.Store().Tasks())})
}

type httpSelectRequest struct {
	SquadID string `json:"squadId"`
}

func (h *Handlers) httpSelect(c *gin.Context) {
	var body httpSelectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.svc.SelectSquad(c.Request.Context(), body.SquadID); err != nil {
		h.writeError(c, "failed to load squad", err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Store().Snapshot())
}

func (h *Handlers) httpSendMessage(c *gin.Context) {
	var body v1.SendMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if selected := h.svc.Store().Selected(); selected != c.Param("id") {
		c.JSON(http.StatusConflict, gin.H{"error": "squad is not selected", "selectedSquadId": selected})
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), body.Content)
	if err != nil {
		h.writeError(c, "failed to send message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handlers) httpApproveTask(c *gin.Context) {
	var body v1.ApproveTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	taskID := c.Param("id")
	if err := h.svc.ApproveTask(c.Request.Context(), taskID, body.Approved, body.Reason); err != nil {
		h.writeError(c, "failed to approve task", err)
		return
	}
	task, _ := h.svc.Store().Task(taskID)
	c.JSON(http.StatusOK, gin.H{"taskId": taskID, "approved": body.Approved, "status": task.Status})
}

func (h *Handlers) httpHaltSquad(c *gin.Context) {
	resp, err := h.svc.HaltSquad(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "failed to halt squad", err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handlers) httpListAgents(c *gin.Context) {
	agents, err := h.svc.Agents(c.Request.Context(), v1.AgentFilter{
		Status:    c.Query("status"),
		AgentType: c.Query("agentType"),
	})
	if err != nil {
		h.writeError(c, "failed to list agents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handlers) httpGovernanceAlerts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.svc.GovernanceAlerts(c.Request.Context(), limit))
}

func (h *Handlers) writeError(c *gin.Context, message string, err error) {
	appErr := apperrors.Upstream(message, err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
