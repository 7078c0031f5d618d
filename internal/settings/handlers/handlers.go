package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/settings/dto"
	"github.com/Shinox-lab/dashboard/internal/settings/service"
)

type Handlers struct {
	svc    *service.Service
	logger *logger.Logger
}

func NewHandlers(svc *service.Service, log *logger.Logger) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: log.WithFields(zap.String("component", "settings-handlers")),
	}
}

func RegisterRoutes(router *gin.Engine, svc *service.Service, log *logger.Logger) {
	h := NewHandlers(svc, log)
	api := router.Group("/api/v1")
	api.GET("/settings", h.httpGetSettings)
	api.PATCH("/settings", h.httpUpdateSettings)
	api.POST("/settings/reset", h.httpResetSettings)
}

func (h *Handlers) httpGetSettings(c *gin.Context) {
	settings, err := h.svc.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get settings"})
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

func (h *Handlers) httpUpdateSettings(c *gin.Context) {
	var body dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	settings, err := h.svc.Update(c.Request.Context(), body.ToService())
	if err != nil {
		h.logger.Warn("failed to update settings", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

func (h *Handlers) httpResetSettings(c *gin.Context) {
	settings, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to reset settings", zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": "failed to reset settings"})
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
