package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/settings/dto"
	"github.com/Shinox-lab/dashboard/internal/settings/service"
	"github.com/Shinox-lab/dashboard/internal/settings/store"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	svc := service.NewService(store.NewMemoryRepository(), nil, logger.Nop())
	RegisterRoutes(router, svc, logger.Nop())
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, dto.SettingsResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var resp dto.SettingsResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestSettingsRoutes(t *testing.T) {
	router := newRouter()

	rec, resp := do(t, router, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.Defaults, resp.Settings)

	rec, resp = do(t, router, http.MethodPatch, "/api/v1/settings", `{"theme":"dark","messagePollInterval":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, "dark", resp.Settings.Theme)
	assert.Equal(t, 10, resp.Settings.MessagePollInterval)
	assert.NotEmpty(t, resp.Settings.UpdatedAt)

	rec, _ = do(t, router, http.MethodPatch, "/api/v1/settings", `{"fontSize":"huge"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fontSize")

	rec, _ = do(t, router, http.MethodPatch, "/api/v1/settings", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = do(t, router, http.MethodPost, "/api/v1/settings/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, "light", resp.Settings.Theme)
}
