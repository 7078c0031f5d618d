package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/dashboard/service"
	"github.com/Shinox-lab/dashboard/internal/state"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

type stubAPI struct {
	sendErr  error
	haltErr  error
	messages []v1.Message
}

func (s *stubAPI) ListMessages(ctx context.Context, squadID string, limit int) ([]v1.Message, error) {
	return s.messages, nil
}

func (s *stubAPI) ListTasks(ctx context.Context, squadID string) ([]v1.Task, error) {
	return []v1.Task{{ID: "t1", Status: v1.TaskStatusHITLReview}}, nil
}

func (s *stubAPI) SendMessage(ctx context.Context, squadID, content string) (*v1.SendMessageResponse, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &v1.SendMessageResponse{ID: "srv-1", Status: "accepted"}, nil
}

func (s *stubAPI) ApproveTask(ctx context.Context, taskID string, approved bool, reason string) (*v1.ApproveTaskResponse, error) {
	return &v1.ApproveTaskResponse{TaskID: taskID}, nil
}

func (s *stubAPI) HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error) {
	if s.haltErr != nil {
		return nil, s.haltErr
	}
	return &v1.HaltResponse{Status: "halting"}, nil
}

func (s *stubAPI) ListAgents(ctx context.Context, filter v1.AgentFilter) ([]v1.Agent, error) {
	return []v1.Agent{{AgentID: "planner-1", Status: v1.AgentStatusOnline}}, nil
}

func (s *stubAPI) GovernanceAlerts(ctx context.Context, limit int) (*v1.GovernanceAlertsResponse, error) {
	return &v1.GovernanceAlertsResponse{Implemented: false, Alerts: []v1.GovernanceAlert{}}, nil
}

type noopSubs struct{}

func (noopSubs) Select(string)                         {}
func (noopSubs) SendHumanMessage(string, string) error { return nil }

func setup(api *stubAPI) (*gin.Engine, *state.Store) {
	gin.SetMode(gin.TestMode)
	store := state.NewStore(nil, logger.Nop())
	svc := service.NewService(api, store, noopSubs{}, service.Options{}, logger.Nop())
	router := gin.New()
	RegisterRoutes(router, svc, logger.Nop())
	return router, store
}

func request(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndState(t *testing.T) {
	router, store := setup(&stubAPI{})
	store.ReplaceSquads([]v1.Squad{{SquadID: "sq-1", Name: "Ops"}})
	store.SetAPIConnected(true)

	rec := request(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api":true`)

	rec = request(router, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap state.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Squads, 1)
	assert.Equal(t, "sq-1", snap.Squads[0].SquadID)

	rec = request(router, http.MethodGet, "/api/v1/tasks", "")
	assert.JSONEq(t, `{"tasks":[]}`, rec.Body.String())
}

func TestSelectionLoadsSquad(t *testing.T) {
	router, store := setup(&stubAPI{messages: []v1.Message{{ID: "m1", ConversationID: "sq-1"}}})

	rec := request(router, http.MethodPost, "/api/v1/selection", `{"squadId":"sq-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sq-1", store.Selected())

	rec = request(router, http.MethodGet, "/api/v1/squads/sq-1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"m1"`)
}

func TestSendMessage(t *testing.T) {
	api := &stubAPI{}
	router, store := setup(api)

	rec := request(router, http.MethodPost, "/api/v1/squads/sq-1/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	store.SetSelected("sq-1")
	rec = request(router, http.MethodPost, "/api/v1/squads/sq-1/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"srv-1"`)

	rec = request(router, http.MethodPost, "/api/v1/squads/sq-1/messages", `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	api.sendErr = apperrors.NewRequestError(http.StatusInternalServerError, "")
	rec = request(router, http.MethodPost, "/api/v1/squads/sq-1/messages", `{"content":"again"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, store.MessageCount())
}

func TestApproveTask(t *testing.T) {
	router, store := setup(&stubAPI{})
	store.ReplaceTasks([]v1.Task{{ID: "t1", Status: v1.TaskStatusHITLReview}})

	rec := request(router, http.MethodPost, "/api/v1/tasks/t1/approve", `{"approved":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)
}

func TestHaltSquad(t *testing.T) {
	api := &stubAPI{}
	router, _ := setup(api)

	rec := request(router, http.MethodPost, "/api/v1/squads/sq-1/halt", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	api.haltErr = apperrors.NewRequestError(http.StatusNotFound, "")
	rec = request(router, http.MethodPost, "/api/v1/squads/sq-9/halt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentsAndAlerts(t *testing.T) {
	router, _ := setup(&stubAPI{})

	rec := request(router, http.MethodGet, "/api/v1/agents?status=ONLINE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "planner-1")

	rec = request(router, http.MethodGet, "/api/v1/governance/alerts?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"implemented":false`)

	rec = request(router, http.MethodGet, "/api/v1/governance/alerts?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
