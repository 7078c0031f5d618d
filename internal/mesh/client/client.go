// Package client is the REST client of the squad orchestration backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/common/tracing"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

const tracerName = "squadwatch.mesh.client"

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client for baseURL (e.g. http://localhost:8002).
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithFields(zap.String("component", "mesh-client")),
	}
}

// Health returns the backend health document.
func (c *Client) Health(ctx context.Context) (v1.HealthStatus, error) {
	var status v1.HealthStatus
	body, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("failed to parse health response (body: %s): %w", truncateBody(body), err)
	}
	return status, nil
}

// IsHealthy reports whether /health answered with status "healthy". Any
// failure counts as unhealthy.
func (c *Client) IsHealthy(ctx context.Context) bool {
	status, err := c.Health(ctx)
	if err != nil {
		c.logger.Debug("health check failed", zap.Error(err))
		return false
	}
	return status.Healthy()
}

// ListSquads lists squads, optionally filtered by status.
func (c *Client) ListSquads(ctx context.Context, status string) ([]v1.Squad, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var squads []v1.Squad
	if err := c.getList(ctx, "/api/squads", q, "squads", &squads); err != nil {
		return nil, err
	}
	return squads, nil
}

// GetSquad fetches one squad. It returns nil without error when the backend
// reports the endpoint as not implemented.
func (c *Client) GetSquad(ctx context.Context, squadID string) (*v1.Squad, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/squads/"+url.PathEscape(squadID), nil, nil)
	if err != nil {
		return nil, err
	}
	if c.notImplemented(body, "squad") {
		return nil, nil
	}
	var squad v1.Squad
	if err := json.Unmarshal(body, &squad); err != nil {
		return nil, fmt.Errorf("failed to parse squad response (body: %s): %w", truncateBody(body), err)
	}
	return &squad, nil
}

// ListMessages fetches the message history of a squad.
func (c *Client) ListMessages(ctx context.Context, squadID string, limit int) ([]v1.Message, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var messages []v1.Message
	if err := c.getList(ctx, "/api/squads/"+url.PathEscape(squadID)+"/messages", q, "messages", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListTasks fetches the tasks of a squad.
func (c *Client) ListTasks(ctx context.Context, squadID string) ([]v1.Task, error) {
	var tasks []v1.Task
	if err := c.getList(ctx, "/api/squads/"+url.PathEscape(squadID)+"/tasks", nil, "tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAgents lists registered agents.
func (c *Client) ListAgents(ctx context.Context, filter v1.AgentFilter) ([]v1.Agent, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.AgentType != "" {
		q.Set("agent_type", filter.AgentType)
	}
	var agents []v1.Agent
	if err := c.getList(ctx, "/api/agents", q, "agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// SendMessage posts a human message to a squad.
func (c *Client) SendMessage(ctx context.Context, squadID, content string) (*v1.SendMessageResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/squads/"+url.PathEscape(squadID)+"/messages", nil, v1.SendMessageRequest{Content: content})
	if err != nil {
		return nil, err
	}
	var resp v1.SendMessageResponse
	if c.notImplemented(body, "send message") {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse send response (body: %s): %w", truncateBody(body), err)
	}
	return &resp, nil
}

// ApproveTask records an approval decision for a task.
func (c *Client) ApproveTask(ctx context.Context, taskID string, approved bool, reason string) (*v1.ApproveTaskResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(taskID)+"/approve", nil, v1.ApproveTaskRequest{Approved: approved, Reason: reason})
	if err != nil {
		return nil, err
	}
	var resp v1.ApproveTaskResponse
	if c.notImplemented(body, "approve task") {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse approve response (body: %s): %w", truncateBody(body), err)
	}
	return &resp, nil
}

// HaltSquad asks governance to force-halt a squad.
func (c *Client) HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/governance/halt/"+url.PathEscape(squadID), nil, nil)
	if err != nil {
		return nil, err
	}
	var resp v1.HaltResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse halt response (body: %s): %w", truncateBody(body), err)
	}
	if resp.Implemented != nil && !*resp.Implemented {
		c.logger.Warn("backend endpoint not implemented", zap.String("endpoint", "halt squad"))
	}
	return &resp, nil
}

// GovernanceAlerts lists recent governance alerts.
func (c *Client) GovernanceAlerts(ctx context.Context, limit int) (*v1.GovernanceAlertsResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.do(ctx, http.MethodGet, "/api/governance/alerts", q, nil)
	if err != nil {
		return nil, err
	}
	resp := v1.GovernanceAlertsResponse{Implemented: true}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse alerts response (body: %s): %w", truncateBody(body), err)
	}
	if !resp.Implemented {
		c.logger.Warn("backend endpoint not implemented", zap.String("endpoint", "governance alerts"))
		resp.Alerts = nil
	}
	if resp.Alerts == nil {
		resp.Alerts = []v1.GovernanceAlert{}
	}
	return &resp, nil
}

// getList decodes a JSON array into out. An object body (the
// implemented:false sentinel or anything else) yields an empty list.
func (c *Client) getList(ctx context.Context, path string, query url.Values, what string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !c.notImplemented(trimmed, what) {
			c.logger.Warn("expected a list response", zap.String("endpoint", what), zap.String("body", truncateBody(trimmed)))
		}
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to parse %s response (body: %s): %w", what, truncateBody(trimmed), err)
	}
	return nil
}

// notImplemented reports, and logs, an implemented:false body.
func (c *Client) notImplemented(body []byte, what string) bool {
	var sentinel v1.NotImplemented
	if err := json.Unmarshal(body, &sentinel); err != nil || !sentinel.IsSentinel() {
		return false
	}
	c.logger.Warn("backend endpoint not implemented",
		zap.String("endpoint", what),
		zap.String("message", sentinel.Message))
	return true
}

// do performs one request inside a client span. Non-2xx responses become
// *errors.RequestError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.HTTPResponseStatusCodeKey.Int(resp.StatusCode),
		attribute.String("url.path", path),
	)

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := apperrors.NewRequestError(resp.StatusCode, truncateBody(body))
		span.SetStatus(codes.Error, reqErr.Message)
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, reqErr
	}
	return body, nil
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncateBody truncates body for error messages to avoid huge logs
func truncateBody(body []byte) string {
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
