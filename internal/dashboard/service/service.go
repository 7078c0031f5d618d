// Package service owns squad selection and the user actions of the dashboard.
package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/state"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

// API is the part of the REST client the service uses.
type API interface {
	ListMessages(ctx context.Context, squadID string, limit int) ([]v1.Message, error)
	ListTasks(ctx context.Context, squadID string) ([]v1.Task, error)
	SendMessage(ctx context.Context, squadID, content string) (*v1.SendMessageResponse, error)
	ApproveTask(ctx context.Context, taskID string, approved bool, reason string) (*v1.ApproveTaskResponse, error)
	HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error)
	ListAgents(ctx context.Context, filter v1.AgentFilter) ([]v1.Agent, error)
	GovernanceAlerts(ctx context.Context, limit int) (*v1.GovernanceAlertsResponse, error)
}

// Subscriptions is implemented by *subscription.Manager.
type Subscriptions interface {
	Select(conversationID string)
	SendHumanMessage(squadID, content string) error
}

// Options configures the service.
type Options struct {
	MessageLimit      int
	SendOverWebSocket bool
}

// Service glues the REST client, the subscription manager and the store.
type Service struct {
	api    API
	store  *state.Store
	subs   Subscriptions
	opts   Options
	logger *logger.Logger

	// bumped on every selection; fetches started under an older value
	// are discarded
	generation atomic.Uint64
	selectMu   sync.Mutex
}

// NewService creates a Service.
func NewService(api API, store *state.Store, subs Subscriptions, opts Options, log *logger.Logger) *Service {
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = 100
	}
	return &Service{
		api:    api,
		store:  store,
		subs:   subs,
		opts:   opts,
		logger: log.WithFields(zap.String("component", "dashboard-service")),
	}
}

// Store exposes the state store for read-only presentation.
func (s *Service) Store() *state.Store {
	return s.store
}

// SelectSquad switches the selected squad, subscribes to its channel and
// loads its history and tasks. Results are committed only if no other
// selection happened meanwhile. An empty id clears the selection.
func (s *Service) SelectSquad(ctx context.Context, squadID string) error {
	s.selectMu.Lock()
	gen := s.generation.Add(1)
	s.store.SetSelected(squadID)
	s.subs.Select(squadID)
	if squadID == "" {
		s.store.ClearMessages()
		s.store.ReplaceTasks(nil)
		s.selectMu.Unlock()
		return nil
	}
	s.selectMu.Unlock()

	log := s.logger.WithSquadID(squadID)

	var g errgroup.Group
	g.Go(func() error {
		messages, err := s.api.ListMessages(ctx, squadID, s.opts.MessageLimit)
		if err != nil {
			log.Error("failed to fetch messages", zap.Error(err))
			return err
		}
		if !s.commitIfCurrent(gen, func() { s.store.LoadMessages(squadID, messages) }) {
			log.Debug("discarding stale message history")
		}
		return nil
	})
	g.Go(func() error {
		tasks, err := s.api.ListTasks(ctx, squadID)
		if err != nil {
			log.Error("failed to fetch tasks", zap.Error(err))
			tasks = nil
		}
		if !s.commitIfCurrent(gen, func() { s.store.ReplaceTasks(tasks) }) {
			log.Debug("discarding stale task list")
		}
		return err
	})
	return g.Wait()
}

// commitIfCurrent runs commit while holding the selection lock, so no
// selection can land between the generation check and the store write.
func (s *Service) commitIfCurrent(gen uint64, commit func()) bool {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	commit()
	return true
}

// EnsureSelection selects the first squad when nothing is selected. Wire it
// to the poller's snapshot callback.
func (s *Service) EnsureSelection(ctx context.Context, squads []v1.Squad) {
	if len(squads) == 0 || s.store.Selected() != "" {
		return
	}
	if err := s.SelectSquad(ctx, squads[0].SquadID); err != nil {
		s.logger.Warn("auto-select failed", zap.String("squad_id", squads[0].SquadID), zap.Error(err))
	}
}

// SendMessage posts a human message to the selected squad. A provisional
// record is shown immediately and reconciled with the backend's id, or
// removed if the send fails.
func (s *Service) SendMessage(ctx context.Context, content string) (v1.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return v1.Message{}, apperrors.ValidationError("content", "must not be empty")
	}
	squadID := s.store.Selected()
	if squadID == "" {
		return v1.Message{}, apperrors.ErrNoSelection
	}

	provisional := s.store.AddOptimistic(squadID, content)
	ctx = context.WithValue(ctx, logger.CorrelationIDKey, provisional.CorrelationID)
	log := s.logger.WithContext(ctx).WithSquadID(squadID)

	if s.opts.SendOverWebSocket {
		// The frame carries no correlation id; the streamed echo replaces
		// the provisional record in the store.
		if err := s.subs.SendHumanMessage(squadID, content); err != nil {
			s.store.DiscardOptimistic(provisional.CorrelationID)
			log.Error("failed to send message", zap.Error(err))
			return v1.Message{}, err
		}
		return provisional, nil
	}

	resp, err := s.api.SendMessage(ctx, squadID, content)
	if err != nil {
		s.store.DiscardOptimistic(provisional.CorrelationID)
		log.Error("failed to send message", zap.Error(err))
		return v1.Message{}, err
	}
	if s.store.ConfirmOptimistic(provisional.CorrelationID, resp.ID) {
		provisional.ID = resp.ID
		provisional.CorrelationID = ""
	}
	log.Debug("message sent", zap.String("message_id", resp.ID))
	return provisional, nil
}

// ApproveTask records a decision. After a successful approval the task is
// marked completed locally, whatever the response says.
func (s *Service) ApproveTask(ctx context.Context, taskID string, approved bool, reason string) error {
	if taskID == "" {
		return apperrors.ValidationError("taskId", "must not be empty")
	}
	if _, err := s.api.ApproveTask(ctx, taskID, approved, reason); err != nil {
		s.logger.Error("failed to approve task",
			zap.String("task_id", taskID),
			zap.Bool("approved", approved),
			zap.Error(err))
		return err
	}
	if approved {
		s.store.MarkTaskCompleted(taskID)
	}
	return nil
}

// HaltSquad asks governance to halt a squad; the selected one when squadID is empty.
func (s *Service) HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error) {
	if squadID == "" {
		squadID = s.store.Selected()
	}
	if squadID == "" {
		return nil, apperrors.ErrNoSelection
	}
	resp, err := s.api.HaltSquad(ctx, squadID)
	if err != nil {
		s.logger.Error("failed to halt squad", zap.String("squad_id", squadID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("halt requested", zap.String("squad_id", squadID), zap.String("status", resp.Status))
	return resp, nil
}

// Agents lists registered agents.
func (s *Service) Agents(ctx context.Context, filter v1.AgentFilter) ([]v1.Agent, error) {
	agents, err := s.api.ListAgents(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list agents", zap.Error(err))
		return nil, err
	}
	if agents == nil {
		agents = []v1.Agent{}
	}
	return agents, nil
}

// GovernanceAlerts lists recent alerts. Backend failures degrade to an
// empty, not-implemented response.
func (s *Service) GovernanceAlerts(ctx context.Context, limit int) *v1.GovernanceAlertsResponse {
	if limit <= 0 {
		limit = 50
	}
	resp, err := s.api.GovernanceAlerts(ctx, limit)
	if err != nil {
		s.logger.Warn("failed to fetch governance alerts", zap.Error(err))
		return &v1.GovernanceAlertsResponse{
			Implemented: false,
			Message:     "Governance service unavailable",
			Alerts:      []v1.GovernanceAlert{},
		}
	}
	return resp
}
