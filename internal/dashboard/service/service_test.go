package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/state"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

type fakeAPI struct {
	mu       sync.Mutex
	messages map[string][]v1.Message
	tasks    map[string][]v1.Task
	// gates block ListMessages for a squad until closed
	gates      map[string]chan struct{}
	sendErr    error
	sendID     string
	approveErr error
	approved   []string
	alertsErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: map[string][]v1.Message{},
		tasks:    map[string][]v1.Task{},
		gates:    map[string]chan struct{}{},
	}
}

func (f *fakeAPI) ListMessages(ctx context.Context, squadID string, limit int) ([]v1.Message, error) {
	f.mu.Lock()
	gate := f.gates[squadID]
	msgs := f.messages[squadID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return msgs, nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, squadID string) ([]v1.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[squadID], nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, squadID, content string) (*v1.SendMessageResponse, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &v1.SendMessageResponse{ID: f.sendID, Status: "accepted"}, nil
}

func (f *fakeAPI) ApproveTask(ctx context.Context, taskID string, approved bool, reason string) (*v1.ApproveTaskResponse, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approved = append(f.approved, taskID)
	return &v1.ApproveTaskResponse{}, nil
}

func (f *fakeAPI) HaltSquad(ctx context.Context, squadID string) (*v1.HaltResponse, error) {
	return &v1.HaltResponse{Status: "halting"}, nil
}

func (f *fakeAPI) ListAgents(ctx context.Context, filter v1.AgentFilter) ([]v1.Agent, error) {
	return nil, nil
}

func (f *fakeAPI) GovernanceAlerts(ctx context.Context, limit int) (*v1.GovernanceAlertsResponse, error) {
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return &v1.GovernanceAlertsResponse{Implemented: true, Alerts: []v1.GovernanceAlert{{AlertID: "a1"}}}, nil
}

type fakeSubs struct {
	mu       sync.Mutex
	selected []string
	sent     []string
	sendErr  error
}

func (f *fakeSubs) Select(id string) {
	f.mu.Lock()
	f.selected = append(f.selected, id)
	f.mu.Unlock()
}

func (f *fakeSubs) SendHumanMessage(squadID, content string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, squadID+":"+content)
	f.mu.Unlock()
	return nil
}

func newTestService(api *fakeAPI, subs *fakeSubs, opts Options) (*Service, *state.Store) {
	store := state.NewStore(nil, logger.Nop())
	return NewService(api, store, subs, opts, logger.Nop()), store
}

func TestSelectSquad_LoadsHistoryAndTasks(t *testing.T) {
	api := newFakeAPI()
	api.messages["sq-1"] = []v1.Message{{ID: "m1", ConversationID: "sq-1"}}
	api.tasks["sq-1"] = []v1.Task{{ID: "t1"}}
	subs := &fakeSubs{}
	svc, store := newTestService(api, subs, Options{})

	require.NoError(t, svc.SelectSquad(context.Background(), "sq-1"))

	assert.Equal(t, "sq-1", store.Selected())
	assert.Len(t, store.MessagesFor("sq-1"), 1)
	assert.Len(t, store.Tasks(), 1)
	assert.Equal(t, []string{"sq-1"}, subs.selected)
}

func TestSelectSquad_StaleResponseDiscarded(t *testing.T) {
	api := newFakeAPI()
	api.messages["sq-1"] = []v1.Message{{ID: "old", ConversationID: "sq-1"}}
	api.messages["sq-2"] = []v1.Message{{ID: "new", ConversationID: "sq-2"}}
	gate := make(chan struct{})
	api.gates["sq-1"] = gate
	svc, store := newTestService(api, &fakeSubs{}, Options{})

	done := make(chan error, 1)
	go func() { done <- svc.SelectSquad(context.Background(), "sq-1") }()
	require.Eventually(t, func() bool { return store.Selected() == "sq-1" }, time.Second, time.Millisecond)

	require.NoError(t, svc.SelectSquad(context.Background(), "sq-2"))
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, "sq-2", store.Selected())
	assert.Empty(t, store.MessagesFor("sq-1"))
	require.Len(t, store.MessagesFor("sq-2"), 1)
}

func TestSelectSquad_ConcurrentSelectionsLeaveConsistentState(t *testing.T) {
	api := newFakeAPI()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("sq-%d", i)
		api.messages[id] = []v1.Message{{ID: "m-" + id, ConversationID: id}}
		api.tasks[id] = []v1.Task{{ID: "t-" + id, SquadID: id}}
	}
	svc, store := newTestService(api, &fakeSubs{}, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = svc.SelectSquad(context.Background(), id)
		}(fmt.Sprintf("sq-%d", i%3))
	}
	wg.Wait()

	selected := store.Selected()
	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, selected, tasks[0].SquadID)
	require.Len(t, store.MessagesFor(selected), 1)
	assert.Equal(t, 1, store.MessageCount())
}

func TestSelectSquad_EmptyClears(t *testing.T) {
	api := newFakeAPI()
	api.messages["sq-1"] = []v1.Message{{ID: "m1", ConversationID: "sq-1"}}
	svc, store := newTestService(api, &fakeSubs{}, Options{})
	require.NoError(t, svc.SelectSquad(context.Background(), "sq-1"))

	require.NoError(t, svc.SelectSquad(context.Background(), ""))
	assert.Equal(t, 0, store.MessageCount())
	assert.Empty(t, store.Selected())
}

func TestEnsureSelection(t *testing.T) {
	svc, store := newTestService(newFakeAPI(), &fakeSubs{}, Options{})

	svc.EnsureSelection(context.Background(), nil)
	assert.Empty(t, store.Selected())

	svc.EnsureSelection(context.Background(), []v1.Squad{{SquadID: "sq-a"}, {SquadID: "sq-b"}})
	assert.Equal(t, "sq-a", store.Selected())

	svc.EnsureSelection(context.Background(), []v1.Squad{{SquadID: "sq-b"}})
	assert.Equal(t, "sq-a", store.Selected())
}

func TestSendMessage_RESTConfirmsProvisional(t *testing.T) {
	api := newFakeAPI()
	api.sendID = "srv-1"
	svc, store := newTestService(api, &fakeSubs{}, Options{})
	store.SetSelected("sq-1")

	msg, err := svc.SendMessage(context.Background(), "  deploy  ")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", msg.ID)
	assert.Equal(t, "deploy", msg.Content)

	got := store.MessagesFor("sq-1")
	require.Len(t, got, 1)
	assert.Equal(t, "srv-1", got[0].ID)
	assert.Equal(t, v1.GovernanceStatusPending, got[0].GovernanceStatus)
}

func TestSendMessage_FailureDiscardsProvisional(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = apperrors.NewRequestError(500, "")
	svc, store := newTestService(api, &fakeSubs{}, Options{})
	store.SetSelected("sq-1")

	_, err := svc.SendMessage(context.Background(), "deploy")
	require.Error(t, err)
	assert.Equal(t, 0, store.MessageCount())
}

func TestSendMessage_OverWebSocket(t *testing.T) {
	subs := &fakeSubs{}
	svc, store := newTestService(newFakeAPI(), subs, Options{SendOverWebSocket: true})
	store.SetSelected("sq-1")

	msg, err := svc.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.CorrelationID)
	assert.Equal(t, []string{"sq-1:hello"}, subs.sent)
	assert.Equal(t, 1, store.MessageCount())

	subs.sendErr = apperrors.ErrNotConnected
	_, err = svc.SendMessage(context.Background(), "again")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
	assert.Equal(t, 1, store.MessageCount())
}

func TestSendMessage_Validation(t *testing.T) {
	svc, store := newTestService(newFakeAPI(), &fakeSubs{}, Options{})

	_, err := svc.SendMessage(context.Background(), "hi")
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)

	store.SetSelected("sq-1")
	_, err = svc.SendMessage(context.Background(), "   ")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrCodeValidationError, appErr.Code)
}

func TestApproveTask(t *testing.T) {
	api := newFakeAPI()
	svc, store := newTestService(api, &fakeSubs{}, Options{})
	store.ReplaceTasks([]v1.Task{
		{ID: "t1", Status: v1.TaskStatusHITLReview},
		{ID: "t2", Status: v1.TaskStatusHITLReview},
	})

	require.NoError(t, svc.ApproveTask(context.Background(), "t1", true, ""))
	task, _ := store.Task("t1")
	assert.Equal(t, v1.TaskStatusCompleted, task.Status)

	require.NoError(t, svc.ApproveTask(context.Background(), "t2", false, "no"))
	task, _ = store.Task("t2")
	assert.Equal(t, v1.TaskStatusHITLReview, task.Status)

	api.approveErr = errors.New("down")
	store.ReplaceTasks([]v1.Task{{ID: "t3", Status: v1.TaskStatusHITLReview}})
	require.Error(t, svc.ApproveTask(context.Background(), "t3", true, ""))
	task, _ = store.Task("t3")
	assert.Equal(t, v1.TaskStatusHITLReview, task.Status)
}

func TestHaltSquad_DefaultsToSelection(t *testing.T) {
	svc, store := newTestService(newFakeAPI(), &fakeSubs{}, Options{})
	_, err := svc.HaltSquad(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)

	store.SetSelected("sq-1")
	resp, err := svc.HaltSquad(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "halting", resp.Status)
}

func TestGovernanceAlerts_Degrades(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newTestService(api, &fakeSubs{}, Options{})
	assert.Len(t, svc.GovernanceAlerts(context.Background(), 0).Alerts, 1)

	api.alertsErr = errors.New("down")
	resp := svc.GovernanceAlerts(context.Background(), 10)
	assert.False(t, resp.Implemented)
	assert.Empty(t, resp.Alerts)

	agents, err := svc.Agents(context.Background(), v1.AgentFilter{})
	require.NoError(t, err)
	assert.NotNil(t, agents)
}
