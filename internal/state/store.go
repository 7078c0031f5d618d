// Package state holds the synchronized view of squads, messages and tasks.
//
// The Store is the only owner of the three collections. REST snapshots and
// streamed deltas both go through its methods, and every mutation is
// published on the event bus so presentation surfaces can refresh.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

const (
	eventSource       = "state"
	provisionalPrefix = "temp-"
)

// Connectivity is the pair of indicators shown in the header.
type Connectivity struct {
	WebSocket bool `json:"webSocket"`
	API       bool `json:"api"`
}

// Snapshot is a copy of the store taken under one lock.
type Snapshot struct {
	Squads          []v1.Squad   `json:"squads"`
	Messages        []v1.Message `json:"messages"`
	Tasks           []v1.Task    `json:"tasks"`
	SelectedSquadID string       `json:"selectedSquadId"`
	Connectivity    Connectivity `json:"connectivity"`
	LoadError       string       `json:"loadError,omitempty"`
}

// MessagesLoadedData is the payload of events.MessagesLoaded.
type MessagesLoadedData struct {
	ConversationID string `json:"conversationId"`
	Count          int    `json:"count"`
}

// ConfirmationData is the payload of events.MessageConfirmed and MessageDiscarded.
type ConfirmationData struct {
	CorrelationID string `json:"correlationId"`
	ID            string `json:"id,omitempty"`
}

// SelectionData is the payload of events.SelectionChanged.
type SelectionData struct {
	SquadID string `json:"squadId"`
}

// Store owns squads, messages and tasks. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	squads   []v1.Squad
	messages []v1.Message
	tasks    []v1.Task

	// ids of buffered messages; value true marks a locally composed record
	// that was confirmed but not yet seen from the backend
	messageIDs map[string]bool

	connectivity Connectivity
	loadError    string
	selected     string

	bus    bus.EventBus
	logger *logger.Logger
}

// NewStore creates an empty store. eventBus may be nil.
func NewStore(eventBus bus.EventBus, log *logger.Logger) *Store {
	return &Store{
		messageIDs: make(map[string]bool),
		bus:        eventBus,
		logger:     log.WithFields(zap.String("component", "state")),
	}
}

func (s *Store) publish(subject string, data interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), subject, bus.NewEvent(subject, eventSource, data)); err != nil {
		s.logger.Warn("failed to publish state change", zap.String("subject", subject), zap.Error(err))
	}
}

// ReplaceSquads installs a full squad snapshot. This is the only path that
// adds or removes squads.
func (s *Store) ReplaceSquads(squads []v1.Squad) {
	s.mu.Lock()
	s.squads = append([]v1.Squad(nil), squads...)
	n := len(s.squads)
	s.mu.Unlock()

	s.publish(events.SquadsReplaced, map[string]int{"count": n})
}

// UpdateSquad replaces the squad with the same SquadID. Unknown squads are
// ignored and wait for the next snapshot; it reports whether a record changed.
func (s *Store) UpdateSquad(squad v1.Squad) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.squads {
		if s.squads[i].SquadID == squad.SquadID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("squad update for unknown squad ignored", zap.String("squad_id", squad.SquadID))
		return false
	}
	s.squads[idx] = squad
	s.mu.Unlock()

	s.publish(events.SquadUpdated, squad)
	return true
}

// Squads returns a copy of the squad collection.
func (s *Store) Squads() []v1.Squad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]v1.Squad(nil), s.squads...)
}

// Squad looks up a squad by SquadID.
func (s *Store) Squad(squadID string) (v1.Squad, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sq := range s.squads {
		if sq.SquadID == squadID {
			return sq, true
		}
	}
	return v1.Squad{}, false
}

// AppendMessage adds a streamed message unless its id is already buffered.
// A local record (confirmed with the same id, or still provisional with the
// same author, conversation and content) is replaced by the backend's
// version in place. It reports whether the buffer changed.
func (s *Store) AppendMessage(msg v1.Message) bool {
	s.mu.Lock()
	local, exists := s.messageIDs[msg.ID]
	if exists && !local {
		s.mu.Unlock()
		return false
	}
	idx := -1
	for i := range s.messages {
		m := &s.messages[i]
		if (exists && m.ID == msg.ID) || (!exists && isProvisionalCopy(m, &msg)) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		delete(s.messageIDs, s.messages[idx].ID)
		s.messages[idx] = msg
	} else {
		s.messages = append(s.messages, msg)
	}
	s.messageIDs[msg.ID] = false
	s.mu.Unlock()

	s.publish(events.MessageAppended, msg)
	return true
}

// LoadMessages installs the REST history of a conversation. Entries of the
// same conversation that are already buffered but missing from history
// (streamed while the fetch was in flight, or still provisional) are kept
// after it. Entries of other conversations are dropped.
func (s *Store) LoadMessages(conversationID string, history []v1.Message) {
	s.mu.Lock()
	merged := make([]v1.Message, 0, len(history))
	ids := make(map[string]bool, len(history))
	for _, m := range history {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = false
		merged = append(merged, m)
	}
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = s.messageIDs[m.ID]
		merged = append(merged, m)
	}
	s.messages = merged
	s.messageIDs = ids
	n := len(merged)
	s.mu.Unlock()

	s.publish(events.MessagesLoaded, MessagesLoadedData{ConversationID: conversationID, Count: n})
}

// ClearMessages empties the message buffer.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	s.messages = nil
	s.messageIDs = make(map[string]bool)
	s.mu.Unlock()

	s.publish(events.MessagesLoaded, MessagesLoadedData{})
}

// MessagesFor returns the buffered messages of one conversation in insertion order.
func (s *Store) MessagesFor(conversationID string) []v1.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messagesForLocked(conversationID)
}

func (s *Store) messagesForLocked(conversationID string) []v1.Message {
	out := make([]v1.Message, 0)
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

// MessageCount returns the size of the whole buffer.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// AddOptimistic appends a provisional record for a message the local user
// is sending. The returned message carries the correlation id used to
// confirm or discard it.
func (s *Store) AddOptimistic(conversationID, content string) v1.Message {
	correlationID := uuid.New().String()
	msg := v1.Message{
		ID:               provisionalPrefix + correlationID,
		SquadID:          conversationID,
		SourceAgentID:    v1.HumanAgentID,
		ConversationID:   conversationID,
		InteractionType:  v1.InteractionDirectCommand,
		MessageType:      v1.MessageTypeThought,
		Content:          content,
		GovernanceStatus: v1.GovernanceStatusPending,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339Nano),
		CorrelationID:    correlationID,
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.messageIDs[msg.ID] = true
	s.mu.Unlock()

	s.publish(events.MessageAppended, msg)
	return msg
}

// ConfirmOptimistic reconciles a provisional record with the id the backend
// assigned. If the backend's record already streamed in, the provisional
// one is dropped; otherwise it takes the backend id. An empty serverID
// leaves the record provisional.
func (s *Store) ConfirmOptimistic(correlationID, serverID string) bool {
	if serverID == "" {
		return false
	}
	s.mu.Lock()
	idx := s.provisionalIndexLocked(correlationID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	provisionalID := s.messages[idx].ID
	delete(s.messageIDs, provisionalID)
	if _, streamed := s.messageIDs[serverID]; streamed {
		s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	} else {
		s.messages[idx].ID = serverID
		s.messages[idx].CorrelationID = ""
		s.messageIDs[serverID] = true
	}
	s.mu.Unlock()

	s.publish(events.MessageConfirmed, ConfirmationData{CorrelationID: correlationID, ID: serverID})
	return true
}

// DiscardOptimistic removes a provisional record whose send failed.
func (s *Store) DiscardOptimistic(correlationID string) bool {
	s.mu.Lock()
	idx := s.provisionalIndexLocked(correlationID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	delete(s.messageIDs, s.messages[idx].ID)
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	s.mu.Unlock()

	s.publish(events.MessageDiscarded, ConfirmationData{CorrelationID: correlationID})
	return true
}

func isProvisionalCopy(local, streamed *v1.Message) bool {
	return local.CorrelationID != "" &&
		local.ConversationID == streamed.ConversationID &&
		local.SourceAgentID == streamed.SourceAgentID &&
		local.Content == streamed.Content
}

func (s *Store) provisionalIndexLocked(correlationID string) int {
	if correlationID == "" {
		return -1
	}
	for i := range s.messages {
		if s.messages[i].CorrelationID == correlationID {
			return i
		}
	}
	return -1
}

// ReplaceTasks installs the task list of the selected squad.
func (s *Store) ReplaceTasks(tasks []v1.Task) {
	s.mu.Lock()
	s.tasks = append([]v1.Task(nil), tasks...)
	n := len(s.tasks)
	s.mu.Unlock()

	s.publish(events.TasksReplaced, map[string]int{"count": n})
}

// UpdateTask replaces the task with the same id. The task list only holds
// the selected squad's tasks, so unknown ids are ignored; it reports whether
// a record changed.
func (s *Store) UpdateTask(task v1.Task) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("task update for unknown task ignored",
			zap.String("task_id", task.ID), zap.String("squad_id", task.SquadID))
		return false
	}
	s.tasks[idx] = task
	s.mu.Unlock()

	s.publish(events.TaskUpdated, task)
	return true
}

// MarkTaskCompleted applies a local approval. It reports whether the task exists.
func (s *Store) MarkTaskCompleted(taskID string) bool {
	s.mu.Lock()
	var updated v1.Task
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Status = v1.TaskStatusCompleted
			updated = s.tasks[i]
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.publish(events.TaskUpdated, updated)
	}
	return found
}

// Tasks returns a copy of the task collection.
func (s *Store) Tasks() []v1.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]v1.Task(nil), s.tasks...)
}

// Task looks up a task by id.
func (s *Store) Task(taskID string) (v1.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return v1.Task{}, false
}

// SetWebSocketConnected records the socket indicator.
func (s *Store) SetWebSocketConnected(connected bool) {
	s.setConnectivity(func(c *Connectivity) { c.WebSocket = connected })
}

// SetAPIConnected records the REST health indicator.
func (s *Store) SetAPIConnected(connected bool) {
	s.setConnectivity(func(c *Connectivity) { c.API = connected })
}

func (s *Store) setConnectivity(apply func(*Connectivity)) {
	s.mu.Lock()
	before := s.connectivity
	apply(&s.connectivity)
	after := s.connectivity
	s.mu.Unlock()

	if before != after {
		s.publish(events.ConnectivityChanged, after)
	}
}

// Connectivity returns both indicators.
func (s *Store) Connectivity() Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

// SetLoadError records or clears (empty string) the initial-load error.
func (s *Store) SetLoadError(msg string) {
	s.mu.Lock()
	changed := s.loadError != msg
	s.loadError = msg
	s.mu.Unlock()

	if changed {
		s.publish(events.LoadErrorChanged, map[string]string{"error": msg})
	}
}

// LoadError returns the initial-load error, if any.
func (s *Store) LoadError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadError
}

// SetSelected records the selected squad id.
func (s *Store) SetSelected(squadID string) {
	s.mu.Lock()
	changed := s.selected != squadID
	s.selected = squadID
	s.mu.Unlock()

	if changed {
		s.publish(events.SelectionChanged, SelectionData{SquadID: squadID})
	}
}

// Selected returns the selected squad id, empty when none.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Snapshot copies the store for presentation. Messages are filtered to the
// selected squad.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Squads:          append([]v1.Squad(nil), s.squads...),
		Messages:        s.messagesForLocked(s.selected),
		Tasks:           append([]v1.Task(nil), s.tasks...),
		SelectedSquadID: s.selected,
		Connectivity:    s.connectivity,
		LoadError:       s.loadError,
	}
}
