// Package subscription tells the backend which squad channel to stream.
package subscription

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

// Sender is implemented by *wsclient.Connection.
type Sender interface {
	Send(frame *ws.Frame) error
}

// Manager tracks the selected conversation and keeps the backend subscribed
// to it across reconnects.
type Manager struct {
	sender              Sender
	unsubscribeOnSwitch bool
	logger              *logger.Logger

	mu      sync.Mutex
	current string
}

// NewManager creates a Manager. When unsubscribeOnSwitch is set, switching
// squads sends UNSUBSCRIBE for the previous one before subscribing.
func NewManager(sender Sender, unsubscribeOnSwitch bool, log *logger.Logger) *Manager {
	return &Manager{
		sender:              sender,
		unsubscribeOnSwitch: unsubscribeOnSwitch,
		logger:              log.WithFields(zap.String("component", "subscription")),
	}
}

// Current returns the selected conversation id, empty when none.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Select records the selected conversation and subscribes to it. An empty
// id clears the selection.
func (m *Manager) Select(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.current
	if previous == conversationID {
		return
	}
	m.current = conversationID

	if m.unsubscribeOnSwitch && previous != "" {
		m.sendLocked(ws.NewUnsubscribe(previous))
	}
	if conversationID != "" {
		m.sendLocked(ws.NewSubscribe(conversationID))
	}
}

// HandleConnectionChange re-subscribes the current conversation whenever
// the socket opens. Register it with Connection.OnConnectionChange.
func (m *Manager) HandleConnectionChange(connected bool) {
	if !connected {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != "" {
		m.sendLocked(ws.NewSubscribe(m.current))
	}
}

// SendHumanMessage sends a HUMAN_MESSAGE frame for a squad. Unlike
// subscription frames, the error is returned so the caller can roll back.
func (m *Manager) SendHumanMessage(squadID, content string) error {
	if err := m.sender.Send(ws.NewHumanMessage(squadID, content)); err != nil {
		m.logger.Warn("failed to send human message", zap.String("squad_id", squadID), zap.Error(err))
		return err
	}
	return nil
}

// sendLocked never fails the caller; a closed socket is reported in the log
// and the subscription is replayed on the next open.
func (m *Manager) sendLocked(frame *ws.Frame) {
	err := m.sender.Send(frame)
	if err == nil {
		m.logger.Debug("subscription frame sent", zap.String("type", string(frame.Type)))
		return
	}
	if errors.Is(err, apperrors.ErrNotConnected) {
		m.logger.Warn("websocket not connected, frame dropped", zap.String("type", string(frame.Type)))
		return
	}
	m.logger.Error("failed to send subscription frame", zap.String("type", string(frame.Type)), zap.Error(err))
}
