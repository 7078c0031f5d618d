package subscription

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

type fakeSender struct {
	mu   sync.Mutex
	open bool
	sent []string
}

func (f *fakeSender) Send(frame *ws.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return apperrors.ErrNotConnected
	}
	var ref ws.SquadRef
	_ = frame.ParsePayload(&ref)
	f.sent = append(f.sent, string(frame.Type)+":"+ref.SquadID)
	return nil
}

func (f *fakeSender) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestSelect_SubscribesWhenOpen(t *testing.T) {
	s := &fakeSender{open: true}
	m := NewManager(s, true, logger.Nop())

	m.Select("sq-1")
	m.Select("sq-1")
	m.Select("sq-2")

	assert.Equal(t, []string{"SUBSCRIBE:sq-1", "UNSUBSCRIBE:sq-1", "SUBSCRIBE:sq-2"}, s.Sent())
	assert.Equal(t, "sq-2", m.Current())
}

func TestSelect_WithoutUnsubscribe(t *testing.T) {
	s := &fakeSender{open: true}
	m := NewManager(s, false, logger.Nop())

	m.Select("sq-1")
	m.Select("sq-2")

	assert.Equal(t, []string{"SUBSCRIBE:sq-1", "SUBSCRIBE:sq-2"}, s.Sent())
}

func TestSelect_WhileClosedIsNoopThenReplayedOnOpen(t *testing.T) {
	s := &fakeSender{}
	m := NewManager(s, true, logger.Nop())

	m.Select("sq-1")
	assert.Empty(t, s.Sent())

	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	m.HandleConnectionChange(true)
	assert.Equal(t, []string{"SUBSCRIBE:sq-1"}, s.Sent())

	m.HandleConnectionChange(false)
	assert.Len(t, s.Sent(), 1)
}

func TestHandleConnectionChange_NoSelection(t *testing.T) {
	s := &fakeSender{open: true}
	m := NewManager(s, true, logger.Nop())
	m.HandleConnectionChange(true)
	assert.Empty(t, s.Sent())
}

func TestSendHumanMessage_ReturnsError(t *testing.T) {
	s := &fakeSender{}
	m := NewManager(s, true, logger.Nop())
	assert.ErrorIs(t, m.SendHumanMessage("sq-1", "hi"), apperrors.ErrNotConnected)

	s.open = true
	assert.NoError(t, m.SendHumanMessage("sq-1", "hi"))
	assert.Equal(t, []string{"HUMAN_MESSAGE:sq-1"}, s.Sent())
}
