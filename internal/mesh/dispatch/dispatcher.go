// Package dispatch decodes backend frames and routes them into the state store.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

var (
	// ErrUnknownType is returned for frames with an unrecognized type tag.
	ErrUnknownType = errors.New("unknown frame type")
	// ErrInvalidPayload is returned when a known frame carries a bad payload.
	ErrInvalidPayload = errors.New("invalid frame payload")
)

// Store is the part of *state.Store the dispatcher writes to.
type Store interface {
	AppendMessage(msg v1.Message) bool
	UpdateSquad(squad v1.Squad) bool
	UpdateTask(task v1.Task) bool
}

// Dispatcher routes frames by type. It never panics on input and never
// stops on a bad frame.
type Dispatcher struct {
	store  Store
	alerts bus.EventBus
	logger *logger.Logger
}

// NewDispatcher creates a Dispatcher. Governance alerts are published on
// alerts when it is non-nil.
func NewDispatcher(store Store, alerts bus.EventBus, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		alerts: alerts,
		logger: log.WithFields(zap.String("component", "dispatch")),
	}
}

// Run dispatches frames sequentially until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-frames:
			if err := d.Dispatch(ctx, data); err != nil {
				d.logger.Warn("dropped frame", zap.Error(err), zap.Int("bytes", len(data)))
			}
		}
	}
}

// Dispatch handles one raw frame. The returned error describes why a frame
// was dropped; callers only log it.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	frame, err := ws.Decode(data)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}

	switch frame.Type {
	case ws.FrameMessage:
		var msg v1.Message
		if err := decodePayload(frame, &msg); err != nil {
			return err
		}
		if msg.ID == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidPayload, frame.Type)
		}
		if !d.store.AppendMessage(msg) {
			d.logger.Debug("duplicate message ignored", zap.String("message_id", msg.ID))
		}

	case ws.FrameSquadUpdate:
		var squad v1.Squad
		if err := decodePayload(frame, &squad); err != nil {
			return err
		}
		if squad.SquadID == "" {
			return fmt.Errorf("%w: %s without squadId", ErrInvalidPayload, frame.Type)
		}
		d.store.UpdateSquad(squad)

	case ws.FrameTaskUpdate:
		var task v1.Task
		if err := decodePayload(frame, &task); err != nil {
			return err
		}
		if task.ID == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidPayload, frame.Type)
		}
		d.store.UpdateTask(task)

	case ws.FrameSubscribed:
		var ref ws.SquadRef
		_ = frame.ParsePayload(&ref)
		d.logger.Info("subscribed", zap.String("squad_id", ref.SquadID))

	case ws.FramePong:
		d.logger.Debug("pong")

	case ws.FrameGovernanceAlert:
		d.forwardAlert(ctx, frame)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, frame.Type)
	}
	return nil
}

func (d *Dispatcher) forwardAlert(ctx context.Context, frame *ws.Frame) {
	var alert v1.GovernanceAlert
	var data interface{} = json.RawMessage(frame.Payload)
	if err := frame.ParsePayload(&alert); err == nil {
		data = alert
	}
	d.logger.Info("governance alert",
		zap.String("alert_id", alert.AlertID),
		zap.String("agent_id", alert.AgentID),
		zap.String("action", alert.Action))

	if d.alerts == nil {
		return
	}
	event := bus.NewEvent(events.GovernanceAlert, "dispatch", data)
	if err := d.alerts.Publish(ctx, events.GovernanceAlert, event); err != nil {
		d.logger.Warn("failed to forward governance alert", zap.Error(err))
	}
}

func decodePayload(frame *ws.Frame, v interface{}) error {
	if len(frame.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrInvalidPayload, frame.Type)
	}
	if err := frame.ParsePayload(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Type, err)
	}
	return nil
}
