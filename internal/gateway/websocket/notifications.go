package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

// EventBroadcaster relays every squadwatch event to the hub as an EVENT frame.
type EventBroadcaster struct {
	hub          *Hub
	subscription bus.Subscription
	logger       *logger.Logger
}

// RegisterEventNotifications subscribes to all squadwatch subjects until ctx ends.
func RegisterEventNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *EventBroadcaster {
	b := &EventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-event-broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	sub, err := eventBus.Subscribe(events.All, b.relay)
	if err != nil {
		b.logger.Error("failed to subscribe to events", zap.String("subject", events.All), zap.Error(err))
		return b
	}
	b.subscription = sub

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return b
}

func (b *EventBroadcaster) relay(_ context.Context, event *bus.Event) error {
	frame, err := ws.NewFrame(ws.FrameEvent, event)
	if err != nil {
		b.logger.Error("failed to build websocket notification", zap.String("type", event.Type), zap.Error(err))
		return nil
	}
	b.hub.Broadcast(frame)
	return nil
}

// Close stops relaying events.
func (b *EventBroadcaster) Close() {
	if b.subscription != nil && b.subscription.IsValid() {
		_ = b.subscription.Unsubscribe()
	}
}
