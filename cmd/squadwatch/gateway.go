package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	gateways "github.com/Shinox-lab/dashboard/internal/gateway/websocket"
	"github.com/Shinox-lab/dashboard/internal/mesh/poller"
	"github.com/Shinox-lab/dashboard/internal/settings/models"
	settingsservice "github.com/Shinox-lab/dashboard/internal/settings/service"
	"github.com/Shinox-lab/dashboard/internal/state"
)

// provideGateway starts the browser hub and relays every bus event to it.
func provideGateway(ctx context.Context, log *logger.Logger, eventBus bus.EventBus, store *state.Store) (*gateways.Gateway, func()) {
	gateway := gateways.NewGateway(func() interface{} { return store.Snapshot() }, log)
	go gateway.Hub.Run(ctx)

	broadcaster := gateways.RegisterEventNotifications(ctx, eventBus, gateway.Hub, log)
	return gateway, broadcaster.Close
}

// watchSettings applies the stored poll interval and follows later updates.
func watchSettings(ctx context.Context, log *logger.Logger, eventBus bus.EventBus, svc *settingsservice.Service, p *poller.Poller) (bus.Subscription, error) {
	if current, err := svc.Get(ctx); err != nil {
		log.Warn("failed to read settings, keeping configured poll interval", zap.Error(err))
	} else {
		p.SetRefreshInterval(current.PollInterval())
	}

	return eventBus.Subscribe(events.SettingsUpdated, func(_ context.Context, event *bus.Event) error {
		var s models.Settings
		if err := event.DecodeData(&s); err != nil {
			log.Warn("ignoring malformed settings event", zap.Error(err))
			return nil
		}
		p.SetRefreshInterval(s.PollInterval())
		log.Info("poll interval updated", zap.Duration("interval", s.PollInterval()))
		return nil
	})
}
