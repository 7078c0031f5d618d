package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/events/bus"
	"github.com/Shinox-lab/dashboard/internal/settings/models"
	"github.com/Shinox-lab/dashboard/internal/settings/store"
)

type Service struct {
	repo     store.Repository
	eventBus bus.EventBus
	logger   *logger.Logger
	key      string
}

// UpdateRequest carries the fields to change; nil fields are left as they are.
type UpdateRequest struct {
	Theme                  *models.Theme
	FontFamily             *models.FontFamily
	FontSize               *models.FontSize
	MessageDensity         *models.MessageDensity
	ShowTimestamps         *bool
	ShowAgentTypes         *bool
	EnableSounds           *bool
	EnableAnimations       *bool
	AutoScrollOnNewMessage *bool
	MessagePollInterval    *int
}

func NewService(repo store.Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log.WithFields(zap.String("component", "settings-service")),
		key:      store.DefaultKey,
	}
}

// Get returns the stored settings merged over the defaults. A stored
// document that cannot be decoded, or that no longer validates, yields
// the defaults.
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	settings := models.Defaults()
	rec, err := s.repo.Get(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.Value), &settings); err != nil {
		s.logger.Warn("ignoring unreadable stored settings", zap.Error(err))
		settings = models.Defaults()
		return &settings, nil
	}
	if err := settings.Validate(); err != nil {
		s.logger.Warn("ignoring invalid stored settings", zap.Error(err))
		settings = models.Defaults()
		return &settings, nil
	}
	settings.UpdatedAt = rec.UpdatedAt
	return &settings, nil
}

// Update applies req over the current settings, validates and stores them.
func (s *Service) Update(ctx context.Context, req *UpdateRequest) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	apply(settings, req)
	if err := settings.Validate(); err != nil {
		var fe *models.FieldError
		if errors.As(err, &fe) {
			return nil, apperrors.ValidationError(fe.Field, fe.Reason)
		}
		return nil, apperrors.BadRequest(err.Error())
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	rec := &models.Record{Key: s.key, Value: string(payload)}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("failed to save settings", zap.Error(err))
		return nil, apperrors.InternalError("failed to save settings", err)
	}
	settings.UpdatedAt = rec.UpdatedAt
	s.publish(ctx, settings)
	return settings, nil
}

// Reset removes the stored settings and returns the defaults.
func (s *Service) Reset(ctx context.Context) (*models.Settings, error) {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		s.logger.Error("failed to reset settings", zap.Error(err))
		return nil, apperrors.InternalError("failed to reset settings", err)
	}
	settings := models.Defaults()
	s.publish(ctx, &settings)
	return &settings, nil
}

func apply(s *models.Settings, req *UpdateRequest) {
	if req == nil {
		return
	}
	if req.Theme != nil {
		s.Theme = *req.Theme
	}
	if req.FontFamily != nil {
		s.FontFamily = *req.FontFamily
	}
	if req.FontSize != nil {
		s.FontSize = *req.FontSize
	}
	if req.MessageDensity != nil {
		s.MessageDensity = *req.MessageDensity
	}
	if req.ShowTimestamps != nil {
		s.ShowTimestamps = *req.ShowTimestamps
	}
	if req.ShowAgentTypes != nil {
		s.ShowAgentTypes = *req.ShowAgentTypes
	}
	if req.EnableSounds != nil {
		s.EnableSounds = *req.EnableSounds
	}
	if req.EnableAnimations != nil {
		s.EnableAnimations = *req.EnableAnimations
	}
	if req.AutoScrollOnNewMessage != nil {
		s.AutoScrollOnNewMessage = *req.AutoScrollOnNewMessage
	}
	if req.MessagePollInterval != nil {
		s.MessagePollInterval = *req.MessagePollInterval
	}
}

func (s *Service) publish(ctx context.Context, settings *models.Settings) {
	if s.eventBus == nil || settings == nil {
		return
	}
	event := bus.NewEvent(events.SettingsUpdated, "settings-service", *settings)
	if err := s.eventBus.Publish(ctx, events.SettingsUpdated, event); err != nil {
		s.logger.Error("failed to publish settings event", zap.Error(err))
	}
}
