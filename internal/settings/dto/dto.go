package dto

import (
	"time"

	"github.com/Shinox-lab/dashboard/internal/settings/models"
	"github.com/Shinox-lab/dashboard/internal/settings/service"
)

type SettingsDTO struct {
	Theme                  models.Theme          `json:"theme"`
	FontFamily             models.FontFamily     `json:"fontFamily"`
	FontSize               models.FontSize       `json:"fontSize"`
	MessageDensity         models.MessageDensity `json:"messageDensity"`
	ShowTimestamps         bool                  `json:"showTimestamps"`
	ShowAgentTypes         bool                  `json:"showAgentTypes"`
	EnableSounds           bool                  `json:"enableSounds"`
	EnableAnimations       bool                  `json:"enableAnimations"`
	AutoScrollOnNewMessage bool                  `json:"autoScrollOnNewMessage"`
	MessagePollInterval    int                   `json:"messagePollInterval"`
	UpdatedAt              string                `json:"updatedAt,omitempty"`
}

type SettingsResponse struct {
	Settings SettingsDTO `json:"settings"`
	Defaults SettingsDTO `json:"defaults"`
}

type UpdateSettingsRequest struct {
	Theme                  *models.Theme          `json:"theme,omitempty"`
	FontFamily             *models.FontFamily     `json:"fontFamily,omitempty"`
	FontSize               *models.FontSize       `json:"fontSize,omitempty"`
	MessageDensity         *models.MessageDensity `json:"messageDensity,omitempty"`
	ShowTimestamps         *bool                  `json:"showTimestamps,omitempty"`
	ShowAgentTypes         *bool                  `json:"showAgentTypes,omitempty"`
	EnableSounds           *bool                  `json:"enableSounds,omitempty"`
	EnableAnimations       *bool                  `json:"enableAnimations,omitempty"`
	AutoScrollOnNewMessage *bool                  `json:"autoScrollOnNewMessage,omitempty"`
	MessagePollInterval    *int                   `json:"messagePollInterval,omitempty"`
}

func FromSettings(s *models.Settings) SettingsDTO {
	out := SettingsDTO{
		Theme:                  s.Theme,
		FontFamily:             s.FontFamily,
		FontSize:               s.FontSize,
		MessageDensity:         s.MessageDensity,
		ShowTimestamps:         s.ShowTimestamps,
		ShowAgentTypes:         s.ShowAgentTypes,
		EnableSounds:           s.EnableSounds,
		EnableAnimations:       s.EnableAnimations,
		AutoScrollOnNewMessage: s.AutoScrollOnNewMessage,
		MessagePollInterval:    s.MessagePollInterval,
	}
	if !s.UpdatedAt.IsZero() {
		out.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func NewSettingsResponse(s *models.Settings) SettingsResponse {
	defaults := models.Defaults()
	return SettingsResponse{Settings: FromSettings(s), Defaults: FromSettings(&defaults)}
}

func (r UpdateSettingsRequest) ToService() *service.UpdateRequest {
	return &service.UpdateRequest{
		Theme:                  r.Theme,
		FontFamily:             r.FontFamily,
		FontSize:               r.FontSize,
		MessageDensity:         r.MessageDensity,
		ShowTimestamps:         r.ShowTimestamps,
		ShowAgentTypes:         r.ShowAgentTypes,
		EnableSounds:           r.EnableSounds,
		EnableAnimations:       r.EnableAnimations,
		AutoScrollOnNewMessage: r.AutoScrollOnNewMessage,
		MessagePollInterval:    r.MessagePollInterval,
	}
}
