package models

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type FontFamily string

const (
	FontGeist         FontFamily = "geist"
	FontInter         FontFamily = "inter"
	FontJetBrainsMono FontFamily = "jetbrains-mono"
	FontFiraCode      FontFamily = "fira-code"
	FontSystem        FontFamily = "system"
)

type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

type MessageDensity string

const (
	DensityCompact     MessageDensity = "compact"
	DensityComfortable MessageDensity = "comfortable"
	DensitySpacious    MessageDensity = "spacious"
)

// Poll interval bounds, in seconds.
const (
	MinPollInterval = 5
	MaxPollInterval = 300
)

// Settings are the display preferences of the dashboard.
type Settings struct {
	Theme                  Theme          `json:"theme"`
	FontFamily             FontFamily     `json:"fontFamily"`
	FontSize               FontSize       `json:"fontSize"`
	MessageDensity         MessageDensity `json:"messageDensity"`
	ShowTimestamps         bool           `json:"showTimestamps"`
	ShowAgentTypes         bool           `json:"showAgentTypes"`
	EnableSounds           bool           `json:"enableSounds"`
	EnableAnimations       bool           `json:"enableAnimations"`
	AutoScrollOnNewMessage bool           `json:"autoScrollOnNewMessage"`
	MessagePollInterval    int            `json:"messagePollInterval"` // seconds
	UpdatedAt              time.Time      `json:"-"`
}

// Defaults returns the settings used when nothing has been stored.
func Defaults() Settings {
	return Settings{
		Theme:                  ThemeLight,
		FontFamily:             FontGeist,
		FontSize:               FontSizeMedium,
		MessageDensity:         DensityComfortable,
		ShowTimestamps:         true,
		ShowAgentTypes:         true,
		EnableSounds:           false,
		EnableAnimations:       true,
		AutoScrollOnNewMessage: true,
		MessagePollInterval:    30,
	}
}

// PollInterval returns MessagePollInterval as a time.Duration.
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.MessagePollInterval) * time.Second
}

// Record is one stored settings document. Value holds the JSON encoding of
// Settings; keys missing from it fall back to Defaults when read.
type Record struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
