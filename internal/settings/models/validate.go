package models

import "fmt"

// FieldError names the first invalid field of a Settings value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks every enumerated field and the poll interval range.
func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return &FieldError{"theme", "must be one of light, dark, system"}
	}
	switch s.FontFamily {
	case FontGeist, FontInter, FontJetBrainsMono, FontFiraCode, FontSystem:
	default:
		return &FieldError{"fontFamily", "must be one of geist, inter, jetbrains-mono, fira-code, system"}
	}
	switch s.FontSize {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
	default:
		return &FieldError{"fontSize", "must be one of small, medium, large"}
	}
	switch s.MessageDensity {
	case DensityCompact, DensityComfortable, DensitySpacious:
	default:
		return &FieldError{"messageDensity", "must be one of compact, comfortable, spacious"}
	}
	if s.MessagePollInterval < MinPollInterval || s.MessagePollInterval > MaxPollInterval {
		return &FieldError{"messagePollInterval", fmt.Sprintf("must be between %d and %d seconds", MinPollInterval, MaxPollInterval)}
	}
	return nil
}
