package driving

import "github.com/opentrees/wfsget/internal/core/domain"

// SettingsService manages engine settings.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (domain.EngineSettings, error)

	// Set updates a single setting by key.
	Set(key, value string) error

	// Value returns the effective value of one setting as text.
	Value(key string) (string, error)

	// Keys lists the settings that can be changed.
	Keys() []string
}
