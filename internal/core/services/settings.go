package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyHitsThreshold = "wfs.hits_threshold"
	keyPageSizeV2    = "wfs.page_size_v2"
	keyPageSizeV1    = "wfs.page_size_v1"
	keyMaxPages      = "wfs.max_pages"
	keyTimeout       = "http.timeout"
	keyRateLimit     = "http.rate_limit"
	keyUserAgent     = "http.user_agent"
	keyToken         = "http.token"
	keyDataDir       = "data.dir"
	keyParallelism   = "acquire.parallelism"
)

var settingKeys = []string{
	keyHitsThreshold,
	keyPageSizeV2,
	keyPageSizeV1,
	keyMaxPages,
	keyTimeout,
	keyRateLimit,
	keyUserAgent,
	keyToken,
	keyDataDir,
	keyParallelism,
}

// SettingsService manages engine settings stored in a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current engine settings, falling back to defaults for
// missing or unparseable values.
func (s *SettingsService) Get() (domain.EngineSettings, error) {
	d := domain.DefaultEngineSettings()

	settings := domain.EngineSettings{
		HitsThreshold:  s.getInt(keyHitsThreshold, d.HitsThreshold),
		PageSizeV2:     s.getInt(keyPageSizeV2, d.PageSizeV2),
		PageSizeV1:     s.getInt(keyPageSizeV1, d.PageSizeV1),
		MaxPages:       s.getInt(keyMaxPages, d.MaxPages),
		RequestTimeout: s.getDuration(keyTimeout, d.RequestTimeout),
		RateLimit:      s.getFloat(keyRateLimit, d.RateLimit),
		UserAgent:      s.getString(keyUserAgent, d.UserAgent),
		Token:          s.configStore.GetString(keyToken), // No default - anonymous access
		DataDir:        s.getString(keyDataDir, d.DataDir),
		Parallelism:    s.getInt(keyParallelism, d.Parallelism),
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = d.Parallelism
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("settings in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Set parses value for key, checks the result and persists it.
func (s *SettingsService) Set(key, value string) error {
	current, err := s.Get()
	if err != nil {
		current = domain.DefaultEngineSettings()
	}

	stored, err := apply(&current, key, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the keys Set accepts.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// Value returns the effective value of key, formatted the way Set accepts it.
func (s *SettingsService) Value(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	switch key {
	case keyHitsThreshold:
		return strconv.Itoa(settings.HitsThreshold), nil
	case keyPageSizeV2:
		return strconv.Itoa(settings.PageSizeV2), nil
	case keyPageSizeV1:
		return strconv.Itoa(settings.PageSizeV1), nil
	case keyMaxPages:
		return strconv.Itoa(settings.MaxPages), nil
	case keyTimeout:
		return settings.RequestTimeout.String(), nil
	case keyRateLimit:
		return strconv.FormatFloat(settings.RateLimit, 'f', -1, 64), nil
	case keyUserAgent:
		return settings.UserAgent, nil
	case keyToken:
		return settings.Token, nil
	case keyDataDir:
		return settings.DataDir, nil
	case keyParallelism:
		return strconv.Itoa(settings.Parallelism), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// apply sets key on settings and returns the typed value to store.
func apply(settings *domain.EngineSettings, key, value string) (any, error) {
	parseInt := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", key, value)
		}
		return n, nil
	}

	switch key {
	case keyHitsThreshold, keyPageSizeV2, keyPageSizeV1, keyMaxPages, keyParallelism:
		n, err := parseInt()
		if err != nil {
			return nil, err
		}
		switch key {
		case keyHitsThreshold:
			settings.HitsThreshold = n
		case keyPageSizeV2:
			settings.PageSizeV2 = n
		case keyPageSizeV1:
			settings.PageSizeV1 = n
		case keyMaxPages:
			settings.MaxPages = n
		case keyParallelism:
			if n <= 0 {
				return nil, fmt.Errorf("%s must be positive", key)
			}
			settings.Parallelism = n
		}
		return n, nil
	case keyTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s: %q is not a positive duration", key, value)
		}
		settings.RequestTimeout = d
		return d.String(), nil
	case keyRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", key, value)
		}
		settings.RateLimit = f
		return f, nil
	case keyUserAgent:
		settings.UserAgent = value
		return value, nil
	case keyToken:
		settings.Token = value
		return value, nil
	case keyDataDir:
		if value == "" {
			return nil, fmt.Errorf("%s cannot be empty", key)
		}
		settings.DataDir = value
		return value, nil
	}
	return nil, fmt.Errorf("unknown setting %q", key)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
