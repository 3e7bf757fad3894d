package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultEngineSettings tests built-in defaults
func TestDefaultEngineSettings(t *testing.T) {
	s := DefaultEngineSettings()

	assert.Equal(t, 100_000, s.HitsThreshold)
	assert.Equal(t, 1000, s.PageSizeV2)
	assert.Equal(t, 500, s.PageSizeV1)
	assert.Equal(t, 0, s.MaxPages)
	assert.Equal(t, 2*time.Minute, s.RequestTimeout)
	assert.Equal(t, "data_downloads", s.DataDir)
	assert.Equal(t, 4, s.Parallelism)
	assert.NoError(t, s.Validate())
}

// TestEngineSettings_PageSize tests version-specific page sizes
func TestEngineSettings_PageSize(t *testing.T) {
	s := EngineSettings{PageSizeV2: 1000, PageSizeV1: 250}

	assert.Equal(t, 1000, s.PageSize(Version200))
	assert.Equal(t, 250, s.PageSize(Version110))
	assert.Equal(t, 250, s.PageSize(Version100))
}

// TestEngineSettings_Validate tests rejection of unusable values
func TestEngineSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*EngineSettings)
	}{
		{"zero threshold", func(s *EngineSettings) { s.HitsThreshold = 0 }},
		{"zero v2 page size", func(s *EngineSettings) { s.PageSizeV2 = 0 }},
		{"negative v1 page size", func(s *EngineSettings) { s.PageSizeV1 = -1 }},
		{"negative max pages", func(s *EngineSettings) { s.MaxPages = -5 }},
		{"negative rate limit", func(s *EngineSettings) { s.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultEngineSettings()
			tt.modify(&s)
			err := s.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuery))
		})
	}
}
