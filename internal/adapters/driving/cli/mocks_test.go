package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driving"
)

// mockAcquirer implements driving.Acquirer for testing.
type mockAcquirer struct {
	specs   []domain.QuerySpec
	failFor map[string]error
	runs    []domain.AcquisitionRecord
	warn    bool
}

func (m *mockAcquirer) Acquire(_ context.Context, spec domain.QuerySpec) (*domain.AcquisitionResult, error) {
	m.specs = append(m.specs, spec)
	if err := m.failFor[spec.SourceID]; err != nil {
		return nil, err
	}
	result := &domain.AcquisitionResult{
		SourceID:   spec.SourceID,
		MergedPath: spec.MergedPath,
		Version:    domain.Version200,
		Strategy:   domain.StrategyPaged,
		Pages:      3,
	}
	if m.warn {
		result.Warnings = []domain.CleanupWarning{{Path: "dataset1.xml", Err: errors.New("busy")}}
	}
	return result, nil
}

func (m *mockAcquirer) AcquireAll(ctx context.Context, specs []domain.QuerySpec) []driving.AcquireOutcome {
	outcomes := make([]driving.AcquireOutcome, 0, len(specs))
	for _, spec := range specs {
		result, err := m.Acquire(ctx, spec)
		outcomes = append(outcomes, driving.AcquireOutcome{Spec: spec, Result: result, Err: err})
	}
	return outcomes
}

func (m *mockAcquirer) History(_ context.Context, limit int) ([]domain.AcquisitionRecord, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// mockSettings implements driving.SettingsService for testing.
type mockSettings struct {
	settings domain.EngineSettings
	values   map[string]string
}

func newMockSettings() *mockSettings {
	return &mockSettings{
		settings: domain.DefaultEngineSettings(),
		values: map[string]string{
			"wfs.page_size_v2": "1000",
			"http.token":       "",
		},
	}
}

func (m *mockSettings) Get() (domain.EngineSettings, error) {
	return m.settings, nil
}

func (m *mockSettings) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return v, nil
}

func (m *mockSettings) Keys() []string {
	return []string{"wfs.page_size_v2", "http.token"}
}

// setupServices injects mocks and returns a restore function.
func setupServices(a driving.Acquirer, s driving.SettingsService) func() {
	oldAcquirer, oldSettings := acquirer, settingsService
	SetServices(a, s)
	return func() {
		acquirer, settingsService = oldAcquirer, oldSettings
	}
}
