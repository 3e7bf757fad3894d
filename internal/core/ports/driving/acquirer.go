package driving

import (
	"context"

	"github.com/opentrees/wfsget/internal/core/domain"
)

// Acquirer downloads complete WFS datasets.
type Acquirer interface {
	// Acquire fetches the full result set behind spec.URL and merges it
	// into spec.MergedPath. Fatal failures are *domain.StageError values.
	Acquire(ctx context.Context, spec domain.QuerySpec) (*domain.AcquisitionResult, error)

	// AcquireAll runs independent acquisitions concurrently. One failing
	// source never cancels the others; outcomes keep the order of specs.
	AcquireAll(ctx context.Context, specs []domain.QuerySpec) []AcquireOutcome

	// History lists recorded acquisitions, most recent first.
	History(ctx context.Context, limit int) ([]domain.AcquisitionRecord, error)
}

// AcquireOutcome pairs a spec with its result or error.
type AcquireOutcome struct {
	Spec   domain.QuerySpec
	Result *domain.AcquisitionResult
	Err    error
}
