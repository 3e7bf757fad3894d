package driven

import (
	"context"

	"github.com/opentrees/wfsget/internal/core/domain"
)

// RunStore persists acquisition history.
type RunStore interface {
	// Save stores or updates a record.
	Save(ctx context.Context, record domain.AcquisitionRecord) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*domain.AcquisitionRecord, error)

	// List returns the most recent records first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]domain.AcquisitionRecord, error)
}
