package domain

import "time"

// Strategy names how a dataset was acquired.
type Strategy string

// Acquisition strategies.
const (
	// StrategyFastPath is a hits count followed by one unpaged request.
	StrategyFastPath Strategy = "fast-path"

	// StrategyPaged is the startIndex paging loop.
	StrategyPaged Strategy = "paged"

	// StrategyDirect is one unpaged request without a count, used when the
	// server supports neither hits nor paging.
	StrategyDirect Strategy = "direct"
)

// AcquisitionResult is the outcome of a successful acquisition.
type AcquisitionResult struct {
	// RunID identifies the acquisition session.
	RunID string

	// SourceID is copied from the QuerySpec.
	SourceID string

	// MergedPath is the single merged document.
	MergedPath string

	// Version is the negotiated WFS version.
	Version Version

	// Strategy is how the data was fetched.
	Strategy Strategy

	// Pages is the number of artifacts merged.
	Pages int

	// Warnings lists non-fatal cleanup problems.
	Warnings []CleanupWarning
}

// RunStatus is the terminal state of a recorded acquisition.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// AcquisitionRecord is the persisted history entry for one acquisition.
type AcquisitionRecord struct {
	ID         string
	SourceID   string
	URL        string
	Version    Version
	Strategy   Strategy
	Pages      int
	MergedPath string
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took, or zero while running.
func (r AcquisitionRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
