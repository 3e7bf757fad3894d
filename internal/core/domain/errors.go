package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent acquisition failures.
// Fatal kinds are wrapped in a StageError; match them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery indicates the input URL or spec cannot be acquired.
	ErrInvalidQuery = errors.New("invalid query")

	// Negotiation Errors.

	// ErrCapabilitiesUnreachable indicates the GetCapabilities request failed.
	ErrCapabilitiesUnreachable = errors.New("capabilities unreachable")

	// ErrCapabilitiesMalformed indicates the capabilities document lacks expected structure.
	ErrCapabilitiesMalformed = errors.New("capabilities malformed")

	// ErrVersionUndeclared indicates the server declared no usable version.
	ErrVersionUndeclared = errors.New("version undeclared")

	// Download Errors.

	// ErrFastPathFailed indicates the hits query or single-shot download failed.
	// Paging is never attempted after it.
	ErrFastPathFailed = errors.New("fast path failed")

	// ErrFatalNetwork indicates the first page could not be fetched.
	ErrFatalNetwork = errors.New("fatal network error")

	// ErrPagingProtocol indicates a page response is not a feature collection,
	// or the server's own counts show the result would be truncated.
	ErrPagingProtocol = errors.New("paging protocol error")

	// ErrPagingLimitExceeded indicates the configured page cap was reached
	// while the server still advertised more pages.
	ErrPagingLimitExceeded = errors.New("paging limit exceeded")

	// ErrPagingUnsupported indicates the result is too large for a single
	// request and the server does not implement result paging.
	ErrPagingUnsupported = errors.New("paging unsupported")

	// ErrMergeFailed indicates the page artifacts could not be merged.
	ErrMergeFailed = errors.New("merge failed")

	// ErrStorage indicates an artifact could not be written.
	ErrStorage = errors.New("storage error")
)

// Stage names the acquisition step that failed.
type Stage string

// Acquisition stages.
const (
	StageNegotiate Stage = "negotiate"
	StageFastPath  Stage = "fast-path"
	StageDirect    Stage = "direct"
	StagePaging    Stage = "paging"
	StageMerge     Stage = "merge"
)

// StageError carries the failing stage, the offending URL and the error kind.
type StageError struct {
	Stage Stage
	URL   string
	Kind  error
	Err   error
}

// NewStageError wraps cause as kind at the given stage.
func NewStageError(stage Stage, url string, kind, cause error) *StageError {
	return &StageError{Stage: stage, URL: url, Kind: kind, Err: cause}
}

func (e *StageError) Error() string {
	var msg string
	switch {
	case e.Err == nil:
		msg = fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	case e.Kind == nil || errors.Is(e.Err, e.Kind):
		msg = fmt.Sprintf("%s: %v", e.Stage, e.Err)
	default:
		msg = fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
	}
	if e.URL != "" {
		msg += " (URL: " + e.URL + ")"
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CleanupWarning reports an artifact that could not be removed.
// It never changes the outcome of an acquisition.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w CleanupWarning) Error() string {
	return fmt.Sprintf("cleanup: remove %s: %v", w.Path, w.Err)
}

// Unwrap returns the underlying filesystem error.
func (w CleanupWarning) Unwrap() error {
	return w.Err
}

// StageOf returns the stage of a StageError in err's chain, or "".
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
