package domain

import (
	"fmt"
	"time"
)

// Engine defaults.
const (
	// DefaultHitsThreshold is the practical ceiling for a single unpaged download.
	DefaultHitsThreshold = 100_000

	// DefaultPageSizeV2 is the count requested per page from 2.0.0 servers.
	DefaultPageSizeV2 = 1000

	// DefaultPageSizeV1 is the maxFeatures requested per page from 1.x servers.
	DefaultPageSizeV1 = 500

	// DefaultRequestTimeout bounds a single HTTP request.
	DefaultRequestTimeout = 2 * time.Minute

	// DefaultRateLimit is the request rate per fetcher, per second.
	DefaultRateLimit = 2.0

	// DefaultUserAgent identifies the client to WFS servers.
	DefaultUserAgent = "wfsget/1.0"

	// DefaultDataDir holds per-run artifact directories.
	DefaultDataDir = "data_downloads"

	// DefaultMergedName is the merged document file name.
	DefaultMergedName = "merged.xml"

	// DefaultParallelism bounds concurrent acquisitions of different sources.
	DefaultParallelism = 4
)

// EngineSettings are the tunables of the acquisition engine.
type EngineSettings struct {
	// HitsThreshold: counts below this take the fast path.
	HitsThreshold int

	// PageSizeV2 applies to 2.0.0 servers.
	PageSizeV2 int

	// PageSizeV1 applies to 1.0.0 and 1.1.0 servers.
	PageSizeV1 int

	// MaxPages caps the paging loop. Zero means unlimited.
	MaxPages int

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration

	// RateLimit is requests per second per fetcher. Zero disables limiting.
	RateLimit float64

	// UserAgent is sent with every request.
	UserAgent string

	// Token is an optional bearer token for protected services.
	Token string

	// DataDir is the parent of per-run artifact directories.
	DataDir string

	// Parallelism bounds concurrent acquisitions.
	Parallelism int
}

// DefaultEngineSettings returns the built-in defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		HitsThreshold:  DefaultHitsThreshold,
		PageSizeV2:     DefaultPageSizeV2,
		PageSizeV1:     DefaultPageSizeV1,
		RequestTimeout: DefaultRequestTimeout,
		RateLimit:      DefaultRateLimit,
		UserAgent:      DefaultUserAgent,
		DataDir:        DefaultDataDir,
		Parallelism:    DefaultParallelism,
	}
}

// PageSize returns the page size for a negotiated version.
func (s EngineSettings) PageSize(v Version) int {
	if v == Version200 {
		return s.PageSizeV2
	}
	return s.PageSizeV1
}

// Validate checks the settings are usable.
func (s EngineSettings) Validate() error {
	switch {
	case s.HitsThreshold <= 0:
		return fmt.Errorf("%w: hits threshold must be positive", ErrInvalidQuery)
	case s.PageSizeV2 <= 0 || s.PageSizeV1 <= 0:
		return fmt.Errorf("%w: page sizes must be positive", ErrInvalidQuery)
	case s.MaxPages < 0:
		return fmt.Errorf("%w: max pages cannot be negative", ErrInvalidQuery)
	case s.RateLimit < 0:
		return fmt.Errorf("%w: rate limit cannot be negative", ErrInvalidQuery)
	}
	return nil
}
