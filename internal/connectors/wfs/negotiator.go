package wfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/logger"
)

// Negotiator discovers what a WFS server supports and resolves a QuerySpec
// into a version-specific base URL.
type Negotiator struct {
	fetcher driven.Fetcher
}

// NewNegotiator creates a negotiator over the given fetcher.
func NewNegotiator(fetcher driven.Fetcher) *Negotiator {
	return &Negotiator{fetcher: fetcher}
}

// Negotiate fetches GetCapabilities and picks a version.
//
// A URL pinned to version=2.0.0 keeps that version even when the server's
// version declaration is unusable; any other URL has its version removed
// before asking for capabilities so the server reports what it really speaks.
// Failures are *domain.StageError values at domain.StageNegotiate.
func (n *Negotiator) Negotiate(ctx context.Context, spec domain.QuerySpec) (*domain.ResolvedQuery, error) {
	log := logger.For(spec.SourceID)

	pinned := DeclaredVersion(spec.URL) == domain.Version200.String()
	capsURL, err := CapabilitiesURL(spec.URL, !pinned)
	if err != nil {
		return nil, domain.NewStageError(domain.StageNegotiate, spec.URL, domain.ErrInvalidQuery, err)
	}

	log.Info("fetching capabilities")
	log.Debug("capabilities URL: %s", capsURL)
	resp, err := n.fetcher.Fetch(ctx, capsURL)
	if err != nil {
		return nil, domain.NewStageError(domain.StageNegotiate, capsURL, domain.ErrCapabilitiesUnreachable, err)
	}
	if !resp.OK() {
		return nil, domain.NewStageError(domain.StageNegotiate, capsURL, domain.ErrCapabilitiesUnreachable,
			fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	doc, err := decodeCapabilities(resp.Body)
	if err != nil {
		return nil, domain.NewStageError(domain.StageNegotiate, capsURL, kindOf(err), err)
	}
	model, verr := doc.model()

	var version domain.Version
	if pinned {
		version = domain.Version200
		if verr != nil {
			log.Warn("ignoring capabilities version declaration for pinned 2.0.0 query: %v", verr)
		}
		if !model.Supports(version) {
			model.SupportedVersions = append([]string{version.String()}, model.SupportedVersions...)
		}
	} else {
		if verr != nil {
			return nil, domain.NewStageError(domain.StageNegotiate, capsURL, kindOf(verr), verr)
		}
		version, _ = model.HighestKnown()
	}

	base, err := FeatureURL(spec.URL, version)
	if err != nil {
		return nil, domain.NewStageError(domain.StageNegotiate, spec.URL, domain.ErrInvalidQuery, err)
	}

	log.Info("negotiated WFS %s (paging=%t, hits=%t)", version, model.SupportsPaging, model.SupportsHitsCount)
	return &domain.ResolvedQuery{
		Spec:         spec,
		Version:      version,
		Params:       version.ParamNames(),
		BaseURL:      base,
		Capabilities: model,
	}, nil
}

// kindOf returns the domain sentinel err wraps, for StageError.Kind.
func kindOf(err error) error {
	for _, kind := range []error{
		domain.ErrInvalidQuery,
		domain.ErrCapabilitiesUnreachable,
		domain.ErrCapabilitiesMalformed,
		domain.ErrVersionUndeclared,
		domain.ErrFastPathFailed,
		domain.ErrFatalNetwork,
		domain.ErrPagingProtocol,
		domain.ErrPagingLimitExceeded,
		domain.ErrPagingUnsupported,
		domain.ErrMergeFailed,
		domain.ErrStorage,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
