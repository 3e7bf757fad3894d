package wfs

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/logger"
)

// SingleArtifactName is the file written by single-request strategies.
const SingleArtifactName = "dataset.xml"

// HitsOutcome is the result of a resultType=hits query.
type HitsOutcome struct {
	// Count is the server-reported number of matching features.
	Count int

	// Known is false when the server answered with a non-numeric count.
	Known bool
}

// FastPath downloads small datasets in one request after a hits count.
type FastPath struct {
	fetcher   driven.Fetcher
	fs        driven.FileSystem
	threshold int
}

// NewFastPath creates a fast path that applies to counts below threshold.
func NewFastPath(fetcher driven.Fetcher, fs driven.FileSystem, threshold int) *FastPath {
	return &FastPath{fetcher: fetcher, fs: fs, threshold: threshold}
}

// Hits asks the server how many features the query matches.
// numberMatched is preferred, numberOfFeatures is the 1.x fallback, and a
// response carrying neither counts as zero.
func (f *FastPath) Hits(ctx context.Context, rq *domain.ResolvedQuery) (HitsOutcome, error) {
	hitsURL := HitsURL(rq.BaseURL)
	logger.For(rq.Spec.SourceID).Debug("hits URL: %s", hitsURL)

	resp, err := f.fetcher.Fetch(ctx, hitsURL)
	if err != nil {
		return HitsOutcome{}, domain.NewStageError(domain.StageFastPath, hitsURL, domain.ErrFastPathFailed, err)
	}
	if !resp.OK() {
		return HitsOutcome{}, domain.NewStageError(domain.StageFastPath, hitsURL, domain.ErrFastPathFailed,
			fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	root, err := peekRoot(resp.Body)
	if err != nil {
		return HitsOutcome{}, domain.NewStageError(domain.StageFastPath, hitsURL, domain.ErrFastPathFailed, err)
	}
	if !isFeatureCollection(root) {
		return HitsOutcome{}, domain.NewStageError(domain.StageFastPath, hitsURL, domain.ErrFastPathFailed,
			describeNonCollection(resp.Body, root))
	}

	for _, name := range []string{"numberMatched", "numberOfFeatures"} {
		if !root.HasAttr(name) {
			continue
		}
		raw := strings.TrimSpace(root.Attr(name))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return HitsOutcome{}, nil
		}
		return HitsOutcome{Count: n, Known: true}, nil
	}
	return HitsOutcome{Count: 0, Known: true}, nil
}

// Applies reports whether a hits outcome qualifies for a single download.
func (f *FastPath) Applies(h HitsOutcome) bool {
	return h.Known && h.Count < f.threshold
}

// Download fetches the whole result with one GetFeature request and writes
// it to OutputDir/dataset.xml. Any failure is domain.ErrFastPathFailed;
// paging is never attempted after a failed fast path.
func (f *FastPath) Download(ctx context.Context, rq *domain.ResolvedQuery) (string, error) {
	return singleShot(ctx, f.fetcher, f.fs, rq, domain.StageFastPath)
}

// Direct fetches the whole result with one GetFeature request when the server
// supports neither hits nor paging. A response whose own counts show it was
// cut short fails with domain.ErrPagingUnsupported.
func Direct(ctx context.Context, fetcher driven.Fetcher, fs driven.FileSystem, rq *domain.ResolvedQuery) (string, error) {
	return singleShot(ctx, fetcher, fs, rq, domain.StageDirect)
}

// singleShotKinds returns the error kinds for network, protocol and
// truncation failures of a single-request stage.
func singleShotKinds(stage domain.Stage) (network, protocol, short error) {
	if stage == domain.StageFastPath {
		return domain.ErrFastPathFailed, domain.ErrFastPathFailed, domain.ErrFastPathFailed
	}
	return domain.ErrFatalNetwork, domain.ErrPagingProtocol, domain.ErrPagingUnsupported
}

func singleShot(ctx context.Context, fetcher driven.Fetcher, fs driven.FileSystem, rq *domain.ResolvedQuery,
	stage domain.Stage) (string, error) {
	log := logger.For(rq.Spec.SourceID)
	log.Info("downloading in a single request")
	networkKind, protocolKind, shortKind := singleShotKinds(stage)

	resp, err := fetcher.Fetch(ctx, rq.BaseURL)
	if err != nil {
		return "", domain.NewStageError(stage, rq.BaseURL, networkKind, err)
	}
	if !resp.OK() {
		return "", domain.NewStageError(stage, rq.BaseURL, networkKind, fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return "", domain.NewStageError(stage, rq.BaseURL, networkKind, fmt.Errorf("empty response body"))
	}

	root, err := peekRoot(resp.Body)
	if err != nil {
		return "", domain.NewStageError(stage, rq.BaseURL, protocolKind, err)
	}
	if !isFeatureCollection(root) {
		return "", domain.NewStageError(stage, rq.BaseURL, protocolKind, describeNonCollection(resp.Body, root))
	}
	if matched, returned, short := truncated(root, 0); short {
		return "", domain.NewStageError(stage, rq.BaseURL, shortKind,
			fmt.Errorf("server matched %d features but returned %d", matched, returned))
	}

	if err := fs.MkdirAll(rq.Spec.OutputDir); err != nil {
		return "", domain.NewStageError(stage, rq.BaseURL, domain.ErrStorage, err)
	}
	artifact := filepath.Join(rq.Spec.OutputDir, SingleArtifactName)
	if err := fs.WriteFile(artifact, resp.Body); err != nil {
		return "", domain.NewStageError(stage, rq.BaseURL, domain.ErrStorage, err)
	}
	log.Info("saved %s (%d bytes)", artifact, len(resp.Body))
	return artifact, nil
}
