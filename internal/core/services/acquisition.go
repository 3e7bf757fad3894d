package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/opentrees/wfsget/internal/connectors/wfs"
	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/core/ports/driving"
	"github.com/opentrees/wfsget/internal/logger"
)

// Ensure AcquisitionService implements the interface.
var _ driving.Acquirer = (*AcquisitionService)(nil)

// AcquisitionService runs negotiate, download, merge and cleanup for a query.
type AcquisitionService struct {
	fetcher  driven.Fetcher
	fs       driven.FileSystem
	runs     driven.RunStore
	settings domain.EngineSettings

	newID func() string
	now   func() time.Time
}

// NewAcquisitionService creates a new acquisition service.
// runs is optional - if nil, or a nil pointer, no history is recorded.
func NewAcquisitionService(
	fetcher driven.Fetcher,
	files driven.FileSystem,
	runs driven.RunStore,
	settings domain.EngineSettings,
) *AcquisitionService {
	if isNilStore(runs) {
		runs = nil
	}
	return &AcquisitionService{
		fetcher:  fetcher,
		fs:       files,
		runs:     runs,
		settings: settings,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Acquire downloads the complete result set of spec and writes the merged
// document to spec.MergedPath.
//
// Small results (by hits count) are fetched in one request, larger ones are
// paged. Page artifacts are removed once merged; on failure the artifacts
// written so far are removed too.
func (s *AcquisitionService) Acquire(ctx context.Context, spec domain.QuerySpec) (*domain.AcquisitionResult, error) {
	if spec.URL == "" || spec.OutputDir == "" || spec.MergedPath == "" {
		return nil, fmt.Errorf("%w: URL, output directory and merged path are required", domain.ErrInvalidQuery)
	}

	record := domain.AcquisitionRecord{
		ID:        s.newID(),
		SourceID:  spec.SourceID,
		URL:       spec.URL,
		Status:    domain.RunRunning,
		StartedAt: s.now(),
	}
	s.saveRun(ctx, record)

	result, err := s.acquire(ctx, spec, &record)
	s.removeRunDir(spec)

	record.FinishedAt = s.now()
	if err != nil {
		record.Status = domain.RunFailed
		record.Error = err.Error()
	} else {
		record.Status = domain.RunSucceeded
		record.MergedPath = result.MergedPath
		record.Pages = result.Pages
		result.RunID = record.ID
	}
	s.saveRun(context.WithoutCancel(ctx), record)

	return result, err
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *AcquisitionService) acquire(ctx context.Context, spec domain.QuerySpec, record *domain.AcquisitionRecord) (*domain.AcquisitionResult, error) {
	log := logger.For(spec.SourceID)

	// 1. Negotiate version and capabilities
	rq, err := wfs.NewNegotiator(s.fetcher).Negotiate(ctx, spec)
	if err != nil {
		log.Error("%v", err)
		return nil, err
	}
	record.Version = rq.Version
	caps := rq.Capabilities

	// 2. Fast path when the server can count and the count is small
	var (
		artifacts []string
		strategy  domain.Strategy
	)
	if caps.SupportsHitsCount {
		fp := wfs.NewFastPath(s.fetcher, s.fs, s.settings.HitsThreshold)
		hits, err := fp.Hits(ctx, rq)
		if err != nil {
			log.Error("%v", err)
			return nil, err
		}

		switch {
		case fp.Applies(hits):
			log.Info("%d features, below %d: single request", hits.Count, s.settings.HitsThreshold)
			artifact, err := fp.Download(ctx, rq)
			if err != nil {
				log.Error("%v", err)
				return nil, err
			}
			artifacts, strategy = []string{artifact}, domain.StrategyFastPath
		case hits.Known && !caps.SupportsPaging:
			err := domain.NewStageError(domain.StagePaging, rq.BaseURL, domain.ErrPagingUnsupported,
				fmt.Errorf("%d features exceed the single-request threshold of %d", hits.Count, s.settings.HitsThreshold))
			log.Error("%v", err)
			return nil, err
		case hits.Known:
			log.Info("%d features, at or above %d: paging", hits.Count, s.settings.HitsThreshold)
		default:
			log.Info("server did not report a count")
		}
	}

	// 3. Paging, or one plain request when the server cannot page
	if strategy == "" {
		if caps.SupportsPaging {
			pager := wfs.NewPager(s.fetcher, s.fs, s.settings.MaxPages)
			session, err := pager.Run(ctx, rq, s.settings.PageSize(rq.Version))
			if session != nil {
				artifacts = session.Artifacts
			}
			if err != nil {
				log.Error("%v", err)
				s.discard(spec.SourceID, artifacts)
				return nil, err
			}
			strategy = domain.StrategyPaged
		} else {
			log.Warn("server supports neither hits nor paging, fetching in one request")
			artifact, err := wfs.Direct(ctx, s.fetcher, s.fs, rq)
			if err != nil {
				log.Error("%v", err)
				return nil, err
			}
			artifacts, strategy = []string{artifact}, domain.StrategyDirect
		}
	}
	record.Strategy = strategy

	// 4. Merge, then remove the page artifacts
	merger := wfs.NewMerger(s.fs)
	if err := merger.Merge(artifacts, spec.MergedPath); err != nil {
		log.Error("%v", err)
		s.discard(spec.SourceID, artifacts)
		return nil, err
	}
	warnings := merger.Cleanup(spec.SourceID, artifacts)

	log.Info("merged %d artifacts into %s", len(artifacts), spec.MergedPath)
	return &domain.AcquisitionResult{
		SourceID:   spec.SourceID,
		MergedPath: spec.MergedPath,
		Version:    rq.Version,
		Strategy:   strategy,
		Pages:      len(artifacts),
		Warnings:   warnings,
	}, nil
}

// AcquireAll runs each spec concurrently, bounded by the configured parallelism.
// Failures are collected per spec; they never cancel the other acquisitions.
func (s *AcquisitionService) AcquireAll(ctx context.Context, specs []domain.QuerySpec) []driving.AcquireOutcome {
	outcomes := make([]driving.AcquireOutcome, len(specs))

	var g errgroup.Group
	g.SetLimit(max(1, s.settings.Parallelism))
	for i, spec := range specs {
		g.Go(func() error {
			result, err := s.Acquire(ctx, spec)
			outcomes[i] = driving.AcquireOutcome{Spec: spec, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// History lists recorded acquisitions, most recent first.
func (s *AcquisitionService) History(ctx context.Context, limit int) ([]domain.AcquisitionRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// discard removes partial artifacts after a failed acquisition.
func (s *AcquisitionService) discard(sourceID string, artifacts []string) {
	if len(artifacts) == 0 {
		return
	}
	_ = wfs.NewMerger(s.fs).Cleanup(sourceID, artifacts)
}

// removeRunDir removes the per-run output directory once it is empty. It is
// left in place when it still holds files, such as the merged document.
func (s *AcquisitionService) removeRunDir(spec domain.QuerySpec) {
	err := s.fs.Remove(spec.OutputDir)
	switch {
	case err == nil:
		logger.For(spec.SourceID).Debug("removed %s", spec.OutputDir)
	case !errors.Is(err, fs.ErrNotExist):
		logger.For(spec.SourceID).Debug("kept %s: %v", spec.OutputDir, err)
	}
}

// isNilStore catches a nil pointer wrapped in a non-nil interface.
func isNilStore(runs driven.RunStore) bool {
	if runs == nil {
		return true
	}
	v := reflect.ValueOf(runs)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (s *AcquisitionService) saveRun(ctx context.Context, record domain.AcquisitionRecord) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, record); err != nil {
		logger.For(record.SourceID).Warn("could not record run %s: %v", record.ID, err)
	}
}
