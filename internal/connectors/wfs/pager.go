package wfs

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/logger"
)

// PageArtifactName returns the file name of page i: dataset0.xml, dataset1.xml, ...
func PageArtifactName(i int) string {
	return fmt.Sprintf("dataset%d.xml", i)
}

// Pager walks a paged result with startIndex until the server stops sending
// a next reference.
type Pager struct {
	fetcher  driven.Fetcher
	fs       driven.FileSystem
	maxPages int
}

// NewPager creates a pager. maxPages of zero means unlimited.
func NewPager(fetcher driven.Fetcher, fs driven.FileSystem, maxPages int) *Pager {
	return &Pager{fetcher: fetcher, fs: fs, maxPages: maxPages}
}

// Run fetches every page of rq and writes each to OutputDir/dataset{N}.xml.
//
// The returned session always lists the artifacts written so far, also on
// error, so callers can clean them up. A non-200 or empty response ends the
// loop quietly unless it is the first page, which is domain.ErrFatalNetwork.
func (p *Pager) Run(ctx context.Context, rq *domain.ResolvedQuery, pageSize int) (*domain.PagingSession, error) {
	log := logger.For(rq.Spec.SourceID)

	session, err := domain.NewPagingSession(pageSize)
	if err != nil {
		return nil, domain.NewStageError(domain.StagePaging, rq.BaseURL, domain.ErrInvalidQuery, err)
	}
	if err := p.fs.MkdirAll(rq.Spec.OutputDir); err != nil {
		return session, domain.NewStageError(domain.StagePaging, rq.BaseURL, domain.ErrStorage, err)
	}

	for session.Continue {
		if p.maxPages > 0 && session.PagesFetched() >= p.maxPages {
			return session, domain.NewStageError(domain.StagePaging, rq.BaseURL, domain.ErrPagingLimitExceeded,
				fmt.Errorf("server still has more after %d pages", session.PagesFetched()))
		}

		pageURL := PageURL(rq.BaseURL, rq.Params.PageSize, session.PageSize, session.StartIndex)
		log.Info("fetching page %d (startIndex=%d)", session.PageIndex, session.StartIndex)
		log.Debug("page URL: %s", pageURL)

		resp, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrFatalNetwork, err)
		}
		if !resp.OK() || len(bytes.TrimSpace(resp.Body)) == 0 {
			reason := fmt.Errorf("HTTP %d", resp.StatusCode)
			if resp.OK() {
				reason = fmt.Errorf("empty response body")
			}
			if session.PagesFetched() == 0 {
				return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrFatalNetwork, reason)
			}
			log.Warn("stopping after %d pages: %v", session.PagesFetched(), reason)
			break
		}

		root, err := peekRoot(resp.Body)
		if err != nil {
			return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrPagingProtocol, err)
		}
		if !isFeatureCollection(root) {
			return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrPagingProtocol,
				describeNonCollection(resp.Body, root))
		}

		session.Continue = strings.TrimSpace(root.Attr("next")) != ""
		if !session.Continue {
			if matched, returned, short := truncated(root, session.StartIndex); short {
				return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrPagingProtocol,
					fmt.Errorf("last page ends at %d of %d matched features", session.StartIndex+returned, matched))
			}
		}

		artifact := filepath.Join(rq.Spec.OutputDir, PageArtifactName(session.PageIndex))
		if err := p.fs.WriteFile(artifact, resp.Body); err != nil {
			return session, domain.NewStageError(domain.StagePaging, pageURL, domain.ErrStorage, err)
		}
		session.Record(artifact)
	}

	log.Info("fetched %d pages", session.PagesFetched())
	return session, nil
}
