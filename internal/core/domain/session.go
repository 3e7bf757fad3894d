package domain

import "fmt"

// PagingSession is the mutable state of one paging run.
// A fresh session is created per run and never shared.
type PagingSession struct {
	// StartIndex is the offset requested by the next page.
	StartIndex int

	// PageIndex numbers the next artifact.
	PageIndex int

	// PageSize is the number of features requested per page.
	PageSize int

	// Artifacts lists written page files in fetch order. Append-only.
	Artifacts []string

	// Continue is false once the server stops sending a next token.
	Continue bool
}

// NewPagingSession starts a session at offset zero.
func NewPagingSession(pageSize int) (*PagingSession, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidQuery, pageSize)
	}
	return &PagingSession{
		PageSize: pageSize,
		Continue: true,
	}, nil
}

// Record appends an artifact and advances to the next page.
func (s *PagingSession) Record(artifact string) {
	s.Artifacts = append(s.Artifacts, artifact)
	s.PageIndex++
	s.StartIndex += s.PageSize
}

// PagesFetched returns the number of pages persisted so far.
func (s *PagingSession) PagesFetched() int {
	return len(s.Artifacts)
}
