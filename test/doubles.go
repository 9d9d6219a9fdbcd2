// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"sync"

	"github.com/depscout/depscout/domain"
)

// ---------------------------------------------------------------------------
// StubDatabase
// ---------------------------------------------------------------------------

// StubDatabase implements domain.Database as a configurable stub backed by
// canned responses. Configure the maps for the lookups your test exercises,
// then inspect the call-tracking fields to verify behavior.
type StubDatabase struct {
	mu sync.Mutex

	// --- QueryBatch / Query ---
	// IDsByQuery maps each query to the advisory ids it matches.
	IDsByQuery map[domain.Query][]string
	BatchErr   error
	QueryErr   error
	// spy: every query received, batch or single
	Queries       []domain.Query
	SingleQueries []domain.Query

	// --- Vulnerability ---
	Records map[string]domain.Vulnerability
	// spy: ids fetched
	FetchedIDs []string
}

var _ domain.Database = (*StubDatabase)(nil)

func (d *StubDatabase) QueryBatch(_ context.Context, queries []domain.Query) ([][]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Queries = append(d.Queries, queries...)

	if d.BatchErr != nil {
		return nil, d.BatchErr
	}
	results := make([][]string, len(queries))
	for i, query := range queries {
		results[i] = d.IDsByQuery[query]
	}
	return results, nil
}

func (d *StubDatabase) Query(_ context.Context, query domain.Query) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SingleQueries = append(d.SingleQueries, query)

	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	return d.IDsByQuery[query], nil
}

func (d *StubDatabase) Vulnerability(_ context.Context, id string) domain.Vulnerability {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.FetchedIDs = append(d.FetchedIDs, id)

	if record, found := d.Records[id]; found {
		return record
	}
	return domain.Vulnerability{ID: id, FetchError: "Failed to fetch details"}
}

// ---------------------------------------------------------------------------
// StubSource
// ---------------------------------------------------------------------------

// StubSource implements domain.Source with canned latest versions per library.
type StubSource struct {
	mu sync.Mutex

	Ecosystem string
	Versions  map[string]string
	Err       error
	// spy: libraries resolved
	Resolved []string
}

var _ domain.Source = (*StubSource)(nil)

func (s *StubSource) Name() string { return s.Ecosystem }

func (s *StubSource) LatestVersion(_ context.Context, library string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resolved = append(s.Resolved, library)

	if s.Err != nil {
		return "", s.Err
	}
	return s.Versions[library], nil
}
