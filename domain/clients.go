package domain

import "context"

// Database abstracts the vulnerability database the pipeline reconciles
// against. All methods degrade rather than fail the run: a broken batch
// yields empty id lists and a broken detail fetch yields a record whose
// FetchError is set.
type Database interface {
	// QueryBatch submits up to the service's batch limit of queries and
	// returns, positionally, the advisory ids matching each query.
	QueryBatch(ctx context.Context, queries []Query) ([][]string, error)

	// Query returns the advisory ids matching a single query.
	Query(ctx context.Context, query Query) ([]string, error)

	// Vulnerability fetches the full record for one advisory id.
	Vulnerability(ctx context.Context, id string) Vulnerability
}

// Source resolves the newest published version of a library from one
// ecosystem's public package registry.
type Source interface {
	// Name returns the ecosystem identifier this source serves.
	Name() string

	// LatestVersion returns the newest published version, or an error when
	// the registry cannot answer (unknown package, network failure).
	LatestVersion(ctx context.Context, library string) (string, error)
}
