// Package osv implements the vulnerability-database client against the
// OSV.dev API: batched discovery queries, single-version queries, and
// per-advisory detail fetches.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/depscout/depscout/domain"
)

const (
	// DefaultBaseURL points at the public OSV.dev API.
	DefaultBaseURL = "https://api.osv.dev"

	// MaxQueriesPerBatch is the service's batch-query limit.
	MaxQueriesPerBatch = 100

	batchTimeout  = 60 * time.Second
	queryTimeout  = 15 * time.Second
	detailTimeout = 10 * time.Second
)

// Client talks to the OSV HTTP API. Calls run through a circuit breaker so a
// dead service fails fast instead of stalling every worker; every failure
// degrades to an empty result upstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates an OSV client against the given base URL (empty selects
// the public service).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	settings := gobreaker.Settings{
		Name:        "osv-client",
		MaxRequests: 5,
		Interval:    3 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("%s circuit breaker changed from %v to %v", name, from, to)
		},
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// QueryBatch submits one chunk of queries (at most MaxQueriesPerBatch) and
// returns the matching advisory ids per query, positionally.
func (c *Client) QueryBatch(ctx context.Context, queries []domain.Query) ([][]string, error) {
	request := batchRequest{Queries: make([]queryRequest, 0, len(queries))}
	for _, q := range queries {
		request.Queries = append(request.Queries, newQueryRequest(q))
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	var response batchResponse
	if err := c.post(ctx, "/v1/querybatch", request, &response); err != nil {
		return nil, fmt.Errorf("batch query failed: %w", err)
	}

	ids := make([][]string, len(queries))
	for i, result := range response.Results {
		if i >= len(queries) {
			break
		}
		for _, vuln := range result.Vulns {
			ids[i] = append(ids[i], vuln.ID)
		}
	}
	return ids, nil
}

// Query returns the advisory ids matching a single (name, version, ecosystem).
func (c *Client) Query(ctx context.Context, query domain.Query) ([]string, error) {
	if query.Name == "" || query.Version == "" || query.Ecosystem == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var response queryResponse
	if err := c.post(ctx, "/v1/query", newQueryRequest(query), &response); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	ids := make([]string, 0, len(response.Vulns))
	for _, vuln := range response.Vulns {
		ids = append(ids, vuln.ID)
	}
	return ids, nil
}

// Vulnerability fetches the full advisory record. A failed fetch yields a
// record carrying only the id and a fetch error, never an error return —
// detail failures must not abort a scan.
func (c *Client) Vulnerability(ctx context.Context, id string) domain.Vulnerability {
	ctx, cancel := context.WithTimeout(ctx, detailTimeout)
	defer cancel()

	var record vulnRecord
	if err := c.get(ctx, "/v1/vulns/"+id, &record); err != nil {
		logger.Debugf("Failed to fetch details for %s: %v", id, err)
		return domain.Vulnerability{ID: id, FetchError: "Failed to fetch details"}
	}

	return record.toDomain()
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	return c.do(request, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		response, doErr := c.httpClient.Do(request)
		if doErr != nil {
			return nil, fmt.Errorf("request failed: %w", doErr)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			io.Copy(io.Discard, response.Body) //nolint:errcheck // drain for connection reuse
			return nil, fmt.Errorf("unexpected status code: %d", response.StatusCode)
		}

		if decodeErr := json.NewDecoder(response.Body).Decode(out); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
		}
		return nil, nil
	})
	return err
}
