package latest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/depscout/depscout/domain"
)

const npmRegistryBaseURL = "https://registry.npmjs.org"

// NPMSource resolves package versions through the npm registry.
type NPMSource struct {
	httpClient *http.Client
	baseURL    string
}

// NewNPMSource creates a source against the given registry (empty selects
// registry.npmjs.org).
func NewNPMSource(baseURL string) *NPMSource {
	if baseURL == "" {
		baseURL = npmRegistryBaseURL
	}
	return &NPMSource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (s *NPMSource) Name() string { return "npm" }

// LatestVersion returns the package's "latest" dist-tag.
func (s *NPMSource) LatestVersion(ctx context.Context, library string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(library))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	response, err := s.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	var payload struct {
		DistTags struct {
			Latest string `json:"latest"`
		} `json:"dist-tags"`
	}
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.DistTags.Latest == "" {
		return "", fmt.Errorf("no latest tag for %s", library)
	}
	return payload.DistTags.Latest, nil
}

var _ domain.Source = (*NPMSource)(nil)
