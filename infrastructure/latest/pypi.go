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

const pypiBaseURL = "https://pypi.org"

// PyPISource resolves package versions through the PyPI JSON API.
type PyPISource struct {
	httpClient *http.Client
	baseURL    string
}

// NewPyPISource creates a source against the given index (empty selects
// pypi.org).
func NewPyPISource(baseURL string) *PyPISource {
	if baseURL == "" {
		baseURL = pypiBaseURL
	}
	return &PyPISource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (s *PyPISource) Name() string { return "PyPI" }

// LatestVersion returns the package's current release version.
func (s *PyPISource) LatestVersion(ctx context.Context, library string) (string, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", s.baseURL, url.PathEscape(library))
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
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
	}
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.Info.Version == "" {
		return "", fmt.Errorf("no release found for %s", library)
	}
	return payload.Info.Version, nil
}

var _ domain.Source = (*PyPISource)(nil)
