package latest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/depscout/depscout/domain"
)

const goProxyBaseURL = "https://proxy.golang.org"

// GoProxySource resolves module versions through the public Go module proxy.
type GoProxySource struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoProxySource creates a source against the given proxy (empty selects
// proxy.golang.org).
func NewGoProxySource(baseURL string) *GoProxySource {
	if baseURL == "" {
		baseURL = goProxyBaseURL
	}
	return &GoProxySource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (s *GoProxySource) Name() string { return "Go" }

// LatestVersion returns the proxy's @latest version without the "v" prefix.
func (s *GoProxySource) LatestVersion(ctx context.Context, library string) (string, error) {
	escaped, err := module.EscapePath(library)
	if err != nil {
		return "", fmt.Errorf("invalid module path %q: %w", library, err)
	}

	url := fmt.Sprintf("%s/%s/@latest", s.baseURL, escaped)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		Version string `json:"Version"`
	}
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if !semver.IsValid(payload.Version) {
		return "", fmt.Errorf("proxy returned invalid version %q for %s", payload.Version, library)
	}
	return strings.TrimPrefix(payload.Version, "v"), nil
}

var _ domain.Source = (*GoProxySource)(nil)
