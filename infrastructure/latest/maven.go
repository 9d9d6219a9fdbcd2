package latest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/depscout/depscout/domain"
)

const mavenSearchBaseURL = "https://search.maven.org"

// MavenSource resolves artifact versions through Maven Central's search API.
type MavenSource struct {
	httpClient *http.Client
	baseURL    string
}

// NewMavenSource creates a source against the given search endpoint (empty
// selects search.maven.org).
func NewMavenSource(baseURL string) *MavenSource {
	if baseURL == "" {
		baseURL = mavenSearchBaseURL
	}
	return &MavenSource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (s *MavenSource) Name() string { return "Maven" }

// LatestVersion resolves "group:artifact" to the newest version indexed by
// Maven Central.
func (s *MavenSource) LatestVersion(ctx context.Context, library string) (string, error) {
	group, artifact, found := strings.Cut(library, ":")
	if !found || group == "" || artifact == "" {
		return "", fmt.Errorf("invalid maven coordinates %q, want group:artifact", library)
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf(`g:"%s" AND a:"%s"`, group, artifact))
	query.Set("core", "gav")
	query.Set("rows", "1")
	query.Set("wt", "json")

	endpoint := fmt.Sprintf("%s/solrsearch/select?%s", s.baseURL, query.Encode())
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
		Response struct {
			Docs []struct {
				Version string `json:"v"`
			} `json:"docs"`
		} `json:"response"`
	}
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(payload.Response.Docs) == 0 || payload.Response.Docs[0].Version == "" {
		return "", fmt.Errorf("no versions indexed for %s", library)
	}
	return payload.Response.Docs[0].Version, nil
}

var _ domain.Source = (*MavenSource)(nil)
