// Package fetcher acquires repositories for scanning: shallow clones over
// HTTPS, pull-based refresh of existing clones, change detection through the
// GitHub API and pruning of everything a scan does not need.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"
)

// Repository identifies one GitHub repository to acquire.
type Repository struct {
	Owner string
	Name  string
	URL   string
	Token string
}

// FullName returns the "owner/name" form.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseGitHubURL parses "https://[token@]github.com/owner/repo[.git]" into a
// Repository. A token embedded in the URL wins over any configured one.
func ParseGitHubURL(raw string) (Repository, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Repository{}, fmt.Errorf("invalid repository URL %q: %w", raw, err)
	}
	if parsed.Host != "github.com" {
		return Repository{}, fmt.Errorf("unsupported host %q, only github.com is supported", parsed.Host)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return Repository{}, fmt.Errorf("repository URL %q is missing owner/name", raw)
	}

	repo := Repository{
		Owner: segments[0],
		Name:  strings.TrimSuffix(segments[1], ".git"),
	}
	if parsed.User != nil {
		repo.Token = parsed.User.Username()
	}
	repo.URL = fmt.Sprintf("https://github.com/%s/%s.git", repo.Owner, repo.Name)
	return repo, nil
}

// HashCache remembers the latest commit seen per repository within one run,
// letting multi-repo runs skip repositories that have not changed. It is
// created per run and passed in explicitly.
type HashCache struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewHashCache creates an empty cache.
func NewHashCache() *HashCache {
	return &HashCache{hashes: make(map[string]string)}
}

// Seen reports whether the repository was already recorded with this commit,
// and records it either way.
func (c *HashCache) Seen(repo, commit string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous, found := c.hashes[repo]
	c.hashes[repo] = commit
	return found && previous == commit
}

// Fetcher clones and refreshes repositories under a working directory.
type Fetcher struct {
	github  *github.Client
	token   string
	baseDir string
}

// NewFetcher creates a fetcher that clones under baseDir, authenticating
// with token when one is set.
func NewFetcher(token, baseDir string) *Fetcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Fetcher{
		github:  client,
		token:   token,
		baseDir: baseDir,
	}
}

// LatestCommit returns the SHA of the newest commit on the default branch.
func (f *Fetcher) LatestCommit(ctx context.Context, repo Repository) (string, error) {
	commits, _, err := f.github.Repositories.ListCommits(ctx, repo.Owner, repo.Name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list commits for %s: %w", repo.FullName(), err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("repository %s has no commits", repo.FullName())
	}
	return commits[0].GetSHA(), nil
}

// Fetch makes a working clone of the repository available under the base
// directory and returns its path. A healthy existing clone is pulled; a
// broken leftover is removed and cloned fresh.
func (f *Fetcher) Fetch(ctx context.Context, repo Repository) (string, error) {
	dir := filepath.Join(f.baseDir, repo.Name)

	if _, err := os.Stat(dir); err == nil {
		if pullErr := f.pull(ctx, dir); pullErr == nil {
			return dir, nil
		}
		logger.Warnf("Existing clone at %s is unusable, recloning", dir)
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			return "", fmt.Errorf("failed to remove stale clone %s: %w", dir, removeErr)
		}
	}

	logger.Infof("Cloning %s...", repo.FullName())
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   repo.URL,
		Depth: 1,
		Auth:  f.auth(repo),
	})
	if err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", repo.FullName(), err)
	}
	return dir, nil
}

func (f *Fetcher) pull(ctx context.Context, dir string) error {
	existing, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}

	worktree, err := existing.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree of %s: %w", dir, err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{Auth: f.auth(Repository{Token: f.token})})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", dir, err)
	}
	return nil
}

func (f *Fetcher) auth(repo Repository) *githttp.BasicAuth {
	token := repo.Token
	if token == "" {
		token = f.token
	}
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "git", Password: token}
}

// Prune deletes everything under root except the given manifest files and
// the .git directory, then sweeps directories left empty.
func Prune(root string, keep []string) error {
	keepSet := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		keepSet[filepath.Clean(path)] = struct{}{}
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if _, keepIt := keepSet[filepath.Clean(path)]; keepIt {
			return nil
		}
		return os.Remove(path)
	})
	if err != nil {
		return fmt.Errorf("failed to prune %s: %w", root, err)
	}

	// Deepest first so parents empty out as children disappear.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, readErr := os.ReadDir(dir)
		if readErr == nil && len(entries) == 0 {
			if removeErr := os.Remove(dir); removeErr != nil {
				logger.Debugf("Could not remove empty directory %s: %v", dir, removeErr)
			}
		}
	}
	return nil
}
