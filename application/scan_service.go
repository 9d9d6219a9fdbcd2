package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/depscout/depscout/domain"
	fetcherPkg "github.com/depscout/depscout/infrastructure/fetcher"
)

// ScanReport is the full outcome of scanning one repository or directory.
type ScanReport struct {
	Repository string
	Results    []domain.ScanResult
	Summary    domain.ScanSummary
}

// ScanService orchestrates the full scan flow:
// acquire repository -> collect dependencies -> reconcile -> report.
type ScanService struct {
	aggregator *Aggregator
	pipeline   *Pipeline
	fetcher    *fetcherPkg.Fetcher
}

// NewScanService creates a new service. The fetcher may be nil when only
// local paths are scanned.
func NewScanService(aggregator *Aggregator, pipeline *Pipeline, fetcher *fetcherPkg.Fetcher) *ScanService {
	return &ScanService{
		aggregator: aggregator,
		pipeline:   pipeline,
		fetcher:    fetcher,
	}
}

// ScanPath scans an already-available directory tree.
func (s *ScanService) ScanPath(ctx context.Context, root, name string) (*ScanReport, error) {
	dependencies, skips, err := s.aggregator.Collect(root)
	if err != nil {
		return nil, fmt.Errorf("failed to collect dependencies under %s: %w", root, err)
	}

	logger.Infof("Collected %d dependencies (%d entries skipped) from %s", len(dependencies), len(skips), name)
	for _, reason := range skips {
		logger.Debugf("Skipped: %s", reason)
	}

	results, falsePositives, err := s.pipeline.Run(ctx, dependencies)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed for %s: %w", name, err)
	}

	return &ScanReport{
		Repository: name,
		Results:    results,
		Summary: domain.ScanSummary{
			Dependencies:   len(dependencies),
			Skipped:        len(skips),
			SkipReasons:    skips,
			FalsePositives: falsePositives,
			Vulnerable:     len(results),
		},
	}, nil
}

// ScanRepository clones (or refreshes) a GitHub repository and scans it.
// When the hash cache already holds the repository's latest commit the scan
// is skipped and a nil report returned.
func (s *ScanService) ScanRepository(ctx context.Context, rawURL string, cache *fetcherPkg.HashCache) (*ScanReport, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured, cannot scan %s", rawURL)
	}

	repo, err := fetcherPkg.ParseGitHubURL(rawURL)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		commit, commitErr := s.fetcher.LatestCommit(ctx, repo)
		if commitErr != nil {
			logger.Warnf("Could not check latest commit of %s, scanning anyway: %v", repo.FullName(), commitErr)
		} else if cache.Seen(repo.FullName(), commit) {
			logger.Infof("Skipping %s: no new commits since last scan", repo.FullName())
			return nil, nil
		}
	}

	dir, err := s.fetcher.Fetch(ctx, repo)
	if err != nil {
		return nil, err
	}

	manifests, err := s.aggregator.Manifests(dir)
	if err != nil {
		return nil, err
	}
	if pruneErr := fetcherPkg.Prune(dir, manifests); pruneErr != nil {
		logger.Warnf("Failed to prune %s: %v", dir, pruneErr)
	}

	return s.ScanPath(ctx, dir, repo.Name)
}
