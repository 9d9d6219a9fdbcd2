package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/depscout/depscout/application"
	"github.com/depscout/depscout/config"
	"github.com/depscout/depscout/domain"
	fetcherPkg "github.com/depscout/depscout/infrastructure/fetcher"
	latestPkg "github.com/depscout/depscout/infrastructure/latest"
	"github.com/depscout/depscout/infrastructure/osv"
	parserPkg "github.com/depscout/depscout/infrastructure/parser"
	"github.com/depscout/depscout/infrastructure/report"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	repoName     string
	repoURL      string
	repoListPath string
	localPath    string
	outputList   string
	outputDir    string
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan repositories or a local directory for vulnerable dependencies",
	Long: `Scan one or more targets for vulnerable dependencies.

Targets are given through exactly one of:
  --path       a local directory (no cloning)
  --repo       a GitHub repository, "owner/name" or bare name with a
               configured organization
  --url        a full GitHub repository URL
  --repo-list  a file with one repository URL per line

Each vulnerable dependency is reported with its advisories and an upgrade
recommendation, and written as report files in the requested formats.`,
	RunE: runScan,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	scanCmd.Flags().StringVar(&repoName, "repo", "", "GitHub repository (owner/name)")
	scanCmd.Flags().StringVar(&repoURL, "url", "", "Full GitHub repository URL")
	scanCmd.Flags().StringVar(&repoListPath, "repo-list", "", "File with one repository URL per line")
	scanCmd.Flags().StringVar(&localPath, "path", "", "Local directory to scan without cloning")
	scanCmd.Flags().StringVar(&outputList, "output", "", "Comma-separated report formats (json, csv, txt, xml, html)")
	scanCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for report files")
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	container, err := buildContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble dependencies: %w", err)
	}

	return container.Invoke(func(service *application.ScanService, writer *report.Writer) error {
		targets, targetsErr := resolveTargets(cfg)
		if targetsErr != nil {
			return targetsErr
		}

		cache := fetcherPkg.NewHashCache()
		failures := 0

		for _, target := range targets {
			scanReport, scanErr := executeScan(ctx, service, target, cache)
			if scanErr != nil {
				logger.Errorf("Scan of %s failed: %v", target.label, scanErr)
				failures++
				continue
			}
			if scanReport == nil {
				continue
			}

			report.PrintSummary(scanReport.Repository, scanReport.Results, scanReport.Summary)
			if _, writeErr := writer.WriteAll(scanReport.Repository, cfg.Output.Formats, scanReport.Results); writeErr != nil {
				logger.Errorf("Failed to write reports for %s: %v", scanReport.Repository, writeErr)
				failures++
			}
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d targets failed", failures, len(targets))
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			logger.Debug("No config file found, using defaults")
			return config.Default(), nil
		}
		path = found
	}

	logger.Infof("Using config file: %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	if outputList != "" {
		var formats []string
		for _, format := range strings.Split(outputList, ",") {
			if trimmed := strings.TrimSpace(format); trimmed != "" {
				formats = append(formats, trimmed)
			}
		}
		cfg.Output.Formats = formats
	}
}

func buildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		func(c *config.Config) *parserPkg.Registry { return buildParserRegistry(c.Scanner.Ecosystems) },
		latestPkg.DefaultRegistry,
		func() domain.Database { return osv.NewClient("") },
		application.NewAggregator,
		func(database domain.Database, sources *latestPkg.Registry, c *config.Config) *application.Pipeline {
			return application.NewPipeline(database, sources, c.Scanner.BatchSize, c.Scanner.Workers)
		},
		func(c *config.Config) *fetcherPkg.Fetcher {
			return fetcherPkg.NewFetcher(c.GitHub.Token, c.GitHub.WorkDir)
		},
		application.NewScanService,
		func(c *config.Config) *report.Writer { return report.NewWriter(c.Output.Directory) },
	}

	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}
	return container, nil
}

func buildParserRegistry(enabled []string) *parserPkg.Registry {
	registry := parserPkg.DefaultRegistry()
	if len(enabled) == 0 {
		return registry
	}

	filtered := parserPkg.NewRegistry()
	for _, name := range enabled {
		if p := registry.Get(name); p != nil {
			filtered.Register(p)
		} else {
			logger.Warnf("Unknown ecosystem %q in scanner.ecosystems, known: %s",
				name, strings.Join(registry.Names(), ", "))
		}
	}
	return filtered
}

// scanTarget is one unit of work: a local path or a repository URL.
type scanTarget struct {
	label string
	path  string // set for local scans
	url   string // set for repository scans
}

func resolveTargets(cfg *config.Config) ([]scanTarget, error) {
	set := 0
	for _, flag := range []string{localPath, repoName, repoURL, repoListPath} {
		if flag != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of --path, --repo, --url or --repo-list must be given")
	}

	switch {
	case localPath != "":
		absolute, err := filepath.Abs(localPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", localPath, err)
		}
		return []scanTarget{{label: absolute, path: absolute}}, nil

	case repoName != "":
		full := repoName
		if !strings.Contains(full, "/") {
			if cfg.GitHub.Organization == "" {
				return nil, fmt.Errorf("repository %q has no owner and github.organization is not configured", repoName)
			}
			full = cfg.GitHub.Organization + "/" + repoName
		}
		url := "https://github.com/" + full
		return []scanTarget{{label: full, url: url}}, nil

	case repoURL != "":
		return []scanTarget{{label: repoURL, url: repoURL}}, nil

	default:
		return readRepoList(repoListPath)
	}
}

func readRepoList(path string) ([]scanTarget, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repo list %q: %w", path, err)
	}
	defer file.Close()

	var targets []scanTarget
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, scanTarget{label: line, url: line})
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repo list %q: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("repo list %q contains no repositories", path)
	}
	return targets, nil
}

func executeScan(
	ctx context.Context,
	service *application.ScanService,
	target scanTarget,
	cache *fetcherPkg.HashCache,
) (*application.ScanReport, error) {
	if target.path != "" {
		return service.ScanPath(ctx, target.path, filepath.Base(target.path))
	}
	return service.ScanRepository(ctx, target.url, cache)
}
