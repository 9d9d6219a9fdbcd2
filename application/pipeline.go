package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/samber/lo"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/depscout/depscout/domain"
	latestPkg "github.com/depscout/depscout/infrastructure/latest"
	"github.com/depscout/depscout/version"
)

// canonicalEcosystems maps parser ecosystem tags to the spelling the
// vulnerability database expects.
var canonicalEcosystems = map[string]string{
	"maven":    "Maven",
	"pypi":     "PyPI",
	"npm":      "npm",
	"go":       "Go",
	"golang":   "Go",
	"nuget":    "NuGet",
	"rubygems": "RubyGems",
}

// NormalizeEcosystem returns the database spelling for a parser ecosystem
// tag; unknown tags pass through unchanged.
func NormalizeEcosystem(tag string) string {
	if canonical, found := canonicalEcosystems[tag]; found {
		return canonical
	}
	return tag
}

// Pipeline reconciles collected dependencies against the vulnerability
// database and the package registries. All state is run-scoped; a Pipeline
// carries no memory between runs.
type Pipeline struct {
	database  domain.Database
	sources   *latestPkg.Registry
	batchSize int
	workers   int
	progress  bool
}

// NewPipeline creates a pipeline over the given collaborators. batchSize and
// workers fall back to the database limits when zero.
func NewPipeline(database domain.Database, sources *latestPkg.Registry, batchSize, workers int) *Pipeline {
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}
	if workers <= 0 {
		workers = 10
	}
	return &Pipeline{
		database:  database,
		sources:   sources,
		batchSize: batchSize,
		workers:   workers,
		progress:  true,
	}
}

// SetProgress toggles the per-phase progress bars.
func (p *Pipeline) SetProgress(enabled bool) { p.progress = enabled }

// ecosystemKey identifies one library within one ecosystem.
type ecosystemKey struct {
	Name      string
	Ecosystem string
}

// latestInfo is the resolved registry state of one library.
type latestInfo struct {
	version    string
	vulnerable bool
	vulnIDs    []string
}

// Run reconciles the dependencies and returns the vulnerable results in
// input order plus the count of filtered false positives.
func (p *Pipeline) Run(ctx context.Context, dependencies []domain.Dependency) ([]domain.ScanResult, int, error) {
	if len(dependencies) == 0 {
		return nil, 0, nil
	}

	queries := p.buildQueries(dependencies)
	logger.Infof("Querying vulnerability database for %d distinct packages...", len(queries))

	matches, err := p.discover(ctx, queries)
	if err != nil {
		return nil, 0, err
	}

	details := p.enrich(ctx, matches)
	falsePositives := p.filterFalsePositives(matches, details)

	latestByKey := p.resolveLatest(ctx, matches)
	p.verifyLatest(ctx, latestByKey)

	results := p.synthesize(dependencies, matches, details, latestByKey)
	return results, falsePositives, nil
}

// buildQueries maps each dependency to a database query with the canonical
// ecosystem spelling, deduplicated in input order.
func (p *Pipeline) buildQueries(dependencies []domain.Dependency) []domain.Query {
	queries := make([]domain.Query, 0, len(dependencies))
	for _, dep := range dependencies {
		queries = append(queries, domain.Query{
			Name:      dep.Library,
			Version:   dep.Version,
			Ecosystem: NormalizeEcosystem(dep.Ecosystem),
		})
	}
	return lo.Uniq(queries)
}

// discover runs the batch queries and merges the positional results into a
// per-query advisory id list.
func (p *Pipeline) discover(ctx context.Context, queries []domain.Query) (map[domain.Query][]string, error) {
	matches := make(map[domain.Query][]string, len(queries))
	chunks := lo.Chunk(queries, p.batchSize)

	bar := p.startBar("discovery", len(chunks))
	defer bar.Finish()

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, chunk := range chunks {
		group.Go(func() error {
			defer bar.Increment()

			ids, err := p.database.QueryBatch(groupCtx, chunk)
			if err != nil {
				logger.Warnf("Batch query of %d packages failed: %v", len(chunk), err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for i, query := range chunk {
				if i < len(ids) && len(ids[i]) > 0 {
					matches[query] = ids[i]
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("discovery phase failed: %w", err)
	}
	return matches, nil
}

// enrich fetches the full record for every discovered advisory id. Fetch
// failures become records carrying only the id and a fetch error.
func (p *Pipeline) enrich(ctx context.Context, matches map[domain.Query][]string) map[string]domain.Vulnerability {
	idSet := make(map[string]struct{})
	for _, ids := range matches {
		for _, id := range ids {
			idSet[id] = struct{}{}
		}
	}

	ids := lo.Keys(idSet)
	sort.Strings(ids)
	logger.Infof("Fetching details for %d advisories...", len(ids))

	bar := p.startBar("details", len(ids))
	defer bar.Finish()

	details := make(map[string]domain.Vulnerability, len(ids))
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, id := range ids {
		group.Go(func() error {
			defer bar.Increment()

			record := p.database.Vulnerability(groupCtx, id)

			mu.Lock()
			details[id] = record
			mu.Unlock()
			return nil
		})
	}

	group.Wait() //nolint:errcheck // workers never return errors
	return details
}

// filterFalsePositives keeps only advisories whose details fetched without
// error and whose affected packages name the queried library exactly. Every
// dropped advisory is counted; queries left with no advisories are removed.
func (p *Pipeline) filterFalsePositives(matches map[domain.Query][]string, details map[string]domain.Vulnerability) int {
	falsePositives := 0

	for query, ids := range matches {
		kept := ids[:0]
		for _, id := range ids {
			record := details[id]
			if record.FetchError == "" && affectsPackage(record, query.Name) {
				kept = append(kept, id)
			} else {
				logger.Debugf("Dropping %s for %s: fetch failed or affected packages do not name it", id, query.Name)
			}
		}
		falsePositives += len(ids) - len(kept)

		if len(kept) == 0 {
			delete(matches, query)
			continue
		}
		matches[query] = kept
	}

	return falsePositives
}

func affectsPackage(record domain.Vulnerability, name string) bool {
	for _, affected := range record.Affected {
		if affected.Name == name {
			return true
		}
	}
	return false
}

// resolveLatest queries each ecosystem's registry for the newest version of
// every distinct vulnerable library. Registry failures are tolerated.
func (p *Pipeline) resolveLatest(ctx context.Context, matches map[domain.Query][]string) map[ecosystemKey]*latestInfo {
	keys := make(map[ecosystemKey]*latestInfo)
	for query := range matches {
		keys[ecosystemKey{Name: query.Name, Ecosystem: query.Ecosystem}] = &latestInfo{}
	}

	ordered := lo.Keys(keys)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Ecosystem != ordered[j].Ecosystem {
			return ordered[i].Ecosystem < ordered[j].Ecosystem
		}
		return ordered[i].Name < ordered[j].Name
	})
	logger.Infof("Resolving latest versions for %d packages...", len(ordered))

	bar := p.startBar("latest versions", len(ordered))
	defer bar.Finish()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, key := range ordered {
		group.Go(func() error {
			defer bar.Increment()

			source, found := p.sources.Get(key.Ecosystem)
			if !found {
				logger.Debugf("No registry source for ecosystem %q", key.Ecosystem)
				return nil
			}

			resolved, err := source.LatestVersion(groupCtx, key.Name)
			if err != nil {
				logger.Warnf("Failed to resolve latest version of %s (%s): %v", key.Name, key.Ecosystem, err)
				return nil
			}
			keys[key].version = resolved
			return nil
		})
	}

	group.Wait() //nolint:errcheck // workers never return errors
	return keys
}

// verifyLatest re-queries the database for every resolved latest version so
// that "upgrade to latest" advice never points at a vulnerable release
// without a caution.
func (p *Pipeline) verifyLatest(ctx context.Context, latestByKey map[ecosystemKey]*latestInfo) {
	pending := make([]ecosystemKey, 0, len(latestByKey))
	for key, info := range latestByKey {
		if info.version != "" {
			pending = append(pending, key)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Ecosystem != pending[j].Ecosystem {
			return pending[i].Ecosystem < pending[j].Ecosystem
		}
		return pending[i].Name < pending[j].Name
	})

	bar := p.startBar("latest verification", len(pending))
	defer bar.Finish()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, key := range pending {
		group.Go(func() error {
			defer bar.Increment()

			info := latestByKey[key]
			ids, err := p.database.Query(groupCtx, domain.Query{
				Name:      key.Name,
				Version:   info.version,
				Ecosystem: key.Ecosystem,
			})
			if err != nil {
				logger.Warnf("Failed to verify latest version of %s (%s): %v", key.Name, key.Ecosystem, err)
				return nil
			}
			if len(ids) > 0 {
				info.vulnerable = true
				info.vulnIDs = ids
			}
			return nil
		})
	}

	group.Wait() //nolint:errcheck // workers never return errors
}

// synthesize builds one ScanResult per vulnerable dependency, in input order.
func (p *Pipeline) synthesize(
	dependencies []domain.Dependency,
	matches map[domain.Query][]string,
	details map[string]domain.Vulnerability,
	latestByKey map[ecosystemKey]*latestInfo,
) []domain.ScanResult {
	var results []domain.ScanResult

	for _, dep := range dependencies {
		query := domain.Query{
			Name:      dep.Library,
			Version:   dep.Version,
			Ecosystem: NormalizeEcosystem(dep.Ecosystem),
		}
		ids, found := matches[query]
		if !found {
			continue
		}

		records := make([]domain.Vulnerability, 0, len(ids))
		for _, id := range ids {
			records = append(records, details[id])
		}

		info := latestByKey[ecosystemKey{Name: query.Name, Ecosystem: query.Ecosystem}]
		if info == nil {
			info = &latestInfo{}
		}

		results = append(results, domain.ScanResult{
			Library:        dep.Library,
			VersionInUse:   dep.Version,
			FileLocation:   dep.File,
			Ecosystem:      query.Ecosystem,
			Recommendation: recommend(dep, records, info),
			Findings:       toFindings(records),
		})
	}

	return results
}

// recommend computes the upgrade advice for one vulnerable dependency.
func recommend(dep domain.Dependency, records []domain.Vulnerability, info *latestInfo) domain.UpgradeRecommendation {
	recommendation := domain.UpgradeRecommendation{
		MinimalSaferVersion: minimalSaferVersion(dep, records),
		LatestVersion:       info.version,
		LatestIsVulnerable:  info.vulnerable,
		LatestVersionVulns:  info.vulnIDs,
	}

	text := "Manual review required."
	if safer := recommendation.MinimalSaferVersion; safer != "" {
		text = fmt.Sprintf("Upgrade to minimal safer version (%s).", safer)
		if info.version != "" {
			if _, err := version.Compare(info.version, safer); err != nil {
				text += " NOTE: latest version not comparable."
			} else if safer == info.version || version.GreaterThan(info.version, safer) {
				text = fmt.Sprintf("Upgrade to latest version (%s).", info.version)
				if info.vulnerable {
					text += " CAUTION: latest version has vulnerabilities."
				}
			}
		}
	}

	recommendation.Recommendation = text
	return recommendation
}

// minimalSaferVersion picks the smallest fixed version strictly above the
// installed one, over every fixed event the advisories cite for this library.
func minimalSaferVersion(dep domain.Dependency, records []domain.Vulnerability) string {
	var candidates []string
	for _, record := range records {
		for _, affected := range record.Affected {
			if affected.Name != dep.Library {
				continue
			}
			for _, r := range affected.Ranges {
				for _, event := range r.Events {
					if event.Fixed != "" && version.GreaterThan(event.Fixed, dep.Version) {
						candidates = append(candidates, event.Fixed)
					}
				}
			}
		}
	}
	return version.Minimal(candidates)
}

func toFindings(records []domain.Vulnerability) []domain.Finding {
	findings := make([]domain.Finding, 0, len(records))
	for _, record := range records {
		findings = append(findings, domain.Finding{
			OSVID:     record.ID,
			CVEIDs:    record.CVEIDs(),
			Severity:  record.Severity,
			Summary:   record.Summary,
			Details:   record.Details,
			FixedIn:   record.FirstFixedVersion(),
			Published: record.Published,
			Modified:  record.Modified,
		})
	}
	return findings
}

func (p *Pipeline) startBar(name string, total int) *pb.ProgressBar {
	if !p.progress || total == 0 {
		return pb.New(total)
	}
	logger.Debugf("Starting %s phase (%d units)", name, total)
	return pb.StartNew(total)
}
