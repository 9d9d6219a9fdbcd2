package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscout/depscout/application"
	"github.com/depscout/depscout/domain"
	latestPkg "github.com/depscout/depscout/infrastructure/latest"
	testdoubles "github.com/depscout/depscout/test"
	"github.com/depscout/depscout/test/domain/entitybuilders"
)

// --- helpers ---

func buildSourceRegistry(sources ...*testdoubles.StubSource) *latestPkg.Registry {
	registry := latestPkg.NewRegistry()
	for _, source := range sources {
		registry.Register(source)
	}
	return registry
}

func buildPipeline(database domain.Database, registry *latestPkg.Registry) *application.Pipeline {
	pipeline := application.NewPipeline(database, registry, 100, 10)
	pipeline.SetProgress(false)
	return pipeline
}

func vulnerabilityFixedAt(id, pkg, fixed string) domain.Vulnerability {
	return domain.Vulnerability{
		ID:       id,
		Aliases:  []string{"CVE-2024-0001"},
		Severity: "HIGH",
		Summary:  "test advisory",
		Affected: []domain.AffectedPackage{{
			Name:      pkg,
			Ecosystem: "PyPI",
			Ranges: []domain.VersionRange{{
				Events: []domain.RangeEvent{{Introduced: "0"}, {Fixed: fixed}},
			}},
		}},
	}
}

// --- tests ---

func TestNormalizeEcosystem(t *testing.T) {
	t.Parallel()

	t.Run("should map parser tags to database spellings", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Go", application.NormalizeEcosystem("go"))
		assert.Equal(t, "Go", application.NormalizeEcosystem("golang"))
		assert.Equal(t, "Maven", application.NormalizeEcosystem("maven"))
		assert.Equal(t, "PyPI", application.NormalizeEcosystem("pypi"))
		assert.Equal(t, "npm", application.NormalizeEcosystem("npm"))
		assert.Equal(t, "NuGet", application.NormalizeEcosystem("nuget"))
		assert.Equal(t, "RubyGems", application.NormalizeEcosystem("rubygems"))
		assert.Equal(t, "Hex", application.NormalizeEcosystem("Hex"))
	})
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("should recommend the clean latest version without a caution", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		query := domain.Query{Name: "requests", Version: "2.19.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-a"}},
			Records: map[string]domain.Vulnerability{
				"GHSA-a": vulnerabilityFixedAt("GHSA-a", "requests", "2.20.0"),
			},
		}
		registry := buildSourceRegistry(&testdoubles.StubSource{
			Ecosystem: "PyPI",
			Versions:  map[string]string{"requests": "2.31.0"},
		})
		pipeline := buildPipeline(database, registry)

		// when
		results, falsePositives, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Zero(t, falsePositives)
		require.Len(t, results, 1)

		result := results[0]
		assert.Equal(t, "requests", result.Library)
		assert.Equal(t, "2.19.0", result.VersionInUse)
		assert.Equal(t, "PyPI", result.Ecosystem)
		assert.Equal(t, "2.20.0", result.Recommendation.MinimalSaferVersion)
		assert.Equal(t, "2.31.0", result.Recommendation.LatestVersion)
		assert.False(t, result.Recommendation.LatestIsVulnerable)
		assert.Equal(t, "Upgrade to latest version (2.31.0).", result.Recommendation.Recommendation)
		require.Len(t, result.Findings, 1)
		assert.Equal(t, "GHSA-a", result.Findings[0].OSVID)
		assert.Equal(t, []string{"CVE-2024-0001"}, result.Findings[0].CVEIDs)
		assert.Equal(t, "2.20.0", result.Findings[0].FixedIn)
	})

	t.Run("should append a caution when the latest version is vulnerable too", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		current := domain.Query{Name: "requests", Version: "2.19.0", Ecosystem: "PyPI"}
		latestQuery := domain.Query{Name: "requests", Version: "2.31.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{
				current:     {"GHSA-a"},
				latestQuery: {"GHSA-b"},
			},
			Records: map[string]domain.Vulnerability{
				"GHSA-a": vulnerabilityFixedAt("GHSA-a", "requests", "2.20.0"),
			},
		}
		registry := buildSourceRegistry(&testdoubles.StubSource{
			Ecosystem: "PyPI",
			Versions:  map[string]string{"requests": "2.31.0"},
		})
		pipeline := buildPipeline(database, registry)

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		recommendation := results[0].Recommendation
		assert.True(t, recommendation.LatestIsVulnerable)
		assert.Equal(t, []string{"GHSA-b"}, recommendation.LatestVersionVulns)
		assert.Equal(t,
			"Upgrade to latest version (2.31.0). CAUTION: latest version has vulnerabilities.",
			recommendation.Recommendation)
	})

	t.Run("should pick the minimal safer version over the installed one", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().WithLibrary("flask").WithVersion("1.2.0").BuildDependency()
		query := domain.Query{Name: "flask", Version: "1.2.0", Ecosystem: "PyPI"}
		record := domain.Vulnerability{
			ID: "GHSA-multi",
			Affected: []domain.AffectedPackage{{
				Name: "flask",
				Ranges: []domain.VersionRange{{
					Events: []domain.RangeEvent{
						{Fixed: "1.3.0"}, {Fixed: "1.2.5"}, {Fixed: "2.0.0"},
					},
				}},
			}},
		}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-multi"}},
			Records:    map[string]domain.Vulnerability{"GHSA-multi": record},
		}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "1.2.5", results[0].Recommendation.MinimalSaferVersion)
		assert.Equal(t, "Upgrade to minimal safer version (1.2.5).", results[0].Recommendation.Recommendation)
	})

	t.Run("should drop advisories that never name the queried package", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().WithLibrary("foo").WithVersion("1.0.0").BuildDependency()
		query := domain.Query{Name: "foo", Version: "1.0.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-other"}},
			Records: map[string]domain.Vulnerability{
				"GHSA-other": vulnerabilityFixedAt("GHSA-other", "bar", "9.9.9"),
			},
		}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, falsePositives, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, 1, falsePositives)
	})

	t.Run("should note a non-comparable latest version", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().WithLibrary("weird").WithVersion("1.0.0").BuildDependency()
		query := domain.Query{Name: "weird", Version: "1.0.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-w"}},
			Records: map[string]domain.Vulnerability{
				"GHSA-w": vulnerabilityFixedAt("GHSA-w", "weird", "1.1.0"),
			},
		}
		registry := buildSourceRegistry(&testdoubles.StubSource{
			Ecosystem: "PyPI",
			Versions:  map[string]string{"weird": "unstable"},
		})
		pipeline := buildPipeline(database, registry)

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t,
			"Upgrade to minimal safer version (1.1.0). NOTE: latest version not comparable.",
			results[0].Recommendation.Recommendation)
	})

	t.Run("should require manual review when no fixed version exists", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().WithLibrary("stuck").WithVersion("1.0.0").BuildDependency()
		query := domain.Query{Name: "stuck", Version: "1.0.0", Ecosystem: "PyPI"}
		record := domain.Vulnerability{
			ID:       "GHSA-s",
			Affected: []domain.AffectedPackage{{Name: "stuck"}},
		}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-s"}},
			Records:    map[string]domain.Vulnerability{"GHSA-s": record},
		}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Manual review required.", results[0].Recommendation.Recommendation)
	})

	t.Run("should drop advisories whose detail fetch failed", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		query := domain.Query{Name: "requests", Version: "2.19.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-missing"}},
			// no Records entry: the stub degrades to a FetchError record
		}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, falsePositives, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, 1, falsePositives)
	})

	t.Run("should count every dropped advisory even when some survive", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		query := domain.Query{Name: "requests", Version: "2.19.0", Ecosystem: "PyPI"}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-a", "GHSA-other"}},
			Records: map[string]domain.Vulnerability{
				"GHSA-a":     vulnerabilityFixedAt("GHSA-a", "requests", "2.20.0"),
				"GHSA-other": vulnerabilityFixedAt("GHSA-other", "bar", "9.9.9"),
			},
		}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, falsePositives, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, falsePositives)
		require.Len(t, results, 1)
		require.Len(t, results[0].Findings, 1)
		assert.Equal(t, "GHSA-a", results[0].Findings[0].OSVID)
	})

	t.Run("should require manual review even when a newer latest version exists", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().WithLibrary("stuck").WithVersion("1.0.0").BuildDependency()
		query := domain.Query{Name: "stuck", Version: "1.0.0", Ecosystem: "PyPI"}
		record := domain.Vulnerability{
			ID:       "GHSA-s",
			Affected: []domain.AffectedPackage{{Name: "stuck"}},
		}
		database := &testdoubles.StubDatabase{
			IDsByQuery: map[domain.Query][]string{query: {"GHSA-s"}},
			Records:    map[string]domain.Vulnerability{"GHSA-s": record},
		}
		registry := buildSourceRegistry(&testdoubles.StubSource{
			Ecosystem: "PyPI",
			Versions:  map[string]string{"stuck": "2.0.0"},
		})
		pipeline := buildPipeline(database, registry)

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "2.0.0", results[0].Recommendation.LatestVersion)
		assert.Equal(t, "Manual review required.", results[0].Recommendation.Recommendation)
	})

	t.Run("should return no results when nothing is vulnerable", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		database := &testdoubles.StubDatabase{}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, falsePositives, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, falsePositives)
	})

	t.Run("should query each distinct package only once", func(t *testing.T) {
		t.Parallel()

		// given
		first := entitybuilders.NewDependencyBuilder().WithFile("/a/requirements.txt").BuildDependency()
		second := entitybuilders.NewDependencyBuilder().WithFile("/b/requirements.txt").BuildDependency()
		database := &testdoubles.StubDatabase{}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		_, _, err := pipeline.Run(ctx, []domain.Dependency{first, second})

		// then
		require.NoError(t, err)
		assert.Len(t, database.Queries, 1)
	})

	t.Run("should tolerate a failing batch query", func(t *testing.T) {
		t.Parallel()

		// given
		dep := entitybuilders.NewDependencyBuilder().BuildDependency()
		database := &testdoubles.StubDatabase{BatchErr: assert.AnError}
		pipeline := buildPipeline(database, buildSourceRegistry())

		// when
		results, _, err := pipeline.Run(ctx, []domain.Dependency{dep})

		// then
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
