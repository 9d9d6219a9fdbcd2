package application_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscout/depscout/application"
	parserPkg "github.com/depscout/depscout/infrastructure/parser"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestAggregator_Collect(t *testing.T) {
	t.Parallel()

	t.Run("should collect dependencies from every recognized manifest", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "go.mod"),
			"module example.com/app\n\nrequire github.com/spf13/cobra v1.8.0\n")
		writeFile(t, filepath.Join(root, "service", "requirements.txt"), "requests==2.19.0\n")
		writeFile(t, filepath.Join(root, "README.md"), "# app\n")
		aggregator := application.NewAggregator(parserPkg.DefaultRegistry())

		// when
		dependencies, skips, err := aggregator.Collect(root)

		// then
		require.NoError(t, err)
		assert.Empty(t, skips)
		require.Len(t, dependencies, 2)
		assert.Equal(t, "github.com/spf13/cobra", dependencies[0].Library)
		assert.Equal(t, "requests", dependencies[1].Library)
	})

	t.Run("should merge skip reasons across manifests", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "requirements.txt"), "somepkg==latest\n")
		aggregator := application.NewAggregator(parserPkg.DefaultRegistry())

		// when
		dependencies, skips, err := aggregator.Collect(root)

		// then
		require.NoError(t, err)
		assert.Empty(t, dependencies)
		require.Len(t, skips, 1)
		assert.Contains(t, skips[0], "unrecognized version")
	})

	t.Run("should not descend into .git", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".git", "requirements.txt"), "requests==2.19.0\n")
		aggregator := application.NewAggregator(parserPkg.DefaultRegistry())

		// when
		dependencies, _, err := aggregator.Collect(root)

		// then
		require.NoError(t, err)
		assert.Empty(t, dependencies)
	})
}

func TestAggregator_Manifests(t *testing.T) {
	t.Parallel()

	t.Run("should list recognized manifest paths in discovery order", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "build.gradle"), "")
		writeFile(t, filepath.Join(root, "web", "package.json"), "{}")
		writeFile(t, filepath.Join(root, "notes.txt"), "")
		aggregator := application.NewAggregator(parserPkg.DefaultRegistry())

		// when
		manifests, err := aggregator.Manifests(root)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "build.gradle"),
			filepath.Join(root, "web", "package.json"),
		}, manifests)
	})
}
