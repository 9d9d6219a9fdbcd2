package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscout/depscout/config"
)

//nolint:tparallel // some subtests use t.Setenv which is incompatible with t.Parallel on parent
func TestResolveToken(t *testing.T) {
	t.Run("should return empty string for empty input", func(t *testing.T) {
		t.Parallel()

		// given
		raw := ""

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Empty(t, result)
	})

	t.Run("should return inline token unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "ghp_abc123xyz"

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Equal(t, "ghp_abc123xyz", result)
	})

	t.Run("should expand environment variable reference", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("TEST_TOKEN_RESOLVE", "my-secret-token")
		raw := "${TEST_TOKEN_RESOLVE}"

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Equal(t, "my-secret-token", result)
	})

	t.Run("should read token from file when value is a path", func(t *testing.T) {
		t.Parallel()

		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))

		// when
		result := config.ResolveToken(tokenFile)

		// then
		assert.Equal(t, "file-token", result)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "depscout.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("should load a full config with defaults applied", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
github:
  organization: acme
  token: inline-token
scanner:
  batch_size: 50
output:
  formats: [json, html]
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "acme", cfg.GitHub.Organization)
		assert.Equal(t, "inline-token", cfg.GitHub.Token)
		assert.Equal(t, 50, cfg.Scanner.BatchSize)
		assert.Equal(t, 10, cfg.Scanner.Workers)
		assert.Equal(t, []string{"json", "html"}, cfg.Output.Formats)
		assert.Equal(t, "reports", cfg.Output.Directory)
	})

	t.Run("should reject a batch size over the database limit", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "scanner:\n  batch_size: 500\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_size")
	})

	t.Run("should reject unsupported output formats", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "output:\n  formats: [pdf]\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdf")
	})

	t.Run("should fail on unreadable file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
	})

	t.Run("should fail on malformed YAML", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "github: [not: a map\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	t.Parallel()

	t.Run("should carry the documented defaults", func(t *testing.T) {
		t.Parallel()

		// when
		cfg := config.Default()

		// then
		assert.Equal(t, 100, cfg.Scanner.BatchSize)
		assert.Equal(t, 10, cfg.Scanner.Workers)
		assert.Equal(t, []string{"json"}, cfg.Output.Formats)
		assert.Equal(t, "reports", cfg.Output.Directory)
		assert.NotEmpty(t, cfg.GitHub.WorkDir)
	})
}
