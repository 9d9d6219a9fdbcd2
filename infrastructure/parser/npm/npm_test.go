package npm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscout/depscout/infrastructure/parser/npm"
)

func writePackageJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	parser := npm.New()

	t.Run("should strip range operators from declared versions", func(t *testing.T) {
		t.Parallel()

		// given
		path := writePackageJSON(t, `{
  "dependencies": {
    "express": "^4.18.2",
    "lodash": "~4.17.21",
    "react": ">=18.2.0"
  }
}`)

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		require.Len(t, dependencies, 3)
		assert.Empty(t, skipped)
		// sections are read in order and names sorted within each section
		assert.Equal(t, "express", dependencies[0].Library)
		assert.Equal(t, "4.18.2", dependencies[0].Version)
		assert.Equal(t, "^4.18.2", dependencies[0].VersionConstraint)
		assert.Equal(t, "4.17.21", dependencies[1].Version)
		assert.Equal(t, "18.2.0", dependencies[2].Version)
	})

	t.Run("should read all four dependency sections", func(t *testing.T) {
		t.Parallel()

		// given
		path := writePackageJSON(t, `{
  "dependencies": {"a": "1.0.0"},
  "devDependencies": {"b": "2.0.0"},
  "peerDependencies": {"c": "3.0.0"},
  "optionalDependencies": {"d": "4.0.0"}
}`)

		// when
		dependencies, _ := parser.Parse(path)

		// then
		require.Len(t, dependencies, 4)
		assert.Equal(t, "a", dependencies[0].Library)
		assert.Equal(t, "b", dependencies[1].Library)
		assert.Equal(t, "c", dependencies[2].Library)
		assert.Equal(t, "d", dependencies[3].Library)
	})

	t.Run("should skip git and file source specs", func(t *testing.T) {
		t.Parallel()

		// given
		path := writePackageJSON(t, `{
  "dependencies": {
    "mylib": "git+https://github.com/acme/mylib.git",
    "locallib": "file:../locallib",
    "empty": ""
  }
}`)

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		assert.Empty(t, dependencies)
		require.Len(t, skipped, 3)
		for _, reason := range skipped {
			assert.Contains(t, reason, "unsupported version")
		}
	})

	t.Run("should report malformed JSON as a skip", func(t *testing.T) {
		t.Parallel()

		// given
		path := writePackageJSON(t, "{not json")

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		assert.Empty(t, dependencies)
		require.Len(t, skipped, 1)
		assert.Contains(t, skipped[0], "Error parsing")
	})

	t.Run("should return nothing for a non-matching filename", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "package-lock.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		assert.Nil(t, dependencies)
		assert.Nil(t, skipped)
	})
}
