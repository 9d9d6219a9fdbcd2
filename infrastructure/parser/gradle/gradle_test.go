package gradle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscout/depscout/infrastructure/parser/gradle"
)

func writeBuildScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	parser := gradle.New()

	t.Run("should extract quoted coordinates across configuration keywords", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeBuildScript(t, "build.gradle", `
dependencies {
    implementation 'com.google.guava:guava:31.0-jre'
    testImplementation "junit:junit:4.13.2"
    api 'org.slf4j:slf4j-api:2.0.9'
}
`)

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		require.Len(t, dependencies, 3)
		assert.Empty(t, skipped)
		assert.Equal(t, "com.google.guava:guava", dependencies[0].Library)
		assert.Equal(t, "31.0-jre", dependencies[0].Version)
		assert.Equal(t, "maven", dependencies[0].Ecosystem)
		assert.Equal(t, "junit:junit", dependencies[1].Library)
	})

	t.Run("should not match the kts function-call syntax", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeBuildScript(t, "build.gradle.kts",
			`implementation("org.jetbrains.kotlin:kotlin-stdlib:1.9.0")`)

		// when
		dependencies, _ := parser.Parse(path)

		// then
		assert.Empty(t, dependencies)
	})

	t.Run("should skip versions that need build evaluation", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeBuildScript(t, "build.gradle",
			"implementation 'com.acme:core:${acmeVersion}'\n")

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		assert.Empty(t, dependencies)
		require.Len(t, skipped, 1)
		assert.Contains(t, skipped[0], "Unresolved version")
		assert.Contains(t, skipped[0], "com.acme:core")
	})

	t.Run("should return nothing for a non-matching filename", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeBuildScript(t, "settings.gradle", "implementation 'a:b:1.0'\n")

		// when
		dependencies, skipped := parser.Parse(path)

		// then
		assert.Nil(t, dependencies)
		assert.Nil(t, skipped)
	})
}
