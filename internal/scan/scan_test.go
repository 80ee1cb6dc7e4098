package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := []string{
		"main.go",
		"main_test.go",
		"internal/util/util.go",
		"internal/util/util_test.go",
		"vendor/dep/dep.go",
		".git/objects/blob.go",
		"native/bridge.c",
		"native/bridge.h",
		"README.md",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content\n"), 0o644))
	}
	return root
}

func discoveredPaths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	jobs, err := Discover(root, opts)
	require.NoError(t, err)

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		rel, err := filepath.Rel(root, j.FilePath)
		require.NoError(t, err)
		paths[i] = filepath.ToSlash(rel)
	}
	return paths
}

func TestDiscoverGoSources(t *testing.T) {
	root := writeTestTree(t)

	paths := discoveredPaths(t, root, Options{Extensions: []string{".go"}})
	assert.ElementsMatch(t, []string{
		"main.go",
		"internal/util/util.go",
	}, paths)
}

func TestDiscoverIncludeTests(t *testing.T) {
	root := writeTestTree(t)

	paths := discoveredPaths(t, root, Options{Extensions: []string{".go"}, IncludeTests: true})
	assert.Contains(t, paths, "main_test.go")
	assert.Contains(t, paths, "internal/util/util_test.go")
}

func TestDiscoverIncludeVendor(t *testing.T) {
	root := writeTestTree(t)

	paths := discoveredPaths(t, root, Options{Extensions: []string{".go"}, IncludeVendor: true})
	assert.Contains(t, paths, "vendor/dep/dep.go")

	// dot directories stay excluded regardless
	assert.NotContains(t, paths, ".git/objects/blob.go")
}

func TestDiscoverMultipleExtensions(t *testing.T) {
	root := writeTestTree(t)

	jobs, err := Discover(root, Options{Extensions: []string{".c", ".h"}})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, "c", j.Language)
	}
}

func TestDiscoverNoFilter(t *testing.T) {
	root := writeTestTree(t)

	paths := discoveredPaths(t, root, Options{})
	assert.Contains(t, paths, "README.md")
}
