package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	p, err := Open(dir + string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(dir), p.Root)

	for name, path := range map[string]string{
		"empty":        "",
		"relative":     "some/project",
		"missing":      filepath.Join(dir, "nope"),
		"regular file": file,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(path)
			var invalid *InvalidPathError
			require.True(t, errors.As(err, &invalid), "expected InvalidPathError, got %v", err)
			assert.Equal(t, path, invalid.Path)
		})
	}
}

func TestProbe(t *testing.T) {
	probe := NewProbe(nil, "")
	assert.Equal(t, []string{DefaultMarker}, probe.Markers)
	assert.Equal(t, DefaultManifest, probe.Manifest)

	t.Run("missing without marker", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644))

		got := probe.Probe(Project{Root: dir})
		assert.Equal(t, DependenciesMissing, got.Status)
		assert.True(t, got.HasManifest)
		assert.Empty(t, got.Marker)
	})

	t.Run("marker file does not count", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules"), nil, 0644))

		got := probe.Probe(Project{Root: dir})
		assert.Equal(t, DependenciesMissing, got.Status)
		assert.False(t, got.HasManifest)
	})

	t.Run("satisfied with marker directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0755))

		got := probe.Probe(Project{Root: dir})
		assert.Equal(t, DependenciesSatisfied, got.Status)
		assert.Equal(t, "node_modules", got.Marker)
	})

	t.Run("alternate markers", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".pnpm-store"), 0755))

		got := NewProbe([]string{"node_modules", ".pnpm-store"}, "").Probe(Project{Root: dir})
		assert.Equal(t, DependenciesSatisfied, got.Status)
		assert.Equal(t, ".pnpm-store", got.Marker)
	})

	t.Run("fresh on every call", func(t *testing.T) {
		dir := t.TempDir()
		p := Project{Root: dir}
		assert.Equal(t, DependenciesMissing, probe.Probe(p).Status)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0755))
		assert.Equal(t, DependenciesSatisfied, probe.Probe(p).Status)
	})
}
