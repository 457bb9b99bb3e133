package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"migrationmcp/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(stage, raw string) *resolver.ResolvedConfig {
	doc, _ := resolver.Parse([]byte(raw))
	return &resolver.ResolvedConfig{Stage: stage, Document: doc, Raw: []byte(raw)}
}

func readGitignore(t *testing.T, root string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, GitignoreFile))
	require.NoError(t, err)
	return string(data)
}

func TestArtifactPath(t *testing.T) {
	path, err := ArtifactPath("/work/api", "TEST")
	require.NoError(t, err)
	assert.Equal(t, "/work/api/.rimac_migration/serverless.resolved.TEST.yaml", path)

	for _, bad := range []string{"", "../etc", "a/b", ".hidden", "with space"} {
		_, err := ArtifactPath("/work/api", bad)
		var pErr *Error
		assert.True(t, errors.As(err, &pErr), "stage %q should be rejected", bad)
	}
}

func TestPersist_WritesArtifactAndGitignore(t *testing.T) {
	root := t.TempDir()
	m := NewManager()

	art, err := m.Persist(root, "TEST", resolved("TEST", "service: api\n"))
	require.NoError(t, err)
	assert.True(t, art.GitignoreUpdated)
	assert.Equal(t, filepath.Join(root, ".rimac_migration", "serverless.resolved.TEST.yaml"), art.Path)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "service: api\n", string(data))
	assert.Equal(t, "# Rimac Migration MCP\n.rimac_migration/\n", readGitignore(t, root))
}

func TestPersist_Idempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, GitignoreFile), []byte("node_modules"), 0644))
	m := NewManager()

	first, err := m.Persist(root, "PROD", resolved("PROD", "service: one\n"))
	require.NoError(t, err)
	second, err := m.Persist(root, "PROD", resolved("PROD", "service: two\n"))
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.True(t, first.GitignoreUpdated)
	assert.False(t, second.GitignoreUpdated)

	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "service: two\n", string(data))

	content := readGitignore(t, root)
	assert.Equal(t, "node_modules\n# Rimac Migration MCP\n.rimac_migration/\n", content)
	assert.Equal(t, 1, strings.Count(content, ".rimac_migration/"))
}

func TestPersist_ExistingEntryVariants(t *testing.T) {
	for _, line := range []string{".rimac_migration", "/.rimac_migration/", "  .rimac_migration/  "} {
		root := t.TempDir()
		original := "dist/\n" + line + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, GitignoreFile), []byte(original), 0644))

		art, err := NewManager().Persist(root, "TEST", resolved("TEST", "service: api\n"))
		require.NoError(t, err)
		assert.False(t, art.GitignoreUpdated, "entry %q", line)
		assert.Equal(t, original, readGitignore(t, root))
	}
}

func TestPersist_ConcurrentStagesAddOneEntry(t *testing.T) {
	root := t.TempDir()
	m := NewManager()

	var wg sync.WaitGroup
	for _, stage := range []string{"TEST", "DESA", "PROD", "QA"} {
		wg.Add(1)
		go func(stage string) {
			defer wg.Done()
			_, err := m.Persist(root, stage, resolved(stage, "service: api\n"))
			assert.NoError(t, err)
		}(stage)
	}
	wg.Wait()

	assert.Equal(t, 1, strings.Count(readGitignore(t, root), ".rimac_migration/"))
	entries, err := os.ReadDir(filepath.Join(root, CacheDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestPersist_MarshalsDocumentWithoutRaw(t *testing.T) {
	root := t.TempDir()
	cfg := &resolver.ResolvedConfig{Stage: "TEST", Document: map[string]any{"service": "api"}}

	art, err := NewManager().Persist(root, "TEST", cfg)
	require.NoError(t, err)

	doc, path, err := NewManager().Load(root, "TEST")
	require.NoError(t, err)
	assert.Equal(t, art.Path, path)
	assert.Equal(t, "api", doc["service"])
}

func TestPersist_InvalidStage(t *testing.T) {
	root := t.TempDir()
	_, err := NewManager().Persist(root, "../x", resolved("../x", "service: api\n"))
	var pErr *Error
	require.True(t, errors.As(err, &pErr))

	_, statErr := os.Stat(filepath.Join(root, GitignoreFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPersist_UnwritableRoot(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, CacheDirName)
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

	_, err := NewManager().Persist(root, "TEST", resolved("TEST", "service: api\n"))
	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "mkdir", pErr.Op)
}

func TestLoad_NotFound(t *testing.T) {
	_, _, err := NewManager().Load(t.TempDir(), "TEST")
	assert.True(t, errors.Is(err, ErrNotFound))
}
