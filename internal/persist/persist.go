// Package persist writes resolved configurations into the analysed project
// and keeps the cache directory out of version control.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"migrationmcp/internal/resolver"
	"migrationmcp/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	// CacheDirName is the per-project directory holding resolved artifacts.
	CacheDirName = ".rimac_migration"
	// GitignoreFile is the ignore list updated on every write.
	GitignoreFile = ".gitignore"

	gitignoreHeader = "# Rimac Migration MCP"
	gitignoreEntry  = CacheDirName + "/"
)

var stagePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ErrNotFound is returned by Load when no artifact exists for the stage.
var ErrNotFound = errors.New("resolved configuration not found")

// Error reports a failed persistence step.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Artifact describes a written configuration file.
type Artifact struct {
	Path             string `json:"path"`
	GitignoreUpdated bool   `json:"gitignore_updated"`
}

// ArtifactPath returns where the configuration for stage is stored.
func ArtifactPath(root, stage string) (string, error) {
	if !stagePattern.MatchString(stage) {
		return "", &Error{Op: "path", Path: root, Err: fmt.Errorf("stage %q is not usable in a file name", stage)}
	}
	return filepath.Join(root, CacheDirName, "serverless.resolved."+stage+".yaml"), nil
}

// Manager persists resolved configurations. Ignore-list updates are
// serialised within the process.
type Manager struct {
	mu sync.Mutex
}

// NewManager returns a Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Persist writes cfg for (root, stage), replacing any earlier artifact, and
// makes sure the cache directory is ignored.
func (m *Manager) Persist(root, stage string, cfg *resolver.ResolvedConfig) (*Artifact, error) {
	if cfg == nil {
		return nil, &Error{Op: "write", Path: root, Err: errors.New("nothing to persist")}
	}
	path, err := ArtifactPath(root, stage)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Op: "mkdir", Path: dir, Err: err}
	}

	data := cfg.Raw
	if len(bytes.TrimSpace(data)) == 0 {
		data, err = yaml.Marshal(cfg.Document)
		if err != nil {
			return nil, &Error{Op: "encode", Path: path, Err: err}
		}
	}
	if err := writeAtomic(path, data); err != nil {
		return nil, &Error{Op: "write", Path: path, Err: err}
	}
	logging.Info("Persist", "Wrote resolved configuration to %s", path)

	updated, err := m.ensureIgnored(root)
	if err != nil {
		return &Artifact{Path: path}, &Error{Op: "gitignore", Path: filepath.Join(root, GitignoreFile), Err: err}
	}
	return &Artifact{Path: path, GitignoreUpdated: updated}, nil
}

// Load reads the artifact for (root, stage). It returns the document and the
// artifact path.
func (m *Manager) Load(root, stage string) (map[string]any, string, error) {
	path, err := ArtifactPath(root, stage)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, &Error{Op: "read", Path: path, Err: ErrNotFound}
		}
		return nil, path, &Error{Op: "read", Path: path, Err: err}
	}
	doc, err := resolver.Parse(data)
	if err != nil {
		return nil, path, &Error{Op: "decode", Path: path, Err: err}
	}
	return doc, path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ensureIgnored appends the cache directory to .gitignore unless a line
// already names it. It reports whether the file changed.
func (m *Manager) ensureIgnored(root string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(root, GitignoreFile)
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if ignores(string(content)) {
		return false, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		b.WriteString("\n")
	}
	b.WriteString(gitignoreHeader + "\n")
	b.WriteString(gitignoreEntry + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return false, err
	}
	logging.Debug("Persist", "Added %s to %s", gitignoreEntry, path)
	return true, nil
}

func ignores(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		switch strings.TrimSpace(line) {
		case CacheDirName, gitignoreEntry, "/" + gitignoreEntry, "/" + CacheDirName:
			return true
		}
	}
	return false
}
