// Package project models an analysed serverless project and inspects it for
// installed third-party dependencies.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Project is a serverless application repository identified by its root path.
type Project struct {
	// Root is the absolute, cleaned project path.
	Root string
}

// InvalidPathError is returned by Open when the supplied path cannot name a project.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid project path %q: %s", e.Path, e.Reason)
}

// Open validates path and returns the Project rooted there.
// The path must be absolute and name an existing directory.
func Open(path string) (Project, error) {
	if path == "" {
		return Project{}, &InvalidPathError{Path: path, Reason: "path is empty"}
	}
	if !filepath.IsAbs(path) {
		return Project{}, &InvalidPathError{Path: path, Reason: "path must be absolute"}
	}

	root := filepath.Clean(path)
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return Project{}, &InvalidPathError{Path: path, Reason: "path does not exist"}
	}
	if err != nil {
		return Project{}, &InvalidPathError{Path: path, Reason: err.Error()}
	}
	if !info.IsDir() {
		return Project{}, &InvalidPathError{Path: path, Reason: "path is not a directory"}
	}
	return Project{Root: root}, nil
}

// Join returns a path inside the project.
func (p Project) Join(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}
