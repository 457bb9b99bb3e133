package analysis

import (
	"errors"
	"fmt"

	"migrationmcp/internal/persist"
	"migrationmcp/pkg/logging"
)

// ErrResolvedConfigNotFound is returned when no artifact exists for the stage.
var ErrResolvedConfigNotFound = errors.New("ResolvedConfigNotFound")

// Loader reads persisted configurations.
type Loader interface {
	Load(root, stage string) (map[string]any, string, error)
}

// Report is the result of analysing one persisted configuration.
type Report struct {
	ProjectPath   string    `json:"project_path"`
	Stage         string    `json:"stage"`
	AnalyzedFile  string    `json:"analyzed_file"`
	FindingsCount int       `json:"findings_count"`
	Findings      []Finding `json:"findings"`
}

// NotFoundError points the caller at the step that produces the artifact.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find resolved config at %s; run get_serverless_config first", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrResolvedConfigNotFound }

// Analyzer scans persisted configurations for database references.
type Analyzer struct {
	loader   Loader
	prefixes []string
}

// NewAnalyzer returns an Analyzer using prefixes, or DefaultPrefixes when empty.
func NewAnalyzer(loader Loader, prefixes []string) *Analyzer {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Analyzer{loader: loader, prefixes: prefixes}
}

// Analyze loads the artifact for (root, stage) and scans it.
func (a *Analyzer) Analyze(root, stage string) (*Report, error) {
	doc, path, err := a.loader.Load(root, stage)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to load resolved config: %w", err)
	}

	findings := Scan(doc, a.prefixes)
	logging.Info("Analysis", "Found %d database references in %s", len(findings), path)
	return &Report{
		ProjectPath:   root,
		Stage:         stage,
		AnalyzedFile:  path,
		FindingsCount: len(findings),
		Findings:      findings,
	}, nil
}
