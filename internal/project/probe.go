package project

import (
	"os"
)

// DependencyStatus reports whether third-party packages are installed.
type DependencyStatus string

const (
	DependenciesSatisfied DependencyStatus = "satisfied"
	DependenciesMissing   DependencyStatus = "missing"
)

const (
	DefaultMarker   = "node_modules"
	DefaultManifest = "package.json"
)

// ProbeResult is the outcome of a single dependency probe.
type ProbeResult struct {
	Status DependencyStatus `json:"status"`
	// Marker is the marker directory that satisfied the probe, if any.
	Marker      string `json:"marker,omitempty"`
	HasManifest bool   `json:"has_manifest"`
}

// Probe inspects a project root for installed-dependency markers.
// It only reads the filesystem and keeps no state between calls.
type Probe struct {
	Markers  []string
	Manifest string
}

// NewProbe returns a Probe, substituting defaults for empty settings.
func NewProbe(markers []string, manifest string) *Probe {
	if len(markers) == 0 {
		markers = []string{DefaultMarker}
	}
	if manifest == "" {
		manifest = DefaultManifest
	}
	return &Probe{Markers: markers, Manifest: manifest}
}

// Probe reports SATISFIED iff one of the markers exists as a directory at the project root.
func (pr *Probe) Probe(p Project) ProbeResult {
	result := ProbeResult{Status: DependenciesMissing}

	if info, err := os.Stat(p.Join(pr.Manifest)); err == nil && !info.IsDir() {
		result.HasManifest = true
	}

	for _, marker := range pr.Markers {
		info, err := os.Stat(p.Join(marker))
		if err == nil && info.IsDir() {
			result.Status = DependenciesSatisfied
			result.Marker = marker
			break
		}
	}
	return result
}
