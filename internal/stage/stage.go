// Package stage decides which deployment stage a request runs against.
package stage

import "strings"

const (
	// EnvVar overrides the default stage when a request names none.
	EnvVar = "MCP_STAGE"

	// Fallback is used when neither a request, the environment nor the
	// configuration supply a stage.
	Fallback = "TEST"
)

// Resolver picks the stage for a single request. The zero value resolves
// every request without an explicit stage to Fallback.
type Resolver struct {
	// Default is the configured default stage.
	Default string
	// Override holds the process-wide environment override, read once at
	// startup by the configuration layer.
	Override string
}

// Resolve applies the precedence explicit > override > default > Fallback.
// It never returns an empty string.
func (r Resolver) Resolve(explicit string) string {
	for _, candidate := range []string{explicit, r.Override, r.Default} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return Fallback
}
