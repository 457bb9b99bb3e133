package resolver

import (
	"fmt"
	"strings"
)

// Reason classifies a resolution failure.
type Reason string

const (
	ReasonStart     Reason = "start"
	ReasonExit      Reason = "exit"
	ReasonTimeout   Reason = "timeout"
	ReasonParse     Reason = "parse"
	ReasonCancelled Reason = "cancelled"
)

// ResolutionError reports a failed resolution. Stderr holds the resolver's
// diagnostic output verbatim.
type ResolutionError struct {
	Reason   Reason
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ReasonExit:
		fmt.Fprintf(&b, "%s exited with code %d", e.Command, e.ExitCode)
	case ReasonParse:
		fmt.Fprintf(&b, "%s produced unparsable output: %v", e.Command, e.Err)
	default:
		fmt.Fprintf(&b, "%s failed (%s): %v", e.Command, e.Reason, e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Err }
