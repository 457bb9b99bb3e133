// Package confirm asks the caller a yes/no question before remediation runs.
//
// Two askers are provided. Broker models the question as an explicit
// request/response boundary: the first call returns a pending ticket and a
// later call carries the answer, so no goroutine is parked while the human
// thinks. Terminal asks on an interactive terminal and blocks the calling
// request only.
package confirm

import (
	"context"
	"strings"
	"time"
)

// Decision is the outcome of a confirmation round.
type Decision string

const (
	DecisionConfirmed Decision = "confirmed"
	DecisionDeclined  Decision = "declined"
	DecisionTimedOut  Decision = "timed_out"
	// DecisionPending means the question was issued and the answer arrives in a follow-up call.
	DecisionPending Decision = "pending"
)

// Proceed reports whether remediation may run.
func (d Decision) Proceed() bool {
	return d == DecisionConfirmed
}

// DefaultOptions are offered with every question.
var DefaultOptions = []string{"yes", "no"}

// Question is what the caller is asked.
type Question struct {
	ProjectRoot string
	Stage       string
	Message     string
	Options     []string
}

// Reply carries the caller's answer to a previously issued ticket.
type Reply struct {
	Ticket string
	Answer string
}

// Answer is the result of Ask.
type Answer struct {
	Decision Decision
	// Ticket and ExpiresAt are set for DecisionPending.
	Ticket    string
	ExpiresAt time.Time
	// Reason explains declined and timed out decisions that were not a plain "no".
	Reason string
}

// Asker asks a single question. Implementations must return ctx.Err() when
// ctx is cancelled before a decision is reached.
type Asker interface {
	Ask(ctx context.Context, q Question, reply *Reply) (Answer, error)
}

// ParseAnswer maps a free-form answer to a decision. Anything that is not
// recognisably affirmative is a decline.
func ParseAnswer(s string) Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "confirm", "confirmed", "accept", "ok":
		return DecisionConfirmed
	default:
		return DecisionDeclined
	}
}

// Fixed answers every question with the same decision. The CLI uses it for
// --yes and --no.
type Fixed Decision

// Ask implements Asker.
func (f Fixed) Ask(ctx context.Context, q Question, reply *Reply) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	return Answer{Decision: Decision(f)}, nil
}
