package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTicketTTL bounds how long an unanswered question stays valid.
const DefaultTicketTTL = 5 * time.Minute

type ticket struct {
	projectRoot string
	expiresAt   time.Time
}

// Broker issues confirmation tickets and resolves them on follow-up calls.
// Every ticket is answered at most once.
type Broker struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]ticket
}

// NewBroker creates a Broker whose tickets expire after ttl.
func NewBroker(ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Broker{
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]ticket),
	}
}

// Ask issues a ticket when reply is nil and resolves the ticket otherwise.
func (b *Broker) Ask(ctx context.Context, q Question, reply *Reply) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweepLocked(now)

	if reply == nil {
		id := uuid.NewString()
		t := ticket{projectRoot: q.ProjectRoot, expiresAt: now.Add(b.ttl)}
		b.pending[id] = t
		return Answer{Decision: DecisionPending, Ticket: id, ExpiresAt: t.expiresAt}, nil
	}

	t, ok := b.pending[reply.Ticket]
	if !ok {
		return Answer{
			Decision: DecisionTimedOut,
			Ticket:   reply.Ticket,
			Reason:   "confirmation ticket is unknown, expired or already answered",
		}, nil
	}
	delete(b.pending, reply.Ticket)

	if t.projectRoot != q.ProjectRoot {
		return Answer{
			Decision: DecisionDeclined,
			Ticket:   reply.Ticket,
			Reason:   "confirmation ticket was issued for a different project",
		}, nil
	}
	if !now.Before(t.expiresAt) {
		return Answer{Decision: DecisionTimedOut, Ticket: reply.Ticket, Reason: "confirmation ticket expired"}, nil
	}
	return Answer{Decision: ParseAnswer(reply.Answer), Ticket: reply.Ticket}, nil
}

// Pending returns the number of outstanding tickets.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// sweepLocked drops tickets that expired more than one TTL ago so that a
// late reply still reports a timeout instead of an unknown ticket.
func (b *Broker) sweepLocked(now time.Time) {
	for id, t := range b.pending {
		if now.Sub(t.expiresAt) > b.ttl {
			delete(b.pending, id)
		}
	}
}
