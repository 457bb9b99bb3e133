package confirm

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	for _, s := range []string{"yes", "Y", " confirm ", "true", "accept"} {
		assert.Equal(t, DecisionConfirmed, ParseAnswer(s), s)
	}
	for _, s := range []string{"no", "n", "", "maybe", "cancel"} {
		assert.Equal(t, DecisionDeclined, ParseAnswer(s), s)
	}
	assert.True(t, DecisionConfirmed.Proceed())
	assert.False(t, DecisionTimedOut.Proceed())
	assert.False(t, DecisionPending.Proceed())
}

func TestFixed(t *testing.T) {
	a, err := Fixed(DecisionConfirmed).Ask(context.Background(), Question{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirmed, a.Decision)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fixed(DecisionConfirmed).Ask(ctx, Question{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBroker(ttl time.Duration) (*Broker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBroker(ttl)
	b.now = clock.Now
	return b, clock
}

func TestBroker_IssueAndConfirm(t *testing.T) {
	b, clock := newTestBroker(time.Minute)
	ctx := context.Background()
	q := Question{ProjectRoot: "/p", Stage: "TEST", Message: "install?"}

	first, err := b.Ask(ctx, q, nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionPending, first.Decision)
	assert.NotEmpty(t, first.Ticket)
	assert.Equal(t, clock.Now().Add(time.Minute), first.ExpiresAt)
	assert.Equal(t, 1, b.Pending())

	second, err := b.Ask(ctx, q, &Reply{Ticket: first.Ticket, Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirmed, second.Decision)
	assert.Equal(t, 0, b.Pending())

	// A ticket answers exactly one round.
	third, err := b.Ask(ctx, q, &Reply{Ticket: first.Ticket, Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, DecisionTimedOut, third.Decision)
	assert.NotEmpty(t, third.Reason)
}

func TestBroker_Decline(t *testing.T) {
	b, _ := newTestBroker(time.Minute)
	q := Question{ProjectRoot: "/p"}

	first, err := b.Ask(context.Background(), q, nil)
	require.NoError(t, err)

	a, err := b.Ask(context.Background(), q, &Reply{Ticket: first.Ticket, Answer: "no"})
	require.NoError(t, err)
	assert.Equal(t, DecisionDeclined, a.Decision)
}

func TestBroker_Expired(t *testing.T) {
	b, clock := newTestBroker(time.Minute)
	q := Question{ProjectRoot: "/p"}

	first, err := b.Ask(context.Background(), q, nil)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	a, err := b.Ask(context.Background(), q, &Reply{Ticket: first.Ticket, Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, DecisionTimedOut, a.Decision)
	assert.Equal(t, "confirmation ticket expired", a.Reason)
}

func TestBroker_SweepsStaleTickets(t *testing.T) {
	b, clock := newTestBroker(time.Minute)
	_, err := b.Ask(context.Background(), Question{ProjectRoot: "/a"}, nil)
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	_, err = b.Ask(context.Background(), Question{ProjectRoot: "/b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Pending())
}

func TestBroker_WrongProject(t *testing.T) {
	b, _ := newTestBroker(time.Minute)

	first, err := b.Ask(context.Background(), Question{ProjectRoot: "/a"}, nil)
	require.NoError(t, err)

	a, err := b.Ask(context.Background(), Question{ProjectRoot: "/b"}, &Reply{Ticket: first.Ticket, Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, DecisionDeclined, a.Decision)
	assert.Contains(t, a.Reason, "different project")
}

func TestBroker_Cancelled(t *testing.T) {
	b, _ := newTestBroker(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Ask(ctx, Question{ProjectRoot: "/a"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.Pending())
}

func TestBroker_ConcurrentTicketsAreIndependent(t *testing.T) {
	b, _ := newTestBroker(time.Minute)
	var wg sync.WaitGroup
	tickets := make([]string, 20)

	for i := range tickets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := b.Ask(context.Background(), Question{ProjectRoot: "/p"}, nil)
			assert.NoError(t, err)
			tickets[i] = a.Ticket
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range tickets {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, len(tickets), b.Pending())
}

func TestPromptModel(t *testing.T) {
	q := Question{Message: "Install dependencies?", Options: DefaultOptions}

	t.Run("yes", func(t *testing.T) {
		m := newPromptModel(q, 0)
		assert.Nil(t, m.Init())
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
		assert.NotNil(t, cmd)
		assert.Equal(t, DecisionConfirmed, next.(promptModel).decision)
		assert.Contains(t, next.View(), "confirmed")
	})

	t.Run("escape declines", func(t *testing.T) {
		m := newPromptModel(q, 0)
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, DecisionDeclined, next.(promptModel).decision)
	})

	t.Run("timeout", func(t *testing.T) {
		m := newPromptModel(q, time.Second)
		assert.NotNil(t, m.Init())
		assert.Contains(t, m.View(), "times out after 1s")
		next, _ := m.Update(timeoutMsg{})
		assert.Equal(t, DecisionTimedOut, next.(promptModel).decision)
	})

	t.Run("other keys ignored", func(t *testing.T) {
		m := newPromptModel(q, 0)
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
		assert.Nil(t, cmd)
		assert.Empty(t, next.(promptModel).decision)
	})
}

func TestTerminal_ReplyShortCircuits(t *testing.T) {
	term := &Terminal{}
	a, err := term.Ask(context.Background(), Question{}, &Reply{Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirmed, a.Decision)
}
