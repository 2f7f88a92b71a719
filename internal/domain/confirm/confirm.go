// Package confirm implements the two-phase gate in front of destructive actions.
//
// Request parks an action behind a single-use token; Take hands it back
// exactly once, to the session that asked for it, before the TTL runs out.
package confirm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names a destructive action.
type Kind string

// Destructive actions that need a confirmation.
const (
	KindDeleteEvent  Kind = "delete_event"
	KindResetSeason  Kind = "reset_season"
	KindDeleteSeason Kind = "delete_season"
)

// Action is what will run once confirmed.
type Action struct {
	Kind     Kind
	SeasonID string
	EventID  string
	// Prompt is the question shown to the user.
	Prompt string
}

// Pending is an action waiting for its confirmation.
type Pending struct {
	Token     string
	Action    Action
	Owner     string
	ExpiresAt time.Time
}

// Gate holds pending actions.
type Gate struct {
	mu      sync.Mutex
	pending map[string]Pending
	ttl     time.Duration
	now     func() time.Time
}

// NewGate creates a gate with a two minute TTL unless overridden.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		pending: make(map[string]Pending),
		ttl:     2 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request parks a for owner and returns its token.
func (g *Gate) Request(owner string, a Action) Pending {
	p := Pending{
		Token:     uuid.NewString(),
		Action:    a,
		Owner:     owner,
		ExpiresAt: g.now().Add(g.ttl),
	}
	g.mu.Lock()
	g.pending[p.Token] = p
	g.mu.Unlock()
	return p
}

// Take removes and returns the action behind token. A token belonging to
// another owner is reported as unknown.
func (g *Gate) Take(owner, token string) (Action, error) {
	p, err := g.TakePending(owner, token)
	return p.Action, err
}

// TakePending is Take returning the whole pending entry, so it can be
// handed back with Restore.
func (g *Gate) TakePending(owner, token string) (Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[token]
	if !ok || p.Owner != owner {
		return Pending{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	delete(g.pending, token)
	if !g.now().Before(p.ExpiresAt) {
		return Pending{}, fmt.Errorf("%w: %s", ErrExpired, token)
	}
	return p, nil
}

// Restore parks p again under its token and expiry, after a taken action
// could not run.
func (g *Gate) Restore(p Pending) { //nolint:gocritic // hugeParam
	g.mu.Lock()
	g.pending[p.Token] = p
	g.mu.Unlock()
}

// Cancel discards the action behind token and returns it.
func (g *Gate) Cancel(owner, token string) (Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[token]
	if !ok || p.Owner != owner {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	delete(g.pending, token)
	return p.Action, nil
}

// Sweep drops expired actions and returns how many were removed.
func (g *Gate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	n := 0
	for token, p := range g.pending {
		if !now.Before(p.ExpiresAt) {
			delete(g.pending, token)
			n++
		}
	}
	return n
}

// Len returns the number of pending actions.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
