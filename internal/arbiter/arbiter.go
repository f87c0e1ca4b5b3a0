// Package arbiter tracks pending sign-in requests for numbers that are
// already bound to a live session.
//
// A request moves Pending -> Approved or Pending -> Denied exactly once and
// is forgotten as soon as it is resolved. There is no expiry: a request whose
// authorizer never answers stays pending for the life of the process.
package arbiter

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

type State string

const (
	Pending  State = "pending"
	Approved State = "approved"
	Denied   State = "denied"
)

var (
	ErrNotFound          = errors.New("sign-in request not found")
	ErrInvalidTransition = errors.New("invalid sign-in transition")
)

type Request struct {
	ID                string
	Target            string
	RequestingSession string
	State             State
	CreatedAt         time.Time
}

type Arbiter struct {
	mu      sync.Mutex
	pending map[string]Request
	ids     *idGenerator
	now     func() time.Time
}

func New() *Arbiter {
	return NewWithNow(time.Now)
}

func NewWithNow(now func() time.Time) *Arbiter {
	return &Arbiter{
		pending: make(map[string]Request),
		ids:     newIDGenerator(now),
		now:     now,
	}
}

// Open records a pending request by requestingSession to take over target.
func (a *Arbiter) Open(target, requestingSession string) Request {
	a.mu.Lock()
	defer a.mu.Unlock()

	req := Request{
		ID:                a.ids.next(),
		Target:            target,
		RequestingSession: requestingSession,
		State:             Pending,
		CreatedAt:         a.now(),
	}
	a.pending[req.ID] = req
	return req
}

func (a *Arbiter) Get(id string) (Request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	req, ok := a.pending[id]
	return req, ok
}

// Resolve moves a pending request to outcome and deletes it. The returned
// request carries the final state.
func (a *Arbiter) Resolve(id string, outcome State) (Request, error) {
	if outcome != Approved && outcome != Denied {
		return Request{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, Pending, outcome)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	req, ok := a.pending[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if req.State != Pending {
		return Request{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.State, outcome)
	}
	delete(a.pending, id)
	req.State = outcome
	return req, nil
}

// Len reports the number of pending requests.
func (a *Arbiter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
