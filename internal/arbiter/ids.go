package arbiter

import (
	"strconv"
	"sync"
	"time"
)

// idGenerator derives request ids from the wall clock in milliseconds and
// never hands out the same value twice, even within one millisecond or when
// the clock steps back.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDGenerator(now func() time.Time) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := g.now().UnixMilli()
	if v <= g.last {
		v = g.last + 1
	}
	g.last = v
	return strconv.FormatInt(v, 10)
}
