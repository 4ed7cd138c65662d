package resilience

import (
	"sync"
	"time"
)

// Gate admits at most one run at a time and drops triggers that arrive
// within minInterval of the previous admitted start.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	running     bool
	lastStart   time.Time
	now         func() time.Time
}

func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval, now: time.Now}
}

// TryEnter reports whether the caller may run. A true result must be paired
// with Leave.
func (g *Gate) TryEnter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return false
	}
	now := g.now()
	if !g.lastStart.IsZero() && now.Sub(g.lastStart) < g.minInterval {
		return false
	}
	g.running = true
	g.lastStart = now
	return true
}

func (g *Gate) Leave() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

// Run executes fn when the gate admits it and reports whether it ran.
func (g *Gate) Run(fn func()) bool {
	if !g.TryEnter() {
		return false
	}
	defer g.Leave()
	fn()
	return true
}
