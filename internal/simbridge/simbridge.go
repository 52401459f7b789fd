// Package simbridge is an optional bridge that mirrors an annealer's
// per-iteration progress into an akita/v4/sim-driven monitoring pipeline, so
// a long placement run can be watched the same way the teacher's CGRA
// simulation components are watched. Nothing in internal/anneal or the
// placer packages depends on it; it only consumes anneal.Sample values via
// anneal.Driver.WithOnStep.
package simbridge

import (
	"sync"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/zeonica-pnr/internal/anneal"
)

// Component is a ticking akita component that drains queued anneal.Sample
// values one per tick and records the most recent one, the way
// core.Core.Tick drains one pending memory response per tick.
type Component struct {
	*sim.TickingComponent

	mu      sync.Mutex
	pending []anneal.Sample
	latest  anneal.Sample
	history []anneal.Sample
}

// NewComponent builds a Component ticking at freq on engine, grounded on
// core.Builder.Build's sim.NewTickingComponent(name, engine, freq, c) shape.
func NewComponent(name string, engine sim.Engine, freq sim.Freq) *Component {
	c := &Component{}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	return c
}

// Publish enqueues a sample for the next Tick to drain. Safe to call from
// any goroutine, including the concurrent chains anneal.RunChains spawns.
func (c *Component) Publish(s anneal.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, s)
}

// Tick drains one pending sample per call, recording it as latest and
// appending it to history, mirroring core.Core.Tick's one-item-per-tick
// drain of its waiting-response queue.
func (c *Component) Tick(now sim.VTimeInSec) (madeProgress bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return false
	}
	s := c.pending[0]
	c.pending = c.pending[1:]
	c.latest = s
	c.history = append(c.history, s)
	return true
}

// Latest returns the most recently drained sample.
func (c *Component) Latest() anneal.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// History returns every sample drained so far, in iteration order.
func (c *Component) History() []anneal.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]anneal.Sample, len(c.history))
	copy(out, c.history)
	return out
}

// Register attaches the component to monitor, mirroring config.go's
// "if d.monitor != nil { d.monitor.RegisterComponent(tile.Core) }" wiring.
func Register(monitor *monitoring.Monitor, c *Component) {
	if monitor != nil {
		monitor.RegisterComponent(c)
	}
}

// Hook returns an anneal.Driver.WithOnStep-compatible callback that
// publishes every sample onto c.
func Hook(c *Component) func(anneal.Sample) {
	return c.Publish
}
