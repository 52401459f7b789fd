// Package anneal provides the generic simulated-annealing driver shared by
// every placer: a geometric cooling schedule, accept/reject with restore on
// rejection, best-state tracking, and an optional multi-chain mode that runs
// independent chains in parallel and keeps the lowest-energy result.
package anneal

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/xid"
)

// State is the mutable state an annealer works over. A move must be able to
// undo itself so the driver can restore the prior state on rejection.
type State interface {
	// Move mutates the state in place as a trial step and returns an Undo
	// that restores the pre-move state exactly.
	Move(rng *rand.Rand) (undo func())
	// Energy returns the scalar cost of the current state.
	Energy() float64
	// Snapshot returns an opaque deep copy of the current state, suitable for
	// a later Restore. Used by the driver to remember the best state seen so
	// far without depending on Move's single-step undo, which is discarded
	// on every accepted trial.
	Snapshot() any
	// Restore replaces the current state with a previously taken Snapshot.
	Restore(snapshot any)
}

// Schedule holds the geometric cooling parameters.
type Schedule struct {
	Tmax  float64
	Tmin  float64
	Steps int
}

// DefaultSchedule mirrors the reference placer's defaults.
func DefaultSchedule() Schedule {
	return Schedule{Tmax: 25000, Tmin: 2.5, Steps: 10000}
}

// Sample is one iteration's progress, handed to a Driver's OnStep hook if
// set. Intended for an observer (e.g. internal/simbridge) to mirror into a
// monitoring system without the driver depending on one.
type Sample struct {
	Iteration   int
	Temperature float64
	Energy      float64
	BestEnergy  float64
	Accepted    bool
}

// Driver runs the annealing loop over a State.
type Driver struct {
	state    State
	schedule Schedule
	rng      *rand.Rand
	RunID    xid.ID

	bestEnergy float64
	bestState  any
	onStep     func(Sample)
}

// New builds a Driver seeded deterministically from seed (seed 0 by default
// per spec §3's lifecycle rule). The driver relies on State.Move's returned
// undo to revert rejected trials cheaply, and only calls State.Snapshot when
// a trial strictly improves on the best energy seen so far, so a full deep
// copy happens on improvement, not on every step.
func New(state State, schedule Schedule, seed uint64) *Driver {
	return &Driver{
		state:    state,
		schedule: schedule,
		rng:      rand.New(rand.NewPCG(seed, seed)),
		RunID:    xid.New(),
	}
}

// WithOnStep installs a callback invoked once per iteration with the
// iteration's Sample. Optional; intended for progress observers such as
// internal/simbridge. Returns the driver for chaining.
func (d *Driver) WithOnStep(onStep func(Sample)) *Driver {
	d.onStep = onStep
	return d
}

// Rand exposes the driver-owned RNG so a State's Move implementation can draw
// from the same deterministic stream the driver uses for acceptance (spec
// §4.C: "a single RNG owned by the driver").
func (d *Driver) Rand() *rand.Rand {
	return d.rng
}

// Run executes the cooling schedule. It returns the best energy observed,
// and leaves the State holding the best state observed, not merely wherever
// the last accepted trial left it: on every improvement the driver takes a
// Snapshot, and restores it into the State before returning (including on
// early cancellation), matching the reference `simanneal.Annealer.anneal`'s
// `self.state = self.best_state` at the end of its loop.
// ctx is checked between iterations; on cancellation the loop stops early and
// returns the best state observed so far, per the cooperative-cancellation
// contract in spec §5.
func (d *Driver) Run(ctx context.Context) float64 {
	t := d.schedule.Tmax
	ratio := math.Pow(d.schedule.Tmin/d.schedule.Tmax, 1/float64(d.schedule.Steps))

	energy := d.state.Energy()
	d.bestEnergy = energy
	d.bestState = d.state.Snapshot()

	for i := 0; i < d.schedule.Steps; i++ {
		select {
		case <-ctx.Done():
			d.state.Restore(d.bestState)
			return d.bestEnergy
		default:
		}

		undo := d.state.Move(d.rng)
		newEnergy := d.state.Energy()
		delta := newEnergy - energy

		accept := delta <= 0 || d.rng.Float64() < math.Exp(-delta/t)
		if accept {
			energy = newEnergy
			if energy < d.bestEnergy {
				d.bestEnergy = energy
				d.bestState = d.state.Snapshot()
			}
		} else if undo != nil {
			undo()
		}

		if d.onStep != nil {
			d.onStep(Sample{
				Iteration:   i,
				Temperature: t,
				Energy:      energy,
				BestEnergy:  d.bestEnergy,
				Accepted:    accept,
			})
		}

		t *= ratio
	}

	d.state.Restore(d.bestState)
	return d.bestEnergy
}

// BestEnergy returns the lowest energy observed across Run.
func (d *Driver) BestEnergy() float64 {
	return d.bestEnergy
}

// ChainResult is the outcome of one chain in a multi-chain run.
type ChainResult struct {
	RunID      xid.ID
	BestEnergy float64
}

// RunChains runs n independent chains in parallel, each built by newState
// with its own RNG substream (seed+i), and returns every chain's result. No
// mutable state is shared across chains; the caller picks the winner (lowest
// BestEnergy) after RunChains returns, matching spec §5's "synchronize only
// at the end" rule.
func RunChains(ctx context.Context, n int, seed uint64, schedule Schedule, newState func(chainSeed uint64) State) []ChainResult {
	results := make([]ChainResult, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			chainSeed := seed + uint64(i)
			d := New(newState(chainSeed), schedule, chainSeed)
			best := d.Run(ctx)
			results[i] = ChainResult{RunID: d.RunID, BestEnergy: best}
		}(i)
	}
	wg.Wait()
	return results
}

// BestOf returns the index of the chain result with the lowest BestEnergy.
func BestOf(results []ChainResult) int {
	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].BestEnergy < results[best].BestEnergy {
			best = i
		}
	}
	return best
}
