package anneal_test

import (
	"context"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/anneal"
)

// scalarState walks an integer toward zero; energy is its absolute value.
// Simple enough to reason exactly about best-energy monotonicity (P4).
type scalarState struct {
	value int
}

func (s *scalarState) Move(rng *rand.Rand) func() {
	prev := s.value
	if rng.IntN(2) == 0 {
		s.value++
	} else {
		s.value--
	}
	return func() { s.value = prev }
}

func (s *scalarState) Energy() float64 {
	if s.value < 0 {
		return float64(-s.value)
	}
	return float64(s.value)
}

func (s *scalarState) Snapshot() any {
	return s.value
}

func (s *scalarState) Restore(snapshot any) {
	s.value = snapshot.(int)
}

var _ = Describe("Driver", func() {
	It("never reports a best energy worse than the initial energy", func() {
		state := &scalarState{value: 50}
		initial := state.Energy()
		d := anneal.New(state, anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 2000}, 0)
		best := d.Run(context.Background())
		Expect(best).To(BeNumerically("<=", initial))
	})

	It("leaves the State holding the best-seen state, not just the last trial", func() {
		state := &scalarState{value: 50}
		d := anneal.New(state, anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 2000}, 0)
		best := d.Run(context.Background())
		Expect(state.Energy()).To(Equal(best))
	})

	It("is deterministic for a fixed seed", func() {
		run := func() float64 {
			state := &scalarState{value: 50}
			d := anneal.New(state, anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 500}, 0)
			return d.Run(context.Background())
		}
		Expect(run()).To(Equal(run()))
	})

	It("stops early when the context is cancelled", func() {
		state := &scalarState{value: 50}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := anneal.New(state, anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 1000000}, 0)
		best := d.Run(ctx)
		Expect(best).To(Equal(state.Energy()))
	})

	It("restores state on a rejected move", func() {
		state := &scalarState{value: 0}
		// Tmin == Tmax == tiny means cooling never raises value above
		// optimum for long without being rejected eventually; instead,
		// directly exercise Move+undo.
		rng := rand.New(rand.NewPCG(1, 1))
		before := state.value
		undo := state.Move(rng)
		Expect(state.value).ToNot(Equal(before))
		undo()
		Expect(state.value).To(Equal(before))
	})
})

var _ = Describe("WithOnStep", func() {
	It("invokes the callback once per iteration", func() {
		state := &scalarState{value: 10}
		d := anneal.New(state, anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 50}, 0)
		count := 0
		d.WithOnStep(func(s anneal.Sample) { count++ })
		d.Run(context.Background())
		Expect(count).To(Equal(50))
	})
})

var _ = Describe("RunChains", func() {
	It("runs independent chains and lets the caller pick the best", func() {
		results := anneal.RunChains(context.Background(), 4, 0,
			anneal.Schedule{Tmax: 100, Tmin: 1, Steps: 200},
			func(seed uint64) anneal.State {
				return &scalarState{value: 30}
			})
		Expect(results).To(HaveLen(4))
		idx := anneal.BestOf(results)
		for _, r := range results {
			Expect(results[idx].BestEnergy).To(BeNumerically("<=", r.BestEnergy))
		}
	})
})
