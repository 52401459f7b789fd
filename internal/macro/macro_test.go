package macro_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/macro"
)

func alwaysLegal(geom.Position, block.ID) bool { return true }

func fixture() (*macro.Placer, map[block.ID]geom.Position) {
	available := []geom.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	current := map[block.ID]geom.Position{
		"m0": {X: 0, Y: 0},
		"m1": {X: 1, Y: 0},
	}
	netlist := hpwl.Netlist{"n0": {"m0", "m1"}}
	p := macro.New(available, netlist, hpwl.PositionMap{}, current, alwaysLegal)
	return p, current
}

var _ = Describe("Placer", func() {
	It("panics when legality is nil", func() {
		Expect(func() {
			macro.New(nil, hpwl.Netlist{}, hpwl.PositionMap{}, map[block.ID]geom.Position{}, nil)
		}).To(Panic())
	})

	It("seeds state from the caller's current positions", func() {
		p, current := fixture()
		Expect(p.State()).To(Equal(current))
	})

	It("undoes a move back to the prior state", func() {
		p, before := fixture()
		rng := rand.New(rand.NewPCG(1, 1))
		undo := p.Move(rng)
		undo()
		Expect(p.State()).To(Equal(before))
	})

	It("keeps every block at a distinct position after a move", func() {
		p, _ := fixture()
		rng := rand.New(rand.NewPCG(2, 2))
		p.Move(rng)
		state := p.State()
		seen := map[geom.Position]bool{}
		for _, pos := range state {
			Expect(seen[pos]).To(BeFalse())
			seen[pos] = true
		}
	})

	It("reports a non-negative energy", func() {
		p, _ := fixture()
		Expect(p.Energy()).To(BeNumerically(">=", 0))
	})
})

var _ = Describe("Builder", func() {
	It("builds a Placer equivalent to calling New directly", func() {
		available := []geom.Position{{X: 0, Y: 0}, {X: 1, Y: 0}}
		current := map[block.ID]geom.Position{"m0": {X: 0, Y: 0}}
		netlist := hpwl.Netlist{"n0": {"m0"}}

		want := macro.New(available, netlist, hpwl.PositionMap{}, current, alwaysLegal)
		got := macro.NewBuilder().
			WithAvailablePos(available).
			WithNetlist(netlist).
			WithCurrent(current).
			WithLegality(alwaysLegal).
			Build()

		Expect(got.State()).To(Equal(want.State()))
	})

	It("panics when no legality predicate is supplied", func() {
		Expect(func() {
			macro.NewBuilder().
				WithAvailablePos([]geom.Position{{X: 0, Y: 0}}).
				WithCurrent(map[block.ID]geom.Position{}).
				Build()
		}).To(Panic())
	})
})
