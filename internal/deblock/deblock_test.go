package deblock_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/deblock"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

func alwaysLegal(geom.Position, block.ID) bool { return true }

func fixture() (*deblock.Placer, []geom.Position) {
	blockPos := map[block.ID]geom.Position{
		"c0": {X: 3, Y: 3},
		"c1": {X: 4, Y: 3},
		"u0": {X: 5, Y: 3},
		"x0": {X: 10, Y: 3},
	}
	available := []geom.Position{
		{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 7, Y: 3}, {X: 8, Y: 3},
	}
	netlist := hpwl.Netlist{"n0": {"c0", "c1"}}
	p := deblock.New(blockPos, available, netlist, hpwl.PositionMap{}, alwaysLegal, nil)
	return p, available
}

var _ = Describe("Placer", func() {
	It("excludes pinned block kinds from the annealed state", func() {
		p, _ := fixture()
		positions := p.BlockPositions()
		Expect(positions["u0"]).To(Equal(geom.Position{X: 5, Y: 3}))
		Expect(positions["x0"]).To(Equal(geom.Position{X: 10, Y: 3}))
	})

	It("keeps excluded blocks fixed across moves", func() {
		p, _ := fixture()
		rng := rand.New(rand.NewPCG(1, 1))
		for i := 0; i < 20; i++ {
			p.Move(rng)
		}
		positions := p.BlockPositions()
		Expect(positions["u0"]).To(Equal(geom.Position{X: 5, Y: 3}))
		Expect(positions["x0"]).To(Equal(geom.Position{X: 10, Y: 3}))
	})

	It("undoes a move back to the prior assignment", func() {
		p, _ := fixture()
		before := p.BlockPositions()
		rng := rand.New(rand.NewPCG(3, 3))
		undo := p.Move(rng)
		undo()
		Expect(p.BlockPositions()).To(Equal(before))
	})

	It("reports a non-negative energy", func() {
		p, _ := fixture()
		Expect(p.Energy()).To(BeNumerically(">=", 0))
	})

	It("panics when there are fewer positions than blocks", func() {
		Expect(func() {
			deblock.New(map[block.ID]geom.Position{"c0": {X: 0, Y: 0}, "c1": {X: 1, Y: 0}},
				[]geom.Position{{X: 0, Y: 0}}, hpwl.Netlist{}, hpwl.PositionMap{}, alwaysLegal, nil)
		}).To(Panic())
	})

	It("applies the reference default legality when none is supplied", func() {
		blockPos := map[block.ID]geom.Position{"c0": {X: 3, Y: 3}, "p0": {X: 4, Y: 3}}
		available := []geom.Position{{X: 3, Y: 3}, {X: 4, Y: 3}}
		p := deblock.New(blockPos, available, hpwl.Netlist{}, hpwl.PositionMap{}, nil, nil)
		// p0 is a PE, not a complex ("c") block: the default legality never
		// allows it to move, so many attempted moves should leave state fixed.
		rng := rand.New(rand.NewPCG(9, 9))
		before := p.BlockPositions()
		for i := 0; i < 10; i++ {
			p.Move(rng)
		}
		Expect(p.BlockPositions()["p0"]).To(Equal(before["p0"]))
	})
})

var _ = Describe("Builder", func() {
	It("builds a Placer equivalent to calling New directly", func() {
		blockPos := map[block.ID]geom.Position{"c0": {X: 3, Y: 3}, "u0": {X: 5, Y: 3}}
		available := []geom.Position{{X: 3, Y: 3}, {X: 7, Y: 3}}
		netlist := hpwl.Netlist{"n0": {"c0"}}

		want := deblock.New(blockPos, available, netlist, hpwl.PositionMap{}, alwaysLegal, nil)
		got := deblock.NewBuilder().
			WithBlockPos(blockPos).
			WithAvailablePos(available).
			WithNetlist(netlist).
			WithLegality(alwaysLegal).
			Build()

		Expect(got.BlockPositions()).To(Equal(want.BlockPositions()))
	})
})
