package detail_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/detail"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

func cellPositions(n int) []geom.Position {
	out := make([]geom.Position, n)
	for i := 0; i < n; i++ {
		out[i] = geom.Position{X: i, Y: 0}
	}
	return out
}

var _ = Describe("Placer", func() {
	blocks := []block.ID{"p0", "p1", "p2", "r0", "r1", "r2"}
	netlist := hpwl.Netlist{
		"n0": {"p0", "r0"},
		"n1": {"p1", "r1"},
		"n2": {"p2", "r2"},
		"n3": {"p0", "p1"},
	}

	It("folds every PE with a register onto half as many cells", func() {
		p := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 1)
		state := p.State()
		Expect(state).To(HaveLen(6))

		byCell := map[geom.Position][]block.ID{}
		for blk, pos := range state {
			byCell[pos] = append(byCell[pos], blk)
		}
		Expect(byCell).To(HaveLen(3))
		for _, occupants := range byCell {
			Expect(occupants).To(HaveLen(2))
		}
	})

	It("never folds a register with a PE it is register-exclusion-forbidden from", func() {
		// r0 drives p0 (same net n0); they must never share a cell.
		p := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 1)
		state := p.State()
		Expect(state["p0"]).NotTo(Equal(state["r0"]))
	})

	It("is deterministic for a fixed seed", func() {
		p1 := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 2)
		p2 := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 2)
		Expect(p1.State()).To(Equal(p2.State()))
	})

	It("undoes a rejected move back to the prior state", func() {
		p := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 4)
		before := p.State()
		rng := rand.New(rand.NewPCG(4, 4))
		undo := p.Move(rng)
		undo()
		Expect(p.State()).To(Equal(before))
	})

	It("reports a non-negative energy", func() {
		p := detail.New(blocks, cellPositions(3), netlist, hpwl.PositionMap{}, nil, true, 6)
		Expect(p.Energy()).To(BeNumerically(">=", 0))
	})

	It("assigns one block per cell without folding", func() {
		onlyPEs := []block.ID{"p0", "p1", "p2"}
		p := detail.New(onlyPEs, cellPositions(3), hpwl.Netlist{}, hpwl.PositionMap{}, nil, false, 1)
		state := p.State()
		seen := map[geom.Position]bool{}
		for _, pos := range state {
			Expect(seen[pos]).To(BeFalse())
			seen[pos] = true
		}
	})
})

var _ = Describe("Builder", func() {
	It("builds a Placer equivalent to calling New directly", func() {
		blocks := []block.ID{"p0", "p1", "r0"}
		netlist := hpwl.Netlist{"n0": {"p0", "r0"}}

		want := detail.New(blocks, cellPositions(2), netlist, hpwl.PositionMap{}, nil, true, 3)
		got := detail.NewBuilder().
			WithBlocks(blocks).
			WithAvailablePos(cellPositions(2)).
			WithNetlist(netlist).
			WithSeed(3).
			Build()

		Expect(got.State()).To(Equal(want.State()))
	})

	It("defaults to fold-register mode on", func() {
		blocks := []block.ID{"p0", "p1", "r0"}
		p := detail.NewBuilder().
			WithBlocks(blocks).
			WithAvailablePos(cellPositions(2)).
			WithNetlist(hpwl.Netlist{}).
			Build()
		Expect(p.State()).To(HaveLen(3))
	})
})
