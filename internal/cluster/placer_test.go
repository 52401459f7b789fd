package cluster_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/cluster"
	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

func smallClusters() cluster.Set {
	return cluster.NewSet(
		[]int{0, 1, 2, 3},
		map[int][]block.ID{
			0: {"p0", "p1", "r0"},
			1: {"p2", "p3", "r1"},
			2: {"p4", "p5", "r2"},
			3: {"p6", "p7", "r3"},
		},
	)
}

func smallNetlist() hpwl.Netlist {
	return hpwl.Netlist{
		"n0": {"p0", "p2"},
		"n1": {"p2", "p4"},
		"n2": {"p4", "p6"},
		"n3": {"p6", "p0"},
	}
}

var _ = Describe("Builder", func() {
	It("panics when no board is supplied", func() {
		Expect(func() {
			_, _ = cluster.NewBuilder().WithClusters(smallClusters()).Build()
		}).To(Panic())
	})

	It("panics on a non-positive place factor", func() {
		Expect(func() {
			cluster.NewBuilder().WithPlaceFactor(0)
		}).To(Panic())
	})

	It("builds a placer that places every cluster", func() {
		board := fabric.NewReferenceFabric(0, 0)
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithNetlist(smallNetlist()).
			WithSeed(1).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.State()).To(HaveLen(4))
	})
})

var _ = Describe("Placer", func() {
	var board *fabric.ReferenceFabric

	BeforeEach(func() {
		board = fabric.NewReferenceFabric(0, 0)
	})

	It("produces a deterministic initial placement for a fixed seed", func() {
		p1, err1 := cluster.NewBuilder().
			WithBoard(board).WithClusters(smallClusters()).WithNetlist(smallNetlist()).WithSeed(7).Build()
		Expect(err1).NotTo(HaveOccurred())
		p2, err2 := cluster.NewBuilder().
			WithBoard(board).WithClusters(smallClusters()).WithNetlist(smallNetlist()).WithSeed(7).Build()
		Expect(err2).NotTo(HaveOccurred())
		Expect(p1.State()).To(Equal(p2.State()))
	})

	It("places every cluster inside the board margin", func() {
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithNetlist(smallNetlist()).
			WithSeed(3).
			Build()
		Expect(err).NotTo(HaveOccurred())

		state := p.State()
		for id, pos := range state {
			Expect(pos.X).To(BeNumerically(">=", 1))
			Expect(pos.Y).To(BeNumerically(">=", 1))
			_ = id
		}
	})

	It("undoes a rejected move back to the prior state", func() {
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithNetlist(smallNetlist()).
			WithSeed(5).
			Build()
		Expect(err).NotTo(HaveOccurred())

		before := p.State()
		rng := rand.New(rand.NewPCG(5, 5))
		undo := p.Move(rng)
		undo()
		Expect(p.State()).To(Equal(before))
	})

	It("reports a finite, non-negative energy", func() {
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithNetlist(smallNetlist()).
			WithSeed(9).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Energy()).To(BeNumerically(">=", 0))
	})

	It("never mutates the caller's pinned board positions", func() {
		pinned := hpwl.PositionMap{"i0": {X: 5, Y: 5}}
		netlist := hpwl.Netlist{"n0": {"p0", "i0"}}
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithBoardPos(pinned).
			WithNetlist(netlist).
			WithSeed(2).
			Build()
		Expect(err).NotTo(HaveOccurred())
		_ = p.Energy()
		Expect(pinned).To(Equal(hpwl.PositionMap{"i0": {X: 5, Y: 5}}))
	})
})
