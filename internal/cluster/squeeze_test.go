package cluster_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/cluster"
	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

var _ = Describe("Squeeze", func() {
	var board *fabric.ReferenceFabric

	BeforeEach(func() {
		board = fabric.NewReferenceFabric(0, 0)
	})

	buildPlacer := func(seed uint64) *cluster.Placer {
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(smallClusters()).
			WithNetlist(smallNetlist()).
			WithSeed(seed).
			Build()
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	It("produces disjoint cell sets for every cluster", func() {
		p := buildPlacer(11)
		result := p.Squeeze()

		seen := map[geom.Position]bool{}
		for clusterID, cells := range result.Cells {
			for pos := range cells {
				_ = clusterID
				Expect(seen[pos]).To(BeFalse(), "cell %v claimed by more than one cluster", pos)
				seen[pos] = true
			}
		}
	})

	It("gives every cluster exactly its expected cell count", func() {
		p := buildPlacer(13)
		result := p.Squeeze()

		// fold-register mode: a cluster's footprint is max(PE count, register
		// count), since a cell folds one PE and one register together. Every
		// cluster here has 2 PEs and 1 register, so the footprint is 2 cells.
		clusters := smallClusters()
		for _, id := range clusters.Order {
			Expect(result.Cells[id]).To(HaveLen(2))
		}
	})

	It("places every cell on an architecturally legal position", func() {
		p := buildPlacer(17)
		result := p.Squeeze()

		for _, cells := range result.Cells {
			for pos := range cells {
				Expect(board.IsCellLegal(pos, "clb")).To(BeTrue())
			}
		}
	})

	It("is deterministic for a fixed seed", func() {
		r1 := buildPlacer(23).Squeeze()
		r2 := buildPlacer(23).Squeeze()
		Expect(r1.Centroids).To(Equal(r2.Centroids))

		for id, cells := range r1.Cells {
			Expect(cells).To(Equal(r2.Cells[id]))
		}
	})

	It("computes each centroid as the mean of its cluster's cells", func() {
		p := buildPlacer(29)
		result := p.Squeeze()

		for clusterID, cells := range result.Cells {
			var sumX, sumY int
			for pos := range cells {
				sumX += pos.X
				sumY += pos.Y
			}
			want := len(cells)
			Expect(result.Centroids[clusterID].X).To(Equal(sumX / want))
			Expect(result.Centroids[clusterID].Y).To(Equal(sumY / want))
		}
	})
})

var _ = Describe("Squeeze with a single oversized cluster", func() {
	It("still converges without panicking", func() {
		board := fabric.NewReferenceFabric(0, 0)
		clusters := cluster.NewSet([]int{0}, map[int][]block.ID{
			0: {"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "r0"},
		})
		p, err := cluster.NewBuilder().
			WithBoard(board).
			WithClusters(clusters).
			WithNetlist(hpwl.Netlist{}).
			WithSeed(41).
			Build()
		Expect(err).NotTo(HaveOccurred())

		var result cluster.SqueezeResult
		Expect(func() { result = p.Squeeze() }).NotTo(Panic())
		// fold-register mode sizes a cluster by max(PE count, register count):
		// 9 PEs vs 1 register here, so the materialized footprint is 9 cells.
		Expect(result.Cells[0]).To(HaveLen(9))
	})
})
