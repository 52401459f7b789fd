// Demo program exercising the cluster placer followed by the detailed
// placer on one of its clusters, the way samples/fir/main.go exercises one
// path through the core and exits via atexit.
package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/zeonica-pnr/internal/anneal"
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/cluster"
	"github.com/sarchlab/zeonica-pnr/internal/detail"
	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/netreduce"
)

func main() {
	clusters := cluster.NewSet(
		[]int{0, 1},
		map[int][]block.ID{
			0: {"p0", "p1", "p2", "p3", "r0", "r1", "r2", "r3"},
			1: {"p4", "p5", "r4"},
		},
	)
	netlist := hpwl.Netlist{
		"n0": {"p0", "p1"},
		"n1": {"p1", "p2"},
		"n2": {"r0", "p0"},
		"n3": {"p0", "p4"},
	}

	board := fabric.NewReferenceFabric(0, 0)
	placer, err := cluster.NewBuilder().
		WithBoard(board).
		WithClusters(clusters).
		WithNetlist(netlist).
		WithSeed(0).
		Build()
	if err != nil {
		panic(err)
	}

	driver := anneal.New(placer, anneal.DefaultSchedule(), 0)
	driver.Run(context.Background())
	result := placer.Squeeze()

	fmt.Println("cluster cells:")
	for _, id := range clusters.Order {
		fmt.Printf("  cluster %d: %d cells, centroid %v\n", id, len(result.Cells[id]), result.Centroids[id])
	}

	target := 0
	available := cellsOf(result.Cells[target])

	boardPos := hpwl.PositionMap{}
	for id, centroid := range result.Centroids {
		if id == target {
			continue
		}
		boardPos[block.CentroidID(id)] = centroid
	}

	keep := target
	detailNetlist := netreduce.Reduce(netlist, clusters.Blocks, &keep)

	detailPlacer := detail.NewBuilder().
		WithBlocks(clusters.Blocks[target]).
		WithAvailablePos(available).
		WithNetlist(detailNetlist).
		WithBoardPos(boardPos).
		Build()
	detailDriver := anneal.New(detailPlacer, anneal.DefaultSchedule(), 0)
	detailDriver.Run(context.Background())

	fmt.Println("\ndetailed placement for cluster 0:")
	state := detailPlacer.State()
	ids := make([]block.ID, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("  %s -> %v\n", id, state[id])
	}

	atexit.Exit(0)
}

func cellsOf(set cluster.CellSet) []geom.Position {
	out := make([]geom.Position, 0, len(set))
	for pos := range set {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
