// Command place runs the full cluster -> detailed -> macro -> de-block
// placement pipeline over a small synthetic netlist, the way
// verify/cmd/verify-axpy stages a kernel through lint, simulate, and report.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/zeonica-pnr/internal/anneal"
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/cluster"
	"github.com/sarchlab/zeonica-pnr/internal/deblock"
	"github.com/sarchlab/zeonica-pnr/internal/detail"
	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/idgen"
	"github.com/sarchlab/zeonica-pnr/internal/macro"
	"github.com/sarchlab/zeonica-pnr/internal/netreduce"
)

// levelAnneal is a custom slog level between Info and Warn, the way
// core/util.go defines LevelTrace/LevelWaveform above slog.LevelInfo.
const levelAnneal slog.Level = slog.LevelInfo + 1

func toyClusters() cluster.Set {
	pe := idgen.MakeSequence("p")
	reg := idgen.MakeSequence("r")

	blocks := map[int][]block.ID{}
	sizes := [][2]int{{3, 2}, {2, 1}, {3, 2}, {2, 1}} // {PE count, register count} per cluster
	order := make([]int, len(sizes))
	for id, size := range sizes {
		order[id] = id
		for i := 0; i < size[0]; i++ {
			blocks[id] = append(blocks[id], pe())
		}
		for i := 0; i < size[1]; i++ {
			blocks[id] = append(blocks[id], reg())
		}
	}
	return cluster.NewSet(order, blocks)
}

func toyNetlist() hpwl.Netlist {
	return hpwl.Netlist{
		"n0": {"p0", "p3"},
		"n1": {"p3", "p5"},
		"n2": {"p5", "p8"},
		"n3": {"p8", "p0"},
		"n4": {"r0", "p4"},
		"n5": {"r3", "p9"},
		"n6": {"m0", "p0"},
		"n7": {"m1", "p5"},
		"n8": {"c0", "p2"},
		"n9": {"c1", "p7"},
	}
}

func annealWithProgress(stage string, state anneal.State, seed uint64) float64 {
	d := anneal.New(state, anneal.DefaultSchedule(), seed)
	d.WithOnStep(func(s anneal.Sample) {
		if s.Iteration%2000 == 0 {
			slog.Log(context.Background(), levelAnneal, "anneal step",
				"stage", stage, "iteration", s.Iteration,
				"temperature", s.Temperature, "energy", s.Energy, "best_energy", s.BestEnergy)
		}
	})
	best := d.Run(context.Background())
	slog.Info("stage converged", "stage", stage, "run_id", d.RunID.String(), "best_energy", best)
	return best
}

func main() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelAnneal})
	slog.SetDefault(slog.New(handler))

	fmt.Println("==============================================================================")
	fmt.Println("CGRA PLACEMENT PIPELINE")
	fmt.Println("==============================================================================")

	board := fabric.NewReferenceFabric(0, 0)
	clusters := toyClusters()
	netlist := toyNetlist()
	// Starting positions of the netlist's blocks that belong to no cluster.
	pinned := hpwl.PositionMap{
		"m0": {X: 1, Y: 1}, "m1": {X: 3, Y: 1},
		"c0": {X: 3, Y: 3}, "c1": {X: 4, Y: 3},
	}

	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("STAGE 1: CLUSTER PLACEMENT")
	fmt.Println("------------------------------------------------------------------------------")

	clusterPlacer, err := cluster.NewBuilder().
		WithBoard(board).
		WithClusters(clusters).
		WithNetlist(netlist).
		WithBoardPos(pinned).
		WithSeed(0).
		Build()
	if err != nil {
		log.Fatalf("cluster placement failed: %v", err)
	}
	annealWithProgress("cluster", clusterPlacer, 0)
	squeezed := clusterPlacer.Squeeze()

	printClusterSummary(clusters, squeezed)

	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("STAGE 2: DETAILED PLACEMENT")
	fmt.Println("------------------------------------------------------------------------------")

	finalPos := hpwl.PositionMap{}
	for blk, pos := range pinned {
		finalPos[blk] = pos
	}
	for _, id := range clusters.Order {
		available := sortedCells(squeezed.Cells[id])
		boardPos := centroidsExcept(squeezed.Centroids, id)
		for blk, pos := range pinned {
			boardPos[blk] = pos
		}
		keep := id
		reduced := netreduce.Reduce(netlist, clusters.Blocks, &keep)

		detailPlacer := detail.NewBuilder().
			WithBlocks(clusters.Blocks[id]).
			WithAvailablePos(available).
			WithNetlist(reduced).
			WithBoardPos(boardPos).
			WithSeed(uint64(id)).
			Build()
		annealWithProgress(fmt.Sprintf("detail-cluster-%d", id), detailPlacer, uint64(id))

		for blk, pos := range detailPlacer.State() {
			finalPos[blk] = pos
		}
	}

	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("STAGE 3: MACRO PLACEMENT (memory blocks)")
	fmt.Println("------------------------------------------------------------------------------")

	macroAvailable := []geom.Position{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 5, Y: 1}, {X: 7, Y: 1}}
	macroCurrent := map[block.ID]geom.Position{"m0": {X: 1, Y: 1}, "m1": {X: 3, Y: 1}}
	macroLegal := func(pos geom.Position, _ block.ID) bool { return board.IsCellLegal(pos, "clb") }
	macroPlacer := macro.NewBuilder().
		WithAvailablePos(macroAvailable).
		WithNetlist(netlist).
		WithBoardPos(finalPos).
		WithCurrent(macroCurrent).
		WithLegality(macroLegal).
		Build()
	annealWithProgress("macro", macroPlacer, 0)
	for blk, pos := range macroPlacer.State() {
		finalPos[blk] = pos
	}

	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("STAGE 4: DE-BLOCK RESHUFFLE")
	fmt.Println("------------------------------------------------------------------------------")

	deblockAvailable := []geom.Position{{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 9, Y: 1}, {X: 11, Y: 1}}
	deblockInput := map[block.ID]geom.Position{
		"c0": {X: 3, Y: 3},
		"c1": {X: 4, Y: 3},
	}
	deblockPlacer := deblock.NewBuilder().
		WithBlockPos(deblockInput).
		WithAvailablePos(deblockAvailable).
		WithNetlist(netlist).
		WithBoardPos(finalPos).
		Build()
	annealWithProgress("deblock", deblockPlacer, 0)
	for blk, pos := range deblockPlacer.BlockPositions() {
		finalPos[blk] = pos
	}

	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("Final block positions:")
	fmt.Println("------------------------------------------------------------------------------")
	printFinalPositions(finalPos)

	atexit.Exit(0)
}

func printClusterSummary(clusters cluster.Set, result cluster.SqueezeResult) {
	fmt.Println("\n------------------------------------------------------------------------------")
	fmt.Println("Cluster summary:")
	fmt.Println("------------------------------------------------------------------------------")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Cluster", "Cells", "Centroid X", "Centroid Y"})
	for _, id := range clusters.Order {
		centroid := result.Centroids[id]
		t.AppendRow(table.Row{id, len(result.Cells[id]), centroid.X, centroid.Y})
	}
	fmt.Println(t.Render())
}

func printFinalPositions(finalPos hpwl.PositionMap) {
	ids := make([]block.ID, 0, len(finalPos))
	for id := range finalPos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Block", "X", "Y"})
	for _, id := range ids {
		t.AppendRow(table.Row{id, finalPos[id].X, finalPos[id].Y})
	}
	fmt.Println(t.Render())
}

func sortedCells(set cluster.CellSet) []geom.Position {
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

func centroidsExcept(centroids map[int]geom.Position, except int) hpwl.PositionMap {
	out := make(hpwl.PositionMap, len(centroids))
	for id, pos := range centroids {
		if id == except {
			continue
		}
		out[block.CentroidID(id)] = pos
	}
	return out
}
