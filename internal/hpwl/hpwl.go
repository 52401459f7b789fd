// Package hpwl implements the cost oracle contract: half-perimeter wire
// length of each net given a block-to-position assignment.
package hpwl

import (
	"fmt"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
)

// NetID identifies a net in a Netlist.
type NetID string

// Netlist maps a net to the ordered blocks it connects. Nets are undirected
// for HPWL purposes; order is preserved only so callers may treat the first
// element as a source when needed.
type Netlist map[NetID][]block.ID

// PositionMap is the current block -> position assignment.
type PositionMap map[block.ID]geom.Position

// Compute returns, for every net, the half-perimeter of the bounding box of
// its blocks' positions: (max_x-min_x) + (max_y-min_y). A net referencing a
// block missing from positions is a programming error and panics, per the
// fail-fast contract in spec §4.B.
func Compute(netlist Netlist, positions PositionMap) map[NetID]int {
	result := make(map[NetID]int, len(netlist))
	for netID, blocks := range netlist {
		result[netID] = netHPWL(netID, blocks, positions)
	}
	return result
}

func netHPWL(netID NetID, blocks []block.ID, positions PositionMap) int {
	if len(blocks) == 0 {
		return 0
	}
	first, ok := positions[blocks[0]]
	if !ok {
		panic(fmt.Sprintf("hpwl: net %q references unknown block %q", netID, blocks[0]))
	}
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, b := range blocks[1:] {
		pos, ok := positions[b]
		if !ok {
			panic(fmt.Sprintf("hpwl: net %q references unknown block %q", netID, b))
		}
		if pos.X < minX {
			minX = pos.X
		}
		if pos.X > maxX {
			maxX = pos.X
		}
		if pos.Y < minY {
			minY = pos.Y
		}
		if pos.Y > maxY {
			maxY = pos.Y
		}
	}
	return (maxX - minX) + (maxY - minY)
}

// Sum adds up the per-net HPWL values to form the scalar annealer energy.
func Sum(perNet map[NetID]int) float64 {
	total := 0
	for _, v := range perNet {
		total += v
	}
	return float64(total)
}
