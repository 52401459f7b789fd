// Package cluster implements the coarse-grained cluster placer (component D):
// packs variable-size cluster footprints into non-overlapping axis-aligned
// regions on the board, anneals their positions, and squeezes the result
// into concrete, disjoint cell sets with centroids. Ported from sa.py's
// SAClusterPlacer.
package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/netreduce"
	"github.com/sarchlab/zeonica-pnr/internal/pnrerr"
)

// Legality is the injected `is_legal(pos, cluster_id, state) -> bool`
// predicate (spec §6); Placer.defaultLegality implements the overlap-budget
// rule.
type Legality func(pos geom.Position, clusterID int, state map[int]geom.Position) bool

// Placer anneals cluster footprint positions, then squeezes them into
// concrete, disjoint cell sets. It implements anneal.State.
type Placer struct {
	board       fabric.Board
	boardPos    hpwl.PositionMap // caller's pinned positions; never mutated
	clusters    Set
	clbType     string
	clbMargin   int
	placeFactor int
	foldReg     bool
	squeezeIter int

	legality Legality

	reducedNetlist hpwl.Netlist
	squareSizes    map[int]int
	centerOfBoard  geom.Position

	state map[int]geom.Position
}

// clusterSize mirrors sa.py's get_cluster_size: in fold-register mode a
// cluster's size is the larger of its PE count and register count (since
// a cell holds one of each); otherwise it is the raw block count.
func clusterSize(blocks []block.ID, foldReg bool) int {
	if !foldReg {
		return len(blocks)
	}
	var peCount, regCount int
	for _, b := range blocks {
		switch block.Classify(b) {
		case block.PE:
			peCount++
		case block.Register:
			regCount++
		}
	}
	if peCount > regCount {
		return peCount
	}
	return regCount
}

// computeBBox walks right from pos on the board, skipping architecturally
// illegal columns, until squareSize legal columns have been collected.
// Height always equals squareSize (spec §3: legality is column-structured).
// ok is false if the board edge is reached before enough legal columns are
// found.
func (p *Placer) computeBBox(pos geom.Position, squareSize int) (geom.Size, bool) {
	width := 0
	searchIndex := 0
	for width < squareSize {
		x := pos.X + searchIndex
		if x >= p.board.Width() {
			return geom.Size{}, false
		}
		if !p.board.IsCellLegal(geom.Position{X: x, Y: pos.Y}, p.clbType) {
			searchIndex++
			continue
		}
		width++
		searchIndex++
	}
	return geom.Size{W: searchIndex, H: squareSize}, true
}

// defaultLegality is the overlap-budget rule: a candidate position is legal
// iff it clears the margins, its realized bbox fits on the board, and its
// total rectangle-overlap against every other placed cluster does not
// exceed len(cluster)/placeFactor.
func (p *Placer) defaultLegality(pos geom.Position, clusterID int, state map[int]geom.Position) bool {
	if pos.X < p.clbMargin || pos.Y < p.clbMargin {
		return false
	}
	squareSize1 := p.squareSizes[clusterID]
	bbox1, ok := p.computeBBox(pos, squareSize1)
	if !ok {
		return false
	}
	xx := bbox1.W + pos.X
	yy := bbox1.H + pos.Y
	if xx >= p.board.Width()-p.clbMargin || xx < p.clbMargin ||
		yy >= p.board.Height()-p.clbMargin || yy < p.clbMargin {
		return false
	}

	overlap := 0
	for cID, pos2 := range state {
		if cID == clusterID {
			continue
		}
		bbox2, ok2 := p.computeBBox(pos2, p.squareSizes[cID])
		if !ok2 {
			panic("pnr: unknown state: cluster has no valid bounding box")
		}
		overlap += geom.RectOverlapArea(pos, bbox1, pos2, bbox2)
	}

	return overlap <= len(p.clusters.Blocks[clusterID])/p.placeFactor
}

func (p *Placer) initPlacement(rng *rand.Rand) (map[int]geom.Position, error) {
	state := map[int]geom.Position{}
	initialX := p.clbMargin
	x, y := initialX, p.clbMargin
	var rows, currentRows []int
	col := 0

	for _, clusterID := range p.clusters.Order {
		size := clusterSize(p.clusters.Blocks[clusterID], p.foldReg)
		squareSize := int(math.Ceil(math.Sqrt(float64(size))))
		p.squareSizes[clusterID] = squareSize

		visited := map[geom.Position]bool{}
		for {
			if x >= p.board.Width() {
				x = initialX
				rows = currentRows
				currentRows = nil
				col = 0
			}
			switch {
			case len(rows) > 0 && col < len(rows):
				y = rows[col]
			case len(rows) > 0:
				y = rows[len(rows)-1]
			default:
				y = p.clbMargin
			}

			pos := geom.Position{X: x, Y: y}
			if visited[pos] {
				return nil, &pnrerr.ClusterException{ClusterID: clusterID}
			}
			visited[pos] = true

			if p.legality(pos, clusterID, state) {
				state[clusterID] = pos
				x += squareSize + rng.IntN(3)
				currentRows = append(currentRows, squareSize+y)
				col++
				goto placed
			}
			x++
		}
	placed:
	}
	return state, nil
}

// Move implements anneal.State: with more than one cluster, attempt a swap
// of two distinct clusters' positions; otherwise (or on an illegal swap)
// fall back to a direct jitter move of one cluster by dx,dy in [-2,2].
func (p *Placer) Move(rng *rand.Rand) func() {
	ids := p.clusters.Order
	if len(ids) == 1 {
		return p.directMove(rng, ids[0])
	}

	i1, i2 := twoDistinctIndices(rng, len(ids))
	id1, id2 := ids[i1], ids[i2]
	pos1, pos2 := p.state[id1], p.state[id2]
	if p.legality(pos2, id1, p.state) && p.legality(pos1, id2, p.state) {
		p.state[id1], p.state[id2] = pos2, pos1
		return func() { p.state[id1], p.state[id2] = pos1, pos2 }
	}

	return p.directMove(rng, ids[rng.IntN(len(ids))])
}

func (p *Placer) directMove(rng *rand.Rand, id int) func() {
	pos := p.state[id]
	dx := rng.IntN(5) - 2
	dy := rng.IntN(5) - 2
	newPos := geom.Position{X: pos.X + dx, Y: pos.Y + dy}
	if p.legality(newPos, id, p.state) {
		p.state[id] = newPos
		return func() { p.state[id] = pos }
	}
	return func() {}
}

func twoDistinctIndices(rng *rand.Rand, n int) (int, int) {
	i := rng.IntN(n)
	j := rng.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

// computeCenters returns each cluster's current bbox midpoint.
func (p *Placer) computeCenters() map[int]geom.Position {
	centers := make(map[int]geom.Position, len(p.state))
	for clusterID, pos := range p.state {
		bbox, ok := p.computeBBox(pos, p.squareSizes[clusterID])
		if !ok {
			panic("pnr: unknown state computing cluster center")
		}
		centers[clusterID] = geom.Position{X: pos.X + bbox.W/2, Y: pos.Y + bbox.H/2}
	}
	return centers
}

// Energy implements anneal.State: substitutes each cluster by its centroid,
// merges with the pinned board positions via a scratch copy (Open Question
// c: never mutating the caller's boardPos, preserving invariant I6), and
// sums the reduced netlist's HPWL.
func (p *Placer) Energy() float64 {
	scratch := make(hpwl.PositionMap, len(p.boardPos)+len(p.state))
	for k, v := range p.boardPos {
		scratch[k] = v
	}
	for clusterID, center := range p.computeCenters() {
		scratch[block.CentroidID(clusterID)] = center
	}
	return hpwl.Sum(hpwl.Compute(p.reducedNetlist, scratch))
}

// State returns a copy of the current cluster_id -> position assignment.
func (p *Placer) State() map[int]geom.Position {
	out := make(map[int]geom.Position, len(p.state))
	for k, v := range p.state {
		out[k] = v
	}
	return out
}

// Snapshot implements anneal.State: returns a deep copy of the current
// cluster_id -> position assignment.
func (p *Placer) Snapshot() any {
	return p.State()
}

// Restore implements anneal.State: replaces the current assignment with a
// copy of a previously taken Snapshot.
func (p *Placer) Restore(snapshot any) {
	src := snapshot.(map[int]geom.Position)
	state := make(map[int]geom.Position, len(src))
	for k, v := range src {
		state[k] = v
	}
	p.state = state
}

// reduceNetlist applies netreduce.Reduce collapsing every cluster (the
// cluster placer only ever reasons about inter-cluster connectivity).
func reduceNetlist(netlist hpwl.Netlist, clusters Set) hpwl.Netlist {
	return netreduce.Reduce(netlist, clusters.Blocks, nil)
}
