package cluster

import (
	"sort"

	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/pnrerr"
)

const (
	maxDeoverlapEffort  = 5
	maxSqueezeMoves     = 15
	specialRoundMovesOK = 5
)

// CellSet is the set of concrete board positions a cluster occupies after
// squeeze.
type CellSet map[geom.Position]bool

// SqueezeResult is the output of the squeeze pipeline: a disjoint cell set
// per cluster plus each cluster's centroid.
type SqueezeResult struct {
	Cells     map[int]CellSet
	Centroids map[int]geom.Position
}

// Squeeze runs the post-annealing squeeze pipeline: materializes each
// cluster's footprint into concrete cells via the zig-zag corner order,
// de-overlaps clusters (processing the ones closest to the board center
// first), then iteratively pulls every cluster's farthest cells toward its
// nearest exterior cells. Panics with pnrerr.Overlap if a post-squeeze
// recomputation ever finds two clusters sharing a cell (spec §7).
func (p *Placer) Squeeze() SqueezeResult {
	cellSets := p.materializeCells()

	clusterIDs := append([]int(nil), p.clusters.Order...)
	sort.Slice(clusterIDs, func(i, j int) bool {
		di := geom.ManhattanDistance(p.state[clusterIDs[i]], p.centerOfBoard)
		dj := geom.ManhattanDistance(p.state[clusterIDs[j]], p.centerOfBoard)
		if di != dj {
			return di < dj
		}
		return clusterIDs[i] < clusterIDs[j]
	})

	var specialWorkingSet []int
	inSpecialSet := map[int]bool{}
	for _, clusterID := range clusterIDs {
		overlap := map[geom.Position]bool{}
		for otherID, cells := range cellSets {
			if otherID == clusterID {
				continue
			}
			for pos := range cellSets[clusterID] {
				if cells[pos] {
					overlap[pos] = true
				}
			}
		}

		bboard := p.boolBoard(cellSets, false)
		p.deoverlap(cellSets, clusterID, overlap)

		if len(overlap) > 0 {
			if !inSpecialSet[clusterID] {
				inSpecialSet[clusterID] = true
				specialWorkingSet = append(specialWorkingSet, clusterID)
			}
			extraList := sortedByDistance(p.findSpace(bboard, len(overlap)), p.centerOfBoard)
			victims := sortedByDistance(overlap, p.centerOfBoard)
			for i, cell := range extraList {
				if i >= len(victims) {
					break
				}
				delete(cellSets[clusterID], victims[i])
				cellSets[clusterID][cell] = true
			}
		}
	}

	// sanity: no overlap remains.
	p.boolBoard(cellSets, true)

	for i := 0; i < p.squeezeIter; i++ {
		for _, clusterID := range p.clusters.Order {
			p.squeezeCluster(cellSets, clusterID)
		}
	}

	for _, clusterID := range specialWorkingSet {
		for {
			if p.squeezeCluster(cellSets, clusterID) <= specialRoundMovesOK {
				break
			}
		}
	}

	centroids := make(map[int]geom.Position, len(cellSets))
	for clusterID, cells := range cellSets {
		centroids[clusterID] = centroid(cells)
	}

	return SqueezeResult{Cells: cellSets, Centroids: centroids}
}

// materializeCells picks, for each cluster, the bbox corner nearest the
// board center and enumerates positions in zig-zag order from that corner,
// accepting the first cluster-size architecturally-legal cells.
func (p *Placer) materializeCells() map[int]CellSet {
	cellSets := make(map[int]CellSet, len(p.clusters.Order))
	for _, clusterID := range p.clusters.Order {
		pos := p.state[clusterID]
		size := clusterSize(p.clusters.Blocks[clusterID], p.foldReg)
		squareSize := p.squareSizes[clusterID]
		bbox, ok := p.computeBBox(pos, squareSize)
		if !ok {
			panic("pnr: unknown state materializing cluster cells")
		}

		corner := geom.NearestCorner(pos, bbox, p.centerOfBoard)
		order := geom.ZigZag(bbox.W, bbox.H, corner)

		cells := CellSet{}
		for _, rel := range order {
			if len(cells) >= size {
				break
			}
			cell := geom.Position{X: pos.X + rel.X, Y: pos.Y + rel.Y}
			if p.board.IsCellLegal(cell, p.clbType) {
				cells[cell] = true
			}
		}
		cellSets[clusterID] = cells
	}
	return cellSets
}

// boolBoard rasterizes every cluster's cells onto a Height x Width boolean
// occupancy grid. If check is true, it panics (pnrerr.Overlap) the moment two
// clusters claim the same cell.
func (p *Placer) boolBoard(cellSets map[int]CellSet, check bool) [][]bool {
	board := make([][]bool, p.board.Height())
	for y := range board {
		board[y] = make([]bool, p.board.Width())
	}
	for _, cells := range cellSets {
		for pos := range cells {
			if check && board[pos.Y][pos.X] {
				pnrerr.Overlap(pos)
			}
			board[pos.Y][pos.X] = true
		}
	}
	return board
}

// exteriorSet returns every unoccupied, architecturally legal position
// within Manhattan distance maxDist of at least one cell of the named
// cluster (spec §4.D.3, property P7). searchAll widens the scan region to
// the full board; otherwise it is limited to a 1-cell border around the
// cluster's bbox.
func (p *Placer) exteriorSet(clusterID int, cellSets map[int]CellSet, bboard [][]bool, maxDist int, searchAll bool) CellSet {
	own := cellSets[clusterID]
	offset := p.state[clusterID]
	bbox, ok := p.computeBBox(offset, p.squareSizes[clusterID])
	if !ok {
		panic("pnr: unknown state computing exterior set")
	}

	var xMin, xMax, yMin, yMax int
	if searchAll {
		xMin, xMax = p.clbMargin, p.board.Width()-p.clbMargin
		yMin, yMax = p.clbMargin, p.board.Height()-p.clbMargin
	} else {
		xMin, xMax = offset.X-1, offset.X+bbox.W+1
		yMin, yMax = offset.Y-1, offset.Y+bbox.H+1
	}

	result := CellSet{}
	for y := yMin; y < yMax; y++ {
		if y < 0 || y >= len(bboard) {
			continue
		}
		for x := xMin; x < xMax; x++ {
			if x < 0 || x >= len(bboard[y]) {
				continue
			}
			pos := geom.Position{X: x, Y: y}
			if bboard[y][x] {
				continue
			}
			if !p.board.IsCellLegal(pos, p.clbType) {
				continue
			}
			if hasNeighborIn(pos, own, maxDist) {
				result[pos] = true
			}
		}
	}
	return result
}

func hasNeighborIn(pos geom.Position, cells CellSet, maxDist int) bool {
	for cell := range cells {
		if geom.ManhattanDistance(pos, cell) <= maxDist {
			return true
		}
	}
	return false
}

// deoverlap repeatedly swaps clusterID's overlapping cells for exterior
// cells, up to 5 futile rounds (rounds that made no progress).
func (p *Placer) deoverlap(cellSets map[int]CellSet, clusterID int, overlap map[geom.Position]bool) {
	effort := 0
	prevLen := len(overlap)
	for len(overlap) > 0 && effort < maxDeoverlapEffort {
		bboard := p.boolBoard(cellSets, false)
		ext := p.exteriorSet(clusterID, cellSets, bboard, defaultExteriorMaxDist, false)
		extList := sortedByDistance(ext, p.centerOfBoard)

		for _, ex := range extList {
			if len(overlap) == 0 {
				break
			}
			cell := popLowest(overlap)
			delete(cellSets[clusterID], cell)
			cellSets[clusterID][ex] = true
		}

		if len(overlap) == prevLen {
			effort++
		} else {
			effort = 0
		}
		prevLen = len(overlap)
	}
}

const defaultExteriorMaxDist = 4

// popLowest removes and returns the lexicographically smallest position in
// set. Used wherever an "arbitrary" element must be picked from a set in a
// way that stays reproducible across runs (spec P5): Go map iteration order
// is randomized per process, so picking "the first one range sees" would
// break determinism.
func popLowest(set map[geom.Position]bool) geom.Position {
	first := true
	var best geom.Position
	for pos := range set {
		if first || pos.X < best.X || (pos.X == best.X && pos.Y < best.Y) {
			best = pos
			first = false
		}
	}
	if first {
		panic("pnr: popLowest called on empty set")
	}
	delete(set, best)
	return best
}

func sortedByDistance(cells CellSet, center geom.Position) []geom.Position {
	list := make([]geom.Position, 0, len(cells))
	for pos := range cells {
		list = append(list, pos)
	}
	sort.Slice(list, func(i, j int) bool {
		di := geom.ManhattanDistance(list[i], center)
		dj := geom.ManhattanDistance(list[j], center)
		if di != dj {
			return di < dj
		}
		if list[i].X != list[j].X {
			return list[i].X < list[j].X
		}
		return list[i].Y < list[j].Y
	})
	return list
}

func reverse(positions []geom.Position) {
	for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
		positions[i], positions[j] = positions[j], positions[i]
	}
}

// squeezeCluster swaps clusterID's farthest-from-center owned cells for its
// nearest-to-center exterior cells, up to maxSqueezeMoves moves, stopping
// early once the best available exterior cell is no closer to the center
// than the cell it would replace. Returns the number of moves made.
func (p *Placer) squeezeCluster(cellSets map[int]CellSet, clusterID int) int {
	bboard := p.boolBoard(cellSets, true)
	ext := p.exteriorSet(clusterID, cellSets, bboard, 1, true)
	extList := sortedByDistance(ext, p.centerOfBoard)

	own := sortedByDistance(cellSets[clusterID], p.centerOfBoard)
	reverse(own)

	moves := 0
	for len(extList) > 0 && len(own) > 0 {
		if moves >= maxSqueezeMoves {
			break
		}
		newCell := extList[0]
		extList = extList[1:]
		oldCell := own[0]
		own = own[1:]

		if geom.ManhattanDistance(newCell, p.centerOfBoard) >= geom.ManhattanDistance(oldCell, p.centerOfBoard) {
			break
		}
		delete(cellSets[clusterID], oldCell)
		cellSets[clusterID][newCell] = true
		moves++
	}
	return moves
}

// findSpace searches for a contiguous unoccupied, legal region of at least
// numCells cells, scanning from the bottom-right corner of the board toward
// the top-left. If no contiguous region is found, it falls back to any
// numCells unoccupied legal cells found scanning the whole board; it panics
// (pnrerr.NoSpace) if the board has fewer than numCells such cells.
func (p *Placer) findSpace(bboard [][]bool, numCells int) CellSet {
	squareSize := ceilSqrt(numCells)

	for i := p.board.Height() - squareSize - 1; i >= 0; i-- {
		for j := p.board.Width() - squareSize - 1; j >= 0; j-- {
			pos := geom.Position{X: j, Y: i}
			bbox, ok := p.computeBBox(pos, squareSize)
			if !ok {
				continue
			}
			cells := CellSet{}
			for y := 0; y < bbox.H; y++ {
				for x := 0; x < bbox.W; x++ {
					cand := geom.Position{X: x + j, Y: y + i}
					if cand.Y < 0 || cand.Y >= len(bboard) || cand.X < 0 || cand.X >= len(bboard[cand.Y]) {
						continue
					}
					if !bboard[cand.Y][cand.X] && p.board.IsCellLegal(cand, p.clbType) {
						cells[cand] = true
					}
				}
			}
			if len(cells) >= numCells {
				return firstN(cells, numCells, p.centerOfBoard)
			}
		}
	}

	result := CellSet{}
	for y := 0; y < p.board.Height(); y++ {
		for x := 0; x < p.board.Width(); x++ {
			pos := geom.Position{X: x, Y: y}
			if p.board.IsCellLegal(pos, p.clbType) && !bboard[y][x] {
				result[pos] = true
			}
			if len(result) == numCells {
				return result
			}
		}
	}
	pnrerr.NoSpace(numCells)
	return nil
}

// firstN picks the n cells of set nearest to center, breaking ties on (X,Y)
// via sortedByDistance — set originates from map iteration during the board
// scan in findSpace, so picking "whatever range sees first" would reintroduce
// the nondeterminism spec P5 forbids.
func firstN(set CellSet, n int, center geom.Position) CellSet {
	ordered := sortedByDistance(set, center)
	result := CellSet{}
	for i := 0; i < n && i < len(ordered); i++ {
		result[ordered[i]] = true
	}
	return result
}

func ceilSqrt(n int) int {
	if n <= 0 {
		return 0
	}
	size := 1
	for size*size < n {
		size++
	}
	return size
}

// centroid returns the arithmetic mean of a cell set's coordinates.
func centroid(cells CellSet) geom.Position {
	if len(cells) == 0 {
		return geom.Position{}
	}
	var sumX, sumY int
	for pos := range cells {
		sumX += pos.X
		sumY += pos.Y
	}
	return geom.Position{X: sumX / len(cells), Y: sumY / len(cells)}
}
