// Package deblock implements the de-block placer (component G): anneals a
// position-keyed assignment of movable blocks over a pool of positions that
// includes empty cells, re-shuffling leftover space after the other
// placers run. Ported from sa.py's DeblockAnnealer.
package deblock

import (
	"math/rand/v2"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/pnrerr"
)

// DefaultExcludeList is the reference exclude set: IO, memory, reserved
// blocks, and cluster centroids are pinned and never enter the annealed
// state (spec §4.G names {u,m,i,x}).
var DefaultExcludeList = []block.Kind{block.IO, block.Memory, block.Reserved, block.Centroid}

// Legality is the injected `is_legal(pos, blk) -> bool` predicate. It does
// not see board occupancy: the reference default only constrains the
// destination position and the block's own kind.
type Legality func(pos geom.Position, blk block.ID) bool

// Placer anneals a position -> block assignment over a pool of positions
// that may include empties. It implements anneal.State.
type Placer struct {
	availablePos []geom.Position
	netlist      hpwl.Netlist
	boardPos     hpwl.PositionMap
	legality     Legality
	excluded     map[block.ID]geom.Position

	state map[geom.Position]block.ID
}

// New builds a Placer. blockPos is every block's current position,
// including excluded ones; excludeKinds defaults to DefaultExcludeList when
// nil. legality defaults to the reference predicate (only complex/"c"
// blocks may move, board-edge and non-CLB-column restricted) when nil.
func New(blockPos map[block.ID]geom.Position, availablePos []geom.Position, netlist hpwl.Netlist, boardPos hpwl.PositionMap, legality Legality, excludeKinds []block.Kind) *Placer {
	if len(availablePos) < len(blockPos) {
		pnrerr.IllegalInput("deblock: %d positions cannot host %d blocks", len(availablePos), len(blockPos))
	}
	if excludeKinds == nil {
		excludeKinds = DefaultExcludeList
	}
	excludeSet := make(map[block.Kind]bool, len(excludeKinds))
	for _, k := range excludeKinds {
		excludeSet[k] = true
	}

	state := map[geom.Position]block.ID{}
	excluded := map[block.ID]geom.Position{}
	for blk, pos := range blockPos {
		kind := block.Classify(blk)
		if excludeSet[kind] || kind == block.Centroid {
			excluded[blk] = pos
		} else {
			state[pos] = blk
		}
	}

	p := &Placer{
		availablePos: append([]geom.Position(nil), availablePos...),
		netlist:      netlist,
		boardPos:     boardPos,
		excluded:     excluded,
		state:        state,
	}
	if legality != nil {
		p.legality = legality
	} else {
		p.legality = p.defaultLegality
	}
	return p
}

// defaultLegality mirrors the reference __is_legal: by default only "c"
// (complex) blocks may relocate, and only onto a legal reference-fabric cell
// (1-cell margin, non-CLB columns excluded). Any richer movement policy must
// be supplied explicitly via the Legality parameter.
func (p *Placer) defaultLegality(pos geom.Position, blk block.ID) bool {
	if len(blk) == 0 || blk[0] != 'c' {
		return false
	}
	if pos.X < 1 || pos.Y < 1 || pos.X > 58 || pos.Y > 58 {
		return false
	}
	for j := 0; j < 7; j++ {
		if pos.X == 2+8*j || pos.X == 6+8*j {
			return false
		}
	}
	return true
}

// Move implements anneal.State: sample two available positions. If both
// host a block, swap them when both destinations are legal for their
// mover; if exactly one hosts a block, relocate it to the empty position
// when legal; if neither hosts a block, nothing happens.
func (p *Placer) Move(rng *rand.Rand) func() {
	i, j := twoDistinctIndices(rng, len(p.availablePos))
	pos1, pos2 := p.availablePos[i], p.availablePos[j]

	blk1, has1 := p.state[pos1]
	blk2, has2 := p.state[pos2]

	switch {
	case has1 && has2:
		if p.legality(pos2, blk1) && p.legality(pos1, blk2) {
			p.state[pos1], p.state[pos2] = blk2, blk1
			return func() { p.state[pos1], p.state[pos2] = blk1, blk2 }
		}
	case has1 && !has2:
		if p.legality(pos2, blk1) {
			delete(p.state, pos1)
			p.state[pos2] = blk1
			return func() {
				delete(p.state, pos2)
				p.state[pos1] = blk1
			}
		}
	case !has1 && has2:
		if p.legality(pos1, blk2) {
			delete(p.state, pos2)
			p.state[pos1] = blk2
			return func() {
				delete(p.state, pos1)
				p.state[pos2] = blk2
			}
		}
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

// BlockPositions reverse-indexes the annealed state back to a block -> pos
// map and merges in the pinned excluded blocks (spec §4.G: get_block_pos).
func (p *Placer) BlockPositions() map[block.ID]geom.Position {
	out := make(map[block.ID]geom.Position, len(p.state)+len(p.excluded))
	for pos, blk := range p.state {
		out[blk] = pos
	}
	for blk, pos := range p.excluded {
		out[blk] = pos
	}
	return out
}

// Snapshot implements anneal.State: returns a deep copy of the current
// position -> block assignment (the excluded/pinned blocks never change
// across an anneal run and need no snapshot).
func (p *Placer) Snapshot() any {
	out := make(map[geom.Position]block.ID, len(p.state))
	for k, v := range p.state {
		out[k] = v
	}
	return out
}

// Restore implements anneal.State: replaces the current position -> block
// assignment with a copy of a previously taken Snapshot.
func (p *Placer) Restore(snapshot any) {
	src := snapshot.(map[geom.Position]block.ID)
	state := make(map[geom.Position]block.ID, len(src))
	for k, v := range src {
		state[k] = v
	}
	p.state = state
}

// Energy implements anneal.State: merges BlockPositions into a scratch copy
// of boardPos and sums the netlist's HPWL.
func (p *Placer) Energy() float64 {
	scratch := make(hpwl.PositionMap, len(p.boardPos)+len(p.state)+len(p.excluded))
	for k, v := range p.boardPos {
		scratch[k] = v
	}
	for blk, pos := range p.BlockPositions() {
		scratch[blk] = pos
	}
	return hpwl.Sum(hpwl.Compute(p.netlist, scratch))
}
