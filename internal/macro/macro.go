// Package macro implements the macro placer (component F): anneals a fixed
// set of macro blocks over a caller-supplied position pool. New requires a
// legality predicate, but neither Move nor Energy consults it. Ported from
// sa.py's SAMacroPlacer.
package macro

import (
	"math/rand/v2"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/pnrerr"
)

// Legality is the injected `is_legal(pos, blk_id) -> bool` predicate; the
// macro placer has no built-in default, matching the reference constructor's
// required is_legal argument.
type Legality func(pos geom.Position, blk block.ID) bool

// Placer anneals a fixed set of macro blocks' positions. It implements
// anneal.State.
type Placer struct {
	availablePos []geom.Position
	netlist      hpwl.Netlist
	boardPos     hpwl.PositionMap
	legality     Legality

	order []block.ID
	state map[block.ID]geom.Position
}

// New builds a Placer seeded with the caller's current block positions.
// legality must not be nil: the reference macro placer has no default.
func New(availablePos []geom.Position, netlist hpwl.Netlist, boardPos hpwl.PositionMap, current map[block.ID]geom.Position, legality Legality) *Placer {
	if legality == nil {
		pnrerr.IllegalInput("macro: a legality predicate is required")
	}
	if len(current) > len(availablePos) {
		pnrerr.IllegalInput("macro: %d blocks do not fit %d available positions", len(current), len(availablePos))
	}

	order := make([]block.ID, 0, len(current))
	for blk := range current {
		order = append(order, blk)
	}
	sortBlockIDs(order)

	state := make(map[block.ID]geom.Position, len(current))
	for blk, pos := range current {
		state[blk] = pos
	}

	return &Placer{
		availablePos: append([]geom.Position(nil), availablePos...),
		netlist:      netlist,
		boardPos:     boardPos,
		legality:     legality,
		order:        order,
		state:        state,
	}
}

func sortBlockIDs(ids []block.ID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Move implements anneal.State: pick one block and one destination position
// at random; if the destination holds another block, swap them; otherwise
// relocate. Neither direction is legality-gated: the stored legality
// predicate is not called here or anywhere else in this package, matching
// the Python original's unconditional swap-or-relocate move.
func (p *Placer) Move(rng *rand.Rand) func() {
	target := p.order[rng.IntN(len(p.order))]
	targetPos := p.state[target]
	dstPos := p.availablePos[rng.IntN(len(p.availablePos))]

	occupant, occupied := p.occupantAt(dstPos)
	if occupied {
		p.state[occupant] = targetPos
		p.state[target] = dstPos
		return func() {
			p.state[occupant] = dstPos
			p.state[target] = targetPos
		}
	}

	p.state[target] = dstPos
	return func() { p.state[target] = targetPos }
}

func (p *Placer) occupantAt(pos geom.Position) (block.ID, bool) {
	for _, blk := range p.order {
		if p.state[blk] == pos {
			return blk, true
		}
	}
	return "", false
}

// Energy implements anneal.State: merges state into a scratch copy of
// boardPos and sums the netlist's HPWL.
func (p *Placer) Energy() float64 {
	scratch := make(hpwl.PositionMap, len(p.boardPos)+len(p.state))
	for k, v := range p.boardPos {
		scratch[k] = v
	}
	for blk, pos := range p.state {
		scratch[blk] = pos
	}
	return hpwl.Sum(hpwl.Compute(p.netlist, scratch))
}

// State returns a copy of the current block -> position assignment.
func (p *Placer) State() map[block.ID]geom.Position {
	out := make(map[block.ID]geom.Position, len(p.state))
	for k, v := range p.state {
		out[k] = v
	}
	return out
}

// Snapshot implements anneal.State: returns a deep copy of the current
// block -> position assignment.
func (p *Placer) Snapshot() any {
	return p.State()
}

// Restore implements anneal.State: replaces the current assignment with a
// copy of a previously taken Snapshot.
func (p *Placer) Restore(snapshot any) {
	src := snapshot.(map[block.ID]geom.Position)
	state := make(map[block.ID]geom.Position, len(src))
	for k, v := range src {
		state[k] = v
	}
	p.state = state
}
