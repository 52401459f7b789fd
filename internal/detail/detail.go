// Package detail implements the detailed placer (component E): packs one
// cluster's blocks onto its cell-set from the cluster placer, folding a PE
// and a register onto each cell. Ported from sa.py's SADetailedPlacer.
package detail

import (
	"math/rand/v2"
	"sort"

	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
	"github.com/sarchlab/zeonica-pnr/internal/pnrerr"
)

// Legality is the injected `is_legal(pos, blk, board) -> bool` predicate.
// board maps a position to the (at most 2) blocks currently occupying it.
type Legality func(pos geom.Position, blk block.ID, board map[geom.Position][]block.ID) bool

// Placer anneals one cluster's block-to-cell assignment. It implements
// anneal.State.
type Placer struct {
	blocks        []block.ID
	availablePos  []geom.Position
	netlist       hpwl.Netlist
	boardPos      hpwl.PositionMap
	foldReg       bool
	legality      Legality
	regNoPos      map[block.ID]map[block.ID]bool

	state map[block.ID]geom.Position
}

// New builds a Placer and runs its deterministic initial placement. netlist
// must already have every other cluster collapsed to its centroid (spec §6).
// legality defaults to the fold-register capacity-2 rule when nil and
// foldReg is true; with foldReg false the default accepts any position.
func New(blocks []block.ID, availablePos []geom.Position, netlist hpwl.Netlist, boardPos hpwl.PositionMap, legality Legality, foldReg bool, seed uint64) *Placer {
	if foldReg {
		if len(blocks) < len(availablePos) {
			pnrerr.IllegalInput("detail: %d blocks cannot fill %d available positions under folding", len(blocks), len(availablePos))
		}
		peBlocks, regBlocks := splitByKind(blocks)
		if len(peBlocks) > len(availablePos) || len(regBlocks) > len(availablePos) {
			pnrerr.IllegalInput("detail: %d PEs and %d registers cannot each fold onto %d available positions", len(peBlocks), len(regBlocks), len(availablePos))
		}
	} else if len(blocks) != len(availablePos) {
		pnrerr.IllegalInput("detail: non-folding placer requires exactly one position per block, got %d blocks and %d positions", len(blocks), len(availablePos))
	}

	p := &Placer{
		blocks:       append([]block.ID(nil), blocks...),
		availablePos: append([]geom.Position(nil), availablePos...),
		netlist:      netlist,
		boardPos:     boardPos,
		foldReg:      foldReg,
	}

	p.regNoPos = buildRegNoPos(blocks, netlist, foldReg)

	if legality != nil {
		p.legality = legality
	} else if foldReg {
		p.legality = p.defaultFoldLegality
	} else {
		p.legality = func(geom.Position, block.ID, map[geom.Position][]block.ID) bool { return true }
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	p.state = p.initPlacement(rng)
	return p
}

// buildRegNoPos computes, for every register block in this cluster, the set
// of in-cluster peers it shares a net with, across every net containing it —
// the PE peers among them may never fold onto the same cell as the register.
func buildRegNoPos(blocks []block.ID, netlist hpwl.Netlist, foldReg bool) map[block.ID]map[block.ID]bool {
	regNoPos := map[block.ID]map[block.ID]bool{}
	if !foldReg {
		return regNoPos
	}
	inCluster := make(map[block.ID]bool, len(blocks))
	for _, b := range blocks {
		inCluster[b] = true
	}

	netIDs := make([]hpwl.NetID, 0, len(netlist))
	for netID := range netlist {
		netIDs = append(netIDs, netID)
	}
	sort.Slice(netIDs, func(i, j int) bool { return netIDs[i] < netIDs[j] })

	for _, netID := range netIDs {
		net := netlist[netID]
		for _, blk := range net {
			if block.Classify(blk) != block.Register || !inCluster[blk] {
				continue
			}
			if regNoPos[blk] == nil {
				regNoPos[blk] = map[block.ID]bool{}
			}
			for _, peer := range net {
				if peer == blk || !inCluster[peer] {
					continue
				}
				regNoPos[blk][peer] = true
			}
		}
	}
	return regNoPos
}

// regNetOK reports whether placing blk onto a cell alongside the occupant(s)
// already at pos respects the register-exclusion map in both directions.
func (p *Placer) regNetOK(pos geom.Position, blk block.ID, board map[geom.Position][]block.ID) bool {
	occupants := board[pos]
	if block.Classify(blk) == block.PE {
		for _, occ := range occupants {
			if block.Classify(occ) == block.Register && p.regNoPos[occ][blk] {
				return false
			}
		}
		return true
	}
	for _, occ := range occupants {
		if block.Classify(occ) == block.PE && p.regNoPos[blk][occ] {
			return false
		}
	}
	return true
}

// defaultFoldLegality implements __is_legal_fold: capacity 2, opposite type
// of whatever already occupies pos, and register-exclusion clears.
func (p *Placer) defaultFoldLegality(pos geom.Position, blk block.ID, board map[geom.Position][]block.ID) bool {
	occupants := board[pos]
	if len(occupants) > 1 {
		return false
	}
	if len(occupants) == 1 && sameType(occupants[0], blk) {
		return false
	}
	return p.regNetOK(pos, blk, board)
}

func sameType(a, b block.ID) bool {
	return block.Classify(a) == block.Classify(b)
}

// splitByKind partitions blocks into PEs and everything else (registers, in
// every caller of this package), preserving relative order.
func splitByKind(blocks []block.ID) (peBlocks, regBlocks []block.ID) {
	for _, b := range blocks {
		if block.Classify(b) == block.PE {
			peBlocks = append(peBlocks, b)
		} else {
			regBlocks = append(regBlocks, b)
		}
	}
	return peBlocks, regBlocks
}

// initPlacement round-robins PEs then registers across availablePos,
// skipping a candidate cell whenever it is already full, already holds a
// same-type occupant, or the register-exclusion map forbids the pairing.
func (p *Placer) initPlacement(rng *rand.Rand) map[block.ID]geom.Position {
	peBlocks, regBlocks := splitByKind(p.blocks)
	ordered := append(append([]block.ID(nil), peBlocks...), regBlocks...)

	state := map[block.ID]geom.Position{}
	board := map[geom.Position][]block.ID{}
	numPos := len(p.availablePos)
	posIndex := 0
	placed := 0
	visitedWithoutProgress := 0

	for placed < len(ordered) {
		blk := ordered[placed]
		pos := p.availablePos[posIndex%numPos]
		posIndex++

		if len(board[pos]) > 1 {
			visitedWithoutProgress++
			if visitedWithoutProgress > numPos*3+len(ordered)+8 {
				pnrerr.IllegalInput("detail: no legal cell found while placing %q", blk)
			}
			continue
		}
		if !p.canOccupy(pos, blk, board) {
			visitedWithoutProgress++
			if visitedWithoutProgress > numPos*3+len(ordered)+8 {
				pnrerr.IllegalInput("detail: no legal cell found while placing %q", blk)
			}
			continue
		}

		board[pos] = append(board[pos], blk)
		state[blk] = pos
		placed++
		visitedWithoutProgress = 0
	}

	_ = rng // reserved: the reference round-robin init is deterministic and
	// rng-free; kept for signature symmetry with the other placers' New.
	return state
}

// canOccupy mirrors the reference init-placement's inline acceptance rule.
// With foldReg on it applies defaultFoldLegality's type and register-exclusion
// checks but leaves the capacity check to the caller; with foldReg off it
// accepts only an empty cell.
func (p *Placer) canOccupy(pos geom.Position, blk block.ID, board map[geom.Position][]block.ID) bool {
	if !p.foldReg {
		return len(board[pos]) == 0
	}
	occupants := board[pos]
	if len(occupants) == 1 && sameType(occupants[0], blk) {
		return false
	}
	return p.regNetOK(pos, blk, board)
}

func (p *Placer) buildBoard() map[geom.Position][]block.ID {
	board := make(map[geom.Position][]block.ID, len(p.state))
	for _, blk := range p.blocks {
		pos := p.state[blk]
		board[pos] = append(board[pos], blk)
	}
	return board
}

// Move implements anneal.State. With fold_reg on: pick a random block and a
// random available position; move there if legal, else, if exactly one
// occupant there is of the mover's type, swap with it when both resulting
// cells still respect register-exclusion.
func (p *Placer) Move(rng *rand.Rand) func() {
	blk := p.blocks[rng.IntN(len(p.blocks))]
	blkPos := p.state[blk]
	pos := p.availablePos[rng.IntN(len(p.availablePos))]
	if pos == blkPos {
		return func() {}
	}

	board := p.buildBoard()
	if p.legality(pos, blk, board) {
		p.state[blk] = pos
		return func() { p.state[blk] = blkPos }
	}

	occupants := board[pos]
	var sameTypeBlk block.ID
	sameTypeCount := 0
	for _, occ := range occupants {
		if sameType(occ, blk) {
			sameTypeBlk = occ
			sameTypeCount++
		}
	}
	if sameTypeCount == 1 && p.regNetOK(pos, blk, board) && p.regNetOK(blkPos, sameTypeBlk, board) {
		p.state[blk] = pos
		p.state[sameTypeBlk] = blkPos
		return func() {
			p.state[blk] = blkPos
			p.state[sameTypeBlk] = pos
		}
	}

	return func() {}
}

// Energy implements anneal.State: merges the cluster's current assignment
// into a scratch copy of the caller's pinned positions, never mutating
// boardPos, and sums the netlist's HPWL.
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
