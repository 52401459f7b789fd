package macro

import (
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

// Builder constructs a Placer with the teacher's fluent With*-then-Build
// configuration style (config.DeviceBuilder, core.Builder), matching
// cluster.Builder's shape.
type Builder struct {
	availablePos []geom.Position
	netlist      hpwl.Netlist
	boardPos     hpwl.PositionMap
	current      map[block.ID]geom.Position
	legality     Legality
}

// NewBuilder returns an empty Builder. legality must still be supplied via
// WithLegality before Build — the reference macro placer has no default.
func NewBuilder() Builder {
	return Builder{}
}

func (b Builder) WithAvailablePos(pos []geom.Position) Builder {
	b.availablePos = pos
	return b
}

func (b Builder) WithNetlist(netlist hpwl.Netlist) Builder {
	b.netlist = netlist
	return b
}

func (b Builder) WithBoardPos(boardPos hpwl.PositionMap) Builder {
	b.boardPos = boardPos
	return b
}

// WithCurrent sets the blocks' starting positions, which also determines
// which blocks this Placer anneals.
func (b Builder) WithCurrent(current map[block.ID]geom.Position) Builder {
	b.current = current
	return b
}

func (b Builder) WithLegality(legality Legality) Builder {
	b.legality = legality
	return b
}

// Build returns a ready Placer. Panics (via pnrerr.IllegalInput) if no
// legality predicate was supplied or current does not fit availablePos.
func (b Builder) Build() *Placer {
	if b.boardPos == nil {
		b.boardPos = hpwl.PositionMap{}
	}
	return New(b.availablePos, b.netlist, b.boardPos, b.current, b.legality)
}
