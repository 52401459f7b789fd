package deblock

import (
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

// Builder constructs a Placer with the teacher's fluent With*-then-Build
// configuration style (config.DeviceBuilder, core.Builder), matching
// cluster.Builder's shape.
type Builder struct {
	blockPos     map[block.ID]geom.Position
	availablePos []geom.Position
	netlist      hpwl.Netlist
	boardPos     hpwl.PositionMap
	legality     Legality
	excludeKinds []block.Kind
}

// NewBuilder returns an empty Builder; WithLegality and WithExcludeKinds
// default to the reference predicate and DefaultExcludeList when omitted.
func NewBuilder() Builder {
	return Builder{}
}

func (b Builder) WithBlockPos(blockPos map[block.ID]geom.Position) Builder {
	b.blockPos = blockPos
	return b
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

// WithLegality overrides the default "complex block only" legality
// predicate.
func (b Builder) WithLegality(legality Legality) Builder {
	b.legality = legality
	return b
}

// WithExcludeKinds overrides DefaultExcludeList.
func (b Builder) WithExcludeKinds(kinds []block.Kind) Builder {
	b.excludeKinds = kinds
	return b
}

// Build returns a ready Placer.
func (b Builder) Build() *Placer {
	if b.boardPos == nil {
		b.boardPos = hpwl.PositionMap{}
	}
	return New(b.blockPos, b.availablePos, b.netlist, b.boardPos, b.legality, b.excludeKinds)
}
