package detail

import (
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/geom"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

// Builder constructs a Placer with the teacher's fluent With*-then-Build
// configuration style (config.DeviceBuilder, core.Builder), matching
// cluster.Builder's shape.
type Builder struct {
	blocks       []block.ID
	availablePos []geom.Position
	netlist      hpwl.Netlist
	boardPos     hpwl.PositionMap
	legality     Legality
	foldReg      bool
	seed         uint64
}

// NewBuilder returns a Builder with fold-register mode on, matching
// detail.New's implicit default when called directly with foldReg true.
func NewBuilder() Builder {
	return Builder{foldReg: true}
}

func (b Builder) WithBlocks(blocks []block.ID) Builder {
	b.blocks = blocks
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

// WithLegality overrides the default fold-register capacity-2 legality
// predicate.
func (b Builder) WithLegality(legality Legality) Builder {
	b.legality = legality
	return b
}

func (b Builder) WithFoldReg(foldReg bool) Builder {
	b.foldReg = foldReg
	return b
}

func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// Build runs the deterministic initial placement and returns a ready Placer.
func (b Builder) Build() *Placer {
	if b.boardPos == nil {
		b.boardPos = hpwl.PositionMap{}
	}
	return New(b.blocks, b.availablePos, b.netlist, b.boardPos, b.legality, b.foldReg, b.seed)
}
