package cluster

import (
	"math/rand/v2"

	"github.com/sarchlab/zeonica-pnr/internal/fabric"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

// Builder constructs a Placer with the teacher's fluent With*-then-Build
// configuration style (config.DeviceBuilder, core.Builder).
type Builder struct {
	board       fabric.Board
	boardPos    hpwl.PositionMap
	clusters    Set
	netlist     hpwl.Netlist
	clbType     string
	clbMargin   int
	placeFactor int
	foldReg     bool
	legality    Legality
	seed        uint64
}

// NewBuilder returns a Builder with the reference defaults: place_factor 6,
// fold-register mode on, margin 1, clb type "clb".
func NewBuilder() Builder {
	return Builder{
		placeFactor: 6,
		foldReg:     true,
		clbMargin:   1,
		clbType:     "clb",
	}
}

func (b Builder) WithBoard(board fabric.Board) Builder {
	b.board = board
	return b
}

func (b Builder) WithBoardPos(boardPos hpwl.PositionMap) Builder {
	b.boardPos = boardPos
	return b
}

func (b Builder) WithClusters(clusters Set) Builder {
	b.clusters = clusters
	return b
}

func (b Builder) WithNetlist(netlist hpwl.Netlist) Builder {
	b.netlist = netlist
	return b
}

func (b Builder) WithClbType(clbType string) Builder {
	b.clbType = clbType
	return b
}

func (b Builder) WithMargin(margin int) Builder {
	b.clbMargin = margin
	return b
}

func (b Builder) WithPlaceFactor(factor int) Builder {
	if factor <= 0 {
		panic("pnr: place factor must be positive")
	}
	b.placeFactor = factor
	return b
}

func (b Builder) WithFoldReg(foldReg bool) Builder {
	b.foldReg = foldReg
	return b
}

// WithLegality overrides the default overlap-budget legality predicate.
func (b Builder) WithLegality(legality Legality) Builder {
	b.legality = legality
	return b
}

func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// Build runs the deterministic initial placement and returns a ready
// Placer. It returns a *pnrerr.ClusterException if the initial packing
// cycles before placing every cluster — the one recoverable failure in this
// engine (spec §7).
func (b Builder) Build() (*Placer, error) {
	if b.board == nil {
		panic("pnr: cluster.Builder requires WithBoard")
	}
	if b.boardPos == nil {
		b.boardPos = hpwl.PositionMap{}
	}

	p := &Placer{
		board:       b.board,
		boardPos:    b.boardPos,
		clusters:    b.clusters,
		clbType:     b.clbType,
		clbMargin:   b.clbMargin,
		placeFactor: b.placeFactor,
		foldReg:     b.foldReg,
		squeezeIter: 5,
		squareSizes: map[int]int{},
	}
	p.centerOfBoard.X = b.board.Width() / 2
	p.centerOfBoard.Y = b.board.Height() / 2

	if b.legality != nil {
		p.legality = b.legality
	} else {
		p.legality = p.defaultLegality
	}

	rng := rand.New(rand.NewPCG(b.seed, b.seed))
	state, err := p.initPlacement(rng)
	if err != nil {
		return nil, err
	}
	p.state = state
	p.reducedNetlist = reduceNetlist(b.netlist, b.clusters)

	return p, nil
}
