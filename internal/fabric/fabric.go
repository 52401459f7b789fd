// Package fabric defines the board legality contracts the placers depend on,
// plus ReferenceFabric, the one concrete implementation matching the
// reference 60x60 CGRA board (spec §6's default legality predicates).
package fabric

import "github.com/sarchlab/zeonica-pnr/internal/geom"

// Board is the read-only grid the placers run over. It never mutates during
// placement (spec §3: "The board itself is immutable during placement").
type Board interface {
	Width() int
	Height() int
	// IsCellLegal reports whether pos may host a block of the given
	// architectural class (clbType). Implementations are free to ignore
	// clbType if the fabric has a single class of placeable cell.
	IsCellLegal(pos geom.Position, clbType string) bool
}

// ReferenceFabric is the default board: a 60x60 grid where columns
// 2+8j and 6+8j (j in 0..6) are non-CLB, and the outer 1-cell ring is
// illegal. Grounded on sa.py's __is_cell_legal default.
type ReferenceFabric struct {
	width, height int
}

// NewReferenceFabric builds a ReferenceFabric of the given size. Passing
// 0, 0 yields the canonical 60x60 reference board.
func NewReferenceFabric(width, height int) *ReferenceFabric {
	if width == 0 && height == 0 {
		width, height = 60, 60
	}
	return &ReferenceFabric{width: width, height: height}
}

func (f *ReferenceFabric) Width() int  { return f.width }
func (f *ReferenceFabric) Height() int { return f.height }

// IsCellLegal implements Board. clbType is unused: the reference fabric has
// a single placeable class (CLB).
func (f *ReferenceFabric) IsCellLegal(pos geom.Position, _ string) bool {
	if isNonCLBColumn(pos.X) {
		return false
	}
	if pos.X < 1 || pos.X > f.width-2 || pos.Y < 1 || pos.Y > f.height-2 {
		return false
	}
	return true
}

func isNonCLBColumn(x int) bool {
	for j := 0; j < 7; j++ {
		if x == 2+8*j || x == 6+8*j {
			return true
		}
	}
	return false
}
