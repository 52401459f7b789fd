// Package geom provides the geometry primitives shared by every placer:
// Manhattan distance, axis-aligned rectangle overlap, and the zig-zag
// enumeration used to pack cells outward from a chosen corner.
package geom

import "sort"

// Position is an integer grid coordinate, origin top-left.
type Position struct {
	X, Y int
}

// Size is a width/height pair.
type Size struct {
	W, H int
}

// ManhattanDistance returns |x1-x2| + |y1-y2|.
func ManhattanDistance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// RectOverlapArea returns the area of intersection between two axis-aligned
// rectangles, each given by a top-left position and a size. Returns 0 if the
// rectangles are disjoint.
func RectOverlapArea(p1 Position, s1 Size, p2 Position, s2 Size) int {
	x := min(p1.X+s1.W, p2.X+s2.W) - max(p1.X, p2.X)
	y := min(p1.Y+s1.H, p2.Y+s2.H) - max(p1.Y, p2.Y)
	if x <= 0 || y <= 0 {
		return 0
	}
	return x * y
}

// Corner identifies one of the four corners of a width x height rectangle.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// ZigZag enumerates every position in a width x height rectangle in order of
// increasing Manhattan distance from the given corner, ties broken
// lexicographically by (x, y). Index i of the returned slice is the i-th
// position visited.
func ZigZag(width, height int, corner Corner) []Position {
	corners := [4]Position{
		{0, 0},
		{width - 1, 0},
		{width - 1, height - 1},
		{0, height - 1},
	}
	origin := corners[corner]

	positions := make([]Position, 0, width*height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			positions = append(positions, Position{x, y})
		}
	}

	sort.SliceStable(positions, func(i, j int) bool {
		di := ManhattanDistance(positions[i], origin)
		dj := ManhattanDistance(positions[j], origin)
		if di != dj {
			return di < dj
		}
		if positions[i].X != positions[j].X {
			return positions[i].X < positions[j].X
		}
		return positions[i].Y < positions[j].Y
	})

	return positions
}

// NearestCorner picks the corner of the rectangle anchored at pos with the
// given size whose actual board coordinate is closest (Manhattan) to center.
func NearestCorner(pos Position, size Size, center Position) Corner {
	corners := [4]Position{
		pos,
		{pos.X + size.W, pos.Y},
		{pos.X + size.W, pos.Y + size.H},
		{pos.X, pos.Y + size.H},
	}
	best := TopLeft
	bestDist := ManhattanDistance(corners[TopLeft], center)
	for c := TopRight; c <= BottomLeft; c++ {
		d := ManhattanDistance(corners[c], center)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
