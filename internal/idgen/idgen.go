// Package idgen provides small closure-based generators for synthetic block
// IDs, the way util/valgen generates constant and increasing int streams for
// test fixtures.
package idgen

import (
	"strconv"

	"github.com/sarchlab/zeonica-pnr/internal/block"
)

// MakeSequence returns a generator that yields prefix+"0", prefix+"1", ...
// on each call, matching prefix to a block.Kind tag byte ("p", "r", "m",
// "i", "u", "x") so the IDs it produces classify the way the caller expects.
func MakeSequence(prefix string) func() block.ID {
	next := 0
	return func() block.ID {
		id := block.ID(prefix + strconv.Itoa(next))
		next++
		return id
	}
}

// Const returns a generator that always yields the same ID, useful for
// fixtures that need a fixed pinned block regardless of how many times the
// generator is invoked.
func Const(id block.ID) func() block.ID {
	return func() block.ID { return id }
}
