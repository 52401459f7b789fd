package cluster

import "github.com/sarchlab/zeonica-pnr/internal/block"

// Set is an ordered collection of clusters: Order preserves the insertion
// order the reference packer walks in, since Go maps have no stable order
// and the packing result depends on cluster order.
type Set struct {
	Order  []int
	Blocks map[int][]block.ID
}

// NewSet builds a Set from blocks keyed by cluster ID, in the given order.
func NewSet(order []int, blocks map[int][]block.ID) Set {
	return Set{Order: order, Blocks: blocks}
}
