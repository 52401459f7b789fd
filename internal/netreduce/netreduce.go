// Package netreduce implements the netlist-reduction contract of spec §6:
// collapsing blocks owned by a cluster into that cluster's centroid
// pseudo-block ("x"+cluster_id), so a net's HPWL can be evaluated against
// cluster geometry instead of (not-yet-placed) individual block positions.
//
// Reduce is general enough to serve both callers described in the reference
// source: the cluster placer collapses every cluster (keep == nil) since at
// that level only inter-cluster connectivity matters; a caller preparing
// input for the detailed placer of one specific cluster collapses every
// *other* cluster while leaving that cluster's own blocks untouched
// (keep pointing at its ClusterID), per SADetailedPlacer's precondition that
// "netlists has to be prepared already".
package netreduce

import (
	"github.com/sarchlab/zeonica-pnr/internal/block"
	"github.com/sarchlab/zeonica-pnr/internal/hpwl"
)

// Reduce collapses blocks belonging to clusters other than keep (or all
// clusters, if keep is nil) to their cluster's centroid pseudo-block.
// Duplicate references to the same centroid within one net are deduplicated.
func Reduce(netlist hpwl.Netlist, clusters map[int][]block.ID, keep *int) hpwl.Netlist {
	owner := make(map[block.ID]int)
	for clusterID, blocks := range clusters {
		for _, b := range blocks {
			owner[b] = clusterID
		}
	}

	reduced := make(hpwl.Netlist, len(netlist))
	for netID, blocks := range netlist {
		seen := make(map[block.ID]bool, len(blocks))
		newBlocks := make([]block.ID, 0, len(blocks))
		for _, b := range blocks {
			repl := b
			if clusterID, ok := owner[b]; ok {
				if keep == nil || *keep != clusterID {
					repl = block.CentroidID(clusterID)
				}
			}
			if !seen[repl] {
				seen[repl] = true
				newBlocks = append(newBlocks, repl)
			}
		}
		reduced[netID] = newBlocks
	}
	return reduced
}
