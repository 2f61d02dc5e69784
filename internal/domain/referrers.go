package domain

import "slices"

// DeriveReferrers fills each node's Referrers from the References of the
// whole set. Existing Referrers are replaced. Referrer lists are sorted.
func DeriveReferrers(nodes []Node) {
	index := make(map[NodeID]int, len(nodes))
	for i := range nodes {
		index[nodes[i].ID] = i
		nodes[i].Referrers = nil
	}
	for _, n := range nodes {
		for attr, targets := range n.References {
			for _, target := range targets {
				i, ok := index[target]
				if !ok {
					continue
				}
				if nodes[i].Referrers == nil {
					nodes[i].Referrers = map[string][]NodeID{}
				}
				nodes[i].Referrers[attr] = append(nodes[i].Referrers[attr], n.ID)
			}
		}
	}
	for i := range nodes {
		for attr := range nodes[i].Referrers {
			slices.SortFunc(nodes[i].Referrers[attr], CompareNodeIDs)
		}
	}
}
