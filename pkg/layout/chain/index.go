package chain

import "slices"

// Membership identifies a node inside one chain.
type Membership struct {
	Node    string
	ChainID int
}

// Index is the per-block lookup view of a set of chains.
type Index struct {
	// IDsByNode lists, per data node, the chains it belongs to in ascending order.
	IDsByNode map[string][]int
	// Position is the 0-based position of a node in a chain; 0 is nearest the consumer.
	Position map[Membership]int
	// Target maps a chain ID to its consuming flow node.
	Target map[int]string
}

// NewIndex builds the lookup view of infos.
func NewIndex(infos []Info) *Index {
	idx := &Index{
		IDsByNode: make(map[string][]int),
		Position:  make(map[Membership]int),
		Target:    make(map[int]string, len(infos)),
	}
	for _, info := range infos {
		idx.Target[info.ChainID] = info.TargetFlowID
		for pos, id := range info.Nodes {
			key := Membership{Node: id, ChainID: info.ChainID}
			if _, dup := idx.Position[key]; dup {
				continue
			}
			idx.Position[key] = pos
			idx.IDsByNode[id] = append(idx.IDsByNode[id], info.ChainID)
		}
	}
	for id := range idx.IDsByNode {
		slices.Sort(idx.IDsByNode[id])
	}
	return idx
}

// MinID returns the smallest chain ID containing node.
func (x *Index) MinID(node string) (int, bool) {
	ids := x.IDsByNode[node]
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}
