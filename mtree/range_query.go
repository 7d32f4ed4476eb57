package mtree

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// RangeQuery returns every object within radius of q, nearest first.
func (t *Tree) RangeQuery(q ObjectID, radius float64) ([]Neighbor, error) {
	if radius < 0 {
		return nil, errors.Newf("negative query radius %g", radius)
	}
	t.stats.rangeQueries++
	if !t.initialized {
		return nil, nil
	}

	var result []Neighbor
	if err := t.doRangeQuery(NoObject, t.store.RootID(), q, radius, &result); err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Compare(result[j]) < 0 })
	return result, nil
}

// doRangeQuery searches the subtree at pageID whose routing object is
// routing. The parent distances stored in the node let most entries be
// discarded without computing their distance to q.
func (t *Tree) doRangeQuery(routing ObjectID, pageID PageID, q ObjectID, radius float64, result *[]Neighbor) error {
	node, err := t.store.ReadNode(pageID)
	if err != nil {
		return err
	}
	dq := t.Distance(routing, q)

	for i, e := range node.entries {
		if abs(dq-e.ParentDistance()) > radius+e.CoveringRadius() {
			continue
		}
		d := t.Distance(e.RoutingObjectID(), q)
		if node.leaf {
			if d <= radius {
				*result = append(*result, Neighbor{ID: e.RoutingObjectID(), Distance: d})
			}
			continue
		}
		if d <= radius+e.CoveringRadius() {
			de, err := node.directoryEntry(i)
			if err != nil {
				return err
			}
			if err := t.doRangeQuery(de.routingObjectID, de.nodeID, q, radius, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
