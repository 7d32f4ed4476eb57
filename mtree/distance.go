package mtree

import (
	"math"
	"sort"
)

// Distance returns the distance between two objects. Equal ids and the root
// entry's NoObject give 0 without calling the distance function; every other
// call is counted.
func (t *Tree) Distance(a, b ObjectID) float64 {
	if a == b || a == NoObject || b == NoObject {
		return 0
	}
	t.stats.distanceCalcs++
	return t.settings.Distance.Distance(a, b)
}

// EntryDistance is a slot of a node together with the lower bound on the
// distance between a query and anything below that slot.
type EntryDistance struct {
	Index   int
	MinDist float64
}

// SortedEntries orders the entries of n by max(0, d(routing, q) - coveringRadius),
// nearest first. Equal bounds keep slot order.
func (t *Tree) SortedEntries(n *Node, q ObjectID) []EntryDistance {
	result := make([]EntryDistance, len(n.entries))
	for i, e := range n.entries {
		d := t.Distance(e.RoutingObjectID(), q)
		result[i] = EntryDistance{Index: i, MinDist: math.Max(0, d-e.CoveringRadius())}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].MinDist < result[j].MinDist
	})
	return result
}

// hasOverflow reports whether n uses its last slot and must be split.
func hasOverflow(n *Node) bool {
	return len(n.entries) == n.capacity
}
