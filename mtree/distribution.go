package mtree

import "sort"

// Distribution assigns the entries of an overflowing node to two promoted
// routing objects.
type Distribution interface {
	Distribute(t *Tree, n *Node, first, second ObjectID) *Assignments
}

// BalancedDistribution alternately hands each side its nearest unassigned
// entry, so both groups end up with about half of the entries.
type BalancedDistribution struct{}

func (BalancedDistribution) Distribute(t *Tree, n *Node, first, second ObjectID) *Assignments {
	return balancedDistribute(n, first, second, distancesTo(t, n, first), distancesTo(t, n, second))
}

func balancedDistribute(n *Node, first, second ObjectID, d1, d2 []float64) *Assignments {
	byFirst := sortedByDistance(d1)
	bySecond := sortedByDistance(d2)

	a := &Assignments{FirstRoutingObject: first, SecondRoutingObject: second}
	assigned := make([]bool, len(n.entries))
	remaining := len(n.entries)
	i1, i2 := 0, 0
	for remaining > 0 {
		for i1 < len(byFirst) && assigned[byFirst[i1]] {
			i1++
		}
		if i1 < len(byFirst) {
			idx := byFirst[i1]
			assigned[idx] = true
			remaining--
			a.addFirst(DistanceEntry{Entry: n.entries[idx], Distance: d1[idx], Index: idx})
		}
		if remaining == 0 {
			break
		}
		for i2 < len(bySecond) && assigned[bySecond[i2]] {
			i2++
		}
		if i2 < len(bySecond) {
			idx := bySecond[i2]
			assigned[idx] = true
			remaining--
			a.addSecond(DistanceEntry{Entry: n.entries[idx], Distance: d2[idx], Index: idx})
		}
	}
	return a
}

// HyperplaneDistribution gives each entry to its nearer promoted object,
// ties going to the smaller group. If one side would stay empty it falls
// back to the balanced distribution.
type HyperplaneDistribution struct{}

func (HyperplaneDistribution) Distribute(t *Tree, n *Node, first, second ObjectID) *Assignments {
	d1 := distancesTo(t, n, first)
	d2 := distancesTo(t, n, second)

	a := &Assignments{FirstRoutingObject: first, SecondRoutingObject: second}
	for i, e := range n.entries {
		switch {
		case d1[i] < d2[i]:
			a.addFirst(DistanceEntry{Entry: e, Distance: d1[i], Index: i})
		case d2[i] < d1[i]:
			a.addSecond(DistanceEntry{Entry: e, Distance: d2[i], Index: i})
		case len(a.FirstAssignments) <= len(a.SecondAssignments):
			a.addFirst(DistanceEntry{Entry: e, Distance: d1[i], Index: i})
		default:
			a.addSecond(DistanceEntry{Entry: e, Distance: d2[i], Index: i})
		}
	}
	if len(a.FirstAssignments) == 0 || len(a.SecondAssignments) == 0 {
		return balancedDistribute(n, first, second, d1, d2)
	}
	return a
}

func distancesTo(t *Tree, n *Node, routing ObjectID) []float64 {
	d := make([]float64, len(n.entries))
	for i, e := range n.entries {
		d[i] = t.Distance(routing, e.RoutingObjectID())
	}
	return d
}

// sortedByDistance returns slot indexes ordered by distance, slot order on ties.
func sortedByDistance(d []float64) []int {
	idx := make([]int, len(d))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return d[idx[i]] < d[idx[j]] })
	return idx
}
