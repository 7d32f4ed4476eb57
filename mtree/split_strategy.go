package mtree

import (
	"math"

	"github.com/cockroachdb/errors"
)

// MLBDistSplit promotes the two routing objects that are farthest apart
// (maximum lower bound on distance) and distributes the entries between them.
type MLBDistSplit struct {
	Distribution Distribution
}

func (s MLBDistSplit) Split(t *Tree, n *Node) (*Assignments, error) {
	if len(n.entries) < 2 {
		return nil, errors.AssertionFailedf("cannot split node %d with %d entries", n.id, len(n.entries))
	}
	best1, best2 := 0, 1
	maxDist := -1.0
	for i := 0; i < len(n.entries); i++ {
		for j := i + 1; j < len(n.entries); j++ {
			d := t.Distance(n.entries[i].RoutingObjectID(), n.entries[j].RoutingObjectID())
			if d > maxDist {
				maxDist = d
				best1, best2 = i, j
			}
		}
	}
	return distributionOrDefault(s.Distribution).Distribute(t, n,
		n.entries[best1].RoutingObjectID(), n.entries[best2].RoutingObjectID()), nil
}

// MMRadSplit tries every pair of routing objects and promotes the pair whose
// larger resulting covering radius is smallest.
type MMRadSplit struct {
	Distribution Distribution
}

func (s MMRadSplit) Split(t *Tree, n *Node) (*Assignments, error) {
	if len(n.entries) < 2 {
		return nil, errors.AssertionFailedf("cannot split node %d with %d entries", n.id, len(n.entries))
	}
	dist := distributionOrDefault(s.Distribution)
	var best *Assignments
	minCover := math.Inf(1)
	for i := 0; i < len(n.entries); i++ {
		for j := i + 1; j < len(n.entries); j++ {
			a := dist.Distribute(t, n, n.entries[i].RoutingObjectID(), n.entries[j].RoutingObjectID())
			if cover := math.Max(a.FirstCover, a.SecondCover); cover < minCover || best == nil {
				minCover = cover
				best = a
			}
		}
	}
	return best, nil
}

func distributionOrDefault(d Distribution) Distribution {
	if d == nil {
		return BalancedDistribution{}
	}
	return d
}
