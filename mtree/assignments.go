package mtree

import (
	"github.com/cockroachdb/errors"
)

// DistanceEntry is an entry of a node being split together with its distance
// to the routing object of the group it was assigned to.
type DistanceEntry struct {
	Entry    Entry
	Distance float64
	Index    int // slot in the node being split
}

// Assignments is the result of a split: two promoted routing objects, the
// entries that go to each of them and the resulting covering radii.
type Assignments struct {
	FirstRoutingObject  ObjectID
	SecondRoutingObject ObjectID
	FirstAssignments    []DistanceEntry
	SecondAssignments   []DistanceEntry
	FirstCover          float64
	SecondCover         float64
}

func (a *Assignments) addFirst(de DistanceEntry) {
	a.FirstAssignments = append(a.FirstAssignments, de)
	if c := de.Distance + de.Entry.CoveringRadius(); c > a.FirstCover {
		a.FirstCover = c
	}
}

func (a *Assignments) addSecond(de DistanceEntry) {
	a.SecondAssignments = append(a.SecondAssignments, de)
	if c := de.Distance + de.Entry.CoveringRadius(); c > a.SecondCover {
		a.SecondCover = c
	}
}

// validate checks that the two groups are non-empty and partition the
// entries of n.
func (a *Assignments) validate(n *Node) error {
	if a == nil {
		return errors.AssertionFailedf("split of node %d returned no assignments", n.id)
	}
	if len(a.FirstAssignments) == 0 || len(a.SecondAssignments) == 0 {
		return errors.AssertionFailedf("split of node %d produced an empty group (%d/%d)",
			n.id, len(a.FirstAssignments), len(a.SecondAssignments))
	}
	if got := len(a.FirstAssignments) + len(a.SecondAssignments); got != len(n.entries) {
		return errors.AssertionFailedf("split of node %d assigned %d of %d entries", n.id, got, len(n.entries))
	}
	seen := make([]bool, len(n.entries))
	for _, group := range [][]DistanceEntry{a.FirstAssignments, a.SecondAssignments} {
		for _, de := range group {
			if de.Index < 0 || de.Index >= len(n.entries) || seen[de.Index] {
				return errors.AssertionFailedf("split of node %d assigned slot %d twice or out of range", n.id, de.Index)
			}
			if de.Entry != n.entries[de.Index] {
				return errors.AssertionFailedf("split of node %d: entry of slot %d does not match", n.id, de.Index)
			}
			seen[de.Index] = true
		}
	}
	return nil
}
