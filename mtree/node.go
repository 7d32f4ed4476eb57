package mtree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

func (n *Node) ID() PageID      { return n.id }
func (n *Node) IsLeaf() bool    { return n.leaf }
func (n *Node) NumEntries() int { return len(n.entries) }
func (n *Node) Capacity() int   { return n.capacity }

// Entry returns the entry at index i.
func (n *Node) Entry(i int) Entry { return n.entries[i] }

// directoryEntry returns the entry at index i of a directory node.
func (n *Node) directoryEntry(i int) (*DirectoryEntry, error) {
	if i < 0 || i >= len(n.entries) {
		return nil, errors.AssertionFailedf("node %d has no entry at index %d (%d entries)", n.id, i, len(n.entries))
	}
	e, ok := n.entries[i].(*DirectoryEntry)
	if !ok {
		return nil, errors.AssertionFailedf("entry %d of node %d is not a directory entry", i, n.id)
	}
	return e, nil
}

func (n *Node) addLeafEntry(e *LeafEntry) error {
	if !n.leaf {
		return errors.Wrapf(ErrIllegalOperation, "node %d is not a leaf node", n.id)
	}
	if len(n.entries) >= n.capacity {
		return errors.AssertionFailedf("leaf node %d is already full (%d entries)", n.id, len(n.entries))
	}
	n.entries = append(n.entries, e)
	return nil
}

func (n *Node) addDirectoryEntry(e *DirectoryEntry) error {
	if n.leaf {
		return errors.Wrapf(ErrIllegalOperation, "node %d is a leaf node", n.id)
	}
	if len(n.entries) >= n.capacity {
		return errors.AssertionFailedf("directory node %d is already full (%d entries)", n.id, len(n.entries))
	}
	n.entries = append(n.entries, e)
	return nil
}

// CoveringRadiusFromEntries returns the largest parentDistance+coveringRadius
// over the entries of n. By the triangle inequality this bounds the distance
// from n's routing object to every object below n.
func (n *Node) CoveringRadiusFromEntries() float64 {
	var cover float64
	for _, e := range n.entries {
		if c := e.ParentDistance() + e.CoveringRadius(); c > cover {
			cover = c
		}
	}
	return cover
}

// AdjustEntry stores the routing object, parent distance and the covering
// radius recomputed from n's entries into e, the entry representing n. It
// returns true if any of the three values changed.
func (n *Node) AdjustEntry(e *DirectoryEntry, routingObjectID ObjectID, parentDistance float64) bool {
	changed, _ := e.SetRoutingObjectID(routingObjectID)
	if e.SetParentDistance(parentDistance) {
		changed = true
	}
	if c, _ := e.SetCoveringRadius(n.CoveringRadiusFromEntries()); c {
		changed = true
	}
	return changed
}

// SplitTo keeps first in n and moves second into newNode. Both groups come
// from the split strategy; nothing is decided here.
func (n *Node) SplitTo(newNode *Node, first, second []Entry) error {
	if n.leaf != newNode.leaf {
		return errors.AssertionFailedf("cannot split node %d (leaf=%t) into node %d (leaf=%t)", n.id, n.leaf, newNode.id, newNode.leaf)
	}
	if len(first)+len(second) != len(n.entries) {
		return errors.AssertionFailedf("split of node %d assigns %d+%d entries, node has %d",
			n.id, len(first), len(second), len(n.entries))
	}
	n.entries = make([]Entry, 0, n.capacity)
	n.entries = append(n.entries, first...)
	newNode.entries = make([]Entry, 0, newNode.capacity)
	newNode.entries = append(newNode.entries, second...)
	return nil
}

func (n *Node) String() string {
	if n.leaf {
		return fmt.Sprintf("LeafNode %d", n.id)
	}
	return fmt.Sprintf("DirNode %d", n.id)
}
