package mtree

import (
	"math"

	"github.com/cockroachdb/errors"
)

const integrityTolerance = 1e-10

// IntegrityCheck verifies the whole persisted tree starting at the root.
func (t *Tree) IntegrityCheck() error {
	if !t.initialized {
		return nil
	}
	root, err := t.store.ReadNode(t.store.RootID())
	if err != nil {
		return err
	}
	if err := root.IntegrityCheck(t, t.rootEntry); err != nil {
		return err
	}
	t.log.Debug("integrity check passed")
	return nil
}

// IntegrityCheck verifies n and its subtree against e, the entry that
// represents n in its parent:
//   - no nil entries, entry kinds match the node, at most capacity-1 entries
//   - all children of a directory node are of the same kind
//   - each child's parent distance equals its distance to e's routing object
//   - e's covering radius encloses every child's ball
func (n *Node) IntegrityCheck(t *Tree, e *DirectoryEntry) error {
	if len(n.entries) >= n.capacity {
		return errors.Wrapf(ErrStructuralInconsistency, "node %d holds %d entries, capacity is %d",
			n.id, len(n.entries), n.capacity)
	}

	var childLeaf *bool
	for i, entry := range n.entries {
		switch entry.(type) {
		case nil:
			return errors.Wrapf(ErrStructuralInconsistency, "node %d has a nil entry at %d", n.id, i)
		case *LeafEntry:
			if !n.leaf {
				return errors.Wrapf(ErrStructuralInconsistency, "directory node %d holds leaf entry %d", n.id, i)
			}
		case *DirectoryEntry:
			if n.leaf {
				return errors.Wrapf(ErrStructuralInconsistency, "leaf node %d holds directory entry %d", n.id, i)
			}
		}

		pd := t.Distance(entry.RoutingObjectID(), e.routingObjectID)
		if math.Abs(entry.ParentDistance()-pd) > integrityTolerance {
			return errors.Wrapf(ErrStructuralInconsistency, "node %d entry %d: parent distance %g, actual distance %g",
				n.id, i, entry.ParentDistance(), pd)
		}
		if need := entry.ParentDistance() + entry.CoveringRadius(); e.coveringRadius < need-integrityTolerance {
			return errors.Wrapf(ErrStructuralInconsistency, "node %d entry %d: covering radius %g of the parent entry is below %g",
				n.id, i, e.coveringRadius, need)
		}

		if n.leaf {
			continue
		}
		de := entry.(*DirectoryEntry)
		child, err := t.store.ReadNode(de.nodeID)
		if err != nil {
			return err
		}
		if childLeaf == nil {
			childLeaf = &child.leaf
		} else if *childLeaf != child.leaf {
			return errors.Wrapf(ErrStructuralInconsistency, "directory node %d mixes leaf and directory children", n.id)
		}
		if err := child.IntegrityCheck(t, de); err != nil {
			return err
		}
	}
	return nil
}
