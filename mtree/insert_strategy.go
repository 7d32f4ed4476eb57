package mtree

import (
	"math"

	"github.com/cockroachdb/errors"
)

// MinimumEnlargementInsert descends into the entry whose ball already
// contains the new object and is nearest to it. If no ball contains it, the
// entry needing the smallest radius enlargement is taken. Ties keep the
// earliest entry.
type MinimumEnlargementInsert struct{}

func (MinimumEnlargementInsert) ChoosePath(t *Tree, e *LeafEntry) (Path, error) {
	path := t.RootPath()
	node, err := t.store.ReadNode(path.NodeID())
	if err != nil {
		return Path{}, err
	}

	for !node.leaf {
		if len(node.entries) == 0 {
			return Path{}, errors.Wrapf(ErrStructuralInconsistency, "directory node %d is empty", node.id)
		}
		candidate := -1
		minDist := math.Inf(1)
		minEnlarge := math.Inf(1)
		for i := range node.entries {
			de, err := node.directoryEntry(i)
			if err != nil {
				return Path{}, err
			}
			d := t.Distance(e.objectID, de.routingObjectID)
			enlarge := d - de.coveringRadius
			if enlarge <= 0 {
				// no enlargement needed
				if minEnlarge > 0 || d < minDist {
					minEnlarge = 0
					minDist = d
					candidate = i
				}
			} else if minEnlarge > 0 && enlarge < minEnlarge {
				minEnlarge = enlarge
				minDist = d
				candidate = i
			}
		}

		if candidate < 0 {
			return Path{}, errors.Newf("no subtree of node %d accepts object %d", node.id, e.objectID)
		}
		de, _ := node.directoryEntry(candidate)
		path = path.Child(de.nodeID, candidate)
		if node, err = t.store.ReadNode(de.nodeID); err != nil {
			return Path{}, err
		}
	}
	return path, nil
}
