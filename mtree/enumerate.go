package mtree

import "github.com/cockroachdb/errors"

// ReadNode reads a node through the tree's store.
func (t *Tree) ReadNode(id PageID) (*Node, error) {
	return t.store.ReadNode(id)
}

// RootEntry returns a copy of the entry representing the root node, or nil
// before the first insert.
func (t *Tree) RootEntry() *DirectoryEntry {
	if t.rootEntry == nil {
		return nil
	}
	return t.rootEntry.clone().(*DirectoryEntry)
}

// walk visits every node breadth-first, passing the directory entry that
// represents it (the root entry for the root).
func (t *Tree) walk(visit func(n *Node, e *DirectoryEntry) error) error {
	if !t.initialized {
		return nil
	}
	type item struct {
		id    PageID
		entry *DirectoryEntry
	}
	queue := []item{{id: t.store.RootID(), entry: t.rootEntry}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		n, err := t.store.ReadNode(it.id)
		if err != nil {
			return err
		}
		if err := visit(n, it.entry); err != nil {
			return err
		}
		if n.leaf {
			continue
		}
		for i := range n.entries {
			de, err := n.directoryEntry(i)
			if err != nil {
				return err
			}
			queue = append(queue, item{id: de.nodeID, entry: de})
		}
	}
	return nil
}

// Leaves returns every object entry stored in the tree.
func (t *Tree) Leaves() ([]*LeafEntry, error) {
	var result []*LeafEntry
	err := t.walk(func(n *Node, _ *DirectoryEntry) error {
		if !n.leaf {
			return nil
		}
		for _, e := range n.entries {
			result = append(result, e.clone().(*LeafEntry))
		}
		return nil
	})
	return result, err
}

// LeafNodes returns the directory entries pointing at leaf nodes. A tree whose
// root is a leaf yields the root entry.
func (t *Tree) LeafNodes() ([]*DirectoryEntry, error) {
	var result []*DirectoryEntry
	err := t.walk(func(n *Node, e *DirectoryEntry) error {
		if n.leaf {
			result = append(result, e.clone().(*DirectoryEntry))
		}
		return nil
	})
	return result, err
}

// Height is the number of directory levels above the leaves: 0 for a leaf
// root (and for an empty tree).
func (t *Tree) Height() (int, error) {
	if !t.initialized {
		return 0, nil
	}
	height := 0
	n, err := t.store.ReadNode(t.store.RootID())
	if err != nil {
		return 0, err
	}
	for !n.leaf {
		if len(n.entries) == 0 {
			return 0, errors.Wrapf(ErrStructuralInconsistency, "directory node %d is empty", n.id)
		}
		de, err := n.directoryEntry(0)
		if err != nil {
			return 0, err
		}
		if n, err = t.store.ReadNode(de.nodeID); err != nil {
			return 0, err
		}
		height++
	}
	return height, nil
}

func (t *Tree) heightUnchecked() int {
	h, _ := t.Height()
	return h
}

// Size returns the number of indexed objects.
func (t *Tree) Size() (int, error) {
	size := 0
	err := t.walk(func(n *Node, _ *DirectoryEntry) error {
		if n.leaf {
			size += len(n.entries)
		}
		return nil
	})
	return size, err
}
