package mtree

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// adjustTree restores the invariants of the node at the end of path after an
// entry was added to it, and walks upwards as long as something changed.
func (t *Tree) adjustTree(path Path) error {
	node, err := t.store.ReadNode(path.NodeID())
	if err != nil {
		return err
	}

	if hasOverflow(node) {
		return t.splitOverflow(path, node)
	}

	// no overflow, only adjust parameters of the entry representing the node
	if path.IsRoot() {
		t.rootEntry.SetCoveringRadius(node.CoveringRadiusFromEntries())
		return nil
	}

	parentPath := path.Parent()
	parent, err := t.store.ReadNode(parentPath.NodeID())
	if err != nil {
		return err
	}
	entry, err := parent.directoryEntry(path.Index())
	if err != nil {
		return err
	}
	// routing object and parent distance stay, only the radius may grow
	if !node.AdjustEntry(entry, entry.routingObjectID, entry.parentDistance) {
		return nil
	}
	if err := t.store.WriteNode(parent); err != nil {
		return err
	}
	return t.adjustTree(parentPath)
}

func (t *Tree) splitOverflow(path Path, node *Node) error {
	assign, err := t.settings.SplitStrategy.Split(t, node)
	if err != nil {
		return errors.Wrapf(err, "failed to split node %d", node.id)
	}
	if err := assign.validate(node); err != nil {
		return err
	}

	var newNode *Node
	if node.leaf {
		newNode, err = t.store.NewLeafNode()
	} else {
		newNode, err = t.store.NewDirectoryNode()
	}
	if err != nil {
		return err
	}

	first := make([]Entry, len(assign.FirstAssignments))
	for i, de := range assign.FirstAssignments {
		de.Entry.SetParentDistance(de.Distance)
		first[i] = de.Entry
	}
	second := make([]Entry, len(assign.SecondAssignments))
	for i, de := range assign.SecondAssignments {
		de.Entry.SetParentDistance(de.Distance)
		second[i] = de.Entry
	}
	if err := node.SplitTo(newNode, first, second); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"node":         node.id,
		"new_node":     newNode.id,
		"first":        assign.FirstRoutingObject,
		"second":       assign.SecondRoutingObject,
		"first_cover":  assign.FirstCover,
		"second_cover": assign.SecondCover,
	}).Debug("split node")

	if err := t.store.WriteNode(node); err != nil {
		return err
	}
	if err := t.store.WriteNode(newNode); err != nil {
		return err
	}

	// if root was split: create a new root that points the two split nodes
	if t.store.IsRoot(node) {
		if err := t.createNewRoot(node, newNode, assign.FirstRoutingObject, assign.SecondRoutingObject); err != nil {
			return err
		}
		return t.adjustTree(t.RootPath())
	}

	// node is not root
	parentPath := path.Parent()
	parent, err := t.store.ReadNode(parentPath.NodeID())
	if err != nil {
		return err
	}
	parentEntry, err := t.pathEntry(parentPath)
	if err != nil {
		return err
	}
	parentRouting := parentEntry.routingObjectID

	newEntry := NewDirectoryEntry(newNode.id, assign.SecondRoutingObject,
		t.Distance(parentRouting, assign.SecondRoutingObject), newNode.CoveringRadiusFromEntries())
	if err := parent.addDirectoryEntry(newEntry); err != nil {
		return err
	}

	oldEntry, err := parent.directoryEntry(path.Index())
	if err != nil {
		return err
	}
	node.AdjustEntry(oldEntry, assign.FirstRoutingObject, t.Distance(parentRouting, assign.FirstRoutingObject))

	if err := t.store.WriteNode(parent); err != nil {
		return err
	}
	return t.adjustTree(parentPath)
}
