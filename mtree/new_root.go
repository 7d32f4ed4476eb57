package mtree

// createNewRoot puts a directory node above the split halves of the old root.
// The new root takes over the root page and the old root moves to the page
// just allocated for the new root, so the root keeps its well-known id.
func (t *Tree) createNewRoot(oldRoot, newNode *Node, firstRouting, secondRouting ObjectID) error {
	root, err := t.store.NewDirectoryNode()
	if err != nil {
		return err
	}

	rootID := t.store.RootID()
	if err := t.store.ReassignPageID(oldRoot, root.id); err != nil {
		return err
	}
	if err := t.store.ReassignPageID(root, rootID); err != nil {
		return err
	}

	// parent distances of the children are 0, the root has no routing object
	if err := root.addDirectoryEntry(NewDirectoryEntry(oldRoot.id, firstRouting, 0, oldRoot.CoveringRadiusFromEntries())); err != nil {
		return err
	}
	if err := root.addDirectoryEntry(NewDirectoryEntry(newNode.id, secondRouting, 0, newNode.CoveringRadiusFromEntries())); err != nil {
		return err
	}

	if err := t.store.WriteNode(oldRoot); err != nil {
		return err
	}
	if err := t.store.WriteNode(root); err != nil {
		return err
	}

	t.log.WithField("children", []PageID{oldRoot.id, newNode.id}).Debug("created new root")
	return nil
}
