package mtree

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Insert adds one object entry to the tree. With withPreInsert set, the
// configured PreInsert hook runs once the entry's parent distance is known.
func (t *Tree) Insert(e *LeafEntry, withPreInsert bool) error {
	if e == nil {
		return errors.AssertionFailedf("nil leaf entry")
	}
	if e.objectID == NoObject {
		return errors.Wrapf(ErrIllegalOperation, "object id %d is reserved for the root entry", NoObject)
	}
	if !t.initialized {
		if err := t.initialize(); err != nil {
			return err
		}
	}

	// choose subtree for insertion
	path, err := t.settings.InsertStrategy.ChoosePath(t, e)
	if err != nil {
		return errors.Wrapf(err, "failed to choose leaf for object %d", e.objectID)
	}
	leafEntry, err := t.pathEntry(path)
	if err != nil {
		return err
	}
	e.SetParentDistance(t.Distance(e.objectID, leafEntry.routingObjectID))

	if withPreInsert && t.settings.PreInsert != nil {
		if err := t.settings.PreInsert(t, e); err != nil {
			return errors.Wrapf(err, "pre-insert of object %d", e.objectID)
		}
	}

	leaf, err := t.store.ReadNode(path.NodeID())
	if err != nil {
		return err
	}
	if err := leaf.addLeafEntry(e); err != nil {
		return err
	}
	if err := t.store.WriteNode(leaf); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"object": e.objectID,
		"path":   path.String(),
	}).Debug("inserted object")

	// adjust the tree from subtree to root
	if err := t.adjustTree(path); err != nil {
		return err
	}

	if t.cfg.ExtraIntegrityChecks {
		return t.IntegrityCheck()
	}
	return nil
}

// InsertObject is Insert for a bare object id, with the pre-insert hook.
func (t *Tree) InsertObject(id ObjectID) error {
	return t.Insert(NewLeafEntry(id), true)
}

// InsertAll inserts the entries one at a time, without the pre-insert hook.
func (t *Tree) InsertAll(entries []*LeafEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if !t.initialized {
		if err := t.initialize(); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := t.Insert(e, false); err != nil {
			return err
		}
	}
	return nil
}
