package mtree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Entry is a slot of a node. It is either a *LeafEntry or a
// *DirectoryEntry; no other implementations exist.
//
// The setters report whether the stored value actually changed, which is
// what lets adjustTree stop propagating early.
type Entry interface {
	RoutingObjectID() ObjectID
	SetRoutingObjectID(id ObjectID) (bool, error)
	ParentDistance() float64
	SetParentDistance(d float64) bool
	CoveringRadius() float64
	SetCoveringRadius(r float64) (bool, error)
	String() string

	clone() Entry
}

// LeafEntry wraps one indexed data object.
type LeafEntry struct {
	objectID       ObjectID
	parentDistance float64
}

func NewLeafEntry(id ObjectID) *LeafEntry {
	return &LeafEntry{objectID: id}
}

func (e *LeafEntry) ObjectID() ObjectID { return e.objectID }

// RoutingObjectID of a leaf entry is the object itself.
func (e *LeafEntry) RoutingObjectID() ObjectID { return e.objectID }

func (e *LeafEntry) SetRoutingObjectID(id ObjectID) (bool, error) {
	return false, errors.Wrapf(ErrIllegalOperation, "cannot set routing object %d on leaf entry %d", id, e.objectID)
}

func (e *LeafEntry) ParentDistance() float64 { return e.parentDistance }

func (e *LeafEntry) SetParentDistance(d float64) bool {
	if e.parentDistance == d {
		return false
	}
	e.parentDistance = d
	return true
}

// CoveringRadius of a leaf entry is always 0.
func (e *LeafEntry) CoveringRadius() float64 { return 0 }

func (e *LeafEntry) SetCoveringRadius(r float64) (bool, error) {
	return false, errors.Wrapf(ErrIllegalOperation, "cannot set covering radius %g on leaf entry %d", r, e.objectID)
}

func (e *LeafEntry) String() string {
	return fmt.Sprintf("LeafEntry{object=%d pd=%g}", e.objectID, e.parentDistance)
}

func (e *LeafEntry) clone() Entry {
	c := *e
	return &c
}

// DirectoryEntry represents a child node as seen from its parent.
type DirectoryEntry struct {
	nodeID          PageID
	routingObjectID ObjectID
	parentDistance  float64
	coveringRadius  float64
}

func NewDirectoryEntry(nodeID PageID, routingObjectID ObjectID, parentDistance, coveringRadius float64) *DirectoryEntry {
	return &DirectoryEntry{
		nodeID:          nodeID,
		routingObjectID: routingObjectID,
		parentDistance:  parentDistance,
		coveringRadius:  coveringRadius,
	}
}

// NodeID is the page of the child node this entry points to.
func (e *DirectoryEntry) NodeID() PageID { return e.nodeID }

func (e *DirectoryEntry) RoutingObjectID() ObjectID { return e.routingObjectID }

func (e *DirectoryEntry) SetRoutingObjectID(id ObjectID) (bool, error) {
	if e.routingObjectID == id {
		return false, nil
	}
	e.routingObjectID = id
	return true, nil
}

func (e *DirectoryEntry) ParentDistance() float64 { return e.parentDistance }

func (e *DirectoryEntry) SetParentDistance(d float64) bool {
	if e.parentDistance == d {
		return false
	}
	e.parentDistance = d
	return true
}

func (e *DirectoryEntry) CoveringRadius() float64 { return e.coveringRadius }

func (e *DirectoryEntry) SetCoveringRadius(r float64) (bool, error) {
	if e.coveringRadius == r {
		return false, nil
	}
	e.coveringRadius = r
	return true, nil
}

func (e *DirectoryEntry) String() string {
	return fmt.Sprintf("DirectoryEntry{node=%d routing=%d pd=%g cr=%g}",
		e.nodeID, e.routingObjectID, e.parentDistance, e.coveringRadius)
}

func (e *DirectoryEntry) clone() Entry {
	c := *e
	return &c
}
