// Structure of an M-tree
/*
Tree
 ├── Directory Node (one entry per child: routing object, covering radius, parent distance)
 │      └── Child Directory Nodes ...
 │             └── Leaf Nodes (object ids + parent distances)


- every object in a subtree lies within coveringRadius of the subtree's routing object
- parentDistance caches the distance from an entry's routing object to the
  routing object of the entry one level up (0 directly below the root)
- nodes hold at most capacity-1 entries between operations; the last slot
  only exists so a node can overflow by one entry right before it is split
- all leaf nodes at same depth
- page 0 holds the meta header, page 1 is always the root

*/
package mtree

import (
	"github.com/sirupsen/logrus"
)

// ObjectID identifies an indexed data object. Distances are always computed
// between object ids through the configured DistanceFunction.
type ObjectID uint64

// NoObject is the routing object of the root's self-representing entry.
// Any distance involving it is 0.
const NoObject ObjectID = 0

// PageID identifies a node page inside a pager.
type PageID int64

const (
	MetaPageID PageID = 0
	RootPageID PageID = 1
)

const (
	DefaultPageSize  = 4096 // in bytes (4KB)
	DefaultCacheSize = 1024 // decoded nodes kept by the node cache

	// minCapacity is the smallest capacity that lets a split produce two
	// non-empty nodes out of an overflowing one.
	minCapacity = 3
)

type Node struct {
	id       PageID
	leaf     bool
	entries  []Entry
	capacity int // maximum number of entries plus 1 for overflow
}

type Tree struct {
	store       NodeStore
	settings    Settings
	cfg         Config
	rootEntry   *DirectoryEntry // represents the root node, never stored in a page
	initialized bool
	stats       *Statistics
	log         *logrus.Entry
}

// NodeStore is the storage collaborator of the tree. PageFile is the
// implementation backed by a Pager.
type NodeStore interface {
	ReadNode(id PageID) (*Node, error)
	WriteNode(n *Node) error
	NewLeafNode() (*Node, error)
	NewDirectoryNode() (*Node, error)
	RootID() PageID
	IsRoot(n *Node) bool
	// ReassignPageID relabels n so that it is persisted under id on its next
	// write. The caller guarantees that no other live reference still relies
	// on the old mapping of either page.
	ReassignPageID(n *Node, id PageID) error
	Header() Header
	SetHeader(h Header) error
	Sync() error
	Close() error
}

// Pager is the persistence abstraction for fixed size pages.
type Pager interface {
	ReadPage(pageID PageID) ([]byte, error)
	WritePage(pageID PageID, data []byte) error
	AllocatePage() (PageID, error)
	DeallocatePage(pageID PageID) error
	PageSize() int
	Sync() error
	Close() error
}
