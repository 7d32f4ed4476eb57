package mtree

// newNode creates an empty node of the given kind for page id.
func newNode(id PageID, leaf bool, capacity int) *Node {
	return &Node{
		id:       id,
		leaf:     leaf,
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// clone returns a deep copy so that cached nodes are never aliased by callers.
func (n *Node) clone() *Node {
	c := &Node{
		id:       n.id,
		leaf:     n.leaf,
		entries:  make([]Entry, len(n.entries), n.capacity),
		capacity: n.capacity,
	}
	for i, e := range n.entries {
		if e != nil {
			c.entries[i] = e.clone()
		}
	}
	return c
}
