package mtree

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

// NodeCache keeps decoded nodes in front of the pager. It is write-through:
// the pager always holds the latest page, so anything the cache drops or
// refuses to admit is simply read again. Nodes are cloned on the way in and
// on the way out, callers never share a node with the cache.
//
// A nil *NodeCache is a valid, disabled cache.
type NodeCache struct {
	cache *ristretto.Cache[int64, *Node]
}

// NewNodeCache creates a cache holding up to maxNodes nodes.
func NewNodeCache(maxNodes int64) (*NodeCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[int64, *Node]{
		NumCounters:        maxNodes * 10,
		MaxCost:            maxNodes,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create node cache")
	}
	return &NodeCache{cache: c}, nil
}

// Get returns a private copy of the cached node.
func (c *NodeCache) Get(pageID PageID) (*Node, bool) {
	if c == nil {
		return nil, false
	}
	n, ok := c.cache.Get(int64(pageID))
	if !ok || n == nil {
		return nil, false
	}
	return n.clone(), true
}

// Put stores a copy of node. Wait makes the write visible to the next Get.
func (c *NodeCache) Put(node *Node) {
	if c == nil {
		return
	}
	c.cache.Set(int64(node.id), node.clone(), 1)
	c.cache.Wait()
}

// Invalidate drops the given pages.
func (c *NodeCache) Invalidate(pageIDs ...PageID) {
	if c == nil {
		return
	}
	for _, id := range pageIDs {
		c.cache.Del(int64(id))
	}
	c.cache.Wait()
}

// Metrics returns the hit and miss counts since creation.
func (c *NodeCache) Metrics() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return c.cache.Metrics.Hits(), c.cache.Metrics.Misses()
}

func (c *NodeCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}
