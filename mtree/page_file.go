package mtree

import (
	"github.com/cockroachdb/errors"
)

// PageFile is the NodeStore backed by a Pager. It owns the node codec, the
// meta page and the node cache.
type PageFile struct {
	pager        Pager
	cache        *NodeCache
	pageSize     int
	leafCapacity int
	dirCapacity  int
	header       Header
}

// NewPageFile opens the node store on top of p. A pager without a meta page
// gets a fresh header built from cfg; an existing header must agree with the
// pager's page size and takes precedence over the capacities in cfg.
func NewPageFile(p Pager, cfg Config) (*PageFile, error) {
	cfg = cfg.normalized()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if p.PageSize() != cfg.PageSize {
		return nil, errors.Wrapf(ErrInvalidConfig, "pager page size %d does not match configured page size %d",
			p.PageSize(), cfg.PageSize)
	}

	pf := &PageFile{
		pager:        p,
		pageSize:     cfg.PageSize,
		leafCapacity: cfg.LeafCapacity,
		dirCapacity:  cfg.DirCapacity,
	}

	page, err := p.ReadPage(MetaPageID)
	if err != nil && !errors.Is(err, ErrPageNotFound) {
		return nil, errors.Wrap(err, "failed to read meta page")
	}
	var found bool
	if err == nil {
		pf.header, found, err = decodeHeader(page)
		if err != nil {
			return nil, err
		}
	}
	if found {
		if pf.header.PageSize != cfg.PageSize {
			return nil, errors.Wrapf(ErrInvalidConfig, "index was created with page size %d, configured %d",
				pf.header.PageSize, cfg.PageSize)
		}
		pf.leafCapacity = pf.header.LeafCapacity
		pf.dirCapacity = pf.header.DirCapacity
	} else {
		h := Header{PageSize: cfg.PageSize, LeafCapacity: cfg.LeafCapacity, DirCapacity: cfg.DirCapacity}
		if err := pf.SetHeader(h); err != nil {
			return nil, err
		}
	}

	if cfg.CacheSize > 0 {
		pf.cache, err = NewNodeCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return pf, nil
}

func (pf *PageFile) ReadNode(id PageID) (*Node, error) {
	if n, ok := pf.cache.Get(id); ok {
		return n, nil
	}
	page, err := pf.pager.ReadPage(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read node %d", id)
	}
	n, err := decodeNode(page, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode node %d", id)
	}
	n.capacity = pf.capacityOf(n.leaf)
	pf.cache.Put(n)
	return n, nil
}

func (pf *PageFile) WriteNode(n *Node) error {
	page, err := encodeNode(n, pf.pageSize)
	if err != nil {
		return err
	}
	if err := pf.pager.WritePage(n.id, page); err != nil {
		return errors.Wrapf(err, "failed to write node %d", n.id)
	}
	pf.cache.Put(n)
	return nil
}

func (pf *PageFile) NewLeafNode() (*Node, error) {
	return pf.newNode(true)
}

func (pf *PageFile) NewDirectoryNode() (*Node, error) {
	return pf.newNode(false)
}

func (pf *PageFile) newNode(leaf bool) (*Node, error) {
	id, err := pf.pager.AllocatePage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate node page")
	}
	return newNode(id, leaf, pf.capacityOf(leaf)), nil
}

func (pf *PageFile) capacityOf(leaf bool) int {
	if leaf {
		return pf.leafCapacity
	}
	return pf.dirCapacity
}

func (pf *PageFile) RootID() PageID { return RootPageID }

func (pf *PageFile) IsRoot(n *Node) bool { return n.id == RootPageID }

// ReassignPageID relabels n. The node is persisted under its new id by the
// next WriteNode; both old and new ids are dropped from the cache so a stale
// decoded copy is never served for either page.
func (pf *PageFile) ReassignPageID(n *Node, id PageID) error {
	if id <= MetaPageID {
		return errors.AssertionFailedf("cannot move node %d onto page %d", n.id, id)
	}
	pf.cache.Invalidate(n.id, id)
	n.id = id
	return nil
}

func (pf *PageFile) Header() Header { return pf.header }

func (pf *PageFile) SetHeader(h Header) error {
	if err := pf.pager.WritePage(MetaPageID, encodeHeader(h, pf.pageSize)); err != nil {
		return errors.Wrap(err, "failed to write meta page")
	}
	pf.header = h
	return nil
}

func (pf *PageFile) LeafCapacity() int { return pf.leafCapacity }
func (pf *PageFile) DirCapacity() int  { return pf.dirCapacity }

// CacheMetrics returns node cache hits and misses.
func (pf *PageFile) CacheMetrics() (hits, misses uint64) {
	return pf.cache.Metrics()
}

func (pf *PageFile) Sync() error {
	return pf.pager.Sync()
}

func (pf *PageFile) Close() error {
	pf.cache.Close()
	return pf.pager.Close()
}
