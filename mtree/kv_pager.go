package mtree

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/docker/libkv/store"
)

// KVPager keeps every page as one value of a libkv store, keyed by
// prefix + "page/" + id. The allocation counter lives under prefix + "next".
// Closing the pager does not close the store.
type KVPager struct {
	kv       store.Store
	prefix   string
	pageSize int
	nextPage PageID
	mu       sync.Mutex
	closed   bool
}

func NewKVPager(kv store.Store, prefix string, pageSize int) (*KVPager, error) {
	p := &KVPager{
		kv:       kv,
		prefix:   prefix,
		pageSize: pageSize,
		nextPage: 1, // page 0 is the meta page
	}
	pair, err := kv.Get(p.nextKey())
	switch {
	case err == store.ErrKeyNotFound:
	case err != nil:
		return nil, errors.Wrap(err, "failed to read page counter")
	default:
		if len(pair.Value) != 8 {
			return nil, errors.Newf("corrupt page counter: %d bytes", len(pair.Value))
		}
		p.nextPage = PageID(binary.LittleEndian.Uint64(pair.Value))
	}
	return p, nil
}

func (p *KVPager) pageKey(pageID PageID) string {
	return p.prefix + "page/" + strconv.FormatInt(int64(pageID), 10)
}

func (p *KVPager) nextKey() string {
	return p.prefix + "next"
}

func (p *KVPager) ReadPage(pageID PageID) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPagerClosed
	}

	pair, err := p.kv.Get(p.pageKey(pageID))
	if err == store.ErrKeyNotFound {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read page %d", pageID)
	}

	page := make([]byte, p.pageSize)
	copy(page, pair.Value)
	return page, nil
}

func (p *KVPager) WritePage(pageID PageID, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	if len(data) != p.pageSize {
		return errors.Newf("data size %d does not match page size %d", len(data), p.pageSize)
	}
	if err := p.kv.Put(p.pageKey(pageID), data, nil); err != nil {
		return errors.Wrapf(err, "failed to write page %d", pageID)
	}
	return nil
}

func (p *KVPager) AllocatePage() (PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPagerClosed
	}

	pageID := p.nextPage
	counter := make([]byte, 8)
	binary.LittleEndian.PutUint64(counter, uint64(pageID+1))
	if err := p.kv.Put(p.nextKey(), counter, nil); err != nil {
		return 0, errors.Wrap(err, "failed to persist page counter")
	}
	if err := p.kv.Put(p.pageKey(pageID), make([]byte, p.pageSize), nil); err != nil {
		return 0, errors.Wrapf(err, "failed to allocate page %d", pageID)
	}
	p.nextPage++
	return pageID, nil
}

func (p *KVPager) DeallocatePage(pageID PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	if err := p.kv.Delete(p.pageKey(pageID)); err != nil && err != store.ErrKeyNotFound {
		return errors.Wrapf(err, "failed to deallocate page %d", pageID)
	}
	return nil
}

func (p *KVPager) PageSize() int { return p.pageSize }

// Sync is a no-op: every Put is its own committed transaction.
func (p *KVPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	return nil
}

func (p *KVPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
