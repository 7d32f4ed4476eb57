package mtree

import (
	"sync"

	"github.com/cockroachdb/errors"
)

type InMemoryPager struct {
	pages    map[PageID][]byte
	nextPage PageID
	pageSize int
	mu       sync.RWMutex
	closed   bool
}

func NewInMemoryPager(pageSize int) *InMemoryPager {
	return &InMemoryPager{
		pages:    make(map[PageID][]byte),
		nextPage: 1, // page 0 is the meta page
		pageSize: pageSize,
	}
}

func (p *InMemoryPager) ReadPage(pageID PageID) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPagerClosed
	}

	data, ok := p.pages[pageID]
	if !ok {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	}

	// Return a copy so the caller cannot modify internal state directly
	// without calling WritePage
	out := make([]byte, p.pageSize)
	copy(out, data)
	return out, nil
}

func (p *InMemoryPager) WritePage(pageID PageID, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}

	if len(data) != p.pageSize {
		return errors.Newf("data size %d does not match page size %d", len(data), p.pageSize)
	}

	dest := make([]byte, p.pageSize)
	copy(dest, data)
	p.pages[pageID] = dest

	return nil
}

func (p *InMemoryPager) AllocatePage() (PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPagerClosed
	}

	id := p.nextPage
	p.nextPage++

	p.pages[id] = make([]byte, p.pageSize)
	return id, nil
}

func (p *InMemoryPager) DeallocatePage(pageID PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}

	delete(p.pages, pageID)
	return nil
}

func (p *InMemoryPager) PageSize() int { return p.pageSize }

func (p *InMemoryPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPagerClosed
	}
	return nil
}

func (p *InMemoryPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	// Drop the pages so use-after-close fails loudly.
	p.pages = nil
	p.closed = true

	return nil
}

func (p *InMemoryPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int64(p.nextPage)
}
