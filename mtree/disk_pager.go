package mtree

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

// OnDiskPager implements the Pager interface on a single index file. Page N
// lives at offset N*pageSize; page 0 is the meta page.
type OnDiskPager struct {
	file     *os.File
	filePath string
	pageSize int
	nextPage PageID // Next available page ID
	mu       sync.RWMutex
}

// NewOnDiskPager opens or creates the index file at indexPath.
func NewOnDiskPager(indexPath string, pageSize int) (*OnDiskPager, error) {
	file, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index file %s", indexPath)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "failed to stat index file")
	}

	numPages := stat.Size() / int64(pageSize)
	nextPageID := PageID(numPages)

	// page 0 is reserved for the meta header
	if numPages == 0 {
		nextPageID = 1
	}

	return &OnDiskPager{
		file:     file,
		filePath: indexPath,
		pageSize: pageSize,
		nextPage: nextPageID,
	}, nil
}

// ReadPage reads one page from disk at the given page ID
func (p *OnDiskPager) ReadPage(pageID PageID) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return nil, ErrPagerClosed
	}

	page := make([]byte, p.pageSize)
	offset := int64(pageID) * int64(p.pageSize)

	n, err := p.file.ReadAt(page, offset)
	if err != nil && n == 0 {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d: %v", pageID, err)
	}
	// a short read at the end of the file leaves the tail zeroed

	return page, nil
}

// WritePage writes one page to disk at the given page ID
func (p *OnDiskPager) WritePage(pageID PageID, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}

	if len(data) != p.pageSize {
		return errors.Newf("data size %d does not match page size %d", len(data), p.pageSize)
	}

	offset := int64(pageID) * int64(p.pageSize)
	if _, err := p.file.WriteAt(data, offset); err != nil {
		return errors.Wrapf(err, "failed to write page %d", pageID)
	}
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}

	return nil
}

// AllocatePage allocates a new zeroed page and returns its ID
func (p *OnDiskPager) AllocatePage() (PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrPagerClosed
	}

	pageID := p.nextPage
	p.nextPage++

	emptyPage := make([]byte, p.pageSize)
	offset := int64(pageID) * int64(p.pageSize)
	if _, err := p.file.WriteAt(emptyPage, offset); err != nil {
		return 0, errors.Wrapf(err, "failed to allocate page %d", pageID)
	}

	return pageID, nil
}

// DeallocatePage is a no-op: pages stay in the file. The tree never frees
// pages since deletion is not supported.
func (p *OnDiskPager) DeallocatePage(pageID PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	return nil
}

func (p *OnDiskPager) PageSize() int { return p.pageSize }

// Sync flushes all pending writes to disk
func (p *OnDiskPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}

	return p.file.Sync()
}

// Close closes the index file
func (p *OnDiskPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil // Already closed
	}

	err := p.file.Sync() // Flush before closing
	if err != nil {
		p.file.Close()
		return errors.Wrap(err, "failed to sync before close")
	}

	err = p.file.Close()
	p.file = nil // Mark as closed
	return err
}

func (p *OnDiskPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int64(p.nextPage)
}
