package mtree

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

const (
	headerMagic   uint32 = 0x4d545245 // "MTRE"
	headerVersion uint16 = 1
	headerSize           = 8 + 4 + 2 + 4 + 2 + 2 + 1
)

// Header is the content of the meta page (page 0).
type Header struct {
	PageSize     int
	LeafCapacity int
	DirCapacity  int
	Initialized  bool // the root page has been created
}

// encodeHeader writes the header into a page
// Format: checksum(8), magic(4), version(2), pageSize(4), leafCapacity(2), dirCapacity(2), initialized(1)
func encodeHeader(h Header, pageSize int) []byte {
	page := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(page[8:], headerMagic)
	binary.LittleEndian.PutUint16(page[12:], headerVersion)
	binary.LittleEndian.PutUint32(page[14:], uint32(h.PageSize))
	binary.LittleEndian.PutUint16(page[18:], uint16(h.LeafCapacity))
	binary.LittleEndian.PutUint16(page[20:], uint16(h.DirCapacity))
	if h.Initialized {
		page[22] = 1
	}
	binary.LittleEndian.PutUint64(page[0:], xxhash.Sum64(page[8:]))
	return page
}

// decodeHeader reads the meta page. ok is false for a page that was never
// written (all zero).
func decodeHeader(page []byte) (h Header, ok bool, err error) {
	if len(page) < headerSize {
		return h, false, errors.Newf("meta page too short: %d bytes", len(page))
	}
	magic := binary.LittleEndian.Uint32(page[8:])
	if magic == 0 && binary.LittleEndian.Uint64(page[0:]) == 0 {
		return h, false, nil
	}
	if magic != headerMagic {
		return h, false, errors.Newf("bad magic %#x on meta page", magic)
	}
	if sum := binary.LittleEndian.Uint64(page[0:]); sum != xxhash.Sum64(page[8:]) {
		return h, false, errors.Wrap(ErrChecksum, "meta page")
	}
	if v := binary.LittleEndian.Uint16(page[12:]); v != headerVersion {
		return h, false, errors.Newf("unsupported index version %d", v)
	}
	h.PageSize = int(binary.LittleEndian.Uint32(page[14:]))
	h.LeafCapacity = int(binary.LittleEndian.Uint16(page[18:]))
	h.DirCapacity = int(binary.LittleEndian.Uint16(page[20:]))
	h.Initialized = page[22] == 1
	return h, true, nil
}
