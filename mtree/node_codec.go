package mtree

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// encodeNode serializes a Node into one page
// Format:
//   - Header (20 bytes): checksum(8), id(8), leaf(1), numEntries(2), reserved(1)
//   - Leaf entries: objectID(8), parentDistance(8)
//   - Directory entries: nodeID(8), routingObjectID(8), parentDistance(8), coveringRadius(8)
//
// The checksum is xxhash64 over everything after the checksum field.
func encodeNode(node *Node, pageSize int) ([]byte, error) {
	entrySize := directoryEntrySize
	if node.leaf {
		entrySize = leafEntrySize
	}
	if need := nodeHeaderSize + len(node.entries)*entrySize; need > pageSize {
		return nil, errors.Newf("node %d with %d entries needs %d bytes, page size is %d",
			node.id, len(node.entries), need, pageSize)
	}

	page := make([]byte, pageSize)
	offset := 8

	binary.LittleEndian.PutUint64(page[offset:], uint64(node.id))
	offset += 8
	if node.leaf {
		page[offset] = 1
	}
	offset += 1
	binary.LittleEndian.PutUint16(page[offset:], uint16(len(node.entries)))
	offset += 2
	// Reserved byte
	offset += 1

	for i, e := range node.entries {
		switch e := e.(type) {
		case *LeafEntry:
			if !node.leaf {
				return nil, errors.AssertionFailedf("leaf entry %d in directory node %d", i, node.id)
			}
			binary.LittleEndian.PutUint64(page[offset:], uint64(e.objectID))
			binary.LittleEndian.PutUint64(page[offset+8:], math.Float64bits(e.parentDistance))
		case *DirectoryEntry:
			if node.leaf {
				return nil, errors.AssertionFailedf("directory entry %d in leaf node %d", i, node.id)
			}
			binary.LittleEndian.PutUint64(page[offset:], uint64(e.nodeID))
			binary.LittleEndian.PutUint64(page[offset+8:], uint64(e.routingObjectID))
			binary.LittleEndian.PutUint64(page[offset+16:], math.Float64bits(e.parentDistance))
			binary.LittleEndian.PutUint64(page[offset+24:], math.Float64bits(e.coveringRadius))
		default:
			return nil, errors.AssertionFailedf("entry %d of node %d is nil", i, node.id)
		}
		offset += entrySize
	}

	binary.LittleEndian.PutUint64(page[0:], xxhash.Sum64(page[8:]))
	return page, nil
}

// decodeNode deserializes a Node from a page
func decodeNode(page []byte, pageID PageID) (*Node, error) {
	if len(page) < nodeHeaderSize {
		return nil, errors.Newf("page %d is too short: %d bytes", pageID, len(page))
	}
	if sum := binary.LittleEndian.Uint64(page[0:]); sum != xxhash.Sum64(page[8:]) {
		return nil, errors.Wrapf(ErrChecksum, "page %d", pageID)
	}

	node := &Node{}
	offset := 8

	node.id = PageID(binary.LittleEndian.Uint64(page[offset:]))
	offset += 8
	node.leaf = page[offset] == 1
	offset += 1
	numEntries := int(binary.LittleEndian.Uint16(page[offset:]))
	offset += 2
	// Reserved byte
	offset += 1

	if node.id != pageID {
		return nil, errors.Newf("page %d holds node %d", pageID, node.id)
	}

	entrySize := directoryEntrySize
	if node.leaf {
		entrySize = leafEntrySize
	}
	if offset+numEntries*entrySize > len(page) {
		return nil, errors.Newf("page %d overflows: %d entries of %d bytes", pageID, numEntries, entrySize)
	}

	node.entries = make([]Entry, 0, numEntries)
	for i := 0; i < numEntries; i++ {
		if node.leaf {
			node.entries = append(node.entries, &LeafEntry{
				objectID:       ObjectID(binary.LittleEndian.Uint64(page[offset:])),
				parentDistance: math.Float64frombits(binary.LittleEndian.Uint64(page[offset+8:])),
			})
		} else {
			node.entries = append(node.entries, &DirectoryEntry{
				nodeID:          PageID(binary.LittleEndian.Uint64(page[offset:])),
				routingObjectID: ObjectID(binary.LittleEndian.Uint64(page[offset+8:])),
				parentDistance:  math.Float64frombits(binary.LittleEndian.Uint64(page[offset+16:])),
				coveringRadius:  math.Float64frombits(binary.LittleEndian.Uint64(page[offset+24:])),
			})
		}
		offset += entrySize
	}

	return node, nil
}
