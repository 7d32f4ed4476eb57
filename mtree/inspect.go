// Index file inspection for debugging.
// Use InspectIndexFile(path) to print a human-readable dump of an M-tree index file.

package mtree

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// String summarizes the tree shape: levels, nodes and entries per kind.
func (t *Tree) String() string {
	var dirNodes, leafNodes, objects, levels int
	err := t.walk(func(n *Node, _ *DirectoryEntry) error {
		if n.leaf {
			leafNodes++
			objects += len(n.entries)
		} else {
			dirNodes++
		}
		return nil
	})
	if err != nil {
		return fmt.Sprintf("MTree (error: %v)", err)
	}
	if t.initialized {
		h, _ := t.Height()
		levels = h + 1
	}

	pageSize := t.cfg.PageSize
	var b strings.Builder
	fmt.Fprintf(&b, "MTree\n")
	fmt.Fprintf(&b, " height = %d\n", levels)
	fmt.Fprintf(&b, " page size = %s\n", humanize.IBytes(uint64(pageSize)))
	fmt.Fprintf(&b, " directory capacity = %d\n", t.dirCapacity()-1)
	fmt.Fprintf(&b, " leaf capacity = %d\n", t.leafCapacity()-1)
	fmt.Fprintf(&b, " %s directory nodes\n", humanize.Comma(int64(dirNodes)))
	fmt.Fprintf(&b, " %s data nodes\n", humanize.Comma(int64(leafNodes)))
	fmt.Fprintf(&b, " %s objects\n", humanize.Comma(int64(objects)))
	fmt.Fprintf(&b, " storage = %s", humanize.IBytes(uint64((dirNodes+leafNodes+1)*pageSize)))
	return b.String()
}

func (t *Tree) leafCapacity() int {
	if pf, ok := t.store.(*PageFile); ok {
		return pf.LeafCapacity()
	}
	return t.cfg.LeafCapacity
}

func (t *Tree) dirCapacity() int {
	if pf, ok := t.store.(*PageFile); ok {
		return pf.DirCapacity()
	}
	return t.cfg.DirCapacity
}

// InspectIndexFile opens an M-tree index file and prints its structure to stdout.
func InspectIndexFile(indexPath string, pageSize int) error {
	return InspectIndexFileTo(os.Stdout, indexPath, pageSize)
}

// InspectIndexFileTo writes a human-readable dump of the index file to w:
// the meta page, then every node level by level with its entries.
func InspectIndexFileTo(w io.Writer, indexPath string, pageSize int) error {
	pager, err := NewOnDiskPager(indexPath, pageSize)
	if err != nil {
		return err
	}
	defer pager.Close()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	p("Index file: %s (%s)\n", indexPath, humanize.IBytes(uint64(pager.TotalPages()*int64(pageSize))))

	meta, err := pager.ReadPage(MetaPageID)
	if err != nil {
		pln("  (empty index)")
		return nil
	}
	h, ok, err := decodeHeader(meta)
	if err != nil {
		return errors.Wrap(err, "read meta page")
	}
	if !ok {
		pln("  (empty index)")
		return nil
	}
	p("  Page 0 (meta): page size = %d, leaf capacity = %d, directory capacity = %d\n",
		h.PageSize, h.LeafCapacity, h.DirCapacity)
	if !h.Initialized {
		pln("  (empty tree)")
		return nil
	}

	pln("\n  Nodes (BFS):")
	pln("  ---")

	queue := []PageID{RootPageID}
	level := 0

	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			pageID := queue[i]
			page, err := pager.ReadPage(pageID)
			if err != nil {
				p("    [page %d] read error: %v\n", pageID, err)
				continue
			}
			node, err := decodeNode(page, pageID)
			if err != nil {
				p("    [page %d] decode error: %v\n", pageID, err)
				continue
			}

			if node.leaf {
				p("    [page %d] LEAF entries=%d\n", pageID, len(node.entries))
			} else {
				p("    [page %d] DIRECTORY entries=%d\n", pageID, len(node.entries))
			}
			for _, e := range node.entries {
				p("      %s\n", e)
				if de, ok := e.(*DirectoryEntry); ok {
					queue = append(queue, de.nodeID)
				}
			}
		}
		pln("  ---")
		queue = queue[size:]
		level++
	}

	return nil
}
