// Inspect an M-tree index file.
// Usage: go run ./cmd/inspect [-page-size 4096] <path-to-index.mtree>
// Example: go run ./cmd/inspect databases/sample/index.mtree
package main

import (
	"flag"
	"fmt"
	"os"

	"MTreeDB/mtree"
)

func main() {
	pageSize := flag.Int("page-size", mtree.DefaultPageSize, "page size the index was created with")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-page-size N] <index.mtree>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s databases/sample/index.mtree\n", os.Args[0])
		os.Exit(1)
	}
	path := flag.Arg(0)
	if err := mtree.InspectIndexFile(path, *pageSize); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
