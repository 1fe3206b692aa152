// Inspect a copy-on-write B-tree file.
// Usage: go run ./cmd/inspect_idx <path-to-tree-file>
// Example: go run ./cmd/inspect_idx data/store.idx
package main

import (
	"fmt"
	"os"

	"cowkv/btree"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <tree-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s data/store.idx\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]
	if err := btree.InspectFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
