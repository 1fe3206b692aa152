// Package btree: tree file inspection for debugging.
// Use InspectFile(path) to print a human-readable dump of a tree file.

package btree

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// InspectFile opens a tree file and prints its structure to stdout.
func InspectFile(path string) error {
	return InspectFileTo(os.Stdout, path)
}

// InspectFileTo writes a human-readable dump of the tree file to w:
// the meta page's committed root, then each reachable page level by
// level with its keys and child pointers.
func InspectFileTo(w io.Writer, path string) error {
	storage, err := NewDiskStorage(path)
	if err != nil {
		return err
	}
	defer storage.Close()

	root, err := storage.RootPtr()
	if err != nil {
		return fmt.Errorf("read meta page: %w", err)
	}

	fmt.Fprintf(w, "Tree file: %s\n", path)
	fmt.Fprintf(w, "  Meta: root page = %d, %d pages total\n", root, storage.TotalPages())
	if root == nilPtr {
		fmt.Fprintln(w, "  (empty tree)")
		return nil
	}

	t, err := Init(storage)
	if err != nil {
		return err
	}
	return t.DumpTo(w)
}

// DumpTo prints every page reachable from the current root, BFS order.
func (t *Tree) DumpTo(w io.Writer) error {
	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	queue := []uint64{t.RootPtr()}
	level := 0

	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			ptr := queue[i]
			node, err := t.NodeFromPtr(ptr)
			if err != nil {
				p("    [page %d] error: %v\n", ptr, err)
				continue
			}

			if node.IsLeaf() {
				p("    [page %d] LEAF keys=%d\n", ptr, node.KeyCount())
				for j := 0; j < node.KeyCount(); j++ {
					p("      %q -> %q\n", node.Key(j), node.Value(j))
				}
				continue
			}

			keys := make([]string, node.KeyCount())
			ptrs := make([]uint64, node.KeyCount()+1)
			for j := 0; j < node.KeyCount(); j++ {
				keys[j] = string(node.Key(j))
				ptrs[j] = node.Ptr(j)
			}
			ptrs[node.KeyCount()] = node.Ptr(node.KeyCount())
			p("    [page %d] INTERNAL keys=%q children=%v\n", ptr, keys, ptrs)
			for _, c := range ptrs {
				if c != nilPtr {
					queue = append(queue, c)
				}
			}
		}
		queue = queue[size:]
		level++
	}
	return nil
}

// Height returns the number of levels from the root down to a leaf.
func (t *Tree) Height() (int, error) {
	h := 1
	n := t.root
	for !n.IsLeaf() {
		child, err := t.NodeFromPtr(n.Ptr(0))
		if err != nil {
			return 0, err
		}
		n = child
		h++
	}
	return h, nil
}

// Len returns the total number of keys reachable from the root.
func (t *Tree) Len() (int, error) {
	return t.countKeys(t.root)
}

func (t *Tree) countKeys(n Node) (int, error) {
	total := n.KeyCount()
	if n.IsLeaf() {
		return total, nil
	}
	for i := 0; i <= n.KeyCount(); i++ {
		child, err := t.NodeFromPtr(n.Ptr(i))
		if err != nil {
			return 0, err
		}
		sub, err := t.countKeys(child)
		if err != nil {
			return 0, err
		}
		total += sub
	}
	return total, nil
}

// CheckInvariants walks every page reachable from the root and
// verifies the structural invariants: keys strictly increasing within
// and across pages, leaf pointer slots all zero, and every leaf at the
// same depth. Used after mutations in tests.
func (t *Tree) CheckInvariants() error {
	leafDepth := -1
	return t.checkNode(t.root, nil, nil, 1, &leafDepth)
}

func (t *Tree) checkNode(n Node, lower, upper []byte, depth int, leafDepth *int) error {
	ptr := n.PagePtr()
	kc := n.KeyCount()

	for i := 0; i < kc; i++ {
		key := n.Key(i)
		if i > 0 && bytes.Compare(n.Key(i-1), key) >= 0 {
			return fmt.Errorf("page %d: keys not strictly increasing at index %d", ptr, i)
		}
		if lower != nil && bytes.Compare(key, lower) <= 0 {
			return fmt.Errorf("page %d: key %q at index %d not above subtree lower bound %q", ptr, key, i, lower)
		}
		if upper != nil && bytes.Compare(key, upper) >= 0 {
			return fmt.Errorf("page %d: key %q at index %d not below subtree upper bound %q", ptr, key, i, upper)
		}
	}

	if n.IsLeaf() {
		for i := 0; i <= kc; i++ {
			if n.Ptr(i) != nilPtr {
				return fmt.Errorf("page %d: leaf has non-zero child pointer at slot %d", ptr, i)
			}
		}
		if *leafDepth == -1 {
			*leafDepth = depth
		} else if *leafDepth != depth {
			return fmt.Errorf("page %d: leaf at depth %d, expected %d", ptr, depth, *leafDepth)
		}
		return nil
	}

	if kc == 0 {
		return fmt.Errorf("page %d: internal page with no keys", ptr)
	}
	for i := 0; i <= kc; i++ {
		childPtr := n.Ptr(i)
		if childPtr == nilPtr {
			return fmt.Errorf("page %d: internal page has zero child pointer at slot %d", ptr, i)
		}
		child, err := t.NodeFromPtr(childPtr)
		if err != nil {
			return fmt.Errorf("page %d: child %d: %w", ptr, i, err)
		}
		childLower, childUpper := lower, upper
		if i > 0 {
			childLower = n.Key(i - 1)
		}
		if i < kc {
			childUpper = n.Key(i)
		}
		if err := t.checkNode(child, childLower, childUpper, depth+1, leafDepth); err != nil {
			return err
		}
	}
	return nil
}
