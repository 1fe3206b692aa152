package btree

import "fmt"

// Init opens a tree over s. When s carries a committed root pointer it
// is loaded; otherwise an empty leaf root is built and, if s supports
// it, committed.
func Init(s Storage) (*Tree, error) {
	t := &Tree{storage: s}

	if rs, ok := s.(RootStorage); ok {
		ptr, err := rs.RootPtr()
		if err != nil {
			return nil, fmt.Errorf("load root pointer: %w", err)
		}
		if ptr != nilPtr {
			root, err := t.NodeFromPtr(ptr)
			if err != nil {
				return nil, fmt.Errorf("load root: %w", err)
			}
			t.root = root
			return t, nil
		}
	}

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	root, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build empty root: %w", err)
	}
	t.root = root

	if rs, ok := s.(RootStorage); ok {
		if err := rs.SetRootPtr(root.PagePtr()); err != nil {
			return nil, fmt.Errorf("commit empty root: %w", err)
		}
	}
	return t, nil
}

// NodeFromPtr resolves an opaque pointer to a validated page view.
func (t *Tree) NodeFromPtr(ptr uint64) (Node, error) {
	data, err := t.storage.ReadPage(ptr)
	if err != nil {
		return Node{}, fmt.Errorf("read page %d: %w", ptr, err)
	}
	return decodeNode(ptr, data)
}

// NodeToPtr returns the pointer a view was resolved from.
func (t *Tree) NodeToPtr(n Node) uint64 {
	return n.PagePtr()
}

// Root returns the current root view. Views taken before a Put remain
// valid afterwards; no page behind them is ever rewritten.
func (t *Tree) Root() Node {
	return t.root
}

// RootPtr returns the pointer of the current root page, the value a
// caller persists to reopen this version of the tree.
func (t *Tree) RootPtr() uint64 {
	return t.root.PagePtr()
}

// At returns a read-only tree fixed at a previously committed root
// pointer. Because pages are immutable, an old version stays fully
// traversable for as long as its pages are not reclaimed.
func (t *Tree) At(ptr uint64) (*Tree, error) {
	root, err := t.NodeFromPtr(ptr)
	if err != nil {
		return nil, fmt.Errorf("load root at %d: %w", ptr, err)
	}
	return &Tree{storage: t.storage, root: root}, nil
}

// Orphans returns the pages made unreachable by the most recent Put.
// They are not reclaimed automatically; callers may hand them to
// Storage.FreePage once no live root references them.
func (t *Tree) Orphans() []uint64 {
	return t.orphans
}
