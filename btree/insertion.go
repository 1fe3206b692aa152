package btree

import (
	"bytes"
	"fmt"
)

// maxPairBytes is the largest encoded pair a page can hold: a one-key
// page still carries the header, two pointer slots and one offset.
const maxPairBytes = PageSize - headerSize - 2*ptrSize - offsetSize

// Put inserts or overwrites a key. The write is copy-on-write: every
// page from the root to the touched leaf is rebuilt into fresh pages,
// and swapping in the new root is the single commit point. Until that
// swap the previous version stays fully readable.
func (t *Tree) Put(key, value []byte) error {
	if len(key) > MaxKeyLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrKeyTooLarge, len(key), MaxKeyLen)
	}
	if len(value) > MaxValLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrValueTooLarge, len(value), MaxValLen)
	}
	if kvHeaderSize+len(key)+len(value) > maxPairBytes {
		return fmt.Errorf("%w: pair needs %d bytes, page holds at most %d",
			ErrPageOverflow, kvHeaderSize+len(key)+len(value), maxPairBytes)
	}

	b := NewBuilder(t.storage)
	if t.root.KeyCount() >= MaxKeys {
		// Full root: grow the tree by one level. The new root starts
		// as an internal page whose only pointer is the old root, then
		// the split promotes the old root's median into it.
		b.SetKind(KindInternal)
		b.AppendPtr(t.root.PagePtr())
		if err := t.splitChild(b, 0); err != nil {
			return err
		}
	} else {
		b.CopyFrom(t.root)
		b.Orphan(t.root.PagePtr())
	}

	newRoot, err := t.insertIntoNonFull(b, key, value)
	if err != nil {
		return err
	}

	if rs, ok := t.storage.(RootStorage); ok {
		if err := rs.SetRootPtr(newRoot.PagePtr()); err != nil {
			return fmt.Errorf("commit root: %w", err)
		}
	}
	t.root = newRoot
	t.orphans = b.Orphans()
	return nil
}

// insertIntoNonFull places key into the subtree staged in b, which is
// guaranteed to have room, and builds the rebuilt path bottom-up. The
// returned node is b's freshly serialized page.
func (t *Tree) insertIntoNonFull(b *Builder, key, value []byte) (Node, error) {
	i, found := b.search(key, bytes.Compare)
	if found {
		// Duplicate key: overwrite in place of the staged pair. This
		// holds at any level; internal pages carry real values too.
		b.Replace(i, key, value)
		return b.Build()
	}

	if b.Kind() == KindLeaf {
		b.ShiftAndInsert(i, key, value)
		return b.Build()
	}

	child, err := t.NodeFromPtr(b.Ptr(i))
	if err != nil {
		return Node{}, err
	}

	if child.KeyCount() >= MaxKeys {
		if err := t.splitChild(b, i); err != nil {
			return Node{}, err
		}
		// The median now sits at i; re-derive the target subtree.
		switch bytes.Compare(b.Key(i), key) {
		case 0:
			b.Replace(i, key, value)
			return b.Build()
		case -1:
			i++
		}
		child, err = t.NodeFromPtr(b.Ptr(i))
		if err != nil {
			return Node{}, err
		}
	}

	cb := b.CreateChildBuilder()
	cb.CopyFrom(child)
	cb.Orphan(child.PagePtr())
	newChild, err := t.insertIntoNonFull(cb, key, value)
	if err != nil {
		return Node{}, err
	}
	b.SetPtr(i, newChild.PagePtr())
	return b.Build()
}
