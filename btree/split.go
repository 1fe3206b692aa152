package btree

import "fmt"

// splitChild splits the full node behind parent's pointer idx and
// promotes its median pair into parent at position idx. Afterwards
// pointer idx addresses the rebuilt left half and pointer idx+1 the
// right half; the old child page is orphaned.
//
// pivot is keyCount/2, so the left half never ends up smaller than
// the right. Left keeps keys [0,pivot) with pointers [0,pivot]; right
// takes keys (pivot,end) with pointers [pivot+1,end].
func (t *Tree) splitChild(parent *Builder, idx int) error {
	child, err := t.NodeFromPtr(parent.Ptr(idx))
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}
	pivot := child.KeyCount() / 2

	left := parent.CreateChildBuilder()
	left.SetKind(child.Kind())
	left.CopyRange(child, 0, 0, pivot)
	if !child.IsLeaf() {
		left.CopyLeftPtrs(child, pivot+1)
	}
	leftNode, err := left.Build()
	if err != nil {
		return fmt.Errorf("split: build left half: %w", err)
	}

	right := parent.CreateChildBuilder()
	right.SetKind(child.Kind())
	right.CopyRange(child, 0, pivot+1, child.KeyCount()-pivot-1)
	if !child.IsLeaf() {
		right.CopyRightPtrs(child, pivot+1)
	}
	rightNode, err := right.Build()
	if err != nil {
		return fmt.Errorf("split: build right half: %w", err)
	}

	parent.ShiftAndInsert(idx, child.Key(pivot), child.Value(pivot))
	parent.SetPtr(idx, leftNode.PagePtr())
	parent.InsertPtr(idx+1, rightNode.PagePtr())
	parent.Orphan(child.PagePtr())
	return nil
}
