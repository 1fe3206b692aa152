package btree

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuilderShiftAndInsert(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	b.AppendKV(0, []byte("b"), []byte("2"))
	b.AppendKV(0, []byte("d"), []byte("4"))
	b.AppendKV(0, []byte("f"), []byte("6"))

	// Middle, front and back inserts must all preserve order.
	b.ShiftAndInsert(1, []byte("c"), []byte("3"))
	b.ShiftAndInsert(0, []byte("a"), []byte("1"))
	b.ShiftAndInsert(5, []byte("g"), []byte("7"))

	want := []string{"a", "b", "c", "d", "f", "g"}
	if b.KeyCount() != len(want) {
		t.Fatalf("KeyCount = %d, expected %d", b.KeyCount(), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(b.Key(i), []byte(w)) {
			t.Errorf("Key %d = %q, expected %q", i, b.Key(i), w)
		}
	}

	n, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	for i := 1; i < n.KeyCount(); i++ {
		if bytes.Compare(n.Key(i-1), n.Key(i)) >= 0 {
			t.Errorf("Built page keys not strictly increasing at %d: %q >= %q",
				i, n.Key(i-1), n.Key(i))
		}
	}
}

func TestBuilderCopyRange(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	src := buildLeaf(t, s, [][2]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}, {"e", "5"},
	})

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	b.CopyRange(src, 0, 1, 3) // b, c, d

	if b.KeyCount() != 3 {
		t.Fatalf("KeyCount = %d, expected 3", b.KeyCount())
	}
	n, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	want := [][2]string{{"b", "2"}, {"c", "3"}, {"d", "4"}}
	for i, kv := range want {
		if !bytes.Equal(n.Key(i), []byte(kv[0])) || !bytes.Equal(n.Value(i), []byte(kv[1])) {
			t.Errorf("Pair %d = %q/%q, expected %q/%q",
				i, n.Key(i), n.Value(i), kv[0], kv[1])
		}
	}
}

func TestBuilderCopyPtrs(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	src := NewBuilder(s)
	src.SetKind(KindInternal)
	src.AppendKV(10, []byte("b"), []byte("x"))
	src.AppendKV(20, []byte("d"), []byte("x"))
	src.AppendKV(30, []byte("f"), []byte("x"))
	src.AppendPtr(40)
	srcNode, err := src.Build()
	if err != nil {
		t.Fatalf("Failed to build source: %v", err)
	}

	left := NewBuilder(s)
	left.SetKind(KindInternal)
	left.CopyLeftPtrs(srcNode, 2)
	if len(left.ptrs) != 2 || left.Ptr(0) != 10 || left.Ptr(1) != 20 {
		t.Errorf("CopyLeftPtrs got %v, expected [10 20]", left.ptrs)
	}

	right := NewBuilder(s)
	right.SetKind(KindInternal)
	right.CopyRightPtrs(srcNode, 2)
	if len(right.ptrs) != 2 || right.Ptr(0) != 30 || right.Ptr(1) != 40 {
		t.Errorf("CopyRightPtrs got %v, expected [30 40]", right.ptrs)
	}
}

func TestBuilderIsFull(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	for i := 0; i < MaxKeys; i++ {
		if b.IsFull() {
			t.Fatalf("Builder full at %d keys, capacity is %d", i, MaxKeys)
		}
		b.AppendKV(0, []byte{byte('a' + i)}, []byte("v"))
	}
	if !b.IsFull() {
		t.Errorf("Builder not full at %d keys", MaxKeys)
	}
}

func TestBuilderPageOverflow(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	// Two pairs of ~300 bytes exceed a 512-byte page.
	b.AppendKV(0, []byte("a"), bytes.Repeat([]byte("x"), 300))
	b.AppendKV(0, []byte("b"), bytes.Repeat([]byte("y"), 300))

	if _, err := b.Build(); !errors.Is(err, ErrPageOverflow) {
		t.Errorf("Expected ErrPageOverflow, got %v", err)
	}
}

func TestBuilderOrphanTracking(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.Orphan(7)
	child := b.CreateChildBuilder()
	child.Orphan(8)
	grandchild := child.CreateChildBuilder()
	grandchild.Orphan(9)

	got := b.Orphans()
	want := map[uint64]bool{7: true, 8: true, 9: true}
	if len(got) != len(want) {
		t.Fatalf("Orphans = %v, expected 3 entries", got)
	}
	for _, ptr := range got {
		if !want[ptr] {
			t.Errorf("Unexpected orphan %d", ptr)
		}
	}
}

func TestBuilderReplaceKeepsCount(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	b.AppendKV(0, []byte("a"), []byte("old"))
	b.AppendKV(0, []byte("b"), []byte("keep"))

	b.Replace(0, []byte("a"), []byte("new"))

	n, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if n.KeyCount() != 2 {
		t.Fatalf("KeyCount = %d, expected 2", n.KeyCount())
	}
	if !bytes.Equal(n.Value(0), []byte("new")) {
		t.Errorf("Value(0) = %q, expected %q", n.Value(0), "new")
	}
	if !bytes.Equal(n.Value(1), []byte("keep")) {
		t.Errorf("Value(1) = %q, expected %q", n.Value(1), "keep")
	}
}
