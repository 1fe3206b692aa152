package btree

import (
	"bytes"
	"errors"
	"testing"
)

// buildLeaf assembles a leaf page from sorted pairs and returns the view.
func buildLeaf(t *testing.T, s Storage, pairs [][2]string) Node {
	t.Helper()
	b := NewBuilder(s)
	b.SetKind(KindLeaf)
	for _, kv := range pairs {
		b.AppendKV(0, []byte(kv[0]), []byte(kv[1]))
	}
	n, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build leaf: %v", err)
	}
	return n
}

func TestNodeRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	pairs := [][2]string{
		{"alpha", "1"},
		{"beta", "two"},
		{"gamma", ""},
		{"delta0", "a longer value with some bytes in it"},
	}
	// builder input must be sorted
	sorted := [][2]string{pairs[0], pairs[1], pairs[3], pairs[2]}

	leaf := buildLeaf(t, s, sorted)

	if leaf.Kind() != KindLeaf {
		t.Errorf("Kind mismatch: expected %v, got %v", KindLeaf, leaf.Kind())
	}
	if leaf.KeyCount() != len(sorted) {
		t.Fatalf("KeyCount mismatch: expected %d, got %d", len(sorted), leaf.KeyCount())
	}

	for i, kv := range sorted {
		if !bytes.Equal(leaf.Key(i), []byte(kv[0])) {
			t.Errorf("Key %d mismatch: expected %q, got %q", i, kv[0], leaf.Key(i))
		}
		if !bytes.Equal(leaf.Value(i), []byte(kv[1])) {
			t.Errorf("Value %d mismatch: expected %q, got %q", i, kv[1], leaf.Value(i))
		}
	}

	// Leaf pages carry keyCount+1 pointer slots, all zero.
	for i := 0; i <= leaf.KeyCount(); i++ {
		if leaf.Ptr(i) != 0 {
			t.Errorf("Leaf pointer slot %d is %d, expected 0", i, leaf.Ptr(i))
		}
	}
}

func TestNodeReloadFromStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	leaf := buildLeaf(t, s, [][2]string{{"k1", "v1"}, {"k2", "v2"}})

	data, err := s.ReadPage(leaf.PagePtr())
	if err != nil {
		t.Fatalf("Failed to read page back: %v", err)
	}
	reloaded, err := decodeNode(leaf.PagePtr(), data)
	if err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}

	if reloaded.KeyCount() != 2 {
		t.Fatalf("KeyCount mismatch after reload: got %d", reloaded.KeyCount())
	}
	if !bytes.Equal(reloaded.Key(0), []byte("k1")) || !bytes.Equal(reloaded.Value(1), []byte("v2")) {
		t.Errorf("Reloaded content mismatch: %q=%q, %q=%q",
			reloaded.Key(0), reloaded.Value(0), reloaded.Key(1), reloaded.Value(1))
	}
}

func TestInternalNodePointers(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := NewBuilder(s)
	b.SetKind(KindInternal)
	b.AppendKV(11, []byte("m"), []byte("mid"))
	b.AppendKV(22, []byte("t"), []byte("top"))
	b.AppendPtr(33)

	n, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build internal node: %v", err)
	}

	want := []uint64{11, 22, 33}
	for i, w := range want {
		if n.Ptr(i) != w {
			t.Errorf("Ptr(%d) = %d, expected %d", i, n.Ptr(i), w)
		}
	}
	if n.Kind() != KindInternal {
		t.Errorf("Kind = %v, expected internal", n.Kind())
	}
}

func TestAccessorOutOfRangePanics(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	leaf := buildLeaf(t, s, [][2]string{{"a", "1"}})

	cases := []struct {
		name string
		fn   func()
	}{
		{"KeyPastEnd", func() { leaf.Key(1) }},
		{"KeyNegative", func() { leaf.Key(-1) }},
		{"ValuePastEnd", func() { leaf.Value(5) }},
		{"PtrPastEnd", func() { leaf.Ptr(2) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for out-of-range accessor")
				}
			}()
			tc.fn()
		})
	}
}

func TestDecodeRejectsCorruptPages(t *testing.T) {
	good := make([]byte, PageSize)
	good[0] = byte(KindLeaf)

	t.Run("WrongSize", func(t *testing.T) {
		if _, err := decodeNode(1, make([]byte, 100)); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("Expected ErrCorruptPage, got %v", err)
		}
	})

	t.Run("BadKind", func(t *testing.T) {
		page := append([]byte(nil), good...)
		page[0] = 7
		if _, err := decodeNode(1, page); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("Expected ErrCorruptPage, got %v", err)
		}
	})

	t.Run("KeyCountTooBig", func(t *testing.T) {
		page := append([]byte(nil), good...)
		page[1] = 0xFF
		page[2] = 0xFF
		if _, err := decodeNode(1, page); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("Expected ErrCorruptPage, got %v", err)
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		s := NewMemoryStorage()
		defer s.Close()
		leaf := buildLeaf(t, s, [][2]string{{"key", "value"}})
		page := append([]byte(nil), leaf.data...)
		// Corrupt the key length of pair 0.
		pos := leaf.kvPos(0)
		page[pos] = 0xFF
		page[pos+1] = 0xFF
		if _, err := decodeNode(1, page); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("Expected ErrCorruptPage, got %v", err)
		}
	})

	t.Run("EmptyLeafIsValid", func(t *testing.T) {
		page := make([]byte, PageSize)
		page[0] = byte(KindLeaf)
		if _, err := decodeNode(1, page); err != nil {
			t.Errorf("Empty leaf should decode, got %v", err)
		}
	})
}
