package btree

import "bytes"

// Get looks a key up and returns its value, or nil when the key is
// absent. A missing key is never an error; errors only surface when a
// page on the descent path cannot be read.
func (t *Tree) Get(key []byte) ([]byte, error) {
	n := t.root
	for {
		i := lowerBound(n, key, bytes.Compare)
		if i < n.KeyCount() && bytes.Equal(n.Key(i), key) {
			// Return a copy so the caller cannot reach into the root
			// view's buffer through the result. make keeps an empty
			// value non-nil, distinct from not found.
			value := n.Value(i)
			out := make([]byte, len(value))
			copy(out, value)
			return out, nil
		}
		if n.IsLeaf() {
			return nil, nil
		}
		ptr := n.Ptr(i)
		if ptr == nilPtr {
			return nil, nil
		}
		child, err := t.NodeFromPtr(ptr)
		if err != nil {
			return nil, err
		}
		n = child
	}
}

// Has reports whether key is present.
func (t *Tree) Has(key []byte) (bool, error) {
	v, err := t.Get(key)
	return v != nil, err
}
