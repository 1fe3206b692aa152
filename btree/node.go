package btree

import (
	"encoding/binary"
	"fmt"
)

// Node is a read-only view over one page's bytes plus the pointer it
// was resolved from. It never owns or mutates the underlying buffer;
// its lifetime is tied to the Storage that produced it.
//
// Accessor indexes are checked: calling Key/Value/Ptr outside the valid
// range for the page's key count is a bug inside the tree and panics
// rather than returning garbage.
type Node struct {
	ptr  uint64
	data []byte
}

// PagePtr returns the opaque pointer this view was resolved from.
func (n Node) PagePtr() uint64 { return n.ptr }

func (n Node) Kind() Kind {
	return Kind(n.data[0])
}

func (n Node) IsLeaf() bool {
	return n.Kind() == KindLeaf
}

// KeyCount returns the number of keys stored in the page.
func (n Node) KeyCount() int {
	return int(binary.BigEndian.Uint16(n.data[1:3]))
}

// Ptr returns child pointer i, valid for i in [0, KeyCount()]. Leaf
// pages store the same number of slots but every slot is the zero
// sentinel; callers must not dereference it.
func (n Node) Ptr(i int) uint64 {
	if i < 0 || i > n.KeyCount() {
		panic(fmt.Sprintf("btree: ptr index %d out of range [0,%d]", i, n.KeyCount()))
	}
	return binary.BigEndian.Uint64(n.data[headerSize+ptrSize*i:])
}

// Key returns key i, valid for i in [0, KeyCount()).
func (n Node) Key(i int) []byte {
	pos := n.kvPos(i)
	keyLen := int(binary.BigEndian.Uint16(n.data[pos:]))
	return n.data[pos+kvHeaderSize : pos+kvHeaderSize+keyLen]
}

// Value returns value i, valid for i in [0, KeyCount()).
func (n Node) Value(i int) []byte {
	pos := n.kvPos(i)
	keyLen := int(binary.BigEndian.Uint16(n.data[pos:]))
	valLen := int(binary.BigEndian.Uint16(n.data[pos+2:]))
	start := pos + kvHeaderSize + keyLen
	return n.data[start : start+valLen]
}

// offset returns the start of kv pair i relative to the kv region.
// offset(0) is implicit; the stored array carries offsets 1..keyCount,
// so offset(keyCount) is the total packed kv length.
func (n Node) offset(i int) int {
	if i == 0 {
		return 0
	}
	kc := n.KeyCount()
	pos := headerSize + ptrSize*(kc+1) + offsetSize*(i-1)
	return int(binary.BigEndian.Uint16(n.data[pos:]))
}

// kvPos recomputes the absolute byte position of kv pair i.
func (n Node) kvPos(i int) int {
	kc := n.KeyCount()
	if i < 0 || i >= kc {
		panic(fmt.Sprintf("btree: kv index %d out of range [0,%d)", i, kc))
	}
	return headerSize + ptrSize*(kc+1) + offsetSize*kc + n.offset(i)
}

// kvBytes returns the encoded kv blocks for pairs [from, from+count) as
// one contiguous slice, used by the builder's bulk copy.
func (n Node) kvBytes(from, count int) []byte {
	kc := n.KeyCount()
	if from < 0 || count < 0 || from+count > kc {
		panic(fmt.Sprintf("btree: kv range [%d,%d) out of range [0,%d)", from, from+count, kc))
	}
	if count == 0 {
		return nil
	}
	base := headerSize + ptrSize*(kc+1) + offsetSize*kc
	return n.data[base+n.offset(from) : base+n.offset(from+count)]
}

// decodeNode validates page bytes reached through an arbitrary pointer
// chain and wraps them in a view. Structural validation happens here,
// once, so the accessors can stay cheap.
func decodeNode(ptr uint64, data []byte) (Node, error) {
	if len(data) != PageSize {
		return Node{}, fmt.Errorf("%w: page %d has %d bytes, want %d", ErrCorruptPage, ptr, len(data), PageSize)
	}
	kind := Kind(data[0])
	if kind != KindInternal && kind != KindLeaf {
		return Node{}, fmt.Errorf("%w: page %d has unknown kind %d", ErrCorruptPage, ptr, data[0])
	}
	kc := int(binary.BigEndian.Uint16(data[1:3]))
	if kc > MaxKeys {
		return Node{}, fmt.Errorf("%w: page %d has %d keys, max %d", ErrCorruptPage, ptr, kc, MaxKeys)
	}
	kvStart := headerSize + ptrSize*(kc+1) + offsetSize*kc
	if kvStart > PageSize {
		return Node{}, fmt.Errorf("%w: page %d header exceeds page size", ErrCorruptPage, ptr)
	}

	// Walk the offsets and pair headers so a malformed page fails here
	// instead of panicking inside an accessor later.
	n := Node{ptr: ptr, data: data}
	prev := 0
	for i := 0; i < kc; i++ {
		start := n.offset(i)
		end := n.offset(i + 1)
		if start != prev || end < start || kvStart+end > PageSize {
			return Node{}, fmt.Errorf("%w: page %d has bad kv offset at %d", ErrCorruptPage, ptr, i)
		}
		if end-start < kvHeaderSize {
			return Node{}, fmt.Errorf("%w: page %d kv pair %d shorter than its header", ErrCorruptPage, ptr, i)
		}
		keyLen := int(binary.BigEndian.Uint16(data[kvStart+start:]))
		valLen := int(binary.BigEndian.Uint16(data[kvStart+start+2:]))
		if kvHeaderSize+keyLen+valLen != end-start {
			return Node{}, fmt.Errorf("%w: page %d kv pair %d length mismatch", ErrCorruptPage, ptr, i)
		}
		prev = end
	}
	return n, nil
}

// lowerBound returns the first index whose key is >= target, or
// KeyCount() when every key is smaller.
func lowerBound(n Node, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, n.KeyCount()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(n.Key(mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
