package btree

import (
	"encoding/binary"
	"fmt"
)

// Builder is the mutable staging area for one page under construction.
// It accumulates child pointers and already-encoded kv blocks, then
// Build serializes them into a brand-new page through Storage. No
// existing page is ever overwritten; this is the copy-on-write
// mechanism.
type Builder struct {
	storage Storage
	kind    Kind
	ptrs    []uint64
	pairs   [][]byte // each element already in on-page kv format

	// children are nested builders spawned while rebuilding a subtree,
	// orphans the pages those rebuilds superseded.
	children []*Builder
	orphans  []uint64
}

// NewBuilder returns an empty builder allocating through s.
func NewBuilder(s Storage) *Builder {
	return &Builder{
		storage: s,
		ptrs:    make([]uint64, 0, MaxKeys+1),
		pairs:   make([][]byte, 0, MaxKeys),
	}
}

// SetKind tags the page under construction as internal or leaf.
func (b *Builder) SetKind(kind Kind) {
	b.kind = kind
}

func (b *Builder) Kind() Kind { return b.kind }

// KeyCount returns the number of kv pairs accumulated so far.
func (b *Builder) KeyCount() int { return len(b.pairs) }

// IsFull reports whether the builder holds 2t-1 keys, the page's
// capacity in the height-growth sense.
func (b *Builder) IsFull() bool { return len(b.pairs) >= MaxKeys }

// Key decodes the key of accumulated pair i.
func (b *Builder) Key(i int) []byte {
	pair := b.pairs[i]
	keyLen := int(binary.BigEndian.Uint16(pair[0:2]))
	return pair[kvHeaderSize : kvHeaderSize+keyLen]
}

// Ptr returns accumulated child pointer i.
func (b *Builder) Ptr(i int) uint64 { return b.ptrs[i] }

// SetPtr overwrites child pointer i, used to redirect a slot at the
// freshly rebuilt copy of its subtree.
func (b *Builder) SetPtr(i int, ptr uint64) { b.ptrs[i] = ptr }

// AppendPtr appends one child pointer without a pair. Internal nodes
// carry one more pointer than keys; this supplies the extra slot.
func (b *Builder) AppendPtr(ptr uint64) {
	b.ptrs = append(b.ptrs, ptr)
}

// InsertPtr inserts ptr at position i, shifting later pointers right.
func (b *Builder) InsertPtr(i int, ptr uint64) {
	b.ptrs = insert(b.ptrs, i, ptr)
}

// AppendKV appends one child pointer and one encoded pair at the end.
// Callers establish ordering by appending in sorted order; leaves pass
// the zero sentinel as the pointer.
func (b *Builder) AppendKV(childPtr uint64, key, value []byte) {
	b.ptrs = append(b.ptrs, childPtr)
	b.pairs = append(b.pairs, encodePair(key, value))
}

// ShiftAndInsert inserts a new pair at logical position idx among the
// pairs already accumulated, preserving the order of everything before
// and after it.
func (b *Builder) ShiftAndInsert(idx int, key, value []byte) {
	b.pairs = insert(b.pairs, idx, encodePair(key, value))
}

// Replace swaps out pair idx for a new encoding of key/value, keeping
// pointers untouched. This is the duplicate-key overwrite path.
func (b *Builder) Replace(idx int, key, value []byte) {
	b.pairs[idx] = encodePair(key, value)
}

// CopyRange bulk-copies count contiguous pairs from src starting at
// srcStart into the builder at destStart, preserving order. Used to
// carry over the untouched portion of a page being rebuilt.
func (b *Builder) CopyRange(src Node, destStart, srcStart, count int) {
	for k := 0; k < count; k++ {
		pair := clonePair(src, srcStart+k)
		b.pairs = insert(b.pairs, destStart+k, pair)
	}
}

// CopyLeftPtrs bulk-copies src's child pointers [0, count), the set
// that stays with the left half of a split.
func (b *Builder) CopyLeftPtrs(src Node, count int) {
	for i := 0; i < count; i++ {
		b.ptrs = append(b.ptrs, src.Ptr(i))
	}
}

// CopyRightPtrs bulk-copies src's child pointers [from, keyCount],
// the set that moves to the right half of a split.
func (b *Builder) CopyRightPtrs(src Node, from int) {
	for i := from; i <= src.KeyCount(); i++ {
		b.ptrs = append(b.ptrs, src.Ptr(i))
	}
}

// CopyFrom seeds an empty builder with the full content of src: kind,
// every pair and, for internal pages, every child pointer.
func (b *Builder) CopyFrom(src Node) {
	b.SetKind(src.Kind())
	b.CopyRange(src, 0, 0, src.KeyCount())
	if !src.IsLeaf() {
		b.CopyLeftPtrs(src, src.KeyCount()+1)
	}
}

// CreateChildBuilder returns a fresh builder on the same Storage,
// registered as a dirty child of b for bookkeeping.
func (b *Builder) CreateChildBuilder() *Builder {
	child := NewBuilder(b.storage)
	b.children = append(b.children, child)
	return child
}

// Orphan records a page made unreachable by this rebuild. Nothing is
// reclaimed here; see Tree.Orphans.
func (b *Builder) Orphan(ptr uint64) {
	b.orphans = append(b.orphans, ptr)
}

// Orphans returns the pages superseded by this builder and all of its
// dirty children.
func (b *Builder) Orphans() []uint64 {
	out := append([]uint64(nil), b.orphans...)
	for _, c := range b.children {
		out = append(out, c.Orphans()...)
	}
	return out
}

// search returns the position of the first accumulated key >= target
// and whether it is an exact match.
func (b *Builder) search(target []byte, cmp func(a, b []byte) int) (int, bool) {
	lo, hi := 0, len(b.pairs)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(b.Key(mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(b.pairs) && cmp(b.Key(lo), target) == 0
}

// Build serializes the accumulated state into one newly allocated
// fixed-size page and returns it as a view. The packed content is
// checked against PageSize before any byte is written; the variable
// kv lengths make overflow a real possibility the format itself does
// not defend against.
func (b *Builder) Build() (Node, error) {
	kc := len(b.pairs)
	if kc > MaxKeys {
		panic(fmt.Sprintf("btree: building page with %d keys, max %d", kc, MaxKeys))
	}
	if b.kind == KindInternal && len(b.ptrs) != kc+1 {
		panic(fmt.Sprintf("btree: internal page with %d keys needs %d pointers, have %d", kc, kc+1, len(b.ptrs)))
	}

	kvBytes := 0
	for _, pair := range b.pairs {
		kvBytes += len(pair)
	}
	size := headerSize + ptrSize*(kc+1) + offsetSize*kc + kvBytes
	if size > PageSize {
		return Node{}, fmt.Errorf("%w: content is %d bytes, page holds %d", ErrPageOverflow, size, PageSize)
	}

	page := make([]byte, PageSize)
	page[0] = byte(b.kind)
	binary.BigEndian.PutUint16(page[1:3], uint16(kc))

	off := headerSize
	for i := 0; i <= kc; i++ {
		// Leaves keep the slot count for header uniformity but every
		// slot is the zero sentinel.
		var p uint64
		if b.kind == KindInternal {
			p = b.ptrs[i]
		}
		binary.BigEndian.PutUint64(page[off:], p)
		off += ptrSize
	}

	// Offsets are the running length of the encoded pairs; slot i-1
	// stores where pair i begins, offset 0 is implicit.
	running := 0
	for i := 0; i < kc; i++ {
		running += len(b.pairs[i])
		binary.BigEndian.PutUint16(page[off:], uint16(running))
		off += offsetSize
	}

	for i := 0; i < kc; i++ {
		copy(page[off:], b.pairs[i])
		off += len(b.pairs[i])
	}

	ptr, err := b.storage.AllocatePage(page)
	if err != nil {
		return Node{}, fmt.Errorf("allocate page: %w", err)
	}
	return Node{ptr: ptr, data: page}, nil
}

// encodePair packs key/value into the on-page kv format:
// keyLen(2) | valLen(2) | key | value, lengths big-endian.
func encodePair(key, value []byte) []byte {
	pair := make([]byte, kvHeaderSize+len(key)+len(value))
	binary.BigEndian.PutUint16(pair[0:2], uint16(len(key)))
	binary.BigEndian.PutUint16(pair[2:4], uint16(len(value)))
	copy(pair[kvHeaderSize:], key)
	copy(pair[kvHeaderSize+len(key):], value)
	return pair
}

// clonePair copies pair i of src out of its page so the builder's
// buffers never alias Storage-owned bytes.
func clonePair(src Node, i int) []byte {
	raw := src.kvBytes(i, 1)
	return append([]byte(nil), raw...)
}

// insert inserts elem at index i in slice.
func insert[T any](slice []T, i int, elem T) []T {
	slice = append(slice, elem) // grow by 1
	copy(slice[i+1:], slice[i:])
	slice[i] = elem
	return slice
}
