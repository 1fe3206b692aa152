// Structure of the copy-on-write B-tree
/*
Tree
 ├── root Node (read-only view over one fixed-size page)
 │      └── child pages resolved through Storage by opaque u64 pointer
 │
 ├── Builder (mutable staging area; serializes into brand-new pages)
 └── Storage (pointer -> page bytes; in-memory or file-backed)

- keys: sorted ascending, unique, compared byte-lexicographically
- internal pages: pointer count == key count + 1
- leaf pages: same pointer slots for header uniformity, all zero
- pages are immutable once written; a Put rebuilds the root-to-leaf
  path into fresh pages and commits by swapping the root
*/
package btree

const (
	PageSize = 512 // in bytes

	// MinDegree is the classic B-tree minimum degree t. A page holding
	// 2t-1 keys is full and must be split before taking another key.
	MinDegree = 4
	MaxKeys   = 2*MinDegree - 1

	MaxKeyLen = 65535 // u16 length prefix
	MaxValLen = 65535
)

// On-page layout sizes. The header is kind(1) + keyCount(2); child
// pointers and kv offsets follow, then the packed kv pairs.
const (
	headerSize   = 3
	ptrSize      = 8
	offsetSize   = 2
	kvHeaderSize = 4 // keyLen(2) + valLen(2)
)

// nilPtr is the "no child" sentinel. Storage implementations must never
// hand out 0 as a real page pointer.
const nilPtr uint64 = 0

type Kind uint8

const (
	KindInternal Kind = 0
	KindLeaf     Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "INTERNAL"
	case KindLeaf:
		return "LEAF"
	}
	return "UNKNOWN"
}

// Storage is the persistence abstraction: it owns the pointer space and
// every allocated page. Pages are write-once; there is no WritePage on
// purpose, AllocatePage is the only way bytes enter the store.
type Storage interface {
	// ReadPage returns the PageSize bytes behind ptr.
	ReadPage(ptr uint64) ([]byte, error)
	// AllocatePage stores data as a brand-new page and returns its
	// pointer. Pointers are never reused while the store is open.
	AllocatePage(data []byte) (uint64, error)
	// FreePage releases a page that is no longer reachable from any
	// root. This is the reclamation hook for orphaned pages.
	FreePage(ptr uint64) error
	Sync() error
	Close() error
}

// RootStorage is implemented by stores that can persist the committed
// root pointer between sessions.
type RootStorage interface {
	Storage
	RootPtr() (uint64, error)
	SetRootPtr(ptr uint64) error
}

// Tree holds the current root view. Replacing the root is the single
// commit point of a write: until then the prior version stays fully
// readable because no existing page is ever mutated.
//
// A Tree is single-writer: concurrent Puts must be serialized by the
// caller. Readers holding an old root keep traversing it safely.
type Tree struct {
	storage Storage
	root    Node

	// orphans collects the pages superseded by the most recent Put,
	// for a future reclamation pass. Not consumed by the tree itself.
	orphans []uint64
}
