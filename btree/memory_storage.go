package btree

import (
	"fmt"
	"sync"
)

// MemoryStorage is the in-memory Storage: an arena of explicit page
// IDs mapped to owned buffers. IDs start at 1 so the zero sentinel can
// never address a real page, and they are handed out monotonically so
// a pointer stays unambiguous for the life of the store.
type MemoryStorage struct {
	mu      sync.RWMutex
	pages   map[uint64][]byte
	nextPtr uint64
	root    uint64
	closed  bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		pages:   make(map[uint64][]byte),
		nextPtr: 1,
	}
}

func (s *MemoryStorage) ReadPage(ptr uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("storage is closed")
	}

	data, ok := s.pages[ptr]
	if !ok {
		return nil, fmt.Errorf("page %d not found", ptr)
	}

	// Return a copy so the caller cannot alias internal state.
	out := make([]byte, PageSize)
	copy(out, data)
	return out, nil
}

func (s *MemoryStorage) AllocatePage(data []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("storage is closed")
	}
	if len(data) != PageSize {
		return 0, fmt.Errorf("data size %d does not match page size %d", len(data), PageSize)
	}

	ptr := s.nextPtr
	s.nextPtr++

	dest := make([]byte, PageSize)
	copy(dest, data)
	s.pages[ptr] = dest
	return ptr, nil
}

func (s *MemoryStorage) FreePage(ptr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("storage is closed")
	}

	delete(s.pages, ptr)
	return nil
}

// RootPtr returns the last committed root pointer, zero when none was
// ever committed.
func (s *MemoryStorage) RootPtr() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("storage is closed")
	}
	return s.root, nil
}

func (s *MemoryStorage) SetRootPtr(ptr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	s.root = ptr
	return nil
}

func (s *MemoryStorage) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	// In-memory sync is a no-op.
	return nil
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	// This helps catch bugs where the store is used after closing.
	s.pages = nil
	s.closed = true
	return nil
}

// TotalPages returns the number of live (not freed) pages.
func (s *MemoryStorage) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}
