package btree

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// Meta page layout (page 0): magic(4) | pageSize(4) | root(8), all
// big-endian. Page 0 doubles as the reason real pages start at 1,
// which keeps the zero pointer free as the nil sentinel.
const (
	metaMagic   uint32 = 0x434F574B // "COWK"
	metaRootOff        = 8
)

// DiskStorage implements Storage over a single file. Page pointers are
// logical page numbers resolved to file offsets; reads are served
// through a ristretto cache, safe here because committed pages are
// immutable.
type DiskStorage struct {
	mu       sync.RWMutex
	file     *os.File
	filePath string
	nextPtr  uint64
	root     uint64
	cache    *pageCache
}

// NewDiskStorage opens or creates a tree file. On an existing file the
// meta page is validated and the committed root recovered.
func NewDiskStorage(path string) (*DiskStorage, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree file %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat tree file: %w", err)
	}

	cache, err := newPageCache(DefaultCachePages)
	if err != nil {
		file.Close()
		return nil, err
	}

	s := &DiskStorage{
		file:     file,
		filePath: path,
		cache:    cache,
	}

	numPages := stat.Size() / PageSize
	if numPages == 0 {
		// Fresh file: write the meta page with an empty root.
		s.nextPtr = 1
		if err := s.writeMetaLocked(); err != nil {
			s.cache.close()
			file.Close()
			return nil, err
		}
		return s, nil
	}

	meta := make([]byte, PageSize)
	if _, err := file.ReadAt(meta, 0); err != nil {
		s.cache.close()
		file.Close()
		return nil, fmt.Errorf("failed to read meta page: %w", err)
	}
	if binary.BigEndian.Uint32(meta[0:4]) != metaMagic {
		s.cache.close()
		file.Close()
		return nil, fmt.Errorf("%s is not a tree file (bad magic)", path)
	}
	if got := binary.BigEndian.Uint32(meta[4:8]); got != PageSize {
		s.cache.close()
		file.Close()
		return nil, fmt.Errorf("%s was written with page size %d, this build uses %d", path, got, PageSize)
	}

	s.root = binary.BigEndian.Uint64(meta[metaRootOff:])
	s.nextPtr = uint64(numPages)
	return s, nil
}

func (s *DiskStorage) ReadPage(ptr uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return nil, fmt.Errorf("storage is closed")
	}
	if ptr == nilPtr || ptr >= s.nextPtr {
		return nil, fmt.Errorf("page %d not found", ptr)
	}

	if cached, ok := s.cache.get(ptr); ok {
		out := make([]byte, PageSize)
		copy(out, cached)
		return out, nil
	}

	page := make([]byte, PageSize)
	if _, err := s.file.ReadAt(page, int64(ptr)*PageSize); err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", ptr, err)
	}
	s.cache.set(ptr, page)

	out := make([]byte, PageSize)
	copy(out, page)
	return out, nil
}

func (s *DiskStorage) AllocatePage(data []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, fmt.Errorf("storage is closed")
	}
	if len(data) != PageSize {
		return 0, fmt.Errorf("data size %d does not match page size %d", len(data), PageSize)
	}

	ptr := s.nextPtr
	if _, err := s.file.WriteAt(data, int64(ptr)*PageSize); err != nil {
		return 0, fmt.Errorf("failed to write page %d: %w", ptr, err)
	}
	s.nextPtr++

	dest := make([]byte, PageSize)
	copy(dest, data)
	s.cache.set(ptr, dest)
	return ptr, nil
}

// FreePage is a no-op on disk: superseded pages stay in the file until
// a reclamation pass exists. A full implementation would track them in
// a free list keyed off the committed root.
func (s *DiskStorage) FreePage(ptr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("storage is closed")
	}
	return nil
}

// RootPtr returns the committed root pointer from the meta page.
func (s *DiskStorage) RootPtr() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return 0, fmt.Errorf("storage is closed")
	}
	return s.root, nil
}

// SetRootPtr commits ptr as the durable root: the new pages are synced
// first, then the meta page is rewritten, so a crash between the two
// leaves the previous root intact.
func (s *DiskStorage) SetRootPtr(ptr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("storage is closed")
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync before root commit: %w", err)
	}
	s.root = ptr
	if err := s.writeMetaLocked(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *DiskStorage) writeMetaLocked() error {
	meta := make([]byte, PageSize)
	binary.BigEndian.PutUint32(meta[0:4], metaMagic)
	binary.BigEndian.PutUint32(meta[4:8], PageSize)
	binary.BigEndian.PutUint64(meta[metaRootOff:], s.root)
	if _, err := s.file.WriteAt(meta, 0); err != nil {
		return fmt.Errorf("failed to write meta page: %w", err)
	}
	return nil
}

func (s *DiskStorage) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("storage is closed")
	}
	return s.file.Sync()
}

func (s *DiskStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil // already closed
	}

	s.cache.close()
	err := s.file.Sync()
	cerr := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("failed to sync on close: %w", err)
	}
	return cerr
}

// TotalPages returns the number of pages in the file, meta included.
func (s *DiskStorage) TotalPages() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextPtr
}
