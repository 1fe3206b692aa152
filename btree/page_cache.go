package btree

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultCachePages bounds the disk store's read cache. With 512-byte
// pages this is a few MB of hot tree levels.
const DefaultCachePages = 8192

// pageCache caches decoded-from-disk page bytes by pointer. Because
// pages are copy-on-write a cached entry can never go stale: a pointer
// maps to exactly one immutable page for the life of the file, so
// there is no invalidation path at all.
type pageCache struct {
	cache *ristretto.Cache[uint64, []byte]
}

func newPageCache(maxPages int64) (*pageCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: maxPages * 10,
		MaxCost:     maxPages * PageSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &pageCache{cache: c}, nil
}

func (pc *pageCache) get(ptr uint64) ([]byte, bool) {
	return pc.cache.Get(ptr)
}

func (pc *pageCache) set(ptr uint64, page []byte) {
	// Admission is best-effort; a rejected page just reads from disk
	// again next time.
	pc.cache.Set(ptr, page, PageSize)
}

// wait drains the admission buffers, only needed by tests that assert
// on cache contents.
func (pc *pageCache) wait() {
	pc.cache.Wait()
}

func (pc *pageCache) close() {
	pc.cache.Close()
}
