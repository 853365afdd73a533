package cache

import (
	"context"
	"fmt"
)

// Key identifies one block of one blob.
type Key struct {
	// Path is the blob name within its store.
	Path string
	// Block is the block index (byte offset / block size).
	Block int64
}

func (k Key) String() string { return fmt.Sprintf("%s#%d", k.Path, k.Block) }

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok is false on a miss.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. The cache may retain b; callers must not modify it.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes every block of path.
	Invalidate(path string)
	// Close releases background resources.
	Close() error
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
}
