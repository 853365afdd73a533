package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DiskCacheConfig configures a DiskBlockCache.
type DiskCacheConfig struct {
	// RootDir holds the block files.
	RootDir string
	// MaxSizeBytes bounds the stored (compressed) bytes.
	MaxSizeBytes int64
	// MaxConcurrentWrites bounds background writes. Defaults to 16.
	MaxConcurrentWrites int64
	// Compression applies to newly written blocks.
	Compression Compression
}

// DiskBlockCache is a BlockCache persisted under a local directory.
//
// Writes happen in the background; a block becomes visible to Get once its
// file is renamed into place. The index is rebuilt from the directory on
// startup.
type DiskBlockCache struct {
	mu          sync.Mutex
	rootDir     string
	maxSize     int64
	currentSize int64
	mode        Compression

	writeSem *semaphore.Weighted
	wg       sync.WaitGroup

	items   map[Key]*lruEntry
	lruHead *lruEntry
	lruTail *lruEntry

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key        Key
	size       int64
	filePath   string
	next, prev *lruEntry
}

// NewDiskBlockCache opens (or creates) a disk cache at config.RootDir.
func NewDiskBlockCache(config DiskCacheConfig) (*DiskBlockCache, error) {
	if err := os.MkdirAll(config.RootDir, 0o755); err != nil {
		return nil, err
	}
	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	c := &DiskBlockCache{
		rootDir:  config.RootDir,
		maxSize:  config.MaxSizeBytes,
		mode:     config.Compression,
		items:    make(map[Key]*lruEntry),
		writeSem: semaphore.NewWeighted(maxWrites),
	}
	c.scanExistingFiles()
	return c, nil
}

func (c *DiskBlockCache) scanExistingFiles() {
	_ = filepath.WalkDir(c.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		key, ok := c.parsePathToKey(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		c.addToLRU(key, path, info.Size())
		return nil
	})
}

// keyPath lays files out as <hex(path)>/<block>.blk so any blob name maps to
// a safe directory.
func (c *DiskBlockCache) keyPath(key Key) string {
	return filepath.Join(c.rootDir, hex.EncodeToString([]byte(key.Path)), fmt.Sprintf("%d.blk", key.Block))
}

func (c *DiskBlockCache) parsePathToKey(absPath string) (Key, bool) {
	rel, err := filepath.Rel(c.rootDir, absPath)
	if err != nil {
		return Key{}, false
	}
	dir, file := filepath.Split(rel)
	name, err := hex.DecodeString(filepath.Clean(dir))
	if err != nil {
		return Key{}, false
	}
	var block int64
	if n, err := fmt.Sscanf(file, "%d.blk", &block); err != nil || n != 1 {
		return Key{}, false
	}
	return Key{Path: string(name), Block: block}, true
}

// Get reads and decompresses a cached block.
func (c *DiskBlockCache) Get(_ context.Context, key Key) ([]byte, bool) {
	c.mu.Lock()
	ent, ok := c.items[key]
	if ok {
		c.moveToFront(ent)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	raw, err := os.ReadFile(ent.filePath)
	if err == nil {
		var data []byte
		if data, err = decodeBlock(raw); err == nil {
			c.hits.Add(1)
			return data, true
		}
	}

	c.mu.Lock()
	if c.items[key] == ent {
		_ = os.Remove(ent.filePath)
		c.removeEntry(ent)
	}
	c.mu.Unlock()
	c.misses.Add(1)
	return nil, false
}

// Set writes a block in the background. The write is skipped when all write
// slots are busy.
func (c *DiskBlockCache) Set(_ context.Context, key Key, b []byte) {
	c.mu.Lock()
	if ent, ok := c.items[key]; ok {
		c.moveToFront(ent)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.writeSem.TryAcquire(1) {
		return
	}

	data := make([]byte, len(b))
	copy(data, b)
	absPath := c.keyPath(key)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.writeSem.Release(1)

		encoded, err := encodeBlock(data, c.mode)
		if err != nil {
			return
		}
		if int64(len(encoded)) > c.maxSize {
			return
		}
		if err := writeFileAtomic(absPath, encoded); err != nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if old, ok := c.items[key]; ok {
			c.removeEntry(old)
		}
		size := int64(len(encoded))
		for c.currentSize+size > c.maxSize && c.lruTail != nil {
			c.evictOne()
		}
		c.addToLRU(key, absPath, size)
	}()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "tmp-blk-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Invalidate removes every block of path.
func (c *DiskBlockCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*lruEntry
	for k, ent := range c.items {
		if k.Path == path {
			stale = append(stale, ent)
		}
	}
	for _, ent := range stale {
		_ = os.Remove(ent.filePath)
		c.removeEntry(ent)
	}
}

// Flush waits for pending background writes.
func (c *DiskBlockCache) Flush() { c.wg.Wait() }

// Close waits for pending background writes.
func (c *DiskBlockCache) Close() error {
	c.wg.Wait()
	return nil
}

// Stats returns hit and miss counters.
func (c *DiskBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the stored bytes.
func (c *DiskBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// LRU helpers; callers hold mu.

func (c *DiskBlockCache) addToLRU(key Key, path string, size int64) {
	ent := &lruEntry{key: key, filePath: path, size: size}
	c.items[key] = ent
	c.currentSize += size

	if c.lruHead == nil {
		c.lruHead, c.lruTail = ent, ent
		return
	}
	ent.next = c.lruHead
	c.lruHead.prev = ent
	c.lruHead = ent
}

func (c *DiskBlockCache) moveToFront(ent *lruEntry) {
	if c.lruHead == ent {
		return
	}
	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if c.lruTail == ent {
		c.lruTail = ent.prev
	}
	ent.prev = nil
	ent.next = c.lruHead
	if c.lruHead != nil {
		c.lruHead.prev = ent
	}
	c.lruHead = ent
	if c.lruTail == nil {
		c.lruTail = ent
	}
}

func (c *DiskBlockCache) removeEntry(ent *lruEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.lruHead = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.lruTail = ent.prev
	}
	ent.prev, ent.next = nil, nil
	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

func (c *DiskBlockCache) evictOne() {
	if c.lruTail == nil {
		return
	}
	_ = os.Remove(c.lruTail.filePath)
	c.removeEntry(c.lruTail)
}
