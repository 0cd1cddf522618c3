package cache

import "sync/atomic"

// Key identifies a decoded chunk. Archive is the id a reader took from
// NewArchiveID, so readers sharing one cache never see each other's chunks
// even when their data files have the same name.
type Key struct {
	Archive uint64
	Offset  int64
}

var archiveSeq atomic.Uint64

// NewArchiveID returns an id unique within the process.
func NewArchiveID() uint64 {
	return archiveSeq.Add(1)
}

// ChunkCache is a byte-oriented cache for decoded chunks.
// Returned slices must be treated as read-only.
type ChunkCache interface {
	// Get returns a cached chunk. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a chunk. The caller must not modify b afterwards.
	Set(key Key, b []byte)
	// Invalidate removes all entries of one archive.
	Invalidate(archive uint64)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
