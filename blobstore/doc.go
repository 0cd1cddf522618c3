// Package blobstore provides the storage abstraction under mesh archives.
//
// An archive is a handful of named blobs (chunk data, manifests and the
// CURRENT pointer). BlobStore hides where those blobs live.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, mmap reads, atomic temp+rename writes
//   - MemoryStore: in-memory, for tests and transient pipelines
//   - PrefixStore: scopes any store under a key prefix
//   - s3.Store: Amazon S3 with range reads and streaming uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
