// Package blobstore provides the storage abstraction behind archive files.
//
// Archive readers open their TOC and data files through a BlobStore so the
// same archive can be served from local disk, memory, S3 or MinIO.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap support
//   - MemoryStore: in-memory store for tests and generated archives
//   - CachingStore: block cache in front of any store
//   - s3.Store, minio.Store: remote object storage with range reads
//
// Blobs implement context-aware random access:
//
//	type Blob interface {
//	    ReadAt(ctx, p, off) (int, error)
//	    ReadRange(ctx, off, length) (io.ReadCloser, error)
//	    Size() int64
//	    Close() error
//	}
package blobstore
