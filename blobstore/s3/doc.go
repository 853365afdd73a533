// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("archives/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	ws, err := resforge.Open(ctx, cfg, resforge.WithStore("s3", store))
//
// # Features
//
//   - Range reads for archive entries
//   - CRC32C-checked single puts, multipart uploads for large files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
