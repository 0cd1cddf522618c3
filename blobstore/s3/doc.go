// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "caches/shot-010")
//	w, err := meshcache.CreateSingle(ctx, "shot-010", "/xform", "mesh", decls,
//	    meshcache.WithBlobStore(store))
//
// # Features
//
//   - Range reads so cursors fetch single chunks
//   - Streaming multipart uploads for the chunk file
//   - CRC32C-checked puts for manifests
//   - DynamoDB-backed CURRENT pointer for single-writer enforcement
package s3
