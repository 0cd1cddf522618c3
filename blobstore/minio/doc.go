// Package minio provides a BlobStore implementation using the MinIO client.
//
// It serves archives from MinIO and other S3-compatible systems (Ceph,
// Garage, SeaweedFS) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.Dial(minio.Endpoint{
//	    Host:      "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "caches", "shot-010")
package minio
