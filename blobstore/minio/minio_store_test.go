package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/meshcache/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "bucket", "/caches/shot-010/")
	assert.Equal(t, "caches/shot-010/CURRENT", s.key("CURRENT"))
	assert.Equal(t, "CURRENT", s.rel("caches/shot-010/CURRENT"))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "CURRENT", bare.key("CURRENT"))
	assert.Equal(t, "CURRENT", bare.rel("CURRENT"))
}

// TestStore_Integration requires a running MinIO instance.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := "test-meshcache"

	store, err := Dial(Endpoint{Host: endpoint, AccessKey: "minioadmin", SecretKey: "minioadmin"}, bucket, "test-prefix/")
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "MANIFEST-000001", data))

	got, err := blobstore.ReadAll(ctx, store, "MANIFEST-000001")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	blob, err := store.Open(ctx, "MANIFEST-000001")
	require.NoError(t, err)
	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	wb, err := store.Create(ctx, "data-000001.mcd")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "MANIFEST-000001")
	assert.Contains(t, names, "data-000001.mcd")

	require.NoError(t, store.Delete(ctx, "MANIFEST-000001"))
	require.NoError(t, store.Delete(ctx, "data-000001.mcd"))

	_, err = store.Open(ctx, "MANIFEST-000001")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
