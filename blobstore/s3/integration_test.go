package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	store := NewStore(s3.NewFromConfig(cfg), bucket, fmt.Sprintf("test-meshcache-%d", time.Now().UnixNano()))

	data := make([]byte, 1024*1024)
	_, _ = rand.Read(data)

	w, err := store.Create(ctx, "data-000001.mcd")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "data-000001.mcd")

	b, err := store.Open(ctx, "data-000001.mcd")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 100)
	_, err = b.ReadAt(ctx, buf, 1024)
	require.NoError(t, err)
	assert.Equal(t, data[1024:1124], buf)
	require.NoError(t, b.Close())

	require.NoError(t, store.Delete(ctx, "data-000001.mcd"))

	_, err = store.Open(ctx, "nonexistent")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
