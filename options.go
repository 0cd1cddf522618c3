package meshcache

import (
	"log/slog"

	"github.com/hupe1980/meshcache/archive"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/cache"
	"github.com/hupe1980/meshcache/codec"
	"github.com/hupe1980/meshcache/internal/resource"
)

// DefaultReadConcurrency is the number of channels a Reader loads in parallel.
const DefaultReadConcurrency = 4

type options struct {
	store            blobstore.BlobStore
	compression      archive.Compression
	codec            codec.Codec
	timeSampling     archive.TimeSampling
	readConcurrency  int
	chunkCache       cache.ChunkCache
	cacheBytes       int64
	ioLimit          int64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open, Create and CreateSingle.
type Option func(*options)

// WithBlobStore reads or writes the archive in store instead of the local
// directory named by the path argument. The path is then only used in
// diagnostics.
//
// Example with S3:
//
//	store := s3.NewStore(client, "my-bucket", "caches/shot010")
//	r, _ := meshcache.Open(ctx, "s3://my-bucket/caches/shot010", "xform", "mesh", decls,
//	    meshcache.WithBlobStore(store))
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCompression selects the chunk compression used by a Writer.
// Readers detect compression per chunk.
func WithCompression(c archive.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec configures the codec used for the archive manifest.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithTimeSampling sets the time sampling recorded by a Writer.
func WithTimeSampling(ts archive.TimeSampling) Option {
	return func(o *options) {
		o.timeSampling = ts
	}
}

// WithReadConcurrency bounds the number of channels a Reader loads in
// parallel on every reload. Values below 1 load channels sequentially.
func WithReadConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.readConcurrency = n
	}
}

// WithChunkCache overrides the decoded-chunk cache of a Reader.
func WithChunkCache(c cache.ChunkCache) Option {
	return func(o *options) {
		o.chunkCache = c
	}
}

// WithCacheBytes sets the size of the default decoded-chunk cache.
// Zero disables caching.
func WithCacheBytes(n int64) Option {
	return func(o *options) {
		o.cacheBytes = n
	}
}

// WithIOLimit throttles archive writes to bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &meshcache.BasicMetricsCollector{}
//	r, _ := meshcache.Open(ctx, path, "xform", "mesh", decls, meshcache.WithMetricsCollector(metrics))
//	// ... step through samples ...
//	stats := metrics.GetStats()
//	fmt.Printf("Reads: %d, Avg latency: %dns\n", stats.ReadCount, stats.ReadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      archive.CompressionLZ4,
		codec:            codec.Default,
		timeSampling:     archive.DefaultTimeSampling,
		readConcurrency:  DefaultReadConcurrency,
		cacheBytes:       archive.DefaultCacheBytes,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// resolveStore returns the configured store or a LocalStore rooted at path.
func (o *options) resolveStore(path string) blobstore.BlobStore {
	if o.store != nil {
		return o.store
	}
	return blobstore.NewLocalStore(path)
}

func (o *options) archiveOptions() []archive.Option {
	opts := []archive.Option{
		archive.WithCompression(o.compression),
		archive.WithCodec(o.codec),
		archive.WithTimeSampling(o.timeSampling),
		archive.WithCacheBytes(o.cacheBytes),
		archive.WithLogger(o.logger.Logger),
	}
	if o.chunkCache != nil {
		opts = append(opts, archive.WithChunkCache(o.chunkCache))
	}
	if o.ioLimit > 0 {
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: o.ioLimit})
		opts = append(opts, archive.WithResourceController(rc))
	}
	return opts
}
