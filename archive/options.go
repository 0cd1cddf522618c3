package archive

import (
	"log/slog"

	"github.com/hupe1980/meshcache/cache"
	"github.com/hupe1980/meshcache/codec"
	"github.com/hupe1980/meshcache/internal/resource"
)

// DefaultCacheBytes is the default decoded-chunk cache size of a Reader.
const DefaultCacheBytes = 64 << 20

type options struct {
	compression  Compression
	codec        codec.Codec
	timeSampling TimeSampling
	application  string
	rc           *resource.Controller
	cache        cache.ChunkCache
	cacheBytes   int64
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		compression:  CompressionLZ4,
		codec:        codec.Default,
		timeSampling: DefaultTimeSampling,
		application:  "meshcache",
		cacheBytes:   DefaultCacheBytes,
		logger:       slog.New(slog.DiscardHandler),
	}
}

// Option configures a Writer or Reader.
type Option func(*options)

// WithCompression selects the chunk compression of a Writer.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithCodec selects the manifest codec of a Writer. Readers pick the codec
// recorded in the manifest.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithTimeSampling sets the archive's time sampling.
func WithTimeSampling(ts TimeSampling) Option {
	return func(o *options) {
		if ts.Step > 0 {
			o.timeSampling = ts
		}
	}
}

// WithApplication records the writing application in the manifest.
func WithApplication(name string) Option {
	return func(o *options) { o.application = name }
}

// WithResourceController throttles writes and accounts cache memory.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithChunkCache overrides the decoded-chunk cache of a Reader.
func WithChunkCache(c cache.ChunkCache) Option {
	return func(o *options) { o.cache = c }
}

// WithCacheBytes sets the size of the default chunk cache. Zero disables caching.
func WithCacheBytes(n int64) Option {
	return func(o *options) { o.cacheBytes = n }
}

// WithLogger sets the logger for storage-level diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
