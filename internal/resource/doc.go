// Package resource bounds the memory and IO an archive handle may consume.
//
// The Controller provides two limits:
//
//   - Memory: a fail-fast budget shared by decoded-chunk caches. TryAcquireMemory
//     never blocks; a cache that cannot get memory simply does not cache.
//   - IO: a token bucket (golang.org/x/time/rate) that throttles archive
//     writes so a long transcode does not saturate a shared disk or link.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   256 << 20,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// All methods are safe for concurrent use, and a nil *Controller is valid:
// every method becomes a no-op.
package resource
