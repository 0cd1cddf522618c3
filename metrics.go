package meshcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus (see package metrics/prometheus).
type MetricsCollector interface {
	// RecordOpen is called after opening an archive. mode is "read" or "write".
	RecordOpen(mode string, duration time.Duration, err error)

	// RecordRead is called after each cursor reload.
	RecordRead(duration time.Duration, err error)

	// RecordAppend is called after each mesh sample append. full reports
	// whether normals and attributes were written.
	RecordAppend(full bool, duration time.Duration, err error)

	// RecordTransform is called after each transform sample append.
	RecordTransform(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(time.Duration, error)         {}
func (NoopMetricsCollector) RecordAppend(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordTransform(time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	AppendCount     atomic.Int64
	FullAppends     atomic.Int64
	AppendErrors    atomic.Int64
	AppendNanos     atomic.Int64
	TransformCount  atomic.Int64
	TransformErrors atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ string, _ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(full bool, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendNanos.Add(duration.Nanoseconds())
	if full {
		b.FullAppends.Add(1)
	}
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(_ time.Duration, err error) {
	b.TransformCount.Add(1)
	if err != nil {
		b.TransformErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:       b.OpenCount.Load(),
		OpenErrors:      b.OpenErrors.Load(),
		ReadCount:       b.ReadCount.Load(),
		ReadErrors:      b.ReadErrors.Load(),
		ReadAvgNanos:    avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		AppendCount:     b.AppendCount.Load(),
		FullAppends:     b.FullAppends.Load(),
		AppendErrors:    b.AppendErrors.Load(),
		AppendAvgNanos:  avg(b.AppendNanos.Load(), b.AppendCount.Load()),
		TransformCount:  b.TransformCount.Load(),
		TransformErrors: b.TransformErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount       int64
	OpenErrors      int64
	ReadCount       int64
	ReadErrors      int64
	ReadAvgNanos    int64
	AppendCount     int64
	FullAppends     int64
	AppendErrors    int64
	AppendAvgNanos  int64
	TransformCount  int64
	TransformErrors int64
}
