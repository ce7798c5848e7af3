package vecmesh

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of results requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordMaintenance is called after each maintenance tick.
	// shards is the number of shards swept, pruned the number of items
	// dropped across all shards.
	RecordMaintenance(shards, pruned int, duration time.Duration)

	// RecordCompression is called when a shard is compressed.
	// ratio is the achieved before/after serialized size ratio.
	RecordCompression(ratio float64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)         {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordMaintenance(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordCompression(float64)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	MaintenanceCount  atomic.Int64
	PrunedItems       atomic.Int64
	CompressionCount  atomic.Int64
	CompressionRatioM atomic.Int64 // sum of ratios in millis, for averaging
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordMaintenance implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaintenance(shards, pruned int, duration time.Duration) {
	b.MaintenanceCount.Add(1)
	b.PrunedItems.Add(int64(pruned))
}

// RecordCompression implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompression(ratio float64) {
	b.CompressionCount.Add(1)
	b.CompressionRatioM.Add(int64(ratio * 1000))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		InsertAvgNanos:   avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchAvgNanos:   avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		MaintenanceCount: b.MaintenanceCount.Load(),
		PrunedItems:      b.PrunedItems.Load(),
		CompressionCount: b.CompressionCount.Load(),
		AvgCompression:   float64(avg(b.CompressionRatioM.Load(), b.CompressionCount.Load())) / 1000,
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
	InsertCount      int64
	InsertErrors     int64
	InsertAvgNanos   int64
	SearchCount      int64
	SearchErrors     int64
	SearchAvgNanos   int64
	MaintenanceCount int64
	PrunedItems      int64
	CompressionCount int64
	AvgCompression   float64
}
