package strata

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each InsertHistoric.
	// err is nil if the descriptor was accepted.
	RecordInsert(err error)

	// RecordRemove is called after each RemoveHistoric.
	// found is false when the layer was not in the inventory.
	RecordRemove(found bool)

	// RecordRebuild is called after each RebuildIndex that did work.
	// layers is the compiled layer count, duration the build time.
	RecordRebuild(layers int, duration time.Duration, err error)

	// RecordSearch is called after each point query.
	RecordSearch(duration time.Duration, hit bool)

	// RecordDifficultyMap is called after each aggregate query.
	// partitions is the size of the supplied partitioning.
	RecordDifficultyMap(partitions int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(error)                      {}
func (NoopMetricsCollector) RecordRemove(bool)                       {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(time.Duration, bool)        {}
func (NoopMetricsCollector) RecordDifficultyMap(int, time.Duration)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount          atomic.Int64
	InsertErrors         atomic.Int64
	RemoveCount          atomic.Int64
	RemoveMisses         atomic.Int64
	RebuildCount         atomic.Int64
	RebuildErrors        atomic.Int64
	RebuildTotalNanos    atomic.Int64
	SearchCount          atomic.Int64
	SearchMisses         atomic.Int64
	SearchTotalNanos     atomic.Int64
	DifficultyCount      atomic.Int64
	DifficultyPartSum    atomic.Int64
	DifficultyTotalNanos atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(found bool) {
	b.RemoveCount.Add(1)
	if !found {
		b.RemoveMisses.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(layers int, duration time.Duration, err error) {
	b.RebuildCount.Add(1)
	b.RebuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RebuildErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(duration time.Duration, hit bool) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if !hit {
		b.SearchMisses.Add(1)
	}
}

// RecordDifficultyMap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDifficultyMap(partitions int, duration time.Duration) {
	b.DifficultyCount.Add(1)
	b.DifficultyPartSum.Add(int64(partitions))
	b.DifficultyTotalNanos.Add(duration.Nanoseconds())
}
