package geobridge

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordGeometryCommit is called after each geometry commit.
	// sizeWords is the segment size, err is nil if successful.
	RecordGeometryCommit(sizeWords int, duration time.Duration, err error)

	// RecordVolumeCommit is called after each full or partial volume commit.
	RecordVolumeCommit(sizeWords int, partial bool, duration time.Duration, err error)

	// RecordLayerSync is called after each raster layer sync.
	// cells is the number of host cells written.
	RecordLayerSync(cells int, partial bool, duration time.Duration, err error)

	// RecordAttributeRead is called after each attribute read-back.
	RecordAttributeRead(count int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGeometryCommit(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordVolumeCommit(int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordLayerSync(int, bool, time.Duration, error)    {}
func (NoopMetricsCollector) RecordAttributeRead(int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	GeometryCommits    atomic.Int64
	GeometryErrors     atomic.Int64
	GeometryWords      atomic.Int64
	GeometryTotalNanos atomic.Int64
	VolumeCommits      atomic.Int64
	VolumePartials     atomic.Int64
	VolumeErrors       atomic.Int64
	VolumeWords        atomic.Int64
	LayerSyncs         atomic.Int64
	LayerPartials      atomic.Int64
	LayerErrors        atomic.Int64
	LayerCells         atomic.Int64
	LayerTotalNanos    atomic.Int64
	AttributeReads     atomic.Int64
	AttributeErrors    atomic.Int64
	AttributesRead     atomic.Int64
}

// RecordGeometryCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGeometryCommit(sizeWords int, duration time.Duration, err error) {
	b.GeometryCommits.Add(1)
	b.GeometryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GeometryErrors.Add(1)
		return
	}
	b.GeometryWords.Add(int64(sizeWords))
}

// RecordVolumeCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVolumeCommit(sizeWords int, partial bool, _ time.Duration, err error) {
	b.VolumeCommits.Add(1)
	if partial {
		b.VolumePartials.Add(1)
	}
	if err != nil {
		b.VolumeErrors.Add(1)
		return
	}
	b.VolumeWords.Add(int64(sizeWords))
}

// RecordLayerSync implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLayerSync(cells int, partial bool, duration time.Duration, err error) {
	b.LayerSyncs.Add(1)
	b.LayerTotalNanos.Add(duration.Nanoseconds())
	if partial {
		b.LayerPartials.Add(1)
	}
	if err != nil {
		b.LayerErrors.Add(1)
		return
	}
	b.LayerCells.Add(int64(cells))
}

// RecordAttributeRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAttributeRead(count int, _ time.Duration, err error) {
	b.AttributeReads.Add(1)
	if err != nil {
		b.AttributeErrors.Add(1)
		return
	}
	b.AttributesRead.Add(int64(count))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GeometryCommits:  b.GeometryCommits.Load(),
		GeometryErrors:   b.GeometryErrors.Load(),
		GeometryWords:    b.GeometryWords.Load(),
		GeometryAvgNanos: avg(b.GeometryTotalNanos.Load(), b.GeometryCommits.Load()),
		VolumeCommits:    b.VolumeCommits.Load(),
		VolumePartials:   b.VolumePartials.Load(),
		VolumeErrors:     b.VolumeErrors.Load(),
		VolumeWords:      b.VolumeWords.Load(),
		LayerSyncs:       b.LayerSyncs.Load(),
		LayerPartials:    b.LayerPartials.Load(),
		LayerErrors:      b.LayerErrors.Load(),
		LayerCells:       b.LayerCells.Load(),
		LayerAvgNanos:    avg(b.LayerTotalNanos.Load(), b.LayerSyncs.Load()),
		AttributeReads:   b.AttributeReads.Load(),
		AttributeErrors:  b.AttributeErrors.Load(),
		AttributesRead:   b.AttributesRead.Load(),
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
	GeometryCommits  int64
	GeometryErrors   int64
	GeometryWords    int64
	GeometryAvgNanos int64
	VolumeCommits    int64
	VolumePartials   int64
	VolumeErrors     int64
	VolumeWords      int64
	LayerSyncs       int64
	LayerPartials    int64
	LayerErrors      int64
	LayerCells       int64
	LayerAvgNanos    int64
	AttributeReads   int64
	AttributeErrors  int64
	AttributesRead   int64
}
