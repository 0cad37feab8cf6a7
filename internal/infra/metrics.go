package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	commandsProcessed atomic.Uint64
	listingsCreated   atomic.Uint64
	salesSettled      atomic.Uint64
	rejectionsTotal   atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	feedSubscribers atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCommand records one processed command with its latency.
func (m *Metrics) RecordCommand(latencyNs int64) {
	m.commandsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRejection records a rejected command.
func (m *Metrics) RecordRejection() {
	m.rejectionsTotal.Add(1)
}

// RecordListing records a committed listing.
func (m *Metrics) RecordListing() {
	m.listingsCreated.Add(1)
}

// RecordSale records a committed sale or rental settlement.
func (m *Metrics) RecordSale() {
	m.salesSettled.Add(1)
}

// IncrementSubscribers increments the feed subscriber gauge.
func (m *Metrics) IncrementSubscribers() {
	m.feedSubscribers.Add(1)
}

// DecrementSubscribers decrements the feed subscriber gauge.
func (m *Metrics) DecrementSubscribers() {
	m.feedSubscribers.Add(-1)
}

// Snapshot returns current values for reporting.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CommandsProcessed: m.commandsProcessed.Load(),
		ListingsCreated:   m.listingsCreated.Load(),
		SalesSettled:      m.salesSettled.Load(),
		RejectionsTotal:   m.rejectionsTotal.Load(),
		FeedSubscribers:   m.feedSubscribers.Load(),
	}
	if count := m.latencyCount.Load(); count > 0 {
		snap.AvgLatencyNs = m.latencySumNs.Load() / int64(count)
	}
	return snap
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CommandsProcessed uint64 `json:"commands_processed"`
	ListingsCreated   uint64 `json:"listings_created"`
	SalesSettled      uint64 `json:"sales_settled"`
	RejectionsTotal   uint64 `json:"rejections_total"`
	AvgLatencyNs      int64  `json:"avg_latency_ns"`
	FeedSubscribers   int32  `json:"feed_subscribers"`
}
