package infra

import (
	"sync"
	"testing"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := &Metrics{}
	m.RecordCommand(100)
	m.RecordCommand(300)
	m.RecordListing()
	m.RecordSale()
	m.RecordRejection()
	m.IncrementSubscribers()
	m.IncrementSubscribers()
	m.DecrementSubscribers()

	snap := m.Snapshot()
	if snap.CommandsProcessed != 2 {
		t.Errorf("expected 2 commands, got %d", snap.CommandsProcessed)
	}
	if snap.AvgLatencyNs != 200 {
		t.Errorf("expected avg latency 200, got %d", snap.AvgLatencyNs)
	}
	if snap.ListingsCreated != 1 || snap.SalesSettled != 1 || snap.RejectionsTotal != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if snap.FeedSubscribers != 1 {
		t.Errorf("expected 1 subscriber, got %d", snap.FeedSubscribers)
	}
}

func TestMetrics_ConcurrentUpdates(t *testing.T) {
	m := &Metrics{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordCommand(int64(j))
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().CommandsProcessed; got != 1000 {
		t.Errorf("expected 1000 commands, got %d", got)
	}
}
