package observability

import (
	"strconv"
	"sync"
	"time"
)

type requestStats struct {
	count        int64
	totalLatency time.Duration
}

// Metrics keeps in-memory request and error counters per route.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]*requestStats
	errors   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*requestStats),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts a completed request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.requests[key]
	if !ok {
		stats = &requestStats{}
		m.requests[key] = stats
	}
	stats.count++
	stats.totalLatency += duration
}

// RecordError counts a request that ended in an error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[path+"|"+method+"|"+code]++
}

// RouteStat is one row of a metrics snapshot.
type RouteStat struct {
	Key        string        `json:"key"`
	Count      int64         `json:"count"`
	AvgLatency time.Duration `json:"avgLatency"`
}

// Snapshot returns a copy of the request counters for the stats endpoint.
func (m *Metrics) Snapshot() []RouteStat {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]RouteStat, 0, len(m.requests))
	for key, stats := range m.requests {
		avg := time.Duration(0)
		if stats.count > 0 {
			avg = stats.totalLatency / time.Duration(stats.count)
		}
		result = append(result, RouteStat{Key: key, Count: stats.count, AvgLatency: avg})
	}
	return result
}
