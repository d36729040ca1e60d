package observability

import (
	"maps"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	eventCount      map[string]int64
	requestDuration map[string]time.Duration
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Requests          map[string]int64 `json:"requests"`
	Errors            map[string]int64 `json:"errors"`
	Events            map[string]int64 `json:"events"`
	RequestDurationMS map[string]int64 `json:"request_duration_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		eventCount:      make(map[string]int64),
		requestDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvent counts applied and rejected filter events by type.
func (m *Metrics) RecordEvent(eventType string, accepted bool) {
	if m == nil {
		return
	}
	key := eventType + "|accepted"
	if !accepted {
		key = eventType + "|rejected"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[key]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	durations := make(map[string]int64, len(m.requestDuration))
	for k, d := range m.requestDuration {
		durations[k] = d.Milliseconds()
	}
	return MetricsSnapshot{
		Requests:          maps.Clone(m.requestCount),
		Errors:            maps.Clone(m.errorCount),
		Events:            maps.Clone(m.eventCount),
		RequestDurationMS: durations,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
