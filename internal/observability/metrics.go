package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	gatewayCount map[string]int64
	outcomeCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		gatewayCount: make(map[string]int64),
		outcomeCount: make(map[string]int64),
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

// RecordGatewayCall counts an upstream call by operation and HTTP status.
// Transport failures are recorded with status 0.
func (m *Metrics) RecordGatewayCall(op string, status int) {
	if m == nil {
		return
	}
	key := op + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gatewayCount[key]++
}

// RecordOutcome counts a workflow outcome such as "load_failed".
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomeCount[outcome]++
}

// Snapshot copies every counter, keyed by "<family>|<key>".
func (m *Metrics) Snapshot() map[string]int64 {
	out := map[string]int64{}
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for family, counters := range map[string]map[string]int64{
		"request": m.requestCount,
		"error":   m.errorCount,
		"gateway": m.gatewayCount,
		"outcome": m.outcomeCount,
	} {
		for key, val := range counters {
			out[family+"|"+key] = val
		}
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
