package metrics

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	dispatches    int64
	forwarded     int64
	unavailable   int64
	attemptsTotal int64
	probes        map[string]int64
	healthStatus  map[string]bool
	attempts      map[string]int64
	failures      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests      int64                     `json:"total_requests"`
	Forwarded          int64                     `json:"forwarded"`
	Unavailable        int64                     `json:"unavailable"`
	AttemptsPerRequest float64                   `json:"attempts_per_request"`
	Uptime             time.Duration             `json:"uptime"`
	Backends           map[string]BackendMetrics `json:"backends"`
	Algorithm          string                    `json:"algorithm"`
}

type BackendMetrics struct {
	Probes      int64         `json:"probes"`
	Healthy     bool          `json:"healthy"`
	Attempts    int64         `json:"attempts"`
	Failures    int64         `json:"failures"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) RecordProbe(backend string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.probes[backend]++
	m.healthStatus[backend] = healthy
}

// RecordAttempt records one forward attempt. A zero statusCode means the
// attempt never got a response.
func (m *Metrics) RecordAttempt(backend string, duration time.Duration, statusCode int, failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.attempts[backend]++
	if failed {
		m.failures[backend]++
	}

	m.responseTimes[backend] = append(m.responseTimes[backend], duration)

	if len(m.responseTimes[backend]) > 1000 {
		m.responseTimes[backend] = m.responseTimes[backend][1:]
	}

	if statusCode == 0 {
		return
	}

	if m.statusCodes[backend] == nil {
		m.statusCodes[backend] = make(map[int]int64)
	}
	m.statusCodes[backend][statusCode]++
}

func (m *Metrics) RecordDispatch(statusCode int, attempts int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.dispatches++
	m.attemptsTotal += int64(attempts)
	if statusCode == http.StatusOK {
		m.forwarded++
	} else {
		m.unavailable++
	}
}

func (m *Metrics) Snapshot(algorithm string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests: m.dispatches,
		Forwarded:     m.forwarded,
		Unavailable:   m.unavailable,
		Uptime:        time.Since(m.startTime),
		Backends:      make(map[string]BackendMetrics),
		Algorithm:     algorithm,
	}

	if m.dispatches > 0 {
		snap.AttemptsPerRequest = float64(m.attemptsTotal) / float64(m.dispatches)
	}

	// Collect all unique backend URLs
	allBackends := make(map[string]bool)
	for backend := range m.probes {
		allBackends[backend] = true
	}
	for backend := range m.attempts {
		allBackends[backend] = true
	}

	for backend := range allBackends {
		bm := BackendMetrics{
			Probes:      m.probes[backend],
			Healthy:     m.healthStatus[backend],
			Attempts:    m.attempts[backend],
			Failures:    m.failures[backend],
			StatusCodes: copyCodes(m.statusCodes[backend]),
		}

		durations := m.responseTimes[backend]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			bm.AvgResponse = average(sorted)
			bm.P50Response = percentile(sorted, 0.50)
			bm.P95Response = percentile(sorted, 0.95)
			bm.P99Response = percentile(sorted, 0.99)
		}

		snap.Backends[backend] = bm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:        make(map[string]int64),
		healthStatus:  make(map[string]bool),
		attempts:      make(map[string]int64),
		failures:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		startTime:     time.Now(),
	}
}

func copyCodes(codes map[int]int64) map[int]int64 {
	if codes == nil {
		return nil
	}

	cp := make(map[int]int64, len(codes))
	for code, n := range codes {
		cp[code] = n
	}
	return cp
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
