package voice

import (
	"sync"
	"time"
)

// historySize is how many turns the collector keeps for averaging.
const historySize = 100

// Metrics records the latency of each state of a single turn.
type Metrics struct {
	RequestID string
	Started   time.Time

	// Per-state latencies
	Receive    time.Duration
	Transcribe time.Duration
	Generate   time.Duration
	Synthesize time.Duration
	Total      time.Duration

	// Outcome
	State       State // COMPLETE or FAILED
	FailedStage State

	// Sizes
	AudioBytesIn  int
	AudioBytesOut int
}

func (m *Metrics) set(st State, d time.Duration) {
	switch st {
	case StateReceive:
		m.Receive = d
	case StateTranscribe:
		m.Transcribe = d
	case StateGenerate:
		m.Generate = d
	case StateSynthesize:
		m.Synthesize = d
	}
}

// MetricsCollector keeps recent turns. It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	last    Metrics
	history []Metrics
	failed  int

	onUpdate func(Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]Metrics, 0, historySize),
	}
}

// OnUpdate sets a callback that fires for every recorded turn.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Record archives a finished turn.
func (m *MetricsCollector) Record(turn Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = turn
	if turn.State == StateFailed {
		m.failed++
	}
	m.history = append(m.history, turn)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}

	if m.onUpdate != nil {
		go m.onUpdate(turn)
	}
}

// Last returns the most recent turn.
func (m *MetricsCollector) Last() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Failed returns how many recorded turns failed.
func (m *MetricsCollector) Failed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// Average returns average latencies over recent completed turns.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg Metrics
	var n time.Duration
	for _, h := range m.history {
		if h.State != StateComplete {
			continue
		}
		avg.Receive += h.Receive
		avg.Transcribe += h.Transcribe
		avg.Generate += h.Generate
		avg.Synthesize += h.Synthesize
		avg.Total += h.Total
		n++
	}
	if n == 0 {
		return Metrics{}
	}

	avg.Receive /= n
	avg.Transcribe /= n
	avg.Generate /= n
	avg.Synthesize /= n
	avg.Total /= n
	return avg
}

// FormatLatency returns a formatted string of the turn's latencies.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.Transcribe) + " STT | " +
		formatDuration(m.Generate) + " LLM | " +
		formatDuration(m.Synthesize) + " TTS | " +
		formatDuration(m.Total) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
