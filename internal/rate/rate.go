// Package rate measures frame delivery rate over a sliding window of
// timestamps.
package rate

import (
	"math"
	"sync"
	"time"
)

const (
	// stabilityThreshold is the maximum FPS standard deviation, as a fraction
	// of the mean, for a stream to count as stable.
	stabilityThreshold = 0.15

	// jitterThreshold is the maximum mean jitter, as a fraction of the
	// expected inter-frame interval.
	jitterThreshold = 0.20

	// DefaultWindow is the number of timestamps a Meter keeps.
	DefaultWindow = 120
)

// Stats summarizes the frame times in a window.
type Stats struct {
	Frames     int
	Span       time.Duration
	FPSMean    float64
	FPSStdDev  float64
	FPSMin     float64
	FPSMax     float64
	JitterMean float64 // seconds
	IsStable   bool
}

// Compute derives rate statistics from ordered frame times.
//
// The mean rate is intervals over span, so two frames 100ms apart give 10 FPS.
// Fewer than two frames yield zero stats.
func Compute(times []time.Time) Stats {
	n := len(times)
	if n < 2 {
		return Stats{Frames: n}
	}

	span := times[n-1].Sub(times[0])
	st := Stats{Frames: n, Span: span}
	if span <= 0 {
		return st
	}
	st.FPSMean = float64(n-1) / span.Seconds()

	instant := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if d := times[i].Sub(times[i-1]).Seconds(); d > 0 {
			instant = append(instant, 1/d)
		}
	}
	if len(instant) == 0 {
		return st
	}

	st.FPSMin, st.FPSMax = instant[0], instant[0]
	var sq float64
	for _, fps := range instant {
		st.FPSMin = math.Min(st.FPSMin, fps)
		st.FPSMax = math.Max(st.FPSMax, fps)
		diff := fps - st.FPSMean
		sq += diff * diff
	}
	st.FPSStdDev = math.Sqrt(sq / float64(len(instant)))

	expected := 1 / st.FPSMean
	var jitter float64
	for i := 1; i < n; i++ {
		jitter += math.Abs(times[i].Sub(times[i-1]).Seconds() - expected)
	}
	st.JitterMean = jitter / float64(n-1)

	st.IsStable = st.FPSStdDev < st.FPSMean*stabilityThreshold &&
		st.JitterMean < expected*jitterThreshold
	return st
}

// Meter records frame times in a ring buffer. Safe for concurrent use.
type Meter struct {
	mu    sync.Mutex
	ring  []time.Time
	next  int
	full  bool
	total uint64
}

// NewMeter returns a meter keeping the last window timestamps.
func NewMeter(window int) *Meter {
	if window < 2 {
		window = DefaultWindow
	}
	return &Meter{ring: make([]time.Time, window)}
}

// Mark records one frame at t.
func (m *Meter) Mark(t time.Time) {
	m.mu.Lock()
	m.ring[m.next] = t
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	m.total++
	m.mu.Unlock()
}

// Total returns how many frames were ever marked.
func (m *Meter) Total() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Snapshot computes stats over the window.
func (m *Meter) Snapshot() Stats {
	m.mu.Lock()
	var times []time.Time
	if m.full {
		times = make([]time.Time, 0, len(m.ring))
		times = append(times, m.ring[m.next:]...)
		times = append(times, m.ring[:m.next]...)
	} else {
		times = append([]time.Time(nil), m.ring[:m.next]...)
	}
	m.mu.Unlock()

	return Compute(times)
}

// Reset forgets every recorded frame.
func (m *Meter) Reset() {
	m.mu.Lock()
	clear(m.ring)
	m.next, m.full, m.total = 0, false, 0
	m.mu.Unlock()
}
