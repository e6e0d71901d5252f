// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"sync"
	"time"
)

const LatencyBuckets = 101
const LatencyBucketSize = 50 * time.Millisecond

type Histogram struct {
	Buckets [LatencyBuckets]uint64 `json:"b2"`
	Count   uint64                 `json:"c"`
	Sum     float64                `json:"s"` // Sum of durations in milliseconds
}

func (h *Histogram) Add(d time.Duration) {
	ms := float64(d.Milliseconds())
	idx := int(d / LatencyBucketSize)
	if idx >= LatencyBuckets {
		idx = LatencyBuckets - 1
	}
	h.Buckets[idx]++
	h.Count++
	h.Sum += ms
}

func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	for i := 0; i < LatencyBuckets; i++ {
		h.Buckets[i] += other.Buckets[i]
	}
	h.Count += other.Count
	h.Sum += other.Sum
}

// --- Internal Storage (RRD) ---

// ResolutionConfig defines the policy for a single RRD bucket set.
type ResolutionConfig struct {
	Name       string        `json:"name"`
	Resolution time.Duration `json:"resolution"`
	Retention  time.Duration `json:"retention"`
	Buckets    int           `json:"buckets"`
}

var DefaultResolutions = []ResolutionConfig{
	{"1m", 1 * time.Minute, 2 * time.Hour, 120},
	{"5m", 5 * time.Minute, 6 * time.Hour, 72},
	{"15m", 15 * time.Minute, 24 * time.Hour, 96},
	{"1h", 1 * time.Hour, 31 * 24 * time.Hour, 744},
	{"1d", 24 * time.Hour, 183 * 24 * time.Hour, 183},
}

// Point represents a single data point in a time series.
type Point[T any] struct {
	Timestamp int64 `json:"t"`
	Value     T     `json:"v"`
}

// RingBuffer is a fixed-size circular buffer for storing time series data.
type RingBuffer[T any] struct {
	Config ResolutionConfig `json:"config"`
	Data   []Point[T]       `json:"data"`
	Head   int              `json:"head"` // Points to the *next* write position
}

func NewRingBuffer[T any](cfg ResolutionConfig) *RingBuffer[T] {
	return &RingBuffer[T]{
		Config: cfg,
		Data:   make([]Point[T], cfg.Buckets),
		Head:   0,
	}
}

// Add appends a point to the ring buffer.
func (rb *RingBuffer[T]) Add(timestamp int64, value T) {
	// Align timestamp to resolution
	resSec := int64(rb.Config.Resolution.Seconds())
	alignedTs := (timestamp / resSec) * resSec

	// Check if we just overwrote the last point (update in place) or if this is new
	prevIdx := (rb.Head - 1 + len(rb.Data)) % len(rb.Data)
	if rb.Data[prevIdx].Timestamp == alignedTs {
		rb.Data[prevIdx].Value = value
		return
	}

	rb.Data[rb.Head] = Point[T]{Timestamp: alignedTs, Value: value}
	rb.Head = (rb.Head + 1) % len(rb.Data)
}

// GetPoints returns the data points sorted by time.
func (rb *RingBuffer[T]) GetPoints() []Point[T] {
	points := make([]Point[T], 0, len(rb.Data))
	for i := 0; i < len(rb.Data); i++ {
		idx := (rb.Head + i) % len(rb.Data)
		if rb.Data[idx].Timestamp > 0 {
			points = append(points, rb.Data[idx])
		}
	}
	return points
}

// MetricSeries holds all resolutions for a specific metric.
type MetricSeries struct {
	Name            string                          `json:"name"`
	AggregationType string                          `json:"aggType"` // "Avg" or "Sum"
	Buffers         map[string]*RingBuffer[float64] `json:"buffers"`
}

func NewMetricSeries(name string, aggType string) *MetricSeries {
	if aggType == "" {
		aggType = "Avg"
	}
	buffers := make(map[string]*RingBuffer[float64])
	for _, cfg := range DefaultResolutions {
		buffers[cfg.Name] = NewRingBuffer[float64](cfg)
	}
	return &MetricSeries{
		Name:            name,
		AggregationType: aggType,
		Buffers:         buffers,
	}
}

func (ms *MetricSeries) Ingest(timestamp int64, value float64) {
	for _, cfg := range DefaultResolutions {
		buf, ok := ms.Buffers[cfg.Name]
		if !ok {
			continue
		}
		resSec := int64(cfg.Resolution.Seconds())
		alignedTs := (timestamp / resSec) * resSec
		prevIdx := (buf.Head - 1 + len(buf.Data)) % len(buf.Data)

		if buf.Data[prevIdx].Timestamp == alignedTs {
			if ms.AggregationType == "Sum" {
				buf.Data[prevIdx].Value += value
			} else if cfg.Name == "1m" {
				buf.Data[prevIdx].Value = value
			} else {
				// Running Average
				offset := timestamp - alignedTs
				n := (offset / 60) + 1
				oldAvg := buf.Data[prevIdx].Value
				buf.Data[prevIdx].Value = ((oldAvg * float64(n-1)) + value) / float64(n)
			}
		} else {
			buf.Add(timestamp, value)
		}
	}
}

// HistogramSeries holds all resolutions for a histogram metric.
type HistogramSeries struct {
	Name    string                            `json:"name"`
	Buffers map[string]*RingBuffer[Histogram] `json:"buffers"`
}

func NewHistogramSeries(name string) *HistogramSeries {
	buffers := make(map[string]*RingBuffer[Histogram])
	for _, cfg := range DefaultResolutions {
		buffers[cfg.Name] = NewRingBuffer[Histogram](cfg)
	}
	return &HistogramSeries{
		Name:    name,
		Buffers: buffers,
	}
}

func (hs *HistogramSeries) Ingest(timestamp int64, h *Histogram) {
	if h == nil {
		return
	}
	for _, cfg := range DefaultResolutions {
		buf, ok := hs.Buffers[cfg.Name]
		if !ok {
			continue
		}
		resSec := int64(cfg.Resolution.Seconds())
		alignedTs := (timestamp / resSec) * resSec
		prevIdx := (buf.Head - 1 + len(buf.Data)) % len(buf.Data)

		if buf.Data[prevIdx].Timestamp == alignedTs {
			// Merge into existing bucket
			buf.Data[prevIdx].Value.Merge(h)
		} else {
			buf.Add(timestamp, *h)
		}
	}
}

// Metrics tracks server activity: request rate, at-bat recording
// latency and rule-violation counts. It is process-local and not
// persisted.
type Metrics struct {
	mu sync.Mutex

	requests       *MetricSeries
	atBatLatency   *HistogramSeries
	atBatsRecorded *MetricSeries
	ruleViolations *MetricSeries
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		requests:       NewMetricSeries("requests", "Sum"),
		atBatLatency:   NewHistogramSeries("atbat_latency"),
		atBatsRecorded: NewMetricSeries("atbats_recorded", "Sum"),
		ruleViolations: NewMetricSeries("rule_violations", "Sum"),
	}
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests.Ingest(time.Now().Unix(), 1)
}

// RecordAtBat records the latency of one successfully recorded at-bat.
func (m *Metrics) RecordAtBat(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	m.atBatsRecorded.Ingest(now, 1)
	var h Histogram
	h.Add(d)
	m.atBatLatency.Ingest(now, &h)
}

// RecordRuleViolation counts one rejected play.
func (m *Metrics) RecordRuleViolation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleViolations.Ingest(time.Now().Unix(), 1)
}

// ToJSON renders the collector for the metrics endpoint.
func (m *Metrics) ToJSON() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	series := func(ms *MetricSeries) map[string]interface{} {
		out := make(map[string]interface{})
		for name, buf := range ms.Buffers {
			out[name] = buf.GetPoints()
		}
		return out
	}
	latency := make(map[string]interface{})
	for name, buf := range m.atBatLatency.Buffers {
		latency[name] = buf.GetPoints()
	}

	return map[string]interface{}{
		"timestamp":      time.Now().Unix(),
		"requests":       series(m.requests),
		"atbatsRecorded": series(m.atBatsRecorded),
		"ruleViolations": series(m.ruleViolations),
		"atbatLatency":   latency,
	}
}
