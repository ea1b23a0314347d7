package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Gauge struct {
	opts Opts
	bits atomic.Uint64
}

func NewGauge(opts Opts) *Gauge {
	return &Gauge{opts: opts}
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

func (g *Gauge) options() Opts { return g.opts }
func (g *Gauge) kind() string  { return "gauge" }
func (g *Gauge) samples() []sample {
	return []sample{{value: g.Value()}}
}

// GaugeFunc reports whatever fn returns at scrape time.
type GaugeFunc struct {
	opts Opts
	fn   func() float64
}

func NewGaugeFunc(opts Opts, fn func() float64) *GaugeFunc {
	return &GaugeFunc{opts: opts, fn: fn}
}

func (g *GaugeFunc) options() Opts { return g.opts }
func (g *GaugeFunc) kind() string  { return "gauge" }
func (g *GaugeFunc) samples() []sample {
	if g.fn == nil {
		return []sample{{}}
	}
	return []sample{{value: g.fn()}}
}

// series keeps one value per label combination. Label values with the
// wrong arity are dropped.
type series[V any] struct {
	names []string
	mu    sync.Mutex
	byKey map[string]*V
	vals  map[string][]string
}

func newSeries[V any](names []string) series[V] {
	return series[V]{
		names: append([]string(nil), names...),
		byKey: make(map[string]*V),
		vals:  make(map[string][]string),
	}
}

func (s *series[V]) with(values []string, init func() *V, fn func(*V)) {
	if len(values) != len(s.names) {
		return
	}
	key := strings.Join(values, "\xff")
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byKey[key]
	if !ok {
		v = init()
		s.byKey[key] = v
		s.vals[key] = append([]string(nil), values...)
	}
	fn(v)
}

func (s *series[V]) each(fn func(labels []string, v V)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		labels := make([]string, 0, 2*len(s.names))
		for i, name := range s.names {
			labels = append(labels, name, s.vals[k][i])
		}
		fn(labels, *s.byKey[k])
	}
}

func (s *series[V]) get(values []string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byKey[strings.Join(values, "\xff")]
	if !ok {
		var zero V
		return zero, false
	}
	return *v, true
}

type CounterVec struct {
	opts   Opts
	series series[float64]
}

func NewCounterVec(opts Opts, labelNames []string) *CounterVec {
	return &CounterVec{opts: opts, series: newSeries[float64](labelNames)}
}

func (c *CounterVec) WithLabelValues(values ...string) *Counter {
	return &Counter{parent: c, values: values}
}

// Value reports the current count for labelValues.
func (c *CounterVec) Value(labelValues ...string) float64 {
	v, _ := c.series.get(labelValues)
	return v
}

func (c *CounterVec) options() Opts { return c.opts }
func (c *CounterVec) kind() string  { return "counter" }
func (c *CounterVec) samples() []sample {
	var out []sample
	c.series.each(func(labels []string, v float64) {
		out = append(out, sample{labels: labels, value: v})
	})
	return out
}

type Counter struct {
	parent *CounterVec
	values []string
}

// Add ignores negative deltas; counters only go up.
func (c *Counter) Add(v float64) {
	if c == nil || c.parent == nil || v < 0 {
		return
	}
	c.parent.series.with(c.values, func() *float64 { return new(float64) }, func(total *float64) { *total += v })
}

func (c *Counter) Inc() { c.Add(1) }

// DefaultBuckets suit message handling latencies, in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

type histogram struct {
	counts []uint64
	count  uint64
	sum    float64
}

type HistogramVec struct {
	opts    Opts
	buckets []float64
	series  series[histogram]
}

func NewHistogramVec(opts Opts, buckets []float64, labelNames []string) *HistogramVec {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	return &HistogramVec{opts: opts, buckets: b, series: newSeries[histogram](labelNames)}
}

func (h *HistogramVec) WithLabelValues(values ...string) *Observer {
	return &Observer{parent: h, values: values}
}

// Count reports how many observations were made for labelValues.
func (h *HistogramVec) Count(labelValues ...string) uint64 {
	v, _ := h.series.get(labelValues)
	return v.count
}

func (h *HistogramVec) options() Opts { return h.opts }
func (h *HistogramVec) kind() string  { return "histogram" }
func (h *HistogramVec) samples() []sample {
	var out []sample
	h.series.each(func(labels []string, v histogram) {
		var cumulative uint64
		for i, upper := range h.buckets {
			cumulative += v.counts[i]
			out = append(out, sample{suffix: "_bucket", labels: append(labels[:len(labels):len(labels)], "le", formatFloat(upper)), value: float64(cumulative)})
		}
		out = append(out,
			sample{suffix: "_bucket", labels: append(labels[:len(labels):len(labels)], "le", "+Inf"), value: float64(v.count)},
			sample{suffix: "_sum", labels: labels, value: v.sum},
			sample{suffix: "_count", labels: labels, value: float64(v.count)},
		)
	})
	return out
}

type Observer struct {
	parent *HistogramVec
	values []string
}

func (o *Observer) Observe(v float64) {
	if o == nil || o.parent == nil {
		return
	}
	buckets := o.parent.buckets
	o.parent.series.with(o.values, func() *histogram {
		return &histogram{counts: make([]uint64, len(buckets))}
	}, func(h *histogram) {
		if i := sort.SearchFloat64s(buckets, v); i < len(buckets) {
			h.counts[i]++
		}
		h.count++
		h.sum += v
	})
}

func (o *Observer) ObserveSince(start time.Time) {
	o.Observe(time.Since(start).Seconds())
}
