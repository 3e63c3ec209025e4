// Package metrics is a small Prometheus-compatible metrics registry. It
// supports counters, gauges and histograms with labels baked into the metric
// name, and renders them in the Prometheus text exposition format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are the default histogram buckets (in seconds). Local VIN
// decoding is sub-millisecond; remote enrichment lands in the upper buckets.
var DefaultBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Counter is a monotonically increasing counter.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge can go up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)   { g.val.Store(n) }
func (g *Gauge) Inc()          { g.val.Add(1) }
func (g *Gauge) Dec()          { g.val.Add(-1) }
func (g *Gauge) Value() int64  { return g.val.Load() }

// Histogram tracks the distribution of observed values using fixed buckets.
type Histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64 // per bucket, not cumulative
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *Histogram {
	b := make([]float64, len(buckets))
	copy(b, buckets)
	sort.Float64s(b)
	return &Histogram{buckets: b, counts: make([]uint64, len(b))}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if i := sort.SearchFloat64s(h.buckets, v); i < len(h.buckets) {
		h.counts[i]++
	}
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) {
	h.Observe(time.Since(t).Seconds())
}

func (h *Histogram) snapshot() ([]float64, []uint64, float64, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := make([]uint64, len(h.counts))
	copy(c, h.counts)
	return h.buckets, c, h.sum, h.count
}

const (
	typeCounter   = "counter"
	typeGauge     = "gauge"
	typeHistogram = "histogram"
)

// family groups every labelled series sharing a base name.
type family struct {
	typ    string
	help   string
	series map[string]any
}

// Registry holds named metrics.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*family
	order    []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

// lookup returns the series for name, creating it with mk if needed. A name
// reused with a different metric type panics.
func (r *Registry) lookup(name, typ, help string, mk func() any) any {
	base := metricBaseName(name)

	r.mu.RLock()
	if f, ok := r.families[base]; ok && f.typ == typ {
		if s, ok := f.series[name]; ok {
			r.mu.RUnlock()
			return s
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.families[base]
	if !ok {
		f = &family{typ: typ, series: make(map[string]any)}
		r.families[base] = f
		r.order = append(r.order, base)
	}
	if f.typ != typ {
		panic(fmt.Sprintf("metrics: %s registered as %s, requested as %s", base, f.typ, typ))
	}
	if help != "" && f.help == "" {
		f.help = help
	}
	s, ok := f.series[name]
	if !ok {
		s = mk()
		f.series[name] = s
	}
	return s
}

// Counter returns (or creates) a counter. name may carry labels, see
// WithLabels; each label combination is its own series.
func (r *Registry) Counter(name, help string) *Counter {
	return r.lookup(name, typeCounter, help, func() any { return &Counter{} }).(*Counter)
}

// Gauge returns (or creates) a gauge.
func (r *Registry) Gauge(name, help string) *Gauge {
	return r.lookup(name, typeGauge, help, func() any { return &Gauge{} }).(*Gauge)
}

// Histogram returns (or creates) a histogram. nil buckets means
// DefaultBuckets. Buckets are fixed by the first call for a given name.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	return r.lookup(name, typeHistogram, help, func() any { return newHistogram(buckets) }).(*Histogram)
}

// WithLabels returns a metric name with labels appended, e.g.
// WithLabels("foo", "k", "v") => `foo{k="v"}`. An odd number of kvs returns
// name unchanged.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i := 0; i < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(kvs[i])
		b.WriteString(`="`)
		b.WriteString(labelEscaper.Replace(kvs[i+1]))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func metricBaseName(name string) string {
	if idx := strings.IndexByte(name, '{'); idx != -1 {
		return name[:idx]
	}
	return name
}

// labelsOf returns the inner label text of `foo{k="v"}`, i.e. `k="v"`.
func labelsOf(name string) string {
	idx := strings.IndexByte(name, '{')
	if idx == -1 {
		return ""
	}
	return strings.TrimSuffix(name[idx+1:], "}")
}

func joinLabels(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}
	return "{" + strings.Join(nonEmpty, ",") + "}"
}

// Render returns the Prometheus text exposition format output.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, base := range r.order {
		f := r.families[base]
		if f.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, f.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, f.typ)

		names := make([]string, 0, len(f.series))
		for n := range f.series {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, n := range names {
			switch s := f.series[n].(type) {
			case *Counter:
				fmt.Fprintf(&b, "%s %d\n", n, s.Value())
			case *Gauge:
				fmt.Fprintf(&b, "%s %d\n", n, s.Value())
			case *Histogram:
				buckets, counts, sum, count := s.snapshot()
				labels := labelsOf(n)
				var cumulative uint64
				for i, bk := range buckets {
					cumulative += counts[i]
					fmt.Fprintf(&b, "%s_bucket%s %d\n", base, joinLabels(labels, fmt.Sprintf(`le="%g"`, bk)), cumulative)
				}
				fmt.Fprintf(&b, "%s_bucket%s %d\n", base, joinLabels(labels, `le="+Inf"`), count)
				fmt.Fprintf(&b, "%s_sum%s %g\n", base, joinLabels(labels), sum)
				fmt.Fprintf(&b, "%s_count%s %d\n", base, joinLabels(labels), count)
			}
		}
	}
	return b.String()
}

// Handler returns an http.Handler that serves the rendered registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}

// CollectRuntime samples goroutine count and heap usage into gauges every
// interval until ctx is done.
func (r *Registry) CollectRuntime(ctx context.Context, interval time.Duration) {
	goroutines := r.Gauge("go_goroutines", "Number of goroutines")
	heap := r.Gauge("go_memstats_heap_alloc_bytes", "Heap bytes allocated and in use")
	sample := func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		goroutines.Set(int64(runtime.NumGoroutine()))
		heap.Set(int64(ms.HeapAlloc))
	}
	sample()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sample()
		}
	}
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
