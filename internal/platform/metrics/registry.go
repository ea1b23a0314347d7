// Package metrics renders the task services' counters, gauges and
// histograms in the Prometheus text exposition format.
package metrics

import (
	"bytes"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Opts names a collector.
type Opts struct {
	Name string
	Help string
}

type sample struct {
	suffix string
	labels []string // name, value pairs
	value  float64
}

type collector interface {
	options() Opts
	kind() string
	samples() []sample
}

type Registry struct {
	mu     sync.RWMutex
	byName map[string]collector
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]collector)}
}

func (r *Registry) MustRegister(items ...collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		name := item.options().Name
		if _, dup := r.byName[name]; dup {
			panic("metrics: collector already registered: " + name)
		}
		r.byName[name] = item
	}
}

func (r *Registry) sorted() []collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]collector, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].options().Name < out[j].options().Name })
	return out
}

func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		for _, c := range r.sorted() {
			writeCollector(&buf, c)
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

// Default holds the collectors the services share.
var Default = NewRegistry()

func DefaultHandler() http.Handler {
	return Default.Handler()
}

func writeCollector(buf *bytes.Buffer, c collector) {
	opts := c.options()
	buf.WriteString("# HELP " + opts.Name + " " + opts.Help + "\n")
	buf.WriteString("# TYPE " + opts.Name + " " + c.kind() + "\n")
	for _, s := range c.samples() {
		buf.WriteString(opts.Name + s.suffix)
		if len(s.labels) > 0 {
			buf.WriteByte('{')
			for i := 0; i+1 < len(s.labels); i += 2 {
				if i > 0 {
					buf.WriteByte(',')
				}
				buf.WriteString(s.labels[i] + `="` + escape(s.labels[i+1]) + `"`)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(' ')
		buf.WriteString(formatFloat(s.value))
		buf.WriteByte('\n')
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)

func escape(v string) string {
	return labelEscaper.Replace(v)
}
