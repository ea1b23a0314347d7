package metrics

import (
	"runtime"
	"time"
)

var (
	// CommandsTotal counts handled commands by type and outcome
	// (accepted, rejected, replayed, conflict, invalid, failed).
	CommandsTotal = NewCounterVec(Opts{
		Name: "task_commands_total",
		Help: "Commands handled by the domain engine.",
	}, []string{"type", "outcome"})

	EventsAppendedTotal = NewCounterVec(Opts{
		Name: "task_events_appended_total",
		Help: "Events appended to the event log.",
	}, []string{"type"})

	// ProjectionEventsTotal counts events folded into each view kind.
	ProjectionEventsTotal = NewCounterVec(Opts{
		Name: "projection_events_total",
		Help: "Events folded into read models.",
	}, []string{"view", "event"})

	ProjectionLastSeq = NewGauge(Opts{
		Name: "projection_last_stream_seq",
		Help: "Last JetStream sequence applied by the data sink.",
	})

	// HandleSeconds times one message through a consumer, labelled by
	// service and outcome.
	HandleSeconds = NewHistogramVec(Opts{
		Name: "message_handle_seconds",
		Help: "Time spent handling one JetStream message.",
	}, DefaultBuckets, []string{"service", "outcome"})
)

var started = time.Now()

func init() {
	Default.MustRegister(
		CommandsTotal,
		EventsAppendedTotal,
		ProjectionEventsTotal,
		ProjectionLastSeq,
		HandleSeconds,
		NewGaugeFunc(Opts{Name: "process_uptime_seconds", Help: "Seconds since process start."}, func() float64 {
			return time.Since(started).Seconds()
		}),
		NewGaugeFunc(Opts{Name: "go_goroutines", Help: "Number of goroutines."}, func() float64 {
			return float64(runtime.NumGoroutine())
		}),
		NewGaugeFunc(Opts{Name: "go_memstats_heap_inuse_bytes", Help: "Heap in-use bytes."}, func() float64 {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			return float64(mem.HeapInuse)
		}),
	)
}
