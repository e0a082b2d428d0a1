// Package prometheus exports task queue performance counters as Prometheus
// metrics.
package prometheus

import (
	"context"
	"errors"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/taskslib/go-tasks-queue/core"
)

// StatsSource provides performance counter snapshots. *core.TaskQueue
// implements it.
type StatsSource interface {
	Name() string
	GetPerformanceStats(reset bool) core.PerformanceStats
}

// StatsExporter periodically drains queue counters into Prometheus
// collectors: the accumulating counters (added, completed, suspended,
// resumed) become monotone counters, the current-state counters (waiting,
// total) become gauges. Draining uses the reset form of GetPerformanceStats,
// so an exporter should be the only consumer of the accumulating counters on
// the queues it watches.
type StatsExporter struct {
	interval time.Duration

	queuesMu sync.RWMutex
	queues   map[string]StatsSource

	addedTotal     *prom.CounterVec
	completedTotal *prom.CounterVec
	suspendedTotal *prom.CounterVec
	resumedTotal   *prom.CounterVec
	waiting        *prom.GaugeVec
	total          *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewStatsExporter creates an exporter and registers its collectors.
func NewStatsExporter(reg prom.Registerer, interval time.Duration) (*StatsExporter, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	addedTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: "taskslib",
		Name:      "tasks_added_total",
		Help:      "Total number of tasks submitted per queue.",
	}, []string{"queue"})
	completedTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: "taskslib",
		Name:      "tasks_completed_total",
		Help:      "Total number of tasks completed per queue.",
	}, []string{"queue"})
	suspendedTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: "taskslib",
		Name:      "tasks_suspended_total",
		Help:      "Total number of tasks suspended into the delay map per queue.",
	}, []string{"queue"})
	resumedTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: "taskslib",
		Name:      "tasks_resumed_total",
		Help:      "Total number of tasks promoted out of the delay map per queue.",
	}, []string{"queue"})
	waiting := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskslib",
		Name:      "tasks_waiting",
		Help:      "Tasks currently suspended in the delay map per queue.",
	}, []string{"queue"})
	total := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskslib",
		Name:      "tasks_total",
		Help:      "Tasks currently owned by the queue (queued, suspended or executing).",
	}, []string{"queue"})

	var err error
	if addedTotal, err = registerCollector(reg, addedTotal); err != nil {
		return nil, err
	}
	if completedTotal, err = registerCollector(reg, completedTotal); err != nil {
		return nil, err
	}
	if suspendedTotal, err = registerCollector(reg, suspendedTotal); err != nil {
		return nil, err
	}
	if resumedTotal, err = registerCollector(reg, resumedTotal); err != nil {
		return nil, err
	}
	if waiting, err = registerCollector(reg, waiting); err != nil {
		return nil, err
	}
	if total, err = registerCollector(reg, total); err != nil {
		return nil, err
	}

	return &StatsExporter{
		interval:       interval,
		queues:         make(map[string]StatsSource),
		addedTotal:     addedTotal,
		completedTotal: completedTotal,
		suspendedTotal: suspendedTotal,
		resumedTotal:   resumedTotal,
		waiting:        waiting,
		total:          total,
	}, nil
}

// AddQueue adds or replaces a watched queue under the given label. An empty
// name falls back to the source's own name.
func (e *StatsExporter) AddQueue(name string, source StatsSource) {
	if e == nil || source == nil {
		return
	}
	if name == "" {
		name = source.Name()
	}
	if name == "" {
		name = "default"
	}
	e.queuesMu.Lock()
	e.queues[name] = source
	e.queuesMu.Unlock()
}

// Start begins periodic collection; repeated calls are no-ops.
func (e *StatsExporter) Start(ctx context.Context) {
	if e == nil {
		return
	}

	e.stateMu.Lock()
	if e.running {
		e.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.stateMu.Unlock()

	go e.loop(pollCtx)
}

// Stop halts periodic collection; repeated calls are safe.
func (e *StatsExporter) Stop() {
	if e == nil {
		return
	}

	e.stateMu.Lock()
	if !e.running {
		e.stateMu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	e.stateMu.Lock()
	e.running = false
	e.cancel = nil
	e.done = nil
	e.stateMu.Unlock()
}

func (e *StatsExporter) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.CollectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.CollectOnce()
		}
	}
}

// CollectOnce drains every watched queue into the collectors. Exported so
// callers that already have a periodic tick can drive collection themselves.
func (e *StatsExporter) CollectOnce() {
	e.queuesMu.RLock()
	defer e.queuesMu.RUnlock()

	for name, source := range e.queues {
		stats := source.GetPerformanceStats(true)
		e.addedTotal.WithLabelValues(name).Add(float64(stats.Added))
		e.completedTotal.WithLabelValues(name).Add(float64(stats.Completed))
		e.suspendedTotal.WithLabelValues(name).Add(float64(stats.Suspended))
		e.resumedTotal.WithLabelValues(name).Add(float64(stats.Resumed))
		e.waiting.WithLabelValues(name).Set(float64(stats.Waiting))
		e.total.WithLabelValues(name).Set(float64(stats.Total))
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	are := prom.AlreadyRegisteredError{}
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	var zero T
	return zero, err
}
