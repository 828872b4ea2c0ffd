package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deployer/internal/component"
)

var allStatuses = []component.Status{
	component.StatusInit,
	component.StatusPreOperational,
	component.StatusFatalError,
	component.StatusException,
	component.StatusStopped,
	component.StatusRunning,
	component.StatusRunTimeError,
}

// Collector exports orchestrator phases and component states. It has its
// own registry so several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	phases     *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	failures   *prometheus.CounterVec
	components *prometheus.GaugeVec

	mu         sync.Mutex
	lastPhases map[string]time.Time
}

// NewCollector creates a Collector. Go runtime and process metrics are
// registered alongside.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		phases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deployer_phase_total",
				Help: "Total number of lifecycle phases run, by result",
			},
			[]string{"phase", "result"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deployer_phase_duration_seconds",
				Help:    "Lifecycle phase duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"phase"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deployer_component_failures_total",
				Help: "Total number of component failures, by phase",
			},
			[]string{"phase"},
		),
		components: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deployer_components",
				Help: "Current number of registered components by state",
			},
			[]string{"state"},
		),
		lastPhases: make(map[string]time.Time),
	}
}

// PhaseCompleted records one phase run.
func (c *Collector) PhaseCompleted(phase string, _ int, duration time.Duration, failures int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.phases.WithLabelValues(phase, result).Inc()
	c.durations.WithLabelValues(phase).Observe(duration.Seconds())
	if failures > 0 {
		c.failures.WithLabelValues(phase).Add(float64(failures))
	}

	c.mu.Lock()
	c.lastPhases[phase] = time.Now()
	c.mu.Unlock()
}

// ComponentStates replaces the component gauges. States without components
// are reported as zero.
func (c *Collector) ComponentStates(counts map[component.Status]int) {
	for _, s := range allStatuses {
		c.components.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

// LastPhase returns when phase last completed.
func (c *Collector) LastPhase(phase string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lastPhases[phase]
	return t, ok
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
