// Package monitoring exposes Prometheus metrics for choropleth runs.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "choropleth"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// load, join and render stages.
type Metrics struct {
	Runs             *prometheus.CounterVec   // labels: outcome={success,error}
	SourceLoad       *prometheus.HistogramVec // labels: source={geometry,table}
	RegionsLoaded    prometheus.Gauge
	RecordsJoined    prometheus.Counter
	RecordsUnmatched prometheus.Counter
	ShapesMissing    *prometheus.GaugeVec   // labels: map
	Renders          *prometheus.CounterVec // labels: format={html,svg}
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		SourceLoad: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_load_duration_seconds",
			Help:      "Time to fetch and decode each source.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_loaded",
			Help:      "Regions in the most recently loaded geometry.",
		}),
		RecordsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_joined_total",
			Help:      "Table records matched to a reference code.",
		}),
		RecordsUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unmatched_total",
			Help:      "Table records whose code had no reference entry.",
		}),
		ShapesMissing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shapes_missing_value",
			Help:      "Shapes without a value in the most recent build, per map.",
		}, []string{"map"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Documents rendered by format.",
		}, []string{"format"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Runs,
		m.SourceLoad,
		m.RegionsLoaded,
		m.RecordsJoined,
		m.RecordsUnmatched,
		m.ShapesMissing,
		m.Renders,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	return m, reg
}

// ObserveLoad records how long a source took to load.
func (m *Metrics) ObserveLoad(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceLoad.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveJoin records the outcome of a join.
func (m *Metrics) ObserveJoin(regions, joined, unmatched int) {
	if m == nil {
		return
	}
	m.RegionsLoaded.Set(float64(regions))
	m.RecordsJoined.Add(float64(joined))
	m.RecordsUnmatched.Add(float64(unmatched))
}

// ObserveMissing records how many shapes of a map had no value.
func (m *Metrics) ObserveMissing(mapID string, n int) {
	if m == nil {
		return
	}
	m.ShapesMissing.WithLabelValues(mapID).Set(float64(n))
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

// ObserveRender counts a rendered document.
func (m *Metrics) ObserveRender(format string) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(format).Inc()
}
