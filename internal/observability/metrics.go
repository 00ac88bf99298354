package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "triage"

// Metrics holds the Prometheus counters, histograms, and gauges for dispatch resolution.
type Metrics struct {
	RecordsConsumed    prometheus.Counter
	DispatchesProduced prometheus.Counter
	RecordsRejected    *prometheus.CounterVec // labels: reason={parse,validation}
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Resolution metrics.
	Fallbacks       *prometheus.CounterVec // labels: kind={severity,checklist,unit,resource_status}
	Boosts          *prometheus.CounterVec // labels: kind={life_threat,regional}
	SeverityClamped prometheus.Counter
	FinalSeverity   prometheus.Histogram

	ReferenceDataLoaded prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg, or with the
// default Prometheus registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_consumed_total",
			Help:      "Total classification records read from the input.",
		}),
		DispatchesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_produced_total",
			Help:      "Total dispatch records written to the output.",
		}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Classification records rejected before resolution, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is processing input, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from the input.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-resolve-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Default values substituted during resolution, by kind.",
		}, []string{"kind"}),
		Boosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_boosts_total",
			Help:      "Severity boosts applied, by kind.",
		}, []string{"kind"}),
		SeverityClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_clamped_total",
			Help:      "Dispatches whose severity was capped at the maximum.",
		}),
		FinalSeverity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_severity",
			Help:      "Distribution of refined dispatch severities.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		ReferenceDataLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_data_loaded_timestamp_seconds",
			Help:      "Unix time at which the reference data was loaded.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsConsumed,
		m.DispatchesProduced,
		m.RecordsRejected,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Fallbacks,
		m.Boosts,
		m.SeverityClamped,
		m.FinalSeverity,
		m.ReferenceDataLoaded,
	}
}
