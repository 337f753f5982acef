package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records stock sweep job runs and their findings.
type SweepMetrics struct {
	duration   *prometheus.HistogramVec
	runs       *prometheus.CounterVec
	lowStock   prometheus.Gauge
	imbalances prometheus.Gauge
}

// NewSweepMetrics registers the sweep metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_sweep_job_duration_seconds",
		Help:    "Duration of stock sweep jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sweep_job_runs_total",
		Help: "Stock sweep job executions, by outcome.",
	}, []string{"job", "outcome"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pos_low_stock_ingredients",
		Help: "Ingredients below the low stock threshold at the last sweep.",
	})
	imbalances := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pos_ledger_imbalances",
		Help: "Ingredients whose balance disagreed with their ledger at the last sweep.",
	})
	reg.MustRegister(duration, runs, lowStock, imbalances)
	return &SweepMetrics{
		duration:   duration,
		runs:       runs,
		lowStock:   lowStock,
		imbalances: imbalances,
	}
}

// ObserveJob records one job run.
func (m *SweepMetrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
}

func (m *SweepMetrics) SetLowStockIngredients(n int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

func (m *SweepMetrics) SetLedgerImbalances(n int) {
	if m == nil || m.imbalances == nil {
		return
	}
	m.imbalances.Set(float64(n))
}
