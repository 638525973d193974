// Package metrics exposes Prometheus collectors for analysis runs and
// batch processing. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"arvcalc/internal/models"
)

type Metrics struct {
	Analyses      *prometheus.CounterVec
	CompsUsed     prometheus.Histogram
	CompsExcluded *prometheus.CounterVec
	BatchJobs     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arv_analyses_total",
			Help: "Completed analyses by ARV confidence.",
		}, []string{"confidence"}),
		CompsUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arv_comps_used",
			Help:    "Comparables contributing to each ARV estimate.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10, 15},
		}),
		CompsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arv_comps_excluded_total",
			Help: "Candidates excluded from comparable sets by reason.",
		}, []string{"reason"}),
		BatchJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arv_batch_jobs_total",
			Help: "Batch analysis jobs by final status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Analyses, m.CompsUsed, m.CompsExcluded, m.BatchJobs)
	}
	return m
}

// ObserveAnalysis records a completed analysis and its exclusions.
func (m *Metrics) ObserveAnalysis(arv models.ArvResult, excluded map[string]int, dataIssues int) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(string(arv.Confidence)).Inc()
	m.CompsUsed.Observe(float64(arv.CompCount))
	for reason, n := range excluded {
		m.CompsExcluded.WithLabelValues(reason).Add(float64(n))
	}
	if dataIssues > 0 {
		m.CompsExcluded.WithLabelValues("insufficient data").Add(float64(dataIssues))
	}
}

func (m *Metrics) BatchJob(status string) {
	if m == nil {
		return
	}
	m.BatchJobs.WithLabelValues(status).Inc()
}
