package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the service's prometheus instruments.
type Collector struct {
	AggregationDuration *prometheus.HistogramVec
	DatasetRows         *prometheus.GaugeVec
	DatasetLoadErrors   *prometheus.CounterVec
	SnapshotLoads       *prometheus.CounterVec
	AIRequests          *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		AggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waste_analytics",
			Name:      "aggregation_seconds",
			Help:      "Time spent computing an analytics view.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"view"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "waste_analytics",
			Name:      "dataset_rows",
			Help:      "Rows in the current snapshot per dataset.",
		}, []string{"dataset"}),
		DatasetLoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_analytics",
			Name:      "dataset_load_errors_total",
			Help:      "Failed dataset fetch or parse attempts.",
		}, []string{"dataset"}),
		SnapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_analytics",
			Name:      "snapshot_loads_total",
			Help:      "Snapshot loads by origin and outcome.",
		}, []string{"origin", "outcome"}),
		AIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste_analytics",
			Name:      "ai_requests_total",
			Help:      "Requests sent to the AI collaborator.",
		}, []string{"kind", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			c.AggregationDuration,
			c.DatasetRows,
			c.DatasetLoadErrors,
			c.SnapshotLoads,
			c.AIRequests,
		)
	}
	return c
}

// ObserveSince records the time elapsed since start for view.
func (c *Collector) ObserveSince(view string, start time.Time) {
	c.AggregationDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

func (c *Collector) RecordDatasetRows(counts map[string]int) {
	for ds, n := range counts {
		c.DatasetRows.WithLabelValues(ds).Set(float64(n))
	}
}

func (c *Collector) RecordDatasetError(dataset string) {
	c.DatasetLoadErrors.WithLabelValues(dataset).Inc()
}

func (c *Collector) RecordSnapshotLoad(origin string, err error) {
	c.SnapshotLoads.WithLabelValues(origin, outcome(err)).Inc()
}

func (c *Collector) RecordAIRequest(kind string, err error) {
	c.AIRequests.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
