package metrics

import "github.com/prometheus/client_golang/prometheus"

// SlotMetrics exposes counters/histograms for slot and pricing computations.
type SlotMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	slotsTotal    *prometheus.CounterVec
	rulesApplied  prometheus.Counter
}

func NewSlotMetrics(reg prometheus.Registerer) *SlotMetrics {
	m := &SlotMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Total slot, price and check computations by outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "computation_seconds",
			Help:      "Latency of slot and price computations including store reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		slotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slots_total",
			Help:      "Candidate slots returned, split by availability",
		}, []string{"available"}),
		rulesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "pricing",
			Name:      "rules_applied_total",
			Help:      "Pricing rules that matched and adjusted a price",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency, m.slotsTotal, m.rulesApplied)
	return m
}

// ObserveRequest records one computation and how long it took.
func (m *SlotMetrics) ObserveRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

func (m *SlotMetrics) ObserveSlots(available, unavailable int) {
	if m == nil {
		return
	}
	m.slotsTotal.WithLabelValues("true").Add(float64(available))
	m.slotsTotal.WithLabelValues("false").Add(float64(unavailable))
}

func (m *SlotMetrics) ObserveRulesApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rulesApplied.Add(float64(n))
}
