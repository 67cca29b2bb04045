package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records submission outcomes and shipping quote behavior.
type CheckoutMetrics struct {
	submissions   *prometheus.CounterVec
	quoteDuration *prometheus.HistogramVec
	staleDiscards *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by terminal state.",
	}, []string{"outcome"})
	quoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipping_quote_duration_seconds",
		Help:    "Duration of shipping fee/lead-time lookups.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_stale_discards_total",
		Help: "Lookup responses discarded because the session moved on.",
	}, []string{"kind"})
	reg.MustRegister(submissions, quoteDuration, staleDiscards)
	return &CheckoutMetrics{
		submissions:   submissions,
		quoteDuration: quoteDuration,
		staleDiscards: staleDiscards,
	}
}

// IncSubmission counts a submission by terminal outcome.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(outcome).Inc()
}

// ObserveQuoteDuration records a shipping lookup duration.
func (c *CheckoutMetrics) ObserveQuoteDuration(kind string, duration time.Duration) {
	if c == nil || c.quoteDuration == nil {
		return
	}
	c.quoteDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncStaleDiscard counts a discarded stale lookup response.
func (c *CheckoutMetrics) IncStaleDiscard(kind string) {
	if c == nil || c.staleDiscards == nil {
		return
	}
	c.staleDiscards.WithLabelValues(kind).Inc()
}
