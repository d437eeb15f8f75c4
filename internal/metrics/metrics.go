package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkoutの観測値。
// outcomeはcommitted / insufficient_stock / conflict / errorのいずれか。
type CheckoutMetrics struct {
	Outcomes    *prometheus.CounterVec
	CASAttempts prometheus.Histogram
}

func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWith(prometheus.DefaultRegisterer)
}

// 登録先を差し替えられる版。テストでは独立したRegistryを渡す。
func NewCheckoutMetricsWith(reg prometheus.Registerer) *CheckoutMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "orders_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})

	casAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "cas_attempts_per_line",
		Help:      "Conditional-update attempts needed per order line.",
		Buckets:   []float64{1, 2, 3},
	})

	reg.MustRegister(outcomes, casAttempts)
	return &CheckoutMetrics{Outcomes: outcomes, CASAttempts: casAttempts}
}

// nilレシーバでも安全（テストや無効化時はnilのまま渡す）
func (m *CheckoutMetrics) CountOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) ObserveCASAttempts(attempts int) {
	if m == nil {
		return
	}
	m.CASAttempts.Observe(float64(attempts))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
