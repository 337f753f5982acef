package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics records order and stock ledger activity.
type POSMetrics struct {
	ordersCreated   prometheus.Counter
	ordersConfirmed *prometheus.CounterVec
	confirmFailures *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
}

// NewPOSMetrics registers the POS metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Orders created in pending state.",
	})
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_confirmed_total",
		Help: "Orders confirmed, by payment method.",
	}, []string{"payment_method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_order_confirm_failures_total",
		Help: "Rejected order confirmations, by error code.",
	}, []string{"reason"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_movements_total",
		Help: "Stock ledger entries written, by movement type.",
	}, []string{"type"})
	reg.MustRegister(created, confirmed, failures, movements)
	return &POSMetrics{
		ordersCreated:   created,
		ordersConfirmed: confirmed,
		confirmFailures: failures,
		stockMovements:  movements,
	}
}

// IncOrderCreated counts a newly created order.
func (m *POSMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrderConfirmed counts a confirmed order.
func (m *POSMetrics) IncOrderConfirmed(paymentMethod string) {
	if m == nil || m.ordersConfirmed == nil {
		return
	}
	m.ordersConfirmed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncConfirmFailure counts a confirmation rejected for reason.
func (m *POSMetrics) IncConfirmFailure(reason string) {
	if m == nil || m.confirmFailures == nil {
		return
	}
	m.confirmFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// AddStockMovements counts n ledger entries of the given type.
func (m *POSMetrics) AddStockMovements(movementType string, n int) {
	if m == nil || m.stockMovements == nil || n <= 0 {
		return
	}
	m.stockMovements.WithLabelValues(normalizeLabel(movementType)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
