/*
metrics.go - Prometheus instrumentation for the HTTP API

Counters only for now: documents created by type, quote conversions,
purchase receipts, and stock-validation rejections. The registry is owned
by the caller so tests can use a fresh one per handler.
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	InvoicesCreated   *prometheus.CounterVec
	QuotesConverted   prometheus.Counter
	PurchasesRecorded prometheus.Counter
	ShortagesRejected prometheus.Counter
}

// NewMetrics builds the counter set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InvoicesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "invoices_created_total",
			Help:      "Billing documents created, by type (invoice or quote).",
		}, []string{"type"}),
		QuotesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "quotes_converted_total",
			Help:      "Quotes converted into invoices.",
		}),
		PurchasesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "purchases_recorded_total",
			Help:      "Supplier purchases recorded.",
		}),
		ShortagesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workshop",
			Name:      "stock_shortages_rejected_total",
			Help:      "Invoice or conversion attempts rejected by stock validation.",
		}),
	}
	reg.MustRegister(m.InvoicesCreated, m.QuotesConverted, m.PurchasesRecorded, m.ShortagesRejected)
	return m
}
