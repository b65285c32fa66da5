// Package metrics содержит Prometheus-метрики витрины.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors объединяет метрики оформления заказов.
type Collectors struct {
	Checkouts          *prometheus.CounterVec
	CapacityRejections prometheus.Counter
	Revenue            prometheus.Counter
	StalePending       prometheus.Gauge
	registry           *prometheus.Registry
}

// New создаёт и регистрирует метрики в собственном реестре.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		CapacityRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "capacity_rejections_total",
			Help:      "Registrations rejected because the event was full.",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "revenue_total",
			Help:      "Sum of final prices of completed purchases, in currency units.",
		}),
		StalePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "stale_pending_purchases",
			Help:      "Pending purchases older than the configured age.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		c.Checkouts,
		c.CapacityRejections,
		c.Revenue,
		c.StalePending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler возвращает HTTP-обработчик для эндпоинта /metrics.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
