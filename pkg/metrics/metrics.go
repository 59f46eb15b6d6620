package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contadores de negocio del libro de movimientos, sobre un registry
// propio (sin estado global).
type Metrics struct {
	registry *prometheus.Registry

	MovementsApplied  prometheus.Counter
	MovementsAmended  prometheus.Counter
	MovementsReversed prometheus.Counter
	MovementsRejected *prometheus.CounterVec // label reason: invalid_input, insufficient_quantity, not_found, conflict, internal
}

// New crea y registra los contadores junto con los collectors de proceso y runtime.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		MovementsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kardex_movements_applied_total",
			Help: "Movimientos creados y aplicados con éxito.",
		}),
		MovementsAmended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kardex_movements_amended_total",
			Help: "Movimientos corregidos en el sitio con éxito.",
		}),
		MovementsReversed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kardex_movements_reversed_total",
			Help: "Movimientos eliminados con su efecto revertido.",
		}),
		MovementsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kardex_movements_rejected_total",
			Help: "Operaciones de movimiento rechazadas, por motivo.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.MovementsApplied, m.MovementsAmended, m.MovementsReversed, m.MovementsRejected)
	return m
}

// Handler devuelve el handler HTTP de /metrics para este registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
