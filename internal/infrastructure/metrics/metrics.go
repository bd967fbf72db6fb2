// Package metrics instrumentación Prometheus del ledger y del servidor HTTP.
//
// Se monta una vez en el router:
//
//	app.Use(m.Middleware())
//	app.Get("/metrics", m.Handler())
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockflow-api/internal/application/ports"
)

const namespace = "stockflow"

var _ ports.LedgerMetrics = (*Ledger)(nil)

// Ledger contadores de negocio y de HTTP sobre un registry propio.
type Ledger struct {
	reg *prometheus.Registry

	movements     *prometheus.CounterVec
	overdue       prometheus.Counter
	reminders     *prometheus.CounterVec
	sales         prometheus.Counter
	salesAmount   prometheus.Counter
	txRetries     prometheus.Counter
	auditFailures prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
}

// NewLedger registra los colectores en reg. reg nil crea un registry nuevo con métricas de runtime.
func NewLedger(reg *prometheus.Registry) *Ledger {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Ledger{
		reg: reg,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger",
			Name: "movements_total", Help: "Movimientos registrados por tipo.",
		}, []string{"type"}),
		overdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "loans",
			Name: "marked_overdue_total", Help: "Préstamos marcados como vencidos.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "loans",
			Name: "reminders_total", Help: "Recordatorios enviados por resultado.",
		}, []string{"result"}), // "sent" | "failed"
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sales",
			Name: "recorded_total", Help: "Ventas registradas.",
		}),
		salesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sales",
			Name: "amount_total", Help: "Suma de totales vendidos.",
		}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store",
			Name: "tx_retries_total", Help: "Reintentos por conflicto de serialización.",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit",
			Name: "write_failures_total", Help: "Escrituras de auditoría fallidas.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total", Help: "Peticiones HTTP.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "request_duration_seconds", Help: "Duración de peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_in_flight", Help: "Peticiones en curso.",
		}),
	}
	reg.MustRegister(
		m.movements, m.overdue, m.reminders, m.sales, m.salesAmount,
		m.txRetries, m.auditFailures,
		m.httpRequests, m.httpDuration, m.httpInFlight,
	)
	return m
}

// Registry devuelve el registry usado.
func (m *Ledger) Registry() *prometheus.Registry { return m.reg }

func (m *Ledger) MovementRecorded(movementType string) {
	m.movements.WithLabelValues(movementType).Inc()
}

func (m *Ledger) LoansMarkedOverdue(n int) {
	if n > 0 {
		m.overdue.Add(float64(n))
	}
}

func (m *Ledger) ReminderDispatched(ok bool) {
	if ok {
		m.reminders.WithLabelValues("sent").Inc()
		return
	}
	m.reminders.WithLabelValues("failed").Inc()
}

func (m *Ledger) SaleRecorded(total float64) {
	m.sales.Inc()
	if total > 0 {
		m.salesAmount.Add(total)
	}
}

func (m *Ledger) TxRetried() { m.txRetries.Inc() }

// AuditFailed satisface audit.FailureCounter.
func (m *Ledger) AuditFailed() { m.auditFailures.Inc() }

// Middleware mide cada petición. Usa la ruta registrada (no la URL cruda) como etiqueta.
func (m *Ledger) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		method := c.Method()
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registry en formato Prometheus.
func (m *Ledger) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
