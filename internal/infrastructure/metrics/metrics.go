package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmastock"

// Metrics holds the inventory counters and histograms. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	reservations    *prometheus.CounterVec
	commitSeconds   prometheus.Histogram
	intakeUnits     prometheus.Counter
	importRows      *prometheus.CounterVec
	expiredReleased prometheus.Counter
}

// New registers the inventory collectors, plus Go runtime and process
// collectors, on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation commits by result.",
		}, []string{"result"}),
		commitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_commit_seconds",
			Help:      "Time spent committing a reservation plan against the ledger.",
			Buckets:   prometheus.DefBuckets,
		}),
		intakeUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_intake_units_total",
			Help:      "Units added to the ledger by stock intake.",
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by result.",
		}, []string{"result"}),
		expiredReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_reservations_released_total",
			Help:      "Reservations cancelled by the expiry sweeper.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reservations,
		m.commitSeconds,
		m.intakeUnits,
		m.importRows,
		m.expiredReleased,
	)

	return m
}

func (m *Metrics) ObserveCommit(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(result).Inc()
	m.commitSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) AddIntakeUnits(units int) {
	if m == nil || units <= 0 {
		return
	}
	m.intakeUnits.Add(float64(units))
}

func (m *Metrics) ObserveImportRow(result string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(result).Inc()
}

func (m *Metrics) AddExpiredReleased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expiredReleased.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
