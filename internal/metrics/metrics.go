package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relayboard"

// Metrics holds the board's Prometheus collectors. All methods accept a nil
// receiver, so components can be built without metrics.
type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	RelayCommands    *prometheus.CounterVec
	RelayLevel       *prometheus.GaugeVec
	SnapshotsTotal   prometheus.Counter
	SnapshotBytes    prometheus.Gauge
	ConnectionErrors *prometheus.CounterVec
}

// New creates the collectors and registers them, plus Go runtime and process
// collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Requests handled on the control socket, by decoded kind",
			},
			[]string{"kind"},
		),

		RelayCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "commands_total",
				Help:      "Relay commands by channel and result (ok, fail)",
			},
			[]string{"channel", "result"},
		),

		RelayLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "level",
				Help:      "Relay level as of the last published snapshot (0=off, 1=on)",
			},
			[]string{"channel"},
		),

		SnapshotsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "snapshots_published_total",
				Help:      "Status documents published",
			},
		),

		SnapshotBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "document_bytes",
				Help:      "Size of the current status document",
			},
		),

		ConnectionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "connection_errors_total",
				Help:      "Connection I/O failures by stage (accept, read, write)",
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RelayCommands,
		m.RelayLevel,
		m.SnapshotsTotal,
		m.SnapshotBytes,
		m.ConnectionErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one handled request.
func (m *Metrics) ObserveRequest(kind string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(kind).Inc()
}

// ObserveRelayCommand counts one relay command outcome.
func (m *Metrics) ObserveRelayCommand(channel int, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.RelayCommands.WithLabelValues(strconv.Itoa(channel), result).Inc()
}

// ObserveSnapshot records a published snapshot's relay levels and size.
func (m *Metrics) ObserveSnapshot(levels []bool, size int) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
	m.SnapshotBytes.Set(float64(size))
	for i, on := range levels {
		v := 0.0
		if on {
			v = 1
		}
		m.RelayLevel.WithLabelValues(strconv.Itoa(i + 1)).Set(v)
	}
}

// ObserveConnectionError counts an I/O failure at stage.
func (m *Metrics) ObserveConnectionError(stage string) {
	if m == nil {
		return
	}
	m.ConnectionErrors.WithLabelValues(stage).Inc()
}
