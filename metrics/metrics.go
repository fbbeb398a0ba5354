// Package metrics reúne as métricas Prometheus do gateway de denúncias.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reportgate"

type Metrics struct {
	// AdmissionDecisions é rotulado por outcome (admitted, unauthorized, ...).
	AdmissionDecisions *prometheus.CounterVec
	// Deliveries é rotulado por result (ok, missing_data, invalid_screenshot, relay_error).
	Deliveries       *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// New registra as métricas num registry próprio, com os collectors de processo e Go.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		AdmissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Admission decisions taken for mutating requests, by outcome.",
		}, []string{"outcome"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_submissions_total",
			Help:      "Report submissions processed after admission, by result.",
		}, []string{"result"}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_duration_seconds",
			Help:      "Time spent handing a report to the outbound relay.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
		registerer: reg,
		gatherer:   gatherer,
	}
	reg.MustRegister(m.AdmissionDecisions, m.Deliveries, m.DeliveryDuration)
	return m
}

// ObserveSubmission implementa application.Observer do pacote report.
// relay < 0 indica que o relay não foi chamado.
func (m *Metrics) ObserveSubmission(result string, relay time.Duration) {
	m.Deliveries.WithLabelValues(result).Inc()
	if relay >= 0 {
		m.DeliveryDuration.Observe(relay.Seconds())
	}
}

// GaugeFunc expõe um valor lido na hora da coleta (ex.: clientes rastreados).
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	m.registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
