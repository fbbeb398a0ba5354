package infra

import (
	"context"

	"report-gateway/middleware/admission/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore incrementa um CounterVec rotulado por "outcome".
// Não usa a chave do cliente como rótulo (cardinalidade).
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(decisions *prometheus.CounterVec) *PrometheusStatsStore {
	return &PrometheusStatsStore{decisions: decisions}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	if s == nil || s.decisions == nil || ev.Outcome == "" {
		return nil
	}
	c, err := s.decisions.GetMetricWithLabelValues(ev.Outcome)
	if err != nil {
		return err
	}
	c.Inc()
	return nil
}
