package infra

import (
	"context"
	"strings"
	"sync"

	"report-gateway/middleware/admission/domain"
)

// Counters conta decisões por rótulo (admitted, unauthorized, short_window, ...).
type Counters map[string]int64

func (c Counters) Allowed() int64 { return c[domain.Admitted.String()] }

func (c Counters) Denied() int64 {
	var n int64
	for k, v := range c {
		if k != domain.Admitted.String() {
			n += v
		}
	}
	return n
}

// StatsSnapshot é a leitura agregada das decisões (total e por rota).
type StatsSnapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
}

// MemoryStatsStore guarda os contadores no processo; usado quando o Redis de
// estatísticas está desligado. Não guarda contadores por cliente.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		total:   make(Counters),
		byRoute: make(map[string]Counters),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	if ev.Outcome == "" {
		return nil
	}
	route := strings.TrimSpace(ev.Method + " " + ev.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	if route == "" {
		return nil
	}
	c, ok := s.byRoute[route]
	if !ok {
		c = make(Counters)
		s.byRoute[route] = c
	}
	c[ev.Outcome]++
	return nil
}

// Snapshot devolve cópias; quem recebe pode alterar à vontade.
func (s *MemoryStatsStore) Snapshot(context.Context) (StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatsSnapshot{
		Total:   clone(s.total),
		ByRoute: make(map[string]Counters, len(s.byRoute)),
	}
	for k, v := range s.byRoute {
		out.ByRoute[k] = clone(v)
	}
	return out, nil
}

func clone(c Counters) Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// TeeStats repassa o evento para vários stores. Todos são chamados; o primeiro
// erro é devolvido.
type TeeStats []domain.StatsStore

func (t TeeStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
