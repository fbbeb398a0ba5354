package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão de admissão já tomada.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key ClientID
	// Outcome é Decision.Label(): admitted, unauthorized, misconfigured,
	// short_window ou long_window.
	Outcome string

	Method string
	Path   string

	At time.Time
}

func (ev StatsEvent) Allowed() bool { return ev.Outcome == Admitted.String() }

// StatsStore é a estratégia de persistência para estatísticas da admissão.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
