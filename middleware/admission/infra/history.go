package infra

import (
	"context"
	"sync"
	"time"

	"report-gateway/middleware/admission/domain"
)

// HistoryStore é o rate limiter por cliente baseado em log de timestamps
// (sliding log), avaliado contra duas janelas: curta e longa.
//
// O mapa é protegido por mu; cada histórico tem seu próprio lock, então clientes
// diferentes não disputam entre si durante a checagem.
type HistoryStore struct {
	mu      sync.Mutex
	entries map[domain.ClientID]*history

	short     domain.WindowPolicy
	long      domain.WindowPolicy
	retention time.Duration

	evictEmpty bool
	sweepEvery time.Duration
	clock      domain.Clock
}

type history struct {
	mu     sync.Mutex
	stamps []time.Time
	// removed indica que o janitor tirou a entrada do mapa; quem ainda segura o
	// ponteiro precisa buscar de novo.
	removed bool
}

type HistoryOption func(*HistoryStore)

// WithEvictEmpty remove do mapa os clientes cujo histórico ficou vazio após a poda.
// Desligado por padrão: a entrada vazia fica retida até o processo terminar.
func WithEvictEmpty(evict bool) HistoryOption {
	return func(s *HistoryStore) { s.evictEmpty = evict }
}

func WithSweepEvery(d time.Duration) HistoryOption {
	return func(s *HistoryStore) { s.sweepEvery = d }
}

// WithClock define o relógio usado pelo janitor. CheckAndRecord sempre recebe now.
func WithClock(c domain.Clock) HistoryOption {
	return func(s *HistoryStore) { s.clock = c }
}

func NewHistoryStore(short, long domain.WindowPolicy, opts ...HistoryOption) *HistoryStore {
	s := &HistoryStore{
		entries:    make(map[domain.ClientID]*history),
		short:      short,
		long:       long,
		retention:  max(short.Window, long.Window),
		sweepEvery: 10 * time.Minute,
		clock:      domain.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HistoryStore) Policies() (short, long domain.WindowPolicy) { return s.short, s.long }

// CheckAndRecord implementa domain.RateLimiter.
//
// Sequência atômica por cliente: poda pela maior janela, checa a curta, checa a
// longa e só então registra now. Rejeições não registram nada.
func (s *HistoryStore) CheckAndRecord(client domain.ClientID, now time.Time) domain.Decision {
	for {
		h := s.entry(client)

		h.mu.Lock()
		if h.removed {
			h.mu.Unlock()
			continue
		}
		dec := s.decide(h, now)
		h.mu.Unlock()
		return dec
	}
}

func (s *HistoryStore) entry(client domain.ClientID) *history {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.entries[client]
	if !ok {
		h = &history{}
		s.entries[client] = h
	}
	return h
}

// decide roda com h.mu travado.
func (s *HistoryStore) decide(h *history, now time.Time) domain.Decision {
	h.prune(now.Add(-s.retention))

	if retry, over := h.exceeded(now, s.short); over {
		return domain.Reject(domain.ShortWindowExceeded, retry)
	}
	if retry, over := h.exceeded(now, s.long); over {
		return domain.Reject(domain.LongWindowExceeded, retry)
	}

	h.stamps = append(h.stamps, now)
	return domain.Admit()
}

// prune remove todo t <= cutoff (um timestamp com exatamente window de idade já expirou).
func (h *history) prune(cutoff time.Time) {
	kept := h.stamps[:0]
	for _, t := range h.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		h.stamps = nil
		return
	}
	h.stamps = kept
}

// exceeded conta os timestamps dentro da janela e, se o limite foi atingido,
// devolve quanto falta para o mais antigo deles sair da janela.
func (h *history) exceeded(now time.Time, p domain.WindowPolicy) (time.Duration, bool) {
	cutoff := now.Add(-p.Window)

	count := 0
	var oldest time.Time
	for _, t := range h.stamps {
		if !t.After(cutoff) {
			continue
		}
		if count == 0 || t.Before(oldest) {
			oldest = t
		}
		count++
	}

	if count < p.Max {
		return 0, false
	}
	if count == 0 {
		return p.Window, true
	}
	return p.Window - now.Sub(oldest), true
}

// Count retorna quantos timestamps o cliente tem registrados (sem podar).
func (s *HistoryStore) Count(client domain.ClientID) int {
	s.mu.Lock()
	h, ok := s.entries[client]
	s.mu.Unlock()
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stamps)
}

// Len retorna quantos clientes estão no mapa, inclusive os de histórico vazio.
func (s *HistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep poda todos os históricos em now e, se WithEvictEmpty estiver ligado,
// remove as entradas vazias. Retorna quantas entradas foram removidas.
func (s *HistoryStore) Sweep(now time.Time) int {
	if !s.evictEmpty {
		return 0
	}
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, h := range s.entries {
		h.mu.Lock()
		h.prune(cutoff)
		if len(h.stamps) == 0 {
			h.removed = true
			delete(s.entries, k)
			removed++
		}
		h.mu.Unlock()
	}
	return removed
}

// StartJanitor inicia uma goroutine que remove históricos vazios periodicamente.
// Não faz nada se a remoção estiver desligada. Pare cancelando o contexto.
func (s *HistoryStore) StartJanitor(ctx context.Context) {
	if !s.evictEmpty || s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep(s.clock.Now())
			}
		}
	}()
}

var _ domain.RateLimiter = (*HistoryStore)(nil)
