package domain

// Camada de domínio da admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"errors"
	"time"
)

// ClientID identifica o cliente (em geral o IP da conexão). É opaco para o domínio.
type ClientID string

type Outcome int

const (
	Admitted Outcome = iota
	Rejected
	Unauthorized
	ServerMisconfigured
)

func (o Outcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case Rejected:
		return "rejected"
	case Unauthorized:
		return "unauthorized"
	case ServerMisconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// Reason só tem significado quando Outcome == Rejected.
type Reason int

const (
	NoReason Reason = iota
	ShortWindowExceeded
	LongWindowExceeded
)

func (r Reason) String() string {
	switch r {
	case ShortWindowExceeded:
		return "short_window"
	case LongWindowExceeded:
		return "long_window"
	default:
		return ""
	}
}

type Decision struct {
	Outcome Outcome
	Reason  Reason
	// RetryAfter é o tempo até a requisição mais antiga da janela violada expirar.
	// Zero quando não é Rejected.
	RetryAfter time.Duration
}

func Admit() Decision { return Decision{Outcome: Admitted} }

func Reject(reason Reason, retryAfter time.Duration) Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{Outcome: Rejected, Reason: reason, RetryAfter: retryAfter}
}

func (d Decision) Allowed() bool { return d.Outcome == Admitted }

// Label é o rótulo estável usado em estatísticas e métricas.
func (d Decision) Label() string {
	if d.Outcome == Rejected && d.Reason != NoReason {
		return d.Reason.String()
	}
	return d.Outcome.String()
}

// RetryAfterSeconds arredonda para baixo, em segundos inteiros.
func (d Decision) RetryAfterSeconds() int {
	return int(d.RetryAfter / time.Second)
}

// WindowPolicy é imutável: no máximo Max requisições admitidas em qualquer Window.
type WindowPolicy struct {
	Window time.Duration
	Max    int
}

var (
	ErrInvalidWindow = errors.New("window must be > 0")
	ErrInvalidMax    = errors.New("max must be >= 1")
)

func (p WindowPolicy) Validate() error {
	if p.Window <= 0 {
		return ErrInvalidWindow
	}
	if p.Max < 1 {
		return ErrInvalidMax
	}
	return nil
}

// RateLimiter decide e registra de forma atômica por cliente.
// O registro (append de now) só acontece quando a decisão é Admitted.
type RateLimiter interface {
	CheckAndRecord(client ClientID, now time.Time) Decision
}
