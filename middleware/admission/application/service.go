package application

import (
	"log/slog"

	"report-gateway/middleware/admission/domain"
)

// Service é a fachada da admissão: autoriza e, só então, consulta o rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Requisições não autorizadas nunca tocam o histórico do cliente, mesmo que a
// identidade seja de um cliente legítimo.
type Service struct {
	Secret  string
	Limiter domain.RateLimiter
	Clock   domain.Clock
	Logger  *slog.Logger

	auth Authorizer
}

func (s Service) Decide(client domain.ClientID, credential string) domain.Decision {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	dec := s.auth.Check(credential, s.Secret)
	switch dec.Outcome {
	case domain.ServerMisconfigured:
		log.Error("admission secret is not configured", "client", client)
		return dec
	case domain.Unauthorized:
		log.Warn("unauthorized request", "client", client, "credential_present", credential != "")
		return dec
	}

	if s.Limiter == nil {
		return dec
	}

	clock := s.Clock
	if clock == nil {
		clock = domain.SystemClock
	}

	dec = s.Limiter.CheckAndRecord(client, clock.Now())
	if !dec.Allowed() {
		log.Warn("rate limit exceeded",
			"client", client,
			"window", dec.Reason.String(),
			"retry_after_s", dec.RetryAfterSeconds(),
		)
	}
	return dec
}
