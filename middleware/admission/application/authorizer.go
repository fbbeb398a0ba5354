package application

import (
	"crypto/subtle"

	"report-gateway/middleware/admission/domain"
)

// Authorizer valida o segredo compartilhado enviado pelo cliente. Não guarda estado.
type Authorizer struct{}

// Check compara provided com configured byte a byte (case-sensitive, tempo constante).
// configured vazio é erro de configuração do servidor, não do cliente.
func (Authorizer) Check(provided, configured string) domain.Decision {
	if configured == "" {
		return domain.Decision{Outcome: domain.ServerMisconfigured}
	}
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
		return domain.Decision{Outcome: domain.Unauthorized}
	}
	return domain.Admit()
}
