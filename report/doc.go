// Package report expõe o endpoint HTTP de envio de denúncias. A admissão
// (segredo + rate limit) fica no middleware de middleware/admission, montado antes.
package report
