// Package application contém os casos de uso da admissão: autorização por segredo
// compartilhado, rate limit em duas janelas e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(client, credential) retorna uma Decision
// (admitted / unauthorized / misconfigured / rejected + retry-after).
package application
