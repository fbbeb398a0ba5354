// Package admission fornece adapters HTTP (net/http) para a admissão de requisições
// mutáveis: segredo compartilhado + rate limit por cliente em duas janelas, e
// limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (autorização, decisão admit/reject, acquire/timeout)
//   - infra: implementações concretas (histórico por cliente, semáforo, estatísticas)
//   - admission (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo:
//
//  1. Extrai a chave do cliente (IP da conexão, ou XFF se confiável)
//  2. Lê a credencial do header configurado
//  3. Chama application.Service.Decide
//  4. Responde 500 (segredo ausente no servidor), 401 (credencial inválida) ou
//     429 (rate limit, com Retry-After); se admitido, chama o próximo handler
package admission
