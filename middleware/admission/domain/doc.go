// Package domain define contratos e tipos de domínio da admissão de requisições:
// autorização por segredo compartilhado e rate limit por cliente em duas janelas.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
