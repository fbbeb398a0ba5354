// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - HistoryStore: rate limit por cliente com log de timestamps e duas janelas
//   - ChanPool: semáforo simples para limite de envios simultâneos
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: estatísticas das decisões
package infra
