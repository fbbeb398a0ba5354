package admission

import (
	"context"
	"log/slog"
	"net/http"

	"report-gateway/middleware/admission/infra"
)

// StatsReader é o lado de leitura de um StatsStore (memória ou Redis).
type StatsReader interface {
	Snapshot(ctx context.Context) (infra.StatsSnapshot, error)
}

// StatsHandler serve o snapshot das decisões de admissão em JSON.
func StatsHandler(reader StatsReader, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := reader.Snapshot(r.Context())
		if err != nil {
			logger.Warn("admission stats unavailable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "stats-unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})
}

var (
	_ StatsReader = (*infra.MemoryStatsStore)(nil)
	_ StatsReader = (*infra.RedisStatsStore)(nil)
)
