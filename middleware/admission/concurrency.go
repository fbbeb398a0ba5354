package admission

import (
	"log/slog"
	"net/http"
	"time"

	"report-gateway/middleware/admission/application"
	"report-gateway/middleware/admission/domain"
	"report-gateway/middleware/admission/infra"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo padrão (infra.NewChanPool(Max)).
	Pool   domain.SlotPool
	Logger *slog.Logger
}

// ConcurrencyMiddleware limita quantas requisições rodam ao mesmo tempo.
// Sem vaga dentro do timeout, responde 503.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
		Logger:         opts.Logger,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "server-busy"})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
