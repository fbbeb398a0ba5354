package admission

import (
	"log/slog"
	"net/http"

	"report-gateway/middleware/admission/application"
	"report-gateway/middleware/admission/domain"
)

// DefaultCredentialHeader é o header enviado pela extensão do navegador.
const DefaultCredentialHeader = "X-Gehaltsmelder-Auth"

type Options struct {
	Secret              string
	Limiter             domain.RateLimiter
	Clock               domain.Clock
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	CredentialHeader    string
	TrustXForwardedFor  bool
	AddRateLimitHeaders bool
	Logger              *slog.Logger
}

type policyInfo interface {
	Policies() (short, long domain.WindowPolicy)
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustXForwardedFor)
	}
	if opts.CredentialHeader == "" {
		opts.CredentialHeader = DefaultCredentialHeader
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc := application.Service{
		Secret:  opts.Secret,
		Limiter: opts.Limiter,
		Clock:   opts.Clock,
		Logger:  opts.Logger,
	}

	var policyHeader string
	if pi, ok := opts.Limiter.(policyInfo); ok {
		short, long := pi.Policies()
		policyHeader = formatPolicy(short) + ", " + formatPolicy(long)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			credential := r.Header.Get(opts.CredentialHeader)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if policyHeader != "" {
					w.Header().Set("X-RateLimit-Policy", policyHeader)
				}
			}

			dec := svc.Decide(domain.ClientID(key), credential)
			if opts.Stats != nil {
				err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     domain.ClientID(key),
					Outcome: dec.Label(),
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      opts.Clock.Now(),
				})
				if err != nil {
					opts.Logger.Debug("admission stats not recorded", "error", err)
				}
			}
			if !dec.Allowed() {
				writeDecision(w, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
