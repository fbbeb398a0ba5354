package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"report-gateway/report/application"
	"report-gateway/report/domain"
)

const DefaultMaxBodyBytes = 10 << 20

type Options struct {
	Service      application.Service
	MaxBodyBytes int64
	// ClientFn devolve a identidade do cliente para o log da denúncia.
	ClientFn func(r *http.Request) string
	Logger   *slog.Logger
}

type submitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Total   int64  `json:"total,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler atende POST /report.
func Handler(opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ClientFn == nil {
		opts.ClientFn = func(r *http.Request) string { return r.RemoteAddr }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub domain.Submission
		body := http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
		if err := json.NewDecoder(body).Decode(&sub); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, submitResponse{Error: "payload too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, submitResponse{Error: "invalid json"})
			return
		}

		res, err := opts.Service.Submit(r.Context(), opts.ClientFn(r), sub)
		if err != nil {
			writeError(w, opts.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, submitResponse{
			Success: true,
			ID:      res.Report.ID.String(),
			Message: res.Receipt.Message,
			Total:   res.Total,
		})
	})
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var de *domain.DeliveryError
	switch {
	case errors.Is(err, domain.ErrMissingData):
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: "missing data"})
	case errors.Is(err, domain.ErrInvalidScreenshot):
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: "invalid screenshot"})
	case errors.As(err, &de):
		writeJSON(w, http.StatusBadGateway, submitResponse{Error: "relay rejected the report"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, submitResponse{Error: "relay timed out"})
	case errors.Is(err, domain.ErrRelay):
		log.Debug("report relay failed", "error", err)
		writeJSON(w, http.StatusBadGateway, submitResponse{Error: "relay unavailable"})
	case errors.Is(err, domain.ErrNoNotifier):
		writeJSON(w, http.StatusInternalServerError, submitResponse{Error: "server misconfiguration"})
	default:
		log.Error("report submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Home responde o health check simples da raiz.
func Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Job Reporter API is running\n"))
}

type totalResponse struct {
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

// TotalHandler devolve quantas denúncias já foram entregues.
func TotalHandler(counter domain.Counter, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := counter.Total(r.Context())
		if err != nil {
			logger.Warn("report total unavailable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, totalResponse{Error: "counter unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, totalResponse{Total: n})
	})
}
