package admission

import (
	"encoding/json"
	"net/http"
	"strconv"

	"report-gateway/middleware/admission/domain"
)

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter *int   `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDecision traduz uma decisão negativa em resposta HTTP.
func writeDecision(w http.ResponseWriter, dec domain.Decision) {
	switch dec.Outcome {
	case domain.ServerMisconfigured:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server-misconfiguration"})
	case domain.Unauthorized:
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	default:
		secs := dec.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:      "rate-limit-exceeded",
			Message:    "Too many requests. Please wait " + strconv.Itoa(secs) + " seconds.",
			RetryAfter: &secs,
		})
	}
}

// formatPolicy segue o formato "limite;w=segundos" do rascunho RateLimit-Policy.
func formatPolicy(p domain.WindowPolicy) string {
	return strconv.Itoa(p.Max) + ";w=" + strconv.FormatInt(int64(p.Window.Seconds()), 10)
}
