package infra

import (
	"context"
	"log/slog"

	"report-gateway/report/domain"
)

// LogNotifier só registra a denúncia no log. Usado quando o Mailgun não está configurado.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, r domain.Report) (domain.Receipt, error) {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("report received (dry run)",
		"report_id", r.ID,
		"url", r.URL,
		"reported_at", r.ReportedAt,
		"screenshot", r.Screenshot != nil,
	)
	return domain.Receipt{ID: r.ID.String(), Message: "dry run: report logged"}, nil
}
