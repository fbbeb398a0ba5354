package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"report-gateway/middleware/admission/domain"
	reportdomain "report-gateway/report/domain"

	"github.com/google/uuid"
)

type Result struct {
	Report  reportdomain.Report
	Receipt reportdomain.Receipt
	// Total é o contador após o incremento; 0 se o contador falhou ou não existe.
	Total int64
}

// Observer recebe o resultado de cada envio (métricas).
// relay < 0 quando o relay não chegou a ser chamado.
type Observer interface {
	ObserveSubmission(result string, relay time.Duration)
}

// Service recebe denúncias já admitidas pelo middleware de admissão.
type Service struct {
	Notifier reportdomain.Notifier
	Counter  reportdomain.Counter
	Clock    domain.Clock
	Observer Observer
	Logger   *slog.Logger
}

func (s Service) observe(result string, relay time.Duration) {
	if s.Observer != nil {
		s.Observer.ObserveSubmission(result, relay)
	}
}

func (s Service) Submit(ctx context.Context, client string, sub reportdomain.Submission) (Result, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	clock := s.Clock
	if clock == nil {
		clock = domain.SystemClock
	}

	url := strings.TrimSpace(sub.URL)
	reportedAt := strings.TrimSpace(sub.Time)
	if url == "" || reportedAt == "" {
		s.observe("missing_data", -1)
		return Result{}, reportdomain.ErrMissingData
	}

	shot, err := decodeScreenshot(sub.Screenshot)
	if err != nil {
		s.observe("invalid_screenshot", -1)
		return Result{}, err
	}

	rep := reportdomain.Report{
		ID:         uuid.New(),
		URL:        url,
		ReportedAt: reportedAt,
		Screenshot: shot,
		ReceivedAt: clock.Now().UTC(),
		Client:     client,
	}

	if s.Notifier == nil {
		s.observe("misconfigured", -1)
		log.Error("report not delivered", "report_id", rep.ID, "error", reportdomain.ErrNoNotifier)
		return Result{Report: rep}, reportdomain.ErrNoNotifier
	}

	started := time.Now()
	receipt, err := s.Notifier.Notify(ctx, rep)
	elapsed := time.Since(started)
	if err != nil {
		s.observe("relay_error", elapsed)
		log.Error("report delivery failed", "report_id", rep.ID, "error", err)
		return Result{Report: rep}, fmt.Errorf("%w: %w", reportdomain.ErrRelay, err)
	}
	s.observe("ok", elapsed)
	log.Info("report delivered",
		"report_id", rep.ID,
		"client", client,
		"screenshot", shot != nil,
		"duration", elapsed,
	)

	res := Result{Report: rep, Receipt: receipt}
	if s.Counter != nil {
		total, err := s.Counter.Increment(ctx)
		if err != nil {
			log.Warn("report counter not updated", "report_id", rep.ID, "error", err)
		} else {
			res.Total = total
		}
	}
	return res, nil
}
