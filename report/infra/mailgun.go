package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"report-gateway/report/domain"

	"github.com/mailgun/mailgun-go/v4"
	"golang.org/x/time/rate"
)

const (
	mailSubject = "Meldung einer Jobanzeige ohne Gehaltsangabe"
	maxErrBody  = 512
)

type MailgunConfig struct {
	APIKey string
	Domain string
	To     string
	// BaseURL é repassado ao SDK como está; vazio usa a região US padrão.
	BaseURL string
	// RPS/Burst limitam o ritmo de chamadas ao relay; RPS <= 0 desliga.
	RPS   float64
	Burst int
}

// MailgunNotifier envia a denúncia pela API de mensagens do Mailgun.
type MailgunNotifier struct {
	cfg     MailgunConfig
	mg      *mailgun.MailgunImpl
	limiter *rate.Limiter
	logger  *slog.Logger
}

type MailgunOption func(*MailgunNotifier)

func WithHTTPClient(c *http.Client) MailgunOption {
	return func(n *MailgunNotifier) { n.mg.SetClient(c) }
}

func WithMailgunLogger(l *slog.Logger) MailgunOption {
	return func(n *MailgunNotifier) { n.logger = l }
}

func NewMailgunNotifier(cfg MailgunConfig, opts ...MailgunOption) *MailgunNotifier {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	mg.SetClient(&http.Client{Timeout: 15 * time.Second})
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		mg.SetAPIBase(base)
	}

	n := &MailgunNotifier{
		cfg:     cfg,
		mg:      mg,
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  slog.Default(),
	}
	if cfg.RPS > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *MailgunNotifier) Notify(ctx context.Context, r domain.Report) (domain.Receipt, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return domain.Receipt{}, fmt.Errorf("wait for relay slot: %w", err)
	}

	msg, err := n.message(r)
	if err != nil {
		return domain.Receipt{}, err
	}

	status, id, err := n.mg.Send(ctx, msg)
	if err != nil {
		var ure *mailgun.UnexpectedResponseError
		if errors.As(err, &ure) {
			return domain.Receipt{}, &domain.DeliveryError{Status: ure.Actual, Body: errBody(ure.Data)}
		}
		return domain.Receipt{}, fmt.Errorf("relay request: %w", err)
	}

	n.logger.Debug("report relayed", "report_id", r.ID, "relay_id", id)
	return domain.Receipt{ID: id, Message: status}, nil
}

func (n *MailgunNotifier) message(r domain.Report) (*mailgun.Message, error) {
	from := fmt.Sprintf("Job Reporter <mailgun@%s>", n.cfg.Domain)
	msg := n.mg.NewMessage(from, mailSubject, messageText(r), n.cfg.To)

	if err := msg.AddVariable("report-id", r.ID.String()); err != nil {
		return nil, fmt.Errorf("encode report id: %w", err)
	}
	if shot := r.Screenshot; shot != nil {
		msg.AddBufferAttachment(shot.Filename, shot.Data)
	}
	return msg, nil
}

func errBody(raw []byte) string {
	if len(raw) > maxErrBody {
		raw = raw[:maxErrBody]
	}
	return strings.TrimSpace(string(raw))
}

func messageText(r domain.Report) string {
	return fmt.Sprintf(`
Eine neue Meldung wurde eingereicht.

Zeitpunkt: %s
Link: %s
Meldungs-ID: %s

-- Diese Nachricht wurde automatisch vom Browser-Addon 'Job Ad Reporter' erstellt --
`, r.ReportedAt, r.URL, r.ID)
}
