package domain

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Submission é o corpo JSON enviado pela extensão.
type Submission struct {
	URL        string `json:"url"`
	Time       string `json:"time"`
	Screenshot string `json:"screenshot,omitempty"`
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Report struct {
	ID  uuid.UUID
	URL string
	// ReportedAt é o horário informado pelo cliente, repassado sem interpretação.
	ReportedAt string
	Screenshot *Attachment
	ReceivedAt time.Time
	Client     string
}

// Receipt é a confirmação do relay de envio.
type Receipt struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Notifier entrega a denúncia (e-mail / API).
type Notifier interface {
	Notify(ctx context.Context, r Report) (Receipt, error)
}

// Counter guarda o total de denúncias entregues.
type Counter interface {
	Increment(ctx context.Context) (int64, error)
	Total(ctx context.Context) (int64, error)
}

var (
	ErrMissingData       = errors.New("missing data")
	ErrInvalidScreenshot = errors.New("invalid screenshot")
	// ErrNoNotifier: o serviço subiu sem relay configurado (falha do servidor).
	ErrNoNotifier = errors.New("no notifier configured")
	// ErrRelay envolve qualquer falha devolvida pelo Notifier.
	ErrRelay = errors.New("relay failed")
)

// DeliveryError é a resposta não-2xx do relay.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return "relay responded " + strconv.Itoa(e.Status) + ": " + e.Body
}
