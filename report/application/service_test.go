package application

import (
	"context"
	"errors"
	"testing"
	"time"

	admissiondomain "report-gateway/middleware/admission/domain"
	"report-gateway/report/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	got     []domain.Report
	receipt domain.Receipt
	err     error
}

func (f *fakeNotifier) Notify(_ context.Context, r domain.Report) (domain.Receipt, error) {
	f.got = append(f.got, r)
	return f.receipt, f.err
}

type fakeCounter struct {
	n   int64
	err error
}

func (c *fakeCounter) Increment(context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.n++
	return c.n, nil
}

func (c *fakeCounter) Total(context.Context) (int64, error) { return c.n, c.err }

var fixedNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func newService(n *fakeNotifier, c domain.Counter) Service {
	return Service{
		Notifier: n,
		Counter:  c,
		Clock:    admissiondomain.ClockFunc(func() time.Time { return fixedNow }),
	}
}

func TestService_Submit_DeliversAndCounts(t *testing.T) {
	n := &fakeNotifier{receipt: domain.Receipt{ID: "<msg@mg>", Message: "Queued. Thank you."}}
	c := &fakeCounter{n: 41}

	res, err := newService(n, c).Submit(context.Background(), "10.0.0.1", domain.Submission{
		URL:  " https://jobs.example/ad/1 ",
		Time: "2025-03-01T11:59:00Z",
	})
	require.NoError(t, err)

	require.Len(t, n.got, 1)
	rep := n.got[0]
	assert.NotEqual(t, uuid.Nil, rep.ID)
	assert.Equal(t, "https://jobs.example/ad/1", rep.URL)
	assert.Equal(t, "2025-03-01T11:59:00Z", rep.ReportedAt)
	assert.Equal(t, fixedNow, rep.ReceivedAt)
	assert.Equal(t, "10.0.0.1", rep.Client)
	assert.Nil(t, rep.Screenshot)

	assert.Equal(t, rep.ID, res.Report.ID)
	assert.Equal(t, "<msg@mg>", res.Receipt.ID)
	assert.Equal(t, int64(42), res.Total)
}

func TestService_Submit_MissingData(t *testing.T) {
	n := &fakeNotifier{}
	svc := newService(n, nil)

	for _, sub := range []domain.Submission{
		{},
		{URL: "https://x"},
		{Time: "now"},
		{URL: "   ", Time: "now"},
	} {
		_, err := svc.Submit(context.Background(), "c", sub)
		assert.ErrorIs(t, err, domain.ErrMissingData)
	}
	assert.Empty(t, n.got)
}

func TestService_Submit_InvalidScreenshotIsNotDelivered(t *testing.T) {
	n := &fakeNotifier{}

	_, err := newService(n, nil).Submit(context.Background(), "c", domain.Submission{
		URL: "https://x", Time: "now", Screenshot: "data:image/png;base64,%%%",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidScreenshot)
	assert.Empty(t, n.got)
}

func TestService_Submit_DeliveryErrorSkipsCounter(t *testing.T) {
	n := &fakeNotifier{err: &domain.DeliveryError{Status: 401, Body: "Forbidden"}}
	c := &fakeCounter{}

	_, err := newService(n, c).Submit(context.Background(), "c", domain.Submission{URL: "https://x", Time: "now"})

	var de *domain.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 401, de.Status)
	assert.Equal(t, int64(0), c.n)
}

func TestService_Submit_CounterFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{}
	c := &fakeCounter{err: errors.New("redis down")}

	res, err := newService(n, c).Submit(context.Background(), "c", domain.Submission{URL: "https://x", Time: "now"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	assert.Len(t, n.got, 1)
}

func TestService_Submit_NoNotifier(t *testing.T) {
	obs := &recordingObserver{}
	_, err := Service{Observer: obs}.Submit(context.Background(), "c", domain.Submission{URL: "https://x", Time: "now"})

	require.ErrorIs(t, err, domain.ErrNoNotifier)
	assert.False(t, errors.Is(err, domain.ErrRelay))
	assert.Equal(t, []string{"misconfigured"}, obs.results)
	assert.Zero(t, obs.relayed)
}

func TestService_Submit_NotifierErrorsAreRelayFailures(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	_, err := newService(&fakeNotifier{err: down}, nil).Submit(context.Background(), "c", domain.Submission{URL: "https://x", Time: "now"})

	assert.ErrorIs(t, err, domain.ErrRelay)
	assert.ErrorIs(t, err, down)
}

type recordingObserver struct {
	results []string
	relayed int
}

func (o *recordingObserver) ObserveSubmission(result string, relay time.Duration) {
	o.results = append(o.results, result)
	if relay >= 0 {
		o.relayed++
	}
}

func TestService_Submit_ReportsOutcomeToObserver(t *testing.T) {
	obs := &recordingObserver{}
	ok := newService(&fakeNotifier{}, nil)
	ok.Observer = obs
	failing := newService(&fakeNotifier{err: errors.New("down")}, nil)
	failing.Observer = obs

	ctx := context.Background()
	_, _ = ok.Submit(ctx, "c", domain.Submission{})
	_, _ = ok.Submit(ctx, "c", domain.Submission{URL: "u", Time: "t", Screenshot: "data:image/png;base64,?"})
	_, _ = ok.Submit(ctx, "c", domain.Submission{URL: "u", Time: "t"})
	_, _ = failing.Submit(ctx, "c", domain.Submission{URL: "u", Time: "t"})

	assert.Equal(t, []string{"missing_data", "invalid_screenshot", "ok", "relay_error"}, obs.results)
	assert.Equal(t, 2, obs.relayed)
}
