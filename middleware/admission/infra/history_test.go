package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"report-gateway/middleware/admission/domain"
)

var (
	minute = domain.WindowPolicy{Window: 60 * time.Second, Max: 5}
	day    = domain.WindowPolicy{Window: 24 * time.Hour, Max: 50}
	epoch  = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
)

func at(sec float64) time.Time {
	return epoch.Add(time.Duration(sec * float64(time.Second)))
}

func TestHistoryStore_ShortWindowScenario(t *testing.T) {
	s := NewHistoryStore(minute, day)

	for _, sec := range []float64{0, 10, 20, 30, 40} {
		if dec := s.CheckAndRecord("A", at(sec)); !dec.Allowed() {
			t.Fatalf("expected t=%v admitted, got %s", sec, dec.Label())
		}
	}

	dec := s.CheckAndRecord("A", at(45))
	if dec.Outcome != domain.Rejected || dec.Reason != domain.ShortWindowExceeded {
		t.Fatalf("expected short window rejection, got %s", dec.Label())
	}
	if dec.RetryAfter != 15*time.Second {
		t.Fatalf("expected RetryAfter=15s, got %s", dec.RetryAfter)
	}
	if dec.RetryAfterSeconds() != 15 {
		t.Fatalf("expected 15 whole seconds, got %d", dec.RetryAfterSeconds())
	}

	if dec := s.CheckAndRecord("A", at(61)); !dec.Allowed() {
		t.Fatalf("expected t=61 admitted after t=0 expired, got %s", dec.Label())
	}
	if got := s.Count("A"); got != 6 {
		t.Fatalf("expected 6 recorded timestamps, got %d", got)
	}
}

func TestHistoryStore_RetryAfterUsesOldestInsideViolatedWindow(t *testing.T) {
	s := NewHistoryStore(minute, day)

	// t=0 fica fora da janela curta em t=100, mas continua no histórico (janela longa).
	s.CheckAndRecord("A", at(0))
	for _, sec := range []float64{70, 80, 90, 95, 99} {
		if dec := s.CheckAndRecord("A", at(sec)); !dec.Allowed() {
			t.Fatalf("expected t=%v admitted", sec)
		}
	}

	dec := s.CheckAndRecord("A", at(100))
	if dec.Reason != domain.ShortWindowExceeded {
		t.Fatalf("expected short window rejection, got %s", dec.Label())
	}
	// 60 - (100 - 70)
	if dec.RetryAfter != 30*time.Second {
		t.Fatalf("expected RetryAfter=30s, got %s", dec.RetryAfter)
	}
}

func TestHistoryStore_WindowBoundaryIsStrict(t *testing.T) {
	s := NewHistoryStore(minute, day)

	for i := 0; i < 5; i++ {
		s.CheckAndRecord("A", at(0))
	}
	if dec := s.CheckAndRecord("A", at(59.999)); dec.Allowed() {
		t.Fatalf("expected rejection just before the window edge")
	}
	// exatamente 60s de idade => expirado
	if dec := s.CheckAndRecord("A", at(60)); !dec.Allowed() {
		t.Fatalf("expected admission at exactly window age, got %s", dec.Label())
	}
}

func TestHistoryStore_LongWindowRejectsFiftyFirst(t *testing.T) {
	s := NewHistoryStore(minute, day)

	// 50 requisições espaçadas de 5min: nunca violam a janela curta.
	for i := 0; i < 50; i++ {
		if dec := s.CheckAndRecord("A", at(float64(i*300))); !dec.Allowed() {
			t.Fatalf("expected request %d admitted, got %s", i+1, dec.Label())
		}
	}

	now := at(float64(50 * 300))
	dec := s.CheckAndRecord("A", now)
	if dec.Outcome != domain.Rejected || dec.Reason != domain.LongWindowExceeded {
		t.Fatalf("expected long window rejection, got %s", dec.Label())
	}
	want := 24*time.Hour - now.Sub(at(0))
	if dec.RetryAfter != want {
		t.Fatalf("expected RetryAfter=%s, got %s", want, dec.RetryAfter)
	}
}

func TestHistoryStore_ShortWindowReportedBeforeLong(t *testing.T) {
	s := NewHistoryStore(domain.WindowPolicy{Window: time.Minute, Max: 2}, domain.WindowPolicy{Window: time.Hour, Max: 2})

	s.CheckAndRecord("A", at(0))
	s.CheckAndRecord("A", at(1))

	dec := s.CheckAndRecord("A", at(2))
	if dec.Reason != domain.ShortWindowExceeded {
		t.Fatalf("expected short window to win when both are violated, got %s", dec.Label())
	}
}

func TestHistoryStore_RejectionDoesNotRecord(t *testing.T) {
	s := NewHistoryStore(minute, day)

	for i := 0; i < 5; i++ {
		s.CheckAndRecord("A", at(0))
	}

	var last time.Duration
	for i := 0; i < 20; i++ {
		now := at(30 + float64(i))
		dec := s.CheckAndRecord("A", now)
		if dec.Reason != domain.ShortWindowExceeded {
			t.Fatalf("expected short window rejection on retry %d, got %s", i, dec.Label())
		}
		if i > 0 && dec.RetryAfter != last-time.Second {
			t.Fatalf("expected wait to shrink with the clock only, got %s after %s", dec.RetryAfter, last)
		}
		last = dec.RetryAfter
	}
	if got := s.Count("A"); got != 5 {
		t.Fatalf("expected history to stay at 5, got %d", got)
	}
}

func TestHistoryStore_SelfHealsAfterWindow(t *testing.T) {
	s := NewHistoryStore(minute, day)

	for i := 0; i < 5; i++ {
		s.CheckAndRecord("A", at(float64(i)))
	}
	if dec := s.CheckAndRecord("A", at(10)); dec.Allowed() {
		t.Fatalf("expected rejection")
	}
	if dec := s.CheckAndRecord("A", at(60)); !dec.Allowed() {
		t.Fatalf("expected admission 60s after the oldest counted request, got %s", dec.Label())
	}
}

func TestHistoryStore_ClientsAreIsolated(t *testing.T) {
	s := NewHistoryStore(minute, day)

	for i := 0; i < 5; i++ {
		for _, c := range []domain.ClientID{"A", "B"} {
			if dec := s.CheckAndRecord(c, at(float64(i*10))); !dec.Allowed() {
				t.Fatalf("expected %s request %d admitted", c, i+1)
			}
		}
	}
	if got := s.Count("A"); got != 5 {
		t.Fatalf("expected 5 entries for A, got %d", got)
	}
	if got := s.Count("B"); got != 5 {
		t.Fatalf("expected 5 entries for B, got %d", got)
	}
	if got := s.Count("C"); got != 0 {
		t.Fatalf("expected no entries for unseen client, got %d", got)
	}
}

func TestHistoryStore_PrunesBeyondLongestWindow(t *testing.T) {
	s := NewHistoryStore(minute, day)

	s.CheckAndRecord("A", at(0))
	s.CheckAndRecord("A", at(10))
	s.CheckAndRecord("A", at(86400))

	if got := s.Count("A"); got != 2 {
		t.Fatalf("expected t=0 pruned after 24h, got %d entries", got)
	}
}

func TestHistoryStore_RetentionUsesLargerWindow(t *testing.T) {
	// janela "longa" menor que a curta: a retenção segue a maior das duas.
	s := NewHistoryStore(domain.WindowPolicy{Window: time.Hour, Max: 3}, domain.WindowPolicy{Window: time.Minute, Max: 100})

	s.CheckAndRecord("A", at(0))
	s.CheckAndRecord("A", at(120))
	s.CheckAndRecord("A", at(240))

	dec := s.CheckAndRecord("A", at(300))
	if dec.Reason != domain.ShortWindowExceeded {
		t.Fatalf("expected hour window to still count t=0, got %s", dec.Label())
	}
}

func TestHistoryStore_EmptyEntriesAreRetainedByDefault(t *testing.T) {
	s := NewHistoryStore(minute, day)

	s.CheckAndRecord("A", at(0))
	if removed := s.Sweep(at(2 * 86400)); removed != 0 {
		t.Fatalf("expected no eviction by default, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected entry to be retained, got %d entries", s.Len())
	}
}

func TestHistoryStore_SweepEvictsEmptyEntries(t *testing.T) {
	s := NewHistoryStore(minute, day, WithEvictEmpty(true))

	s.CheckAndRecord("old", at(0))
	s.CheckAndRecord("fresh", at(86000))

	if removed := s.Sweep(at(86500)); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", s.Len())
	}
	if dec := s.CheckAndRecord("old", at(86501)); !dec.Allowed() {
		t.Fatalf("expected evicted client to start over, got %s", dec.Label())
	}
	if s.Len() != 2 {
		t.Fatalf("expected evicted client to be recreated, got %d entries", s.Len())
	}
}

func TestHistoryStore_JanitorSweepsWithClock(t *testing.T) {
	var now atomic.Int64
	now.Store(at(0).UnixNano())
	clock := domain.ClockFunc(func() time.Time { return time.Unix(0, now.Load()) })

	s := NewHistoryStore(minute, day, WithEvictEmpty(true), WithSweepEvery(2*time.Millisecond), WithClock(clock))
	s.CheckAndRecord("A", at(0))
	now.Store(at(2 * 86400).UnixNano())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitor(ctx)

	deadline := time.Now().Add(time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected janitor to evict the empty entry")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHistoryStore_ConcurrentSameInstantAdmitsExactlyMax(t *testing.T) {
	s := NewHistoryStore(minute, day)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.CheckAndRecord("A", at(0)).Allowed() {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", got)
	}
	if got := s.Count("A"); got != 5 {
		t.Fatalf("expected 5 recorded timestamps, got %d", got)
	}
	if s.Len() != 1 {
		t.Fatalf("expected a single entry for concurrent first access, got %d", s.Len())
	}
}

func TestHistoryStore_ConcurrentWithSweepKeepsCounts(t *testing.T) {
	s := NewHistoryStore(domain.WindowPolicy{Window: time.Minute, Max: 1000}, day, WithEvictEmpty(true))

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if s.CheckAndRecord("A", at(0)).Allowed() {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			s.Sweep(at(0))
		}
	}()
	wg.Wait()

	if got := s.Count("A"); int32(got) != admitted.Load() {
		t.Fatalf("expected %d recorded timestamps, got %d", admitted.Load(), got)
	}
	if admitted.Load() != 50 {
		t.Fatalf("expected long window max (50) admissions, got %d", admitted.Load())
	}
}
