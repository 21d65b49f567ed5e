package anomalynotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danxi/authgate/internal/observability/notify"
)

type captureSink struct {
	mu       sync.Mutex
	received []notify.PortalAnomalyPayload
}

func (c *captureSink) SendPortalAnomaly(_ context.Context, p notify.PortalAnomalyPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, p)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestServiceNotifyPortalAnomaly(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: sink}}})

	svc.NotifyPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{Kind: notify.KindUnclassifiedResponse})

	if sink.count() != 1 {
		t.Fatalf("expected 1 payload, got %d", sink.count())
	}
	got := sink.received[0]
	if got.Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", got.Severity)
	}
	if got.OccurredAt.IsZero() {
		t.Fatal("expected occurred-at to be stamped")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "nil"}}})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	svc.NotifyPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{Kind: "x"})
}

func TestServiceLogsErrors(t *testing.T) {
	ok := &captureSink{}
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "fail", Sink: notify.SinkFunc(func(context.Context, notify.PortalAnomalyPayload) error {
				return errors.New("boom")
			})},
			{Name: "ok", Sink: ok},
		},
	})

	svc.NotifyPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{Kind: "x"})
	if ok.count() != 1 {
		t.Fatal("a failing sink must not block the others")
	}
}

func TestServiceSuppressesRepeats(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sink := &captureSink{}
	svc := NewService(Options{
		Sinks:       []SinkRegistration{{Name: "capture", Sink: sink}},
		SuppressFor: 10 * time.Minute,
		Now:         func() time.Time { return now },
	})
	ctx := context.Background()
	drift := notify.PortalAnomalyPayload{Kind: notify.KindUnclassifiedResponse, MarkerVersion: "v1"}

	svc.NotifyPortalAnomaly(ctx, drift)
	svc.NotifyPortalAnomaly(ctx, drift)
	if sink.count() != 1 {
		t.Fatalf("expected repeat to be suppressed, got %d deliveries", sink.count())
	}

	// a different anomaly is not suppressed
	svc.NotifyPortalAnomaly(ctx, notify.PortalAnomalyPayload{Kind: notify.KindMaintenance, MarkerVersion: "v1"})
	if sink.count() != 2 {
		t.Fatalf("expected distinct anomaly delivered, got %d", sink.count())
	}

	now = now.Add(10 * time.Minute)
	svc.NotifyPortalAnomaly(ctx, drift)
	if sink.count() != 3 {
		t.Fatalf("expected delivery after the window, got %d", sink.count())
	}
}

func TestServiceReportIsAsyncAndDrains(t *testing.T) {
	release := make(chan struct{})
	sink := &captureSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{
		{Name: "slow", Sink: notify.SinkFunc(func(ctx context.Context, p notify.PortalAnomalyPayload) error {
			<-release
			return sink.SendPortalAnomaly(ctx, p)
		})},
	}})

	ctx, cancel := context.WithCancel(context.Background())
	svc.ReportPortalAnomaly(ctx, notify.PortalAnomalyPayload{Kind: notify.KindMaintenance})
	// the caller's cancellation must not abort delivery
	cancel()

	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	if err := svc.Drain(short); err == nil {
		t.Fatal("expected drain to time out while delivery is blocked")
	}

	close(release)
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected the report delivered before drain returned, got %d", sink.count())
	}
}

func TestServiceReportWithoutSinks(t *testing.T) {
	svc := NewService(Options{})
	svc.ReportPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{Kind: "x"})
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
}
