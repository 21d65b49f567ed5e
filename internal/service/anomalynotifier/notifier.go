package anomalynotifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danxi/authgate/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the anomaly notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// SuppressFor drops payloads whose DedupKey was delivered within the window. Zero disables.
	SuppressFor time.Duration
	// ReportTimeout bounds one asynchronous Report delivery. Defaults to 30 seconds.
	ReportTimeout time.Duration
	Now           func() time.Time
}

const defaultReportTimeout = 30 * time.Second

// Service dispatches portal anomalies to all registered sinks.
type Service struct {
	logger      *slog.Logger
	sinks       []SinkRegistration
	suppressFor time.Duration
	timeout     time.Duration
	now         func() time.Time

	inflight sync.WaitGroup

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewService constructs an anomaly notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.ReportTimeout
	if timeout <= 0 {
		timeout = defaultReportTimeout
	}

	return &Service{
		logger:      logger.With("component", "anomaly_notifier"),
		sinks:       sinks,
		suppressFor: max(opts.SuppressFor, 0),
		timeout:     timeout,
		now:         now,
		lastSent:    make(map[string]time.Time),
	}
}

// NotifyPortalAnomaly fans the payload out to all sinks and waits for delivery.
func (s *Service) NotifyPortalAnomaly(ctx context.Context, payload notify.PortalAnomalyPayload) {
	if len(s.sinks) == 0 {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = s.now()
	}
	if s.suppressed(payload.DedupKey(), payload.OccurredAt) {
		s.logger.DebugContext(ctx, "suppressing repeated portal anomaly", "kind", payload.Kind)
		return
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendPortalAnomaly(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "anomaly notifier delivery error",
					"sink", entry.Name,
					"kind", payload.Kind,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// ReportPortalAnomaly delivers the payload in the background on a context detached from
// ctx's cancellation. Drain waits for reports still in flight.
func (s *Service) ReportPortalAnomaly(ctx context.Context, payload notify.PortalAnomalyPayload) {
	if len(s.sinks) == 0 {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.NotifyPortalAnomaly(rctx, payload)
	}()
}

// Drain blocks until every report started by ReportPortalAnomaly has finished or ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain anomaly reports: %w", ctx.Err())
	}
}

// suppressed records the delivery time for key and reports whether an earlier one is still in window.
func (s *Service) suppressed(key string, at time.Time) bool {
	if s.suppressFor <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSent[key]; ok && at.Sub(last) < s.suppressFor {
		return true
	}
	s.lastSent[key] = at
	for k, t := range s.lastSent {
		if at.Sub(t) >= s.suppressFor {
			delete(s.lastSent, k)
		}
	}
	return false
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}
