package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Anomaly kinds reported for the SSO portal.
const (
	// KindUnclassifiedResponse means no marker matched; the portal copy likely changed.
	KindUnclassifiedResponse = "unclassified_response"
	KindMaintenance          = "maintenance"
)

// PortalAnomalyPayload captures the canonical data we emit when the SSO portal answers
// in a way that needs operator attention.
type PortalAnomalyPayload struct {
	Kind          string
	Strategy      string
	LoginURL      string
	MarkerVersion string
	StatusCode    int
	Snippet       string
	Severity      string
	OccurredAt    time.Time
	Metadata      map[string]string
}

// DedupKey groups repeats of the same anomaly.
func (p PortalAnomalyPayload) DedupKey() string {
	return "portal:" + p.Kind + ":" + p.MarkerVersion
}

// Sink describes a destination capable of consuming portal anomaly notifications.
type Sink interface {
	SendPortalAnomaly(ctx context.Context, payload PortalAnomalyPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload PortalAnomalyPayload) error

// SendPortalAnomaly implements the Sink interface.
func (f SinkFunc) SendPortalAnomaly(ctx context.Context, payload PortalAnomalyPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
