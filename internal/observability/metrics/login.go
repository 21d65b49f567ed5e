package metrics

import (
	"time"

	obserrors "github.com/danxi/authgate/internal/observability/errors"
	"github.com/danxi/authgate/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// LoginMetric captures one login attempt for metric emission.
type LoginMetric struct {
	Strategy string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitLogin emits the attempt counter and its duration.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"strategy": in.Strategy,
		"result":   in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_kind"] = obserrors.Classify(in.Err)
	}

	sink.Count("auth.login", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.login.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
