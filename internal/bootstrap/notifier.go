package bootstrap

import (
	"log/slog"

	"github.com/danxi/authgate/config"
	"github.com/danxi/authgate/internal/observability/notify/pagerduty"
	"github.com/danxi/authgate/internal/observability/notify/slack"
	"github.com/danxi/authgate/internal/service"
	"github.com/danxi/authgate/internal/service/anomalynotifier"
)

var _ service.AnomalyReporter = (*anomalynotifier.Service)(nil)

// buildAnomalyNotifier assembles the configured notification sinks. A sink that fails to
// initialise is logged and skipped so alerting never blocks startup.
func buildAnomalyNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *anomalynotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return anomalynotifier.NewService(anomalynotifier.Options{Logger: baseLogger})
	}

	sinks := make([]anomalynotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, anomalynotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, anomalynotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return anomalynotifier.NewService(anomalynotifier.Options{
		Logger:      baseLogger,
		Sinks:       sinks,
		SuppressFor: cfg.SuppressFor,
	})
}
