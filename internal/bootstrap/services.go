package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danxi/authgate/config"
	"github.com/danxi/authgate/internal/observability/statsd"
	"github.com/danxi/authgate/internal/service"
	"github.com/danxi/authgate/internal/service/anomalynotifier"
)

// ServiceContainer holds the application services and the resources they own.
type ServiceContainer struct {
	Auth     *service.AuthService
	Sessions *service.SessionMaterializer
	Store    *Store
	Metrics  *statsd.Client
	Notifier *anomalynotifier.Service
}

// notifierDrainTimeout bounds how long Close waits for anomaly reports still being delivered.
const notifierDrainTimeout = 15 * time.Second

// Close waits for pending anomaly reports, then releases the store connection and the metrics socket.
func (c *ServiceContainer) Close() error {
	var errs []error
	if c.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), notifierDrainTimeout)
		errs = append(errs, c.Notifier.Drain(ctx))
		cancel()
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Metrics != nil {
		errs = append(errs, c.Metrics.Close())
	}
	return errors.Join(errs...)
}

// NewServices opens the store and builds the auth service from configuration.
func NewServices(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	container := &ServiceContainer{
		Store:    store,
		Metrics:  newMetricsSink(cfg.Observability.Metrics, logger),
		Notifier: buildAnomalyNotifier(logger, cfg.Observability.Notifications),
	}

	var sink statsd.Sink
	if container.Metrics != nil {
		sink = container.Metrics
	}
	var anomalies service.AnomalyReporter
	if container.Notifier.Enabled() {
		anomalies = container.Notifier
	}

	components, err := BuildAuthService(AuthConfig{
		Auth:      cfg.Auth,
		Store:     cfg.Store,
		KV:        store,
		Encryptor: CreateEncryptor(cfg.SecretsEncryptionKey, logger),
		Metrics:   sink,
		Anomalies: anomalies,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build auth service: %w", err), container.Close())
	}
	container.Auth = components.Service
	container.Sessions = components.Sessions
	return container, nil
}

func newMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger.With("component", "statsd"),
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}
