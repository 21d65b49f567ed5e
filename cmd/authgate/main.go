package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/danxi/authgate/config"
	"github.com/danxi/authgate/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	logger := bootstrap.InitLogger()
	err := run(ctx, logger)
	stop()
	if err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(&cfg)
	slog.SetDefault(logger)

	logStartupInfo(ctx, logger, &cfg)

	services, err := bootstrap.NewServices(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	server := bootstrap.BuildHTTPServer(bootstrap.HTTPServerConfig{
		HTTP:     cfg.HTTP,
		Services: services,
		Logger:   logger,
	})
	return bootstrap.RunHTTPServer(ctx, server, cfg.HTTP.ShutdownTimeout, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting authgate",
		"store_backend", string(cfg.Store.Backend),
		"api_base_url", cfg.Auth.API.BaseURL,
		"sso_login_url", cfg.Auth.SSO.LoginURL,
		"metrics_enabled", cfg.Observability.Metrics.Enabled,
		"dev", cfg.IsDev)
}
