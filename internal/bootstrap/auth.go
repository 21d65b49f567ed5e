package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/danxi/authgate/config"
	"github.com/danxi/authgate/internal/adapters/htmlscrape"
	"github.com/danxi/authgate/internal/adapters/httptransport"
	"github.com/danxi/authgate/internal/data/cryptoutil"
	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/observability/statsd"
	"github.com/danxi/authgate/internal/ports"
	"github.com/danxi/authgate/internal/service"
)

// AuthConfig contains what BuildAuthService needs.
type AuthConfig struct {
	Auth      config.AuthConfig
	Store     config.StoreConfig
	KV        ports.KVStore
	Encryptor cryptoutil.Encryptor
	Metrics   statsd.Sink
	// Anomalies receives SSO portal anomalies; nil disables reporting.
	Anomalies service.AnomalyReporter
	// Transport overrides the HTTP transport built from Auth timeouts. Tests use it.
	Transport ports.Transport
	Logger    *slog.Logger
}

// AuthComponents exposes the assembled service and the session materializer behind it.
type AuthComponents struct {
	Service  *service.AuthService
	Sessions *service.SessionMaterializer
}

// BuildAuthService wires both login strategies onto the session store.
func BuildAuthService(cfg AuthConfig) (AuthComponents, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := service.NewSessionMaterializer(service.SessionMaterializerOptions{
		Store: cfg.KV,
		Keys: service.StorageKeys{
			UserInfo:   cfg.Store.UserInfoKey,
			Token:      cfg.Store.TokenKey,
			UISCookies: cfg.Store.UISCookiesKey,
		},
		Encryptor: cfg.Encryptor,
		Logger:    logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("session materializer: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = httptransport.New(httptransport.Config{
			ConnectTimeout: cfg.Auth.ConnectTimeout,
			ReadTimeout:    cfg.Auth.ReadTimeout,
			MaxBodyBytes:   cfg.Auth.MaxBodyBytes,
		})
	}

	api, err := service.NewCredentialSubmitter(service.CredentialSubmitterOptions{
		BaseURL:  cfg.Auth.API.BaseURL,
		OKStatus: cfg.Auth.API.OKStatus,
		Paths: service.EnvelopePaths{
			Token:   cfg.Auth.API.TokenPath,
			Name:    cfg.Auth.API.NamePath,
			Message: cfg.Auth.API.MessagePath,
		},
		Transport:    transport,
		Materializer: sessions,
		Logger:       logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("api login: %w", err)
	}

	group, ok := domainauth.ParseInstitutionalGroup(cfg.Auth.SSO.Group)
	if !ok {
		return AuthComponents{}, fmt.Errorf("SSO_GROUP %q is not an institutional group", cfg.Auth.SSO.Group)
	}
	sso, err := service.NewSSOLoginFlow(service.SSOLoginFlowOptions{
		LoginURL:     cfg.Auth.SSO.LoginURL,
		UserAgent:    cfg.Auth.SSO.UserAgent,
		Group:        group,
		Transport:    transport,
		Scraper:      newScraper(cfg.Auth.SSO.Scraper),
		Materializer: sessions,
		Anomalies:    cfg.Anomalies,
		Logger:       logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("uis login: %w", err)
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		API:      api,
		SSO:      sso,
		Sessions: sessions,
		Metrics:  cfg.Metrics,
		Logger:   logger,
	})
	return AuthComponents{Service: svc, Sessions: sessions}, nil
}

//nolint:ireturn // the scraper is chosen at runtime
func newScraper(kind config.ScraperKind) ports.FormScraper {
	if kind == config.ScraperHTML {
		return htmlscrape.TokenScraper{}
	}
	return service.LexicalScraper{}
}
