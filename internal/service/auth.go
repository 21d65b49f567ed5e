package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/observability/metrics"
	"github.com/danxi/authgate/internal/observability/statsd"
	"github.com/google/uuid"
)

// Strategy selects which provider a login is sent to.
type Strategy string

const (
	// StrategyAPI logs in against the first-party JSON API.
	StrategyAPI Strategy = "api"
	// StrategyUIS logs in through the institutional SSO portal.
	StrategyUIS Strategy = "uis"
)

// ParseStrategy maps user input to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAPI, "json":
		return StrategyAPI, nil
	case StrategyUIS, "sso":
		return StrategyUIS, nil
	default:
		return "", apperrors.Validationf("unknown login strategy %q (valid options: api, uis)", s)
	}
}

// APILogin is the first-party JSON login.
type APILogin interface {
	Submit(ctx context.Context, creds domainauth.Credentials) (domainauth.UserRecord, error)
}

// SSOLogin is the institutional portal login.
type SSOLogin interface {
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.UserRecord, error)
}

// SessionReader reads back what a login persisted.
type SessionReader interface {
	Load(ctx context.Context) (domainauth.UserRecord, bool, error)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      APILogin
	SSO      SSOLogin
	Sessions SessionReader
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// AuthService routes a login to the selected strategy and reports its outcome.
type AuthService struct {
	api      APILogin
	sso      SSOLogin
	sessions SessionReader
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		api:      opts.API,
		sso:      opts.SSO,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	AttemptID string
	Strategy  Strategy
	User      domainauth.UserRecord
}

// Login validates the credentials and runs one login transaction with the chosen strategy.
// Failures are returned as typed errors and never retried here.
func (s *AuthService) Login(ctx context.Context, strategy Strategy, creds domainauth.Credentials) (*LoginResult, error) {
	creds.Identifier = strings.TrimSpace(creds.Identifier)
	if creds.Identifier == "" {
		return nil, apperrors.Validation("username is required")
	}
	if creds.Secret == "" {
		return nil, apperrors.Validation("password is required")
	}

	login, err := s.strategy(strategy)
	if err != nil {
		return nil, err
	}

	attemptID := uuid.NewString()
	logger := s.logger.With("attempt_id", attemptID, "strategy", string(strategy), "user_id", creds.Identifier)
	logger.InfoContext(ctx, "login started")

	start := time.Now()
	rec, err := login(ctx, creds)
	elapsed := time.Since(start)

	if err != nil {
		metrics.EmitLogin(s.metrics, metrics.LoginMetric{
			Strategy: string(strategy), Result: metrics.ResultError, Duration: elapsed, Err: err,
		})
		logger.WarnContext(ctx, "login failed",
			"error_kind", string(apperrors.GetCode(err)), "error", err, "duration", elapsed)
		return nil, err
	}

	metrics.EmitLogin(s.metrics, metrics.LoginMetric{
		Strategy: string(strategy), Result: metrics.ResultSuccess, Duration: elapsed,
	})
	logger.InfoContext(ctx, "login succeeded", "group", string(rec.Group), "duration", elapsed)

	return &LoginResult{AttemptID: attemptID, Strategy: strategy, User: rec}, nil
}

func (s *AuthService) strategy(
	strategy Strategy,
) (func(context.Context, domainauth.Credentials) (domainauth.UserRecord, error), error) {
	switch strategy {
	case StrategyAPI:
		if s.api == nil {
			return nil, apperrors.Internal("api login is not configured")
		}
		return s.api.Submit, nil
	case StrategyUIS:
		if s.sso == nil {
			return nil, apperrors.Internal("uis login is not configured")
		}
		return s.sso.Login, nil
	default:
		return nil, apperrors.Validationf("unknown login strategy %q", strategy)
	}
}

// CurrentUser returns the persisted user record, or nil when nobody has logged in.
func (s *AuthService) CurrentUser(ctx context.Context) (*domainauth.UserRecord, error) {
	if s.sessions == nil {
		return nil, apperrors.Internal("session reader is not configured")
	}
	rec, found, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}
