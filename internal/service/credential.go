package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/ports"
	jmespath "github.com/jmespath-community/go-jmespath"
)

// EnvelopePaths are JMESPath expressions locating fields in the first-party API envelope.
type EnvelopePaths struct {
	Token   string
	Name    string
	Message string
}

func (p EnvelopePaths) withDefaults() EnvelopePaths {
	if strings.TrimSpace(p.Token) == "" {
		p.Token = "token"
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "name"
	}
	if strings.TrimSpace(p.Message) == "" {
		p.Message = "message"
	}
	return p
}

// CredentialSubmitterOptions groups dependencies for CredentialSubmitter.
type CredentialSubmitterOptions struct {
	BaseURL      string
	OKStatus     int // defaults to 200
	Paths        EnvelopePaths
	Transport    ports.Transport
	Materializer ports.Materializer
	Logger       *slog.Logger
}

// CredentialSubmitter logs in against the first-party JSON API.
type CredentialSubmitter struct {
	loginURL     string
	okStatus     int
	paths        EnvelopePaths
	transport    ports.Transport
	materializer ports.Materializer
	logger       *slog.Logger
}

// NewCredentialSubmitter validates options and builds a submitter.
func NewCredentialSubmitter(opts CredentialSubmitterOptions) (*CredentialSubmitter, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base URL is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if opts.Materializer == nil {
		return nil, errors.New("materializer is required")
	}

	paths := opts.Paths.withDefaults()
	for _, expr := range []string{paths.Token, paths.Name, paths.Message} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid envelope path %q: %w", expr, err)
		}
	}

	okStatus := opts.OKStatus
	if okStatus == 0 {
		okStatus = http.StatusOK
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CredentialSubmitter{
		loginURL:     base + "/auth/login",
		okStatus:     okStatus,
		paths:        paths,
		transport:    opts.Transport,
		materializer: opts.Materializer,
		logger:       logger.With("component", "credential_submitter"),
	}, nil
}

type loginRequestBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Submit posts the credentials, and on the provider's OK status persists the user
// record with the returned bearer token.
func (s *CredentialSubmitter) Submit(ctx context.Context, creds domainauth.Credentials) (domainauth.UserRecord, error) {
	body, err := json.Marshal(loginRequestBody{Username: creds.Identifier, Password: creds.Secret})
	if err != nil {
		return domainauth.UserRecord{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode login request")
	}

	resp, err := s.transport.Do(ctx, ports.Request{
		Method:  http.MethodPost,
		URL:     s.loginURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return domainauth.UserRecord{}, apperrors.Network(MsgNetworkError, err)
	}

	envelope := decodeEnvelope(resp.Body)

	if resp.StatusCode != s.okStatus {
		msg := lookupString(envelope, s.paths.Message)
		if msg == "" {
			msg = MsgNetworkError
		}
		s.logger.InfoContext(ctx, "api login rejected", "status", resp.StatusCode)
		return domainauth.UserRecord{}, rejectionError(resp.StatusCode, msg)
	}

	if envelope == nil {
		return domainauth.UserRecord{}, apperrors.GenericFailure(MsgLoginFailed)
	}
	token := lookupString(envelope, s.paths.Token)
	if token == "" {
		// OK status without a token is a protocol violation, not a login.
		return domainauth.UserRecord{}, apperrors.Wrap(
			errors.New("api envelope carried no token"), apperrors.ErrCodeGenericFailure, MsgLoginFailed)
	}

	name := lookupString(envelope, s.paths.Name)
	if name == "" {
		name = creds.Identifier
	}

	rec := domainauth.UserRecord{
		ID:          creds.Identifier,
		Secret:      creds.Secret,
		DisplayName: name,
		Group:       domainauth.GroupVisitor,
	}
	artifact := domainauth.AuthArtifact{Kind: domainauth.ArtifactBearerToken, Value: token}
	if err := s.materializer.Persist(ctx, rec, artifact); err != nil {
		return domainauth.UserRecord{}, err
	}
	return rec, nil
}

func decodeEnvelope(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v
}

func lookupString(envelope any, expr string) string {
	if envelope == nil {
		return ""
	}
	v, err := jmespath.Search(expr, envelope)
	if err != nil {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}

func rejectionError(status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.InvalidCredentials(msg)
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway ||
		status == http.StatusGatewayTimeout:
		return apperrors.ServiceUnavailable(msg)
	default:
		return apperrors.GenericFailure(msg)
	}
}
