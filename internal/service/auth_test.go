package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/danxi/authgate/internal/adapters/memory"
	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	authmocks "github.com/danxi/authgate/internal/mocks/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name string
	tags map[string]string
}

type fakeSink struct {
	mu      sync.Mutex
	counts  []recordedMetric
	timings []recordedMetric
}

func (f *fakeSink) Count(name string, _ int64, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, recordedMetric{name: name, tags: tags})
}

func (f *fakeSink) Timing(name string, _ time.Duration, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timings = append(f.timings, recordedMetric{name: name, tags: tags})
}

type stubAPILogin struct {
	rec   domainauth.UserRecord
	err   error
	calls int
	got   domainauth.Credentials
}

func (s *stubAPILogin) Submit(_ context.Context, creds domainauth.Credentials) (domainauth.UserRecord, error) {
	s.calls++
	s.got = creds
	return s.rec, s.err
}

type stubSSOLogin struct {
	rec   domainauth.UserRecord
	err   error
	calls int
}

func (s *stubSSOLogin) Login(_ context.Context, _ domainauth.Credentials) (domainauth.UserRecord, error) {
	s.calls++
	return s.rec, s.err
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"api":   StrategyAPI,
		"JSON":  StrategyAPI,
		" uis ": StrategyUIS,
		"sso":   StrategyUIS,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStrategy("ldap")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthService_RoutesByStrategy(t *testing.T) {
	api := &stubAPILogin{rec: domainauth.UserRecord{ID: "u1", Group: domainauth.GroupVisitor}}
	sso := &stubSSOLogin{rec: domainauth.UserRecord{ID: "s1", Group: domainauth.GroupFudanUndergraduate}}
	sink := &fakeSink{}
	svc := NewAuthService(AuthServiceOptions{API: api, SSO: sso, Metrics: sink})
	ctx := context.Background()

	res, err := svc.Login(ctx, StrategyAPI, domainauth.Credentials{Identifier: " u1 ", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, StrategyAPI, res.Strategy)
	assert.Equal(t, "u1", res.User.ID)
	assert.NotEmpty(t, res.AttemptID)
	assert.Equal(t, "u1", api.got.Identifier, "identifier is trimmed before submission")

	res2, err := svc.Login(ctx, StrategyUIS, domainauth.Credentials{Identifier: "s1", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, StrategyUIS, res2.Strategy)
	assert.NotEqual(t, res.AttemptID, res2.AttemptID)

	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, sso.calls)

	require.Len(t, sink.counts, 2)
	assert.Equal(t, "auth.login", sink.counts[0].name)
	assert.Equal(t, map[string]string{"strategy": "api", "result": "success"}, sink.counts[0].tags)
	assert.Equal(t, map[string]string{"strategy": "uis", "result": "success"}, sink.counts[1].tags)
}

func TestAuthService_Validation(t *testing.T) {
	api := &stubAPILogin{}
	svc := NewAuthService(AuthServiceOptions{API: api})
	ctx := context.Background()

	_, err := svc.Login(ctx, StrategyAPI, domainauth.Credentials{Identifier: "  ", Secret: "pw"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Login(ctx, StrategyAPI, domainauth.Credentials{Identifier: "u1"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Login(ctx, Strategy("carrier-pigeon"), domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Login(ctx, StrategyUIS, domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err), "unconfigured strategy")

	assert.Zero(t, api.calls)
}

func TestAuthService_FailureEmitsErrorKind(t *testing.T) {
	sso := &stubSSOLogin{err: apperrors.CaptchaRequired(MsgCaptchaRequired)}
	sink := &fakeSink{}
	svc := NewAuthService(AuthServiceOptions{SSO: sso, Metrics: sink})

	_, err := svc.Login(context.Background(), StrategyUIS, domainauth.Credentials{Identifier: "s1", Secret: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCaptchaRequired(err))

	require.Len(t, sink.counts, 1)
	assert.Equal(t, map[string]string{
		"strategy":   "uis",
		"result":     "error",
		"error_kind": "captcha_required",
	}, sink.counts[0].tags)
}

func TestAuthService_NoRetryOnFailure(t *testing.T) {
	api := &stubAPILogin{err: apperrors.Network(MsgNetworkError, errors.New("refused"))}
	svc := NewAuthService(AuthServiceOptions{API: api})

	_, err := svc.Login(context.Background(), StrategyAPI, domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, 1, api.calls)
}

func TestAuthService_CurrentUser(t *testing.T) {
	store := memory.NewKVStore()
	sessions, err := NewSessionMaterializer(SessionMaterializerOptions{Store: store})
	require.NoError(t, err)
	submitter, err := NewCredentialSubmitter(CredentialSubmitterOptions{
		BaseURL:      "https://api.example.test",
		Transport:    authmocks.NewScriptedTransport(jsonReply(http.StatusOK, `{"token":"abc","name":"Alice"}`)),
		Materializer: sessions,
	})
	require.NoError(t, err)
	svc := NewAuthService(AuthServiceOptions{API: submitter, Sessions: sessions})
	ctx := context.Background()

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = svc.Login(ctx, StrategyAPI, domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	require.NoError(t, err)

	user, err = svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Equal(t, domainauth.GroupVisitor, user.Group)

	_, err = NewAuthService(AuthServiceOptions{}).CurrentUser(ctx)
	assert.Error(t, err)
}
