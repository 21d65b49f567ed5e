package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthService struct {
	loginFn   func(ctx context.Context, s service.Strategy, c domainauth.Credentials) (*service.LoginResult, error)
	current   *domainauth.UserRecord
	currErr   error
	lastStrat service.Strategy
	lastCreds domainauth.Credentials
}

func (f *fakeAuthService) Login(
	ctx context.Context,
	s service.Strategy,
	c domainauth.Credentials,
) (*service.LoginResult, error) {
	f.lastStrat, f.lastCreds = s, c
	return f.loginFn(ctx, s, c)
}

func (f *fakeAuthService) CurrentUser(context.Context) (*domainauth.UserRecord, error) {
	return f.current, f.currErr
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func newTestRouter(svc AuthServiceInterface) http.Handler {
	return NewRouter(RouterServices{Auth: svc, LoginRate: 100, LoginBurst: 100})
}

func TestLoginAPI_Success(t *testing.T) {
	svc := &fakeAuthService{loginFn: func(_ context.Context, s service.Strategy, c domainauth.Credentials) (*service.LoginResult, error) {
		return &service.LoginResult{
			AttemptID: "att-1",
			Strategy:  s,
			User: domainauth.UserRecord{
				ID: c.Identifier, Secret: c.Secret, DisplayName: "Alice", Group: domainauth.GroupVisitor,
			},
		}, nil
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"u1","password":"pw"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.StrategyAPI, svc.lastStrat)
	assert.Equal(t, domainauth.Credentials{Identifier: "u1", Secret: "pw"}, svc.lastCreds)

	body := decodeBody[loginResponse](t, rec)
	assert.Equal(t, "att-1", body.AttemptID)
	assert.Equal(t, UserView{ID: "u1", Name: "Alice", Group: "visitor"}, body.User)
	assert.NotContains(t, rec.Body.String(), "pw", "secret must not be echoed")
}

func TestLoginUIS_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"invalid credentials", apperrors.InvalidCredentials("密码错误"), http.StatusUnauthorized, "invalid_credentials", "密码错误"},
		{"captcha", apperrors.CaptchaRequired("需要输入验证码"), http.StatusPreconditionRequired, "captcha_required", "需要输入验证码"},
		{"maintenance", apperrors.ServiceUnavailable("系统维护中"), http.StatusServiceUnavailable, "service_unavailable", "系统维护中"},
		{"network", apperrors.Network("网络错误", errors.New("dial tcp: refused")), http.StatusBadGateway, "network", "网络错误"},
		{"generic", apperrors.GenericFailure("登录失败"), http.StatusUnauthorized, "generic_failure", "登录失败"},
		{"persistence", apperrors.Persistence("save failed", errors.New("redis down")), http.StatusInternalServerError, "persistence", "save failed"},
		{"validation", apperrors.Validation("username is required"), http.StatusBadRequest, "validation", "username is required"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{loginFn: func(context.Context, service.Strategy, domainauth.Credentials) (*service.LoginResult, error) {
				return nil, tt.err
			}}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/uis/login", strings.NewReader(`{"username":"s","password":"p"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, service.StrategyUIS, svc.lastStrat)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody[ErrorBody](t, rec)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	svc := &fakeAuthService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"user":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody[ErrorBody](t, rec).Error)
}

func TestMe(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(&fakeAuthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("logged in", func(t *testing.T) {
		svc := &fakeAuthService{current: &domainauth.UserRecord{
			ID: "203", Secret: "pw", DisplayName: "Bob", Group: domainauth.GroupFudanUndergraduate,
		}}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, UserView{ID: "203", Name: "Bob", Group: "fudan_undergraduate"}, decodeBody[UserView](t, rec))
	})

	t.Run("store failure", func(t *testing.T) {
		svc := &fakeAuthService{currErr: apperrors.Persistence("read user record", errors.New("down"))}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
