package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danxi/authgate/internal/adapters/memory"
	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/mocks"
	authmocks "github.com/danxi/authgate/internal/mocks/auth"
	"github.com/danxi/authgate/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type credentialFixture struct {
	store     *memory.KVStore
	sessions  *SessionMaterializer
	transport *authmocks.ScriptedTransport
	submitter *CredentialSubmitter
}

func newCredentialFixture(t *testing.T, replies ...authmocks.Reply) *credentialFixture {
	t.Helper()
	store := memory.NewKVStore()
	sessions, err := NewSessionMaterializer(SessionMaterializerOptions{Store: store})
	require.NoError(t, err)
	transport := authmocks.NewScriptedTransport(replies...)
	submitter, err := NewCredentialSubmitter(CredentialSubmitterOptions{
		BaseURL:      "https://api.example.test/api/",
		Transport:    transport,
		Materializer: sessions,
	})
	require.NoError(t, err)
	return &credentialFixture{store: store, sessions: sessions, transport: transport, submitter: submitter}
}

func jsonReply(status int, body string) authmocks.Reply {
	return authmocks.Reply{Response: ports.Response{StatusCode: status, Body: []byte(body)}}
}

func TestCredentialSubmitter_Success(t *testing.T) {
	fx := newCredentialFixture(t, jsonReply(http.StatusOK, `{"token":"abc","name":"Alice"}`))
	ctx := context.Background()

	rec, err := fx.submitter.Submit(ctx, domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.UserRecord{
		ID: "u1", Secret: "pw", DisplayName: "Alice", Group: domainauth.GroupVisitor,
	}, rec)

	reqs := fx.transport.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "https://api.example.test/api/auth/login", reqs[0].URL)
	assert.Equal(t, "application/json", reqs[0].Headers["Content-Type"])
	var sent map[string]string
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	assert.Equal(t, map[string]string{"username": "u1", "password": "pw"}, sent)

	loaded, found, err := fx.sessions.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, loaded)

	token, found, err := fx.store.GetString(ctx, DefaultStorageKeys.Token)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc", token)
}

func TestCredentialSubmitter_MissingNameFallsBackToIdentifier(t *testing.T) {
	fx := newCredentialFixture(t, jsonReply(http.StatusOK, `{"token":"abc"}`))

	rec, err := fx.submitter.Submit(context.Background(), domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.DisplayName)
}

func TestCredentialSubmitter_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		reply   authmocks.Reply
		check   func(error) bool
		message string
	}{
		{
			name:    "provider message is surfaced verbatim",
			reply:   jsonReply(http.StatusUnauthorized, `{"message":"bad creds"}`),
			check:   apperrors.IsInvalidCredentials,
			message: "bad creds",
		},
		{
			name:    "no message falls back to network failure text",
			reply:   jsonReply(http.StatusInternalServerError, `<html>oops</html>`),
			check:   apperrors.IsGenericFailure,
			message: MsgNetworkError,
		},
		{
			name:    "upstream unavailable",
			reply:   jsonReply(http.StatusServiceUnavailable, `{"message":"维护中"}`),
			check:   apperrors.IsServiceUnavailable,
			message: "维护中",
		},
		{
			name:    "transport error",
			reply:   authmocks.Reply{Err: errors.New("dial tcp: connection refused")},
			check:   apperrors.IsNetwork,
			message: MsgNetworkError,
		},
		{
			name:    "ok status without token",
			reply:   jsonReply(http.StatusOK, `{"name":"Alice"}`),
			check:   apperrors.IsGenericFailure,
			message: MsgLoginFailed,
		},
		{
			name:    "ok status with undecodable body",
			reply:   jsonReply(http.StatusOK, `not json`),
			check:   apperrors.IsGenericFailure,
			message: MsgLoginFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newCredentialFixture(t, tt.reply)

			_, err := fx.submitter.Submit(context.Background(), domainauth.Credentials{Identifier: "u1", Secret: "pw"})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			assert.Equal(t, tt.message, apperrors.GetMessage(err))
			assert.Empty(t, fx.store.Snapshot(), "nothing may be persisted on failure")
		})
	}
}

func TestCredentialSubmitter_CustomEnvelope(t *testing.T) {
	store := memory.NewKVStore()
	sessions, err := NewSessionMaterializer(SessionMaterializerOptions{Store: store})
	require.NoError(t, err)
	transport := authmocks.NewScriptedTransport(
		jsonReply(http.StatusCreated, `{"data":{"access":"tok","profile":{"nickname":"Bob"}}}`),
	)
	submitter, err := NewCredentialSubmitter(CredentialSubmitterOptions{
		BaseURL:      "https://api.example.test",
		OKStatus:     http.StatusCreated,
		Paths:        EnvelopePaths{Token: "data.access", Name: "data.profile.nickname"},
		Transport:    transport,
		Materializer: sessions,
	})
	require.NoError(t, err)

	rec, err := submitter.Submit(context.Background(), domainauth.Credentials{Identifier: "bob", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", rec.DisplayName)

	token, _, err := store.GetString(context.Background(), DefaultStorageKeys.Token)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestCredentialSubmitter_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	materializer := mocks.NewMockMaterializer(ctrl)

	transport.EXPECT().Do(gomock.Any(), gomock.Any()).
		Return(ports.Response{StatusCode: http.StatusOK, Body: []byte(`{"token":"abc","name":"Alice"}`)}, nil)
	materializer.EXPECT().
		Persist(gomock.Any(), gomock.Any(), domainauth.AuthArtifact{Kind: domainauth.ArtifactBearerToken, Value: "abc"}).
		Return(apperrors.Persistence("disk full", errors.New("boom")))

	submitter, err := NewCredentialSubmitter(CredentialSubmitterOptions{
		BaseURL:      "https://api.example.test",
		Transport:    transport,
		Materializer: materializer,
	})
	require.NoError(t, err)

	_, err = submitter.Submit(context.Background(), domainauth.Credentials{Identifier: "u1", Secret: "pw"})
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
}

func TestNewCredentialSubmitter_Validation(t *testing.T) {
	store := memory.NewKVStore()
	sessions, err := NewSessionMaterializer(SessionMaterializerOptions{Store: store})
	require.NoError(t, err)
	transport := authmocks.NewScriptedTransport()

	_, err = NewCredentialSubmitter(CredentialSubmitterOptions{Transport: transport, Materializer: sessions})
	assert.Error(t, err)

	_, err = NewCredentialSubmitter(CredentialSubmitterOptions{BaseURL: "https://x", Materializer: sessions})
	assert.Error(t, err)

	_, err = NewCredentialSubmitter(CredentialSubmitterOptions{BaseURL: "https://x", Transport: transport})
	assert.Error(t, err)

	_, err = NewCredentialSubmitter(CredentialSubmitterOptions{
		BaseURL: "https://x", Transport: transport, Materializer: sessions,
		Paths: EnvelopePaths{Token: "data.["},
	})
	assert.Error(t, err)
}
