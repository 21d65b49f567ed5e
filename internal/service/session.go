package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danxi/authgate/internal/data/cryptoutil"
	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/ports"
)

// StorageKeys are the well-known keys the client application reads back.
type StorageKeys struct {
	UserInfo   string
	Token      string
	UISCookies string
}

// DefaultStorageKeys mirrors the keys used by the client application.
//
//nolint:gochecknoglobals // read-only defaults
var DefaultStorageKeys = StorageKeys{
	UserInfo:   "userInfo",
	Token:      "token",
	UISCookies: "uisCookies",
}

func (k StorageKeys) withDefaults() StorageKeys {
	if k.UserInfo == "" {
		k.UserInfo = DefaultStorageKeys.UserInfo
	}
	if k.Token == "" {
		k.Token = DefaultStorageKeys.Token
	}
	if k.UISCookies == "" {
		k.UISCookies = DefaultStorageKeys.UISCookies
	}
	return k
}

// ArtifactKey returns the key an artifact of the given kind is stored under.
func (k StorageKeys) ArtifactKey(kind domainauth.ArtifactKind) (string, error) {
	switch kind {
	case domainauth.ArtifactBearerToken:
		return k.Token, nil
	case domainauth.ArtifactCookieJar:
		return k.UISCookies, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// SessionMaterializerOptions groups dependencies for SessionMaterializer.
type SessionMaterializerOptions struct {
	Store     ports.KVStore
	Keys      StorageKeys
	Encryptor cryptoutil.Encryptor // defaults to NoopEncryptor
	Logger    *slog.Logger
}

// SessionMaterializer writes a user record and its auth artifact through the persistence sink.
type SessionMaterializer struct {
	store  ports.KVStore
	keys   StorageKeys
	enc    cryptoutil.Encryptor
	logger *slog.Logger
}

var _ ports.Materializer = (*SessionMaterializer)(nil)

// NewSessionMaterializer constructs a SessionMaterializer.
func NewSessionMaterializer(opts SessionMaterializerOptions) (*SessionMaterializer, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	enc := opts.Encryptor
	if enc == nil {
		enc = cryptoutil.NoopEncryptor{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMaterializer{
		store:  opts.Store,
		keys:   opts.Keys.withDefaults(),
		enc:    enc,
		logger: logger.With("component", "session_materializer"),
	}, nil
}

// Keys returns the storage keys in use.
func (m *SessionMaterializer) Keys() StorageKeys { return m.keys }

// Persist writes the record, then the artifact. It overwrites rather than merges, and
// does not roll the record back when the artifact write fails.
func (m *SessionMaterializer) Persist(
	ctx context.Context,
	rec domainauth.UserRecord,
	artifact domainauth.AuthArtifact,
) error {
	if rec.ID == "" {
		return apperrors.Validation("user record ID is required")
	}
	if artifact.Empty() {
		return apperrors.Wrap(errors.New("login produced no auth artifact"),
			apperrors.ErrCodeGenericFailure, MsgLoginFailed)
	}
	artifactKey, err := m.keys.ArtifactKey(artifact.Kind)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "resolve artifact key")
	}

	sealed, err := m.sealSecret(ctx, rec)
	if err != nil {
		return apperrors.Persistence("encrypt user secret", err)
	}
	stored := rec
	stored.Secret = sealed

	if err := m.store.SetObject(ctx, m.keys.UserInfo, stored); err != nil {
		return apperrors.Persistence("login succeeded but the user record could not be saved", err)
	}
	if err := m.store.SetString(ctx, artifactKey, artifact.Value); err != nil {
		m.logger.WarnContext(ctx, "artifact write failed after user record write",
			"user_id", rec.ID, "artifact_kind", artifact.Kind, "error", err)
		return apperrors.Persistence("login succeeded but the auth artifact could not be saved", err)
	}
	return nil
}

// sealSecret encrypts the secret, reusing the stored ciphertext when it already seals the
// same secret for the same user so repeated persists leave identical state.
func (m *SessionMaterializer) sealSecret(ctx context.Context, rec domainauth.UserRecord) (string, error) {
	if rec.Secret == "" {
		return "", nil
	}
	var existing domainauth.UserRecord
	found, err := m.store.GetObject(ctx, m.keys.UserInfo, &existing)
	if err != nil {
		m.logger.DebugContext(ctx, "read existing user record failed", "error", err)
	}
	if err == nil && found && existing.ID == rec.ID && existing.Secret != "" {
		if pt, decErr := m.enc.Decrypt(existing.Secret); decErr == nil && string(pt) == rec.Secret {
			return existing.Secret, nil
		}
	}
	return m.enc.Encrypt([]byte(rec.Secret))
}

// Load reads the persisted record and opens its sealed secret. It reports false when no
// user has logged in.
func (m *SessionMaterializer) Load(ctx context.Context) (domainauth.UserRecord, bool, error) {
	var rec domainauth.UserRecord
	found, err := m.store.GetObject(ctx, m.keys.UserInfo, &rec)
	if err != nil {
		return domainauth.UserRecord{}, false, apperrors.Persistence("read user record", err)
	}
	if !found {
		return domainauth.UserRecord{}, false, nil
	}
	if rec.Secret != "" {
		pt, decErr := m.enc.Decrypt(rec.Secret)
		if decErr != nil {
			return domainauth.UserRecord{}, false, apperrors.Persistence("decrypt user secret", decErr)
		}
		rec.Secret = string(pt)
	}
	return rec, true, nil
}

// Artifact returns the stored artifact of the given kind, if any.
func (m *SessionMaterializer) Artifact(
	ctx context.Context,
	kind domainauth.ArtifactKind,
) (domainauth.AuthArtifact, bool, error) {
	key, err := m.keys.ArtifactKey(kind)
	if err != nil {
		return domainauth.AuthArtifact{}, false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "resolve artifact key")
	}
	v, found, err := m.store.GetString(ctx, key)
	if err != nil {
		return domainauth.AuthArtifact{}, false, apperrors.Persistence("read auth artifact", err)
	}
	if !found {
		return domainauth.AuthArtifact{}, false, nil
	}
	return domainauth.AuthArtifact{Kind: kind, Value: v}, true, nil
}

// Clear removes the stored record and every artifact. It is the logout path of the
// admin tooling; the login flows never call it.
func (m *SessionMaterializer) Clear(ctx context.Context) error {
	deleter, ok := m.store.(ports.KVDeleter)
	if !ok {
		return apperrors.Internal("session store does not support deletion")
	}
	for _, key := range []string{m.keys.UserInfo, m.keys.Token, m.keys.UISCookies} {
		if err := deleter.Delete(ctx, key); err != nil {
			return apperrors.Persistence("clear "+key, err)
		}
	}
	return nil
}
