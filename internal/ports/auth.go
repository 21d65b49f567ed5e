package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
)

// KVStore is the persistence sink the login flows hand their results to.
// Implementations must offer read-after-write consistency for a single key.
type KVStore interface {
	// GetObject decodes the value stored at key into dst. It reports false when the key is absent.
	GetObject(ctx context.Context, key string, dst any) (bool, error)
	SetObject(ctx context.Context, key string, value any) error
	// GetString returns the string stored at key and false when the key is absent.
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
}

// KVDeleter is implemented by stores that can remove keys.
type KVDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Request is a single outbound HTTP exchange.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response carries what the login flows need from an HTTP exchange.
// Cookies are "name=value" pairs issued by the server.
type Response struct {
	StatusCode int
	Body       []byte
	Cookies    []string
}

// Transport performs HTTP exchanges with bounded connect/read timeouts.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// FormScraper extracts name/value pairs from the inputs of an HTML page.
type FormScraper interface {
	Extract(html string) domainauth.FormFields
}

// DisplayNameResolver looks up the human-readable name of an SSO user after login.
type DisplayNameResolver interface {
	Resolve(ctx context.Context, identifier string, cookies []string) (string, error)
}

// Materializer persists a user record together with its auth artifact.
type Materializer interface {
	Persist(ctx context.Context, rec domainauth.UserRecord, artifact domainauth.AuthArtifact) error
}
