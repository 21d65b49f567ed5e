package auth

// Package auth contains domain-level types for logins, user records and auth artifacts.
// It is pure and free of framework/adapter concerns.

import "strings"

// UserGroup classifies which provider authenticated the user and what the session may do.
// Keep string form for easy persistence.
type UserGroup string

const (
	GroupVisitor            UserGroup = "visitor"
	GroupFudanUndergraduate UserGroup = "fudan_undergraduate"
	GroupFudanPostgraduate  UserGroup = "fudan_postgraduate"
	GroupFudanStaff         UserGroup = "fudan_staff"
)

// Institutional reports whether the group is assigned by the SSO portal.
func (g UserGroup) Institutional() bool {
	switch g {
	case GroupFudanUndergraduate, GroupFudanPostgraduate, GroupFudanStaff:
		return true
	default:
		return false
	}
}

// ParseInstitutionalGroup maps a configured group name to an institutional UserGroup.
// Empty input yields the undergraduate group.
func ParseInstitutionalGroup(s string) (UserGroup, bool) {
	v := UserGroup(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return GroupFudanUndergraduate, true
	}
	if !v.Institutional() {
		return "", false
	}
	return v, true
}

// Credentials are the transient identifier/secret pair submitted by a caller.
type Credentials struct {
	Identifier string
	Secret     string
}

// UserRecord is the persisted profile of the logged-in user.
// JSON names match the object the client application reads back.
type UserRecord struct {
	ID          string    `json:"id"`
	Secret      string    `json:"password"`
	DisplayName string    `json:"name"`
	Group       UserGroup `json:"userGroup"`
}

// ArtifactKind distinguishes the durable credential produced by a login.
type ArtifactKind string

const (
	ArtifactBearerToken ArtifactKind = "bearer_token"
	ArtifactCookieJar   ArtifactKind = "cookie_jar"
)

// AuthArtifact is a bearer token (JSON API) or a serialized cookie jar (SSO portal).
type AuthArtifact struct {
	Kind  ArtifactKind
	Value string
}

// Empty reports whether the artifact carries no credential.
func (a AuthArtifact) Empty() bool { return strings.TrimSpace(a.Value) == "" }

// CookieSeparator joins cookies in a serialized cookie jar.
const CookieSeparator = "; "

// CookieJarArtifact serializes cookies into a single cookie-jar artifact.
func CookieJarArtifact(cookies []string) AuthArtifact {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return AuthArtifact{Kind: ArtifactCookieJar, Value: strings.Join(parts, CookieSeparator)}
}

// FormFields maps input names to values for a single SSO attempt. Never persisted.
type FormFields map[string]string

// Outcome is the classification of an SSO portal response.
type Outcome int

const (
	OutcomeGenericFailure Outcome = iota
	OutcomeWrongSecret
	OutcomeCaptchaRequired
	OutcomeServiceUnavailable
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWrongSecret:
		return "wrong_secret"
	case OutcomeCaptchaRequired:
		return "captcha_required"
	case OutcomeServiceUnavailable:
		return "service_unavailable"
	case OutcomeSuccess:
		return "success"
	default:
		return "generic_failure"
	}
}
