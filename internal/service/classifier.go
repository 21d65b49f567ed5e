package service

import (
	"strings"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
)

// Marker maps a substring of the portal's response page to an outcome.
type Marker struct {
	Substring string
	Outcome   domainauth.Outcome
}

// MarkerTable is an ordered, versioned set of markers. The first matching marker wins,
// because portal chrome can carry several messages at once.
type MarkerTable struct {
	Version string
	Markers []Marker
}

// Portal-language messages surfaced to users for each failing outcome.
const (
	MsgWrongSecret        = "密码错误"
	MsgCaptchaRequired    = "需要输入验证码"
	MsgServiceUnavailable = "系统维护中"
	MsgLoginFailed        = "登录失败"
	MsgNetworkError       = "网络错误"
)

// DefaultMarkers pins the copy of the Fudan UIS authserver login page.
//
//nolint:gochecknoglobals // read-only lookup table
var DefaultMarkers = MarkerTable{
	Version: "uis-2024",
	Markers: []Marker{
		{Substring: "密码有误", Outcome: domainauth.OutcomeWrongSecret},
		{Substring: "请输入验证码", Outcome: domainauth.OutcomeCaptchaRequired},
		{Substring: "网络维护中", Outcome: domainauth.OutcomeServiceUnavailable},
		{Substring: "登录成功", Outcome: domainauth.OutcomeSuccess},
		{Substring: "index.jsp", Outcome: domainauth.OutcomeSuccess},
	},
}

// ResponseClassifier maps SSO response text to an Outcome.
type ResponseClassifier struct {
	table MarkerTable
}

// NewResponseClassifier builds a classifier over table; an empty table falls back to DefaultMarkers.
func NewResponseClassifier(table MarkerTable) *ResponseClassifier {
	if len(table.Markers) == 0 {
		table = DefaultMarkers
	}
	return &ResponseClassifier{table: table}
}

// Version returns the marker table version in use.
func (c *ResponseClassifier) Version() string { return c.table.Version }

// Classify returns the outcome of the first marker contained in body.
func (c *ResponseClassifier) Classify(body string) domainauth.Outcome {
	for _, m := range c.table.Markers {
		if m.Substring != "" && strings.Contains(body, m.Substring) {
			return m.Outcome
		}
	}
	return domainauth.OutcomeGenericFailure
}

// OutcomeError converts a failing outcome into its typed error. Success yields nil.
func OutcomeError(o domainauth.Outcome) error {
	switch o {
	case domainauth.OutcomeSuccess:
		return nil
	case domainauth.OutcomeWrongSecret:
		return apperrors.InvalidCredentials(MsgWrongSecret)
	case domainauth.OutcomeCaptchaRequired:
		return apperrors.CaptchaRequired(MsgCaptchaRequired)
	case domainauth.OutcomeServiceUnavailable:
		return apperrors.ServiceUnavailable(MsgServiceUnavailable)
	default:
		return apperrors.GenericFailure(MsgLoginFailed)
	}
}
