package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	apperrors "github.com/danxi/authgate/internal/errors"
	"github.com/danxi/authgate/internal/observability/notify"
	"github.com/danxi/authgate/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0"
	formContentType  = "application/x-www-form-urlencoded"
	// diagnosticSnippetLen bounds how much of an unclassified page is carried in errors and logs.
	diagnosticSnippetLen = 512
)

// AnomalyReporter receives portal responses that need operator attention.
// ReportPortalAnomaly must not block on delivery; it is called on the login path.
type AnomalyReporter interface {
	ReportPortalAnomaly(ctx context.Context, payload notify.PortalAnomalyPayload)
}

// IdentifierNameResolver returns the identifier itself as the display name.
// The portal offers no documented lookup for a student's name.
type IdentifierNameResolver struct{}

// Resolve implements ports.DisplayNameResolver.
func (IdentifierNameResolver) Resolve(_ context.Context, identifier string, _ []string) (string, error) {
	return identifier, nil
}

// SSOLoginFlowOptions groups dependencies for SSOLoginFlow.
type SSOLoginFlowOptions struct {
	LoginURL     string
	UserAgent    string
	Group        domainauth.UserGroup // defaults to GroupFudanUndergraduate
	Transport    ports.Transport
	Scraper      ports.FormScraper         // defaults to LexicalScraper
	Classifier   *ResponseClassifier       // defaults to DefaultMarkers
	Names        ports.DisplayNameResolver // defaults to IdentifierNameResolver
	Materializer ports.Materializer
	Anomalies    AnomalyReporter // optional
	Logger       *slog.Logger
}

// SSOLoginFlow emulates a browser login against the institutional SSO portal.
type SSOLoginFlow struct {
	loginURL     string
	userAgent    string
	group        domainauth.UserGroup
	transport    ports.Transport
	scraper      ports.FormScraper
	classifier   *ResponseClassifier
	names        ports.DisplayNameResolver
	materializer ports.Materializer
	anomalies    AnomalyReporter
	logger       *slog.Logger
}

// NewSSOLoginFlow validates options and builds the flow.
func NewSSOLoginFlow(opts SSOLoginFlowOptions) (*SSOLoginFlow, error) {
	loginURL := strings.TrimSpace(opts.LoginURL)
	if loginURL == "" {
		return nil, errors.New("sso login URL is required")
	}
	if _, err := url.ParseRequestURI(loginURL); err != nil {
		return nil, fmt.Errorf("invalid sso login URL: %w", err)
	}
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if opts.Materializer == nil {
		return nil, errors.New("materializer is required")
	}

	group := opts.Group
	if group == "" {
		group = domainauth.GroupFudanUndergraduate
	}
	if !group.Institutional() {
		return nil, fmt.Errorf("group %q is not an institutional group", group)
	}

	f := &SSOLoginFlow{
		loginURL:     loginURL,
		userAgent:    strings.TrimSpace(opts.UserAgent),
		group:        group,
		transport:    opts.Transport,
		scraper:      opts.Scraper,
		classifier:   opts.Classifier,
		names:        opts.Names,
		materializer: opts.Materializer,
		anomalies:    opts.Anomalies,
		logger:       opts.Logger,
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	if f.scraper == nil {
		f.scraper = LexicalScraper{}
	}
	if f.classifier == nil {
		f.classifier = NewResponseClassifier(DefaultMarkers)
	}
	if f.names == nil {
		f.names = IdentifierNameResolver{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger = f.logger.With("component", "sso_login_flow")
	return f, nil
}

// Login runs FetchForm → BuildPayload → Submit → Classify → Materialize. Each step
// short-circuits the rest on failure and nothing is persisted unless the portal reports success.
func (f *SSOLoginFlow) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.UserRecord, error) {
	page, err := f.fetchForm(ctx)
	if err != nil {
		return domainauth.UserRecord{}, err
	}

	payload := f.buildPayload(string(page.Body), creds)
	if len(payload) == 2 {
		f.logger.DebugContext(ctx, "login page yielded no form fields; submitting credentials only")
	}

	resp, err := f.submit(ctx, payload, page.Cookies)
	if err != nil {
		return domainauth.UserRecord{}, err
	}

	body := string(resp.Body)
	outcome := f.classifier.Classify(body)
	f.logger.DebugContext(ctx, "portal response classified",
		"outcome", outcome.String(), "markers", f.classifier.Version(), "status", resp.StatusCode)
	if outcome != domainauth.OutcomeSuccess {
		return domainauth.UserRecord{}, f.failure(ctx, outcome, resp.StatusCode, body)
	}

	cookies := mergeCookies(page.Cookies, resp.Cookies)
	artifact := domainauth.CookieJarArtifact(cookies)
	if artifact.Empty() {
		return domainauth.UserRecord{}, apperrors.Wrap(
			errors.New("portal reported success without issuing cookies"),
			apperrors.ErrCodeGenericFailure, MsgLoginFailed)
	}

	rec := domainauth.UserRecord{
		ID:          creds.Identifier,
		Secret:      creds.Secret,
		DisplayName: f.displayName(ctx, creds.Identifier, cookies),
		Group:       f.group,
	}
	if err := f.materializer.Persist(ctx, rec, artifact); err != nil {
		return domainauth.UserRecord{}, err
	}
	return rec, nil
}

func (f *SSOLoginFlow) fetchForm(ctx context.Context) (ports.Response, error) {
	resp, err := f.transport.Do(ctx, ports.Request{
		Method:  http.MethodGet,
		URL:     f.loginURL,
		Headers: map[string]string{"User-Agent": f.userAgent},
	})
	if err != nil {
		return ports.Response{}, apperrors.Network(MsgNetworkError, fmt.Errorf("fetch login page: %w", err))
	}
	return resp, nil
}

// buildPayload merges the caller's credentials over the scraped hidden fields.
func (f *SSOLoginFlow) buildPayload(page string, creds domainauth.Credentials) url.Values {
	fields := f.scraper.Extract(page)
	payload := make(url.Values, len(fields)+2)
	for name, value := range fields {
		payload.Set(name, value)
	}
	payload.Set("username", creds.Identifier)
	payload.Set("password", creds.Secret)
	return payload
}

func (f *SSOLoginFlow) submit(ctx context.Context, payload url.Values, pageCookies []string) (ports.Response, error) {
	headers := map[string]string{
		"Content-Type": formContentType,
		"User-Agent":   f.userAgent,
	}
	if len(pageCookies) > 0 {
		headers["Cookie"] = strings.Join(pageCookies, domainauth.CookieSeparator)
	}
	resp, err := f.transport.Do(ctx, ports.Request{
		Method:  http.MethodPost,
		URL:     f.loginURL,
		Headers: headers,
		Body:    []byte(payload.Encode()),
	})
	if err != nil {
		return ports.Response{}, apperrors.Network(MsgNetworkError, fmt.Errorf("submit login form: %w", err))
	}
	return resp, nil
}

func (f *SSOLoginFlow) failure(ctx context.Context, outcome domainauth.Outcome, status int, body string) error {
	switch outcome {
	case domainauth.OutcomeServiceUnavailable:
		f.report(ctx, notify.PortalAnomalyPayload{
			Kind:       notify.KindMaintenance,
			Severity:   notify.SeverityWarning,
			StatusCode: status,
		})
		return OutcomeError(outcome)
	case domainauth.OutcomeGenericFailure:
		return f.unclassified(ctx, status, body)
	default:
		return OutcomeError(outcome)
	}
}

func (f *SSOLoginFlow) unclassified(ctx context.Context, status int, body string) error {
	snippet := truncate(body, diagnosticSnippetLen)
	f.logger.InfoContext(ctx, "unclassified portal response", "status", status, "body", snippet)
	f.report(ctx, notify.PortalAnomalyPayload{
		Kind:       notify.KindUnclassifiedResponse,
		Severity:   notify.SeverityCritical,
		StatusCode: status,
		Snippet:    snippet,
	})
	return apperrors.Wrap(fmt.Errorf("unclassified portal response: %s", snippet),
		apperrors.ErrCodeGenericFailure, MsgLoginFailed)
}

func (f *SSOLoginFlow) report(ctx context.Context, payload notify.PortalAnomalyPayload) {
	if f.anomalies == nil {
		return
	}
	payload.Strategy = string(StrategyUIS)
	payload.LoginURL = f.loginURL
	payload.MarkerVersion = f.classifier.Version()
	payload.Metadata = map[string]string{"group": string(f.group)}
	f.anomalies.ReportPortalAnomaly(ctx, payload)
}

func (f *SSOLoginFlow) displayName(ctx context.Context, identifier string, cookies []string) string {
	name, err := f.names.Resolve(ctx, identifier, cookies)
	if err != nil {
		f.logger.WarnContext(ctx, "display name lookup failed; using identifier", "error", err)
		return identifier
	}
	if name = strings.TrimSpace(name); name == "" {
		return identifier
	}
	return name
}

// mergeCookies combines cookie lists by name; later lists win, first-seen order is kept.
func mergeCookies(lists ...[]string) []string {
	var order []string
	vals := make(map[string]string)
	for _, list := range lists {
		for _, c := range list {
			name, _, _ := strings.Cut(c, "=")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, seen := vals[name]; !seen {
				order = append(order, name)
			}
			vals[name] = strings.TrimSpace(c)
		}
	}
	out := make([]string, 0, len(order))
	for _, name := range order {
		out = append(out, vals[name])
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// avoid splitting a multi-byte rune
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
