package httptransport

// Package httptransport implements ports.Transport on top of net/http with
// browser-like cookie handling across redirects.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/danxi/authgate/internal/ports"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultMaxBodyBytes   = 4 << 20
	maxRedirects          = 10
)

// Config captures connect/read bounds for outbound requests.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxBodyBytes   int64
	// Base overrides the round tripper (tests); its dial timeout is then the caller's concern.
	Base http.RoundTripper
}

// Transport performs single exchanges. Each Do call uses a fresh cookie jar so no
// state leaks between login attempts.
type Transport struct {
	base         http.RoundTripper
	timeout      time.Duration
	maxBodyBytes int64
}

var _ ports.Transport = (*Transport)(nil)

// New builds a Transport from cfg, filling defaults for zero values.
func New(cfg Config) *Transport {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = defaultConnectTimeout
	}
	read := cfg.ReadTimeout
	if read <= 0 {
		read = defaultReadTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	base := cfg.Base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext,
			TLSHandshakeTimeout:   connect,
			ResponseHeaderTimeout: read,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		}
	}

	return &Transport{
		base:         base,
		timeout:      connect + read,
		maxBodyBytes: maxBody,
	}
}

// Do sends req and returns the status, body and every cookie issued along the redirect chain.
func (t *Transport) Do(ctx context.Context, req ports.Request) (ports.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return ports.Response{}, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return ports.Response{}, fmt.Errorf("create cookie jar: %w", err)
	}
	issued := newCookieSet()
	client := &http.Client{
		Transport: t.base,
		Timeout:   t.timeout,
		Jar:       jar,
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			if next.Response != nil {
				issued.add(next.Response.Cookies())
			}
			if len(via) >= maxRedirects {
				return errors.New("stopped after too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return ports.Response{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes))
	if err != nil {
		return ports.Response{}, fmt.Errorf("read response body: %w", err)
	}
	issued.add(resp.Cookies())

	return ports.Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Cookies:    issued.list(),
	}, nil
}

// cookieSet keeps first-seen order while letting later cookies replace earlier values.
type cookieSet struct {
	order []string
	vals  map[string]string
}

func newCookieSet() *cookieSet {
	return &cookieSet{vals: make(map[string]string)}
}

func (s *cookieSet) add(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		if _, seen := s.vals[c.Name]; !seen {
			s.order = append(s.order, c.Name)
		}
		s.vals[c.Name] = c.Value
	}
}

func (s *cookieSet) list() []string {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, name+"="+s.vals[name])
	}
	return out
}
