package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultTimeout    = 10 * time.Second
	maxTimeout        = 2 * time.Minute
	defaultMaxBodyLen = 4 << 20
)

// ScraperKind selects how the SSO login page is scanned for form fields.
type ScraperKind string

const (
	// ScraperLexical uses the regular-expression scanner.
	ScraperLexical ScraperKind = "lexical"
	// ScraperHTML uses the golang.org/x/net/html tokenizer.
	ScraperHTML ScraperKind = "html"
)

// UnmarshalText implements encoding.TextUnmarshaler for ScraperKind.
func (s *ScraperKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "", "lexical", "regex":
		*s = ScraperLexical
		return nil
	case "html", "tokenizer":
		*s = ScraperHTML
		return nil
	default:
		return fmt.Errorf("invalid ScraperKind: %q (valid options: lexical, html)", v)
	}
}

// APIConfig configures the first-party JSON login.
type APIConfig struct {
	BaseURL  string `env:"BASE_URL"  envDefault:"https://dantan.fduhole.com/api"`
	OKStatus int    `env:"OK_STATUS" envDefault:"200"`

	// JMESPath expressions into the response envelope.
	TokenPath   string `env:"TOKEN_PATH"   envDefault:"token"`
	NamePath    string `env:"NAME_PATH"    envDefault:"name"`
	MessagePath string `env:"MESSAGE_PATH" envDefault:"message"`
}

// SSOConfig configures the institutional portal login.
type SSOConfig struct {
	LoginURL  string      `env:"LOGIN_URL"  envDefault:"https://uis.fudan.edu.cn/authserver/login"`
	UserAgent string      `env:"USER_AGENT" envDefault:"Mozilla/5.0"`
	Group     string      `env:"GROUP"      envDefault:"fudan_undergraduate"`
	Scraper   ScraperKind `env:"SCRAPER"    envDefault:"lexical"`
}

// AuthConfig groups outbound login configuration.
type AuthConfig struct {
	API APIConfig `envPrefix:"API_"`
	SSO SSOConfig `envPrefix:"SSO_"`

	ConnectTimeout time.Duration `env:"AUTH_CONNECT_TIMEOUT" envDefault:"10s"`
	ReadTimeout    time.Duration `env:"AUTH_READ_TIMEOUT"    envDefault:"10s"`
	MaxBodyBytes   int64         `env:"AUTH_MAX_BODY_BYTES"  envDefault:"4194304"`
}

// Sanitize trims URLs and clamps timeouts to (0, 2m].
func (c *AuthConfig) Sanitize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.SSO.LoginURL = strings.TrimSpace(c.SSO.LoginURL)
	c.SSO.UserAgent = strings.TrimSpace(c.SSO.UserAgent)
	c.SSO.Group = strings.ToLower(strings.TrimSpace(c.SSO.Group))
	if c.API.OKStatus < 100 || c.API.OKStatus > 599 {
		c.API.OKStatus = 200
	}
	if c.SSO.Scraper == "" {
		c.SSO.Scraper = ScraperLexical
	}
	c.ConnectTimeout = clampTimeout(c.ConnectTimeout)
	c.ReadTimeout = clampTimeout(c.ReadTimeout)
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyLen
	}
}

func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return defaultTimeout
	case d > maxTimeout:
		return maxTimeout
	default:
		return d
	}
}
