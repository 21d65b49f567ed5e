package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects where login results are persisted.
type StoreBackend string

const (
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendMemory   StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "postgres", "memory":
		*b = StoreBackend(v)
		return nil
	case "postgresql", "pg":
		*b = StoreBackendPostgres
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: redis, postgres, memory)", v)
	}
}

// StoreConfig selects and namespaces the session store.
type StoreConfig struct {
	Backend   StoreBackend `env:"BACKEND"    envDefault:"redis"`
	KeyPrefix string       `env:"KEY_PREFIX" envDefault:"authgate:"`

	// Storage keys read back by the client application.
	UserInfoKey   string `env:"USER_INFO_KEY"   envDefault:"userInfo"`
	TokenKey      string `env:"TOKEN_KEY"       envDefault:"token"`
	UISCookiesKey string `env:"UIS_COOKIES_KEY" envDefault:"uisCookies"`
}

// Sanitize trims key names.
func (c *StoreConfig) Sanitize() {
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
	c.UserInfoKey = strings.TrimSpace(c.UserInfoKey)
	c.TokenKey = strings.TrimSpace(c.TokenKey)
	c.UISCookiesKey = strings.TrimSpace(c.UISCookiesKey)
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"authgate"`
	Password string `env:"PASSWORD" envDefault:"authgate"`
	Name     string `env:"NAME"     envDefault:"authgate"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'require' for production
	// RunMigrationsOnStart applies embedded migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
