package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Address      string    `yaml:"address" env:"BOOKIE_ADDRESS"`
	IPBlockCIDRs []string  `yaml:"ipBlockCIDRs" env:"BOOKIE_IP_BLOCK_CIDRS"`
	TLS          TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"BOOKIE_TLS_ENABLED"`
	CertFile string `yaml:"certFile" env:"BOOKIE_TLS_CERT_FILE"`
	KeyFile  string `yaml:"keyFile" env:"BOOKIE_TLS_KEY_FILE"`
}

type CacheConfig struct {
	// Backend is "sqlite" (durable, the default) or "memory".
	Backend    string        `yaml:"backend" env:"BOOKIE_CACHE_BACKEND"`
	Path       string        `yaml:"path" env:"BOOKIE_CACHE_PATH"`
	MaxEntries int           `yaml:"maxEntries" env:"BOOKIE_CACHE_MAX_ENTRIES"`
	Duration   time.Duration `yaml:"duration" env:"BOOKIE_CACHE_DURATION"`
}

type FetchConfig struct {
	Timeout            time.Duration `yaml:"timeout" env:"BOOKIE_FETCH_TIMEOUT"`
	ReadTimeout        time.Duration `yaml:"readTimeout" env:"BOOKIE_FETCH_READ_TIMEOUT"`
	MaxBodyBytes       int64         `yaml:"maxBodyBytes" env:"BOOKIE_FETCH_MAX_BODY_BYTES"`
	UserAgent          string        `yaml:"userAgent" env:"BOOKIE_FETCH_USER_AGENT"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify" env:"BOOKIE_FETCH_INSECURE_SKIP_VERIFY"`
}

type ResolverConfig struct {
	Dedupe *bool `yaml:"dedupe,omitempty" env:"BOOKIE_RESOLVER_DEDUPE"`
}

type BookmarksConfig struct {
	Path        string `yaml:"path" env:"BOOKIE_BOOKMARKS_PATH"`
	Concurrency int    `yaml:"concurrency" env:"BOOKIE_BOOKMARKS_CONCURRENCY"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"BOOKIE_LOG_LEVEL"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint" env:"BOOKIE_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"serviceName" env:"BOOKIE_SERVICE_NAME"`
}

// Load reads the YAML file at path, applies BOOKIE_* environment overrides
// and fills in defaults. An empty path or a missing file yields the defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("unmarshal yaml: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:7878"
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "sqlite"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "bookie-icons.db"
	}
	if cfg.Cache.Duration <= 0 {
		cfg.Cache.Duration = 30 * 24 * time.Hour
	}

	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 5 * time.Second
	}
	if cfg.Fetch.ReadTimeout == 0 {
		cfg.Fetch.ReadTimeout = 30 * time.Second
	}
	if cfg.Fetch.MaxBodyBytes <= 0 {
		cfg.Fetch.MaxBodyBytes = 1 << 20 // 1 MiB
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "bookie-icon-resolver/1.0"
	}

	if cfg.Bookmarks.Concurrency <= 0 {
		cfg.Bookmarks.Concurrency = 8
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "bookie"
	}
}

func (cfg *Config) Validate() error {
	switch cfg.Cache.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("cache.backend must be sqlite or memory, got %q", cfg.Cache.Backend)
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls requires certFile and keyFile")
	}
	return nil
}

// DedupeEnabled reports whether concurrent loads of one URL share a
// resolution. It defaults to true.
func (cfg *Config) DedupeEnabled() bool {
	if cfg.Resolver.Dedupe != nil {
		return *cfg.Resolver.Dedupe
	}
	return true
}
