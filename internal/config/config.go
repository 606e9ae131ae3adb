// Package config loads application configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Repository is one owner/name pair to harvest.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Config holds the full configuration surface. Every key is read from the
// environment with the HARVEST_ prefix, e.g. HARVEST_REMOTE_TOKEN.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RemoteURL   string `mapstructure:"REMOTE_URL"`
	RemoteToken string `mapstructure:"REMOTE_TOKEN"`

	StoreURL        string `mapstructure:"STORE_URL"`
	StoreDatabase   string `mapstructure:"STORE_DATABASE"`
	StoreCollection string `mapstructure:"STORE_COLLECTION"`

	Repositories []string `mapstructure:"REPOSITORIES"`

	RetryAttempts     int           `mapstructure:"RETRY_ATTEMPTS"`
	RetryInterval     time.Duration `mapstructure:"RETRY_INTERVAL"`
	RateLimitInterval time.Duration `mapstructure:"RATE_LIMIT_INTERVAL"`

	PageSize    int           `mapstructure:"PAGE_SIZE"`
	Concurrency int           `mapstructure:"CONCURRENCY"`
	Deadline    time.Duration `mapstructure:"DEADLINE"`

	CacheNegativeLookups bool `mapstructure:"CACHE_NEGATIVE_LOOKUPS"`
	RetryShortReturns    bool `mapstructure:"RETRY_SHORT_RETURNS"`

	parsed []Repository
}

// RepositoryList returns the validated owner/name pairs.
func (c *Config) RepositoryList() []Repository {
	return c.parsed
}

// Load reads configuration from a .env file if present and the environment,
// applies defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REMOTE_URL", "https://api.github.com/graphql")
	v.SetDefault("STORE_DATABASE", "githarvest")
	v.SetDefault("STORE_COLLECTION", "entities")
	v.SetDefault("RETRY_ATTEMPTS", 3)
	v.SetDefault("RETRY_INTERVAL", "60s")
	v.SetDefault("RATE_LIMIT_INTERVAL", "30m")
	v.SetDefault("PAGE_SIZE", 100)
	v.SetDefault("CONCURRENCY", 1)
	v.SetDefault("DEADLINE", "0")
	v.SetDefault("CACHE_NEGATIVE_LOOKUPS", true)
	v.SetDefault("RETRY_SHORT_RETURNS", false)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetEnvPrefix("HARVEST")
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range []string{"REMOTE_TOKEN", "STORE_URL", "REPOSITORIES"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if cfg.RemoteToken == "" {
		return nil, errors.New("HARVEST_REMOTE_TOKEN is required")
	}
	if cfg.StoreURL == "" {
		return nil, errors.New("HARVEST_STORE_URL is required")
	}
	if len(cfg.Repositories) == 0 {
		return nil, errors.New("HARVEST_REPOSITORIES must name at least one owner/name pair")
	}
	if cfg.RetryAttempts < 0 {
		return nil, errors.New("HARVEST_RETRY_ATTEMPTS must not be negative")
	}
	if cfg.PageSize < 1 {
		return nil, errors.New("HARVEST_PAGE_SIZE must be at least 1")
	}
	if cfg.Concurrency < 1 {
		return nil, errors.New("HARVEST_CONCURRENCY must be at least 1")
	}

	parsed, err := parseRepositories(cfg.Repositories)
	if err != nil {
		return nil, err
	}
	cfg.parsed = parsed

	return &cfg, nil
}

// parseRepositories splits and validates "owner/name" entries. Viper hands a
// comma-separated environment value through as a single element.
func parseRepositories(raw []string) ([]Repository, error) {
	var out []Repository
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			owner, name, ok := strings.Cut(item, "/")
			if !ok || owner == "" || name == "" {
				return nil, fmt.Errorf("repository %q is not an owner/name pair", item)
			}
			out = append(out, Repository{Owner: owner, Name: name})
		}
	}
	if len(out) == 0 {
		return nil, errors.New("HARVEST_REPOSITORIES must name at least one owner/name pair")
	}
	return out, nil
}
