// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Portal  PortalConfig  `mapstructure:"portal"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the admin HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// PortalConfig addresses the judiciary portal.
type PortalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// HarvestConfig governs the causelist sweep.
type HarvestConfig struct {
	LookbackDays int    `mapstructure:"lookback_days"`
	OffsetDays   int    `mapstructure:"offset_days"`
	Concurrency  int    `mapstructure:"concurrency"`
	Timezone     string `mapstructure:"timezone"`
}

// EnrichConfig governs the case-detail pass.
type EnrichConfig struct {
	BatchLimit         int  `mapstructure:"batch_limit"`
	Concurrency        int  `mapstructure:"concurrency"`
	MarkNotFoundFailed bool `mapstructure:"mark_not_found_failed"`
}

// HTTPConfig configures the portal HTTP client.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Parallelism    int    `mapstructure:"parallelism"`
	DelayMs        int    `mapstructure:"delay_ms"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COURTHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("portal.base_url", "https://supremecourt.gov.np")
	v.SetDefault("harvest.lookback_days", 5*365)
	v.SetDefault("harvest.offset_days", 2)
	v.SetDefault("harvest.concurrency", 4)
	v.SetDefault("harvest.timezone", "Asia/Kathmandu")
	v.SetDefault("enrich.batch_limit", 200)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.mark_not_found_failed", false)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.parallelism", 2)
	v.SetDefault("http.delay_ms", 500)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url must be set")
	}
	if c.Harvest.LookbackDays <= 0 {
		return fmt.Errorf("harvest.lookback_days must be > 0")
	}
	if c.Harvest.OffsetDays < 0 {
		return fmt.Errorf("harvest.offset_days must be >= 0")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if _, err := time.LoadLocation(c.Harvest.Timezone); err != nil {
		return fmt.Errorf("harvest.timezone: %w", err)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	return nil
}

// Location resolves the configured harvest timezone. Validate guarantees it
// loads; the UTC fallback only covers unvalidated zero-value configs.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Harvest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestDelay converts the per-request delay config into a duration.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.HTTP.DelayMs) * time.Millisecond
}

// ConnLifetime converts the pool connection lifetime config into a duration.
func (c Config) ConnLifetime() time.Duration {
	return time.Duration(c.DB.ConnLifetimeMin) * time.Minute
}
