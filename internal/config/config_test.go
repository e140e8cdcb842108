package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
portal:
  base_url: https://portal.test
harvest:
  lookback_days: 30
  offset_days: 1
  concurrency: 8
  timezone: Asia/Kathmandu
enrich:
  batch_limit: 50
  concurrency: 2
  mark_not_found_failed: true
http:
  user_agent: court-agent
  timeout_seconds: 45
  parallelism: 3
  delay_ms: 250
db:
  dsn: postgres://localhost/courts
  max_conns: 12
logging:
  development: true
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Portal.BaseURL != "https://portal.test" {
		t.Fatalf("expected portal override, got %q", cfg.Portal.BaseURL)
	}
	if cfg.Harvest.LookbackDays != 30 || cfg.Harvest.Concurrency != 8 {
		t.Fatalf("expected harvest overrides to apply: %+v", cfg.Harvest)
	}
	if !cfg.Enrich.MarkNotFoundFailed || cfg.Enrich.BatchLimit != 50 {
		t.Fatalf("expected enrich overrides to apply: %+v", cfg.Enrich)
	}
	if cfg.DB.DSN != "postgres://localhost/courts" || cfg.DB.MaxConns != 12 {
		t.Fatalf("expected db overrides to apply: %+v", cfg.DB)
	}
	if cfg.DB.MinConns != 1 {
		t.Fatalf("expected db.min_conns default to survive: %+v", cfg.DB)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
	if got := cfg.RequestDelay(); got != 250*time.Millisecond {
		t.Fatalf("expected request delay 250ms, got %v", got)
	}
	if got := cfg.Location().String(); got != "Asia/Kathmandu" {
		t.Fatalf("expected Kathmandu location, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Harvest.LookbackDays != 5*365 {
		t.Fatalf("expected five year lookback default, got %d", cfg.Harvest.LookbackDays)
	}
	if cfg.Harvest.OffsetDays != 2 {
		t.Fatalf("expected offset default 2, got %d", cfg.Harvest.OffsetDays)
	}
	if cfg.Portal.BaseURL != "https://supremecourt.gov.np" {
		t.Fatalf("unexpected portal default %q", cfg.Portal.BaseURL)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:  ServerConfig{Port: 8080},
		Portal:  PortalConfig{BaseURL: "https://portal.test"},
		Harvest: HarvestConfig{LookbackDays: 10, Concurrency: 1, Timezone: "UTC"},
		Enrich:  EnrichConfig{Concurrency: 1},
		HTTP:    HTTPConfig{TimeoutSeconds: 10},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "missing base url",
			cfg: func() Config {
				c := base
				c.Portal.BaseURL = ""
				return c
			}(),
			want: "portal.base_url",
		},
		{
			name: "invalid lookback",
			cfg: func() Config {
				c := base
				c.Harvest.LookbackDays = 0
				return c
			}(),
			want: "harvest.lookback_days",
		},
		{
			name: "negative offset",
			cfg: func() Config {
				c := base
				c.Harvest.OffsetDays = -1
				return c
			}(),
			want: "harvest.offset_days",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Harvest.Concurrency = 0
				return c
			}(),
			want: "harvest.concurrency",
		},
		{
			name: "bogus timezone",
			cfg: func() Config {
				c := base
				c.Harvest.Timezone = "Mars/Olympus"
				return c
			}(),
			want: "harvest.timezone",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "invalid enrich concurrency",
			cfg: func() Config {
				c := base
				c.Enrich.Concurrency = 0
				return c
			}(),
			want: "enrich.concurrency",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
