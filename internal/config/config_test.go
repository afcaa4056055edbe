package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/watsoncoders/amazonscraper/internal/search"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func load(t *testing.T, fs *pflag.FlagSet) (Config, error) {
	t.Helper()
	v, err := New(fs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	if cfg.Terms != want.Terms || cfg.Output != want.Output || cfg.Marker != "/dp/" {
		t.Errorf("unexpected paths or marker: %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.Timeout)
	}
	if cfg.DelayMin != time.Second || cfg.DelayMax != 3*time.Second {
		t.Errorf("expected 1s..3s delay, got %s..%s", cfg.DelayMin, cfg.DelayMax)
	}
	if cfg.RespectRobots {
		t.Error("robots checks should be off by default")
	}

	markets, err := cfg.MarketplaceList()
	if err != nil {
		t.Fatalf("MarketplaceList: %v", err)
	}
	if len(markets) != 16 {
		t.Errorf("expected 16 default marketplaces, got %d", len(markets))
	}
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	cfg, err := load(t, newFlags(t,
		"--terms", "in.txt",
		"--output", "out.ndjson",
		"--output-format", "ndjson",
		"--delay-min", "0s",
		"--delay-max", "500ms",
		"--respect-robots",
		"--fingerprint", "chrome",
	))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Terms != "in.txt" || cfg.Output != "out.ndjson" || cfg.OutputFormat != "ndjson" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.DelayMin != 0 || cfg.DelayMax != 500*time.Millisecond {
		t.Errorf("delay flags not applied: %s..%s", cfg.DelayMin, cfg.DelayMax)
	}
	if !cfg.RespectRobots || cfg.Fingerprint != "chrome" {
		t.Errorf("expected robots on and chrome fingerprint, got %+v", cfg)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AMAZONSCRAPER_OUTPUT", "env-urls.txt")
	t.Setenv("AMAZONSCRAPER_TIMEOUT", "4s")

	cfg, err := load(t, newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "env-urls.txt" {
		t.Errorf("expected env output, got %q", cfg.Output)
	}
	if cfg.Timeout != 4*time.Second {
		t.Errorf("expected 4s timeout from env, got %s", cfg.Timeout)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amazonscraper.yaml")
	content := `
terms: keywords.txt
delay_max: 5s
marketplaces:
  - amazon.de
  - Amazon.FR
user_agents:
  - test-agent/1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(t, newFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Terms != "keywords.txt" || cfg.DelayMax != 5*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.UserAgents) != 1 || cfg.UserAgents[0] != "test-agent/1.0" {
		t.Errorf("unexpected user agents: %v", cfg.UserAgents)
	}

	markets, err := cfg.MarketplaceList()
	if err != nil {
		t.Fatalf("MarketplaceList: %v", err)
	}
	if len(markets) != 2 || markets[1].Host != "amazon.fr" {
		t.Errorf("unexpected marketplaces: %v", markets)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := load(t, newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty terms", func(c *Config) { c.Terms = " " }},
		{"empty output", func(c *Config) { c.Output = "" }},
		{"bad output format", func(c *Config) { c.OutputFormat = "csv" }},
		{"empty marker", func(c *Config) { c.Marker = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative delay", func(c *Config) { c.DelayMin = -time.Second }},
		{"inverted delay", func(c *Config) { c.DelayMin, c.DelayMax = 3*time.Second, time.Second }},
		{"bad fingerprint", func(c *Config) { c.Fingerprint = "netscape" }},
		{"bad scheme", func(c *Config) { c.Scheme = "ftp" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad report", func(c *Config) { c.Report = "html" }},
		{"bad marketplace", func(c *Config) { c.Marketplaces = []string{"https://amazon.com"} }},
		{"blank user agents", func(c *Config) { c.UserAgents = []string{"", "  "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestMarketplaceList_WrapsHostError(t *testing.T) {
	cfg := Default()
	cfg.Marketplaces = []string{"amazon.com/s"}
	if _, err := cfg.MarketplaceList(); !errors.Is(err, search.ErrInvalidHost) {
		t.Errorf("expected ErrInvalidHost in chain, got %v", err)
	}
}
