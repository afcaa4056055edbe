// Package config loads run settings from flags, AMAZONSCRAPER_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watsoncoders/amazonscraper/internal/extract"
	"github.com/watsoncoders/amazonscraper/internal/fingerprint"
	"github.com/watsoncoders/amazonscraper/internal/search"
	"github.com/watsoncoders/amazonscraper/internal/storage"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "AMAZONSCRAPER"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the decoded run configuration.
type Config struct {
	Terms         string        `mapstructure:"terms"`
	Output        string        `mapstructure:"output"`
	OutputFormat  string        `mapstructure:"output_format"`
	Marker        string        `mapstructure:"marker"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DelayMin      time.Duration `mapstructure:"delay_min"`
	DelayMax      time.Duration `mapstructure:"delay_max"`
	Fingerprint   string        `mapstructure:"fingerprint"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	RobotsAgent   string        `mapstructure:"robots_agent"`
	Scheme        string        `mapstructure:"scheme"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	Report        string        `mapstructure:"report"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`

	// Only settable from the config file.
	Marketplaces []string `mapstructure:"marketplaces"`
	UserAgents   []string `mapstructure:"user_agents"`
}

// flag name -> viper key
var flagKeys = map[string]string{
	"terms":          "terms",
	"output":         "output",
	"output-format":  "output_format",
	"marker":         "marker",
	"timeout":        "timeout",
	"delay-min":      "delay_min",
	"delay-max":      "delay_max",
	"fingerprint":    "fingerprint",
	"respect-robots": "respect_robots",
	"robots-agent":   "robots_agent",
	"scheme":         "scheme",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"report":         "report",
	"metrics-addr":   "metrics_addr",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Terms:        "words.txt",
		Output:       "urls.txt",
		OutputFormat: string(storage.FormatText),
		Marker:       extract.DefaultMarker,
		Timeout:      10 * time.Second,
		DelayMin:     1 * time.Second,
		DelayMax:     3 * time.Second,
		Fingerprint:  string(fingerprint.ProfileGo),
		RobotsAgent:  "*",
		Scheme:       "https",
		LogLevel:     "info",
		LogFormat:    "color",
		Report:       "text",
	}
}

// RegisterFlags defines the command line flags with their default values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "optional config file (yaml, json or toml)")
	fs.String("terms", d.Terms, "file with one search term per line")
	fs.String("output", d.Output, "file product links are appended to")
	fs.String("output-format", d.OutputFormat, "output format: text or ndjson")
	fs.String("marker", d.Marker, "substring a link must contain to be kept")
	fs.Duration("timeout", d.Timeout, "per-request timeout")
	fs.Duration("delay-min", d.DelayMin, "minimum pause between requests")
	fs.Duration("delay-max", d.DelayMax, "maximum pause between requests")
	fs.String("fingerprint", d.Fingerprint, "TLS fingerprint: go, chrome, firefox, safari or random")
	fs.Bool("respect-robots", d.RespectRobots, "skip searches disallowed by robots.txt")
	fs.String("robots-agent", d.RobotsAgent, "user agent robots.txt rules are evaluated for")
	fs.String("scheme", d.Scheme, "scheme of the search URLs")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "log format: color, text or json")
	fs.String("report", d.Report, "end of run report: text, json or none")
	fs.String("metrics-addr", d.MetricsAddr, "serve Prometheus metrics on this address while running")
}

// New returns a viper instance with defaults and environment overrides.
// If fs is non-nil its flags are bound as well.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("terms", d.Terms)
	v.SetDefault("output", d.Output)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("marker", d.Marker)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("delay_min", d.DelayMin)
	v.SetDefault("delay_max", d.DelayMax)
	v.SetDefault("fingerprint", d.Fingerprint)
	v.SetDefault("respect_robots", d.RespectRobots)
	v.SetDefault("robots_agent", d.RobotsAgent)
	v.SetDefault("scheme", d.Scheme)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("report", d.Report)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("marketplaces", []string{})
	v.SetDefault("user_agents", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs == nil {
		return v, nil
	}
	if f := fs.Lookup("config"); f != nil {
		if err := v.BindPFlag("config", f); err != nil {
			return nil, fmt.Errorf("bind flag config: %w", err)
		}
	}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return v, nil
}

// Load reads the optional config file named by the "config" key, decodes
// everything into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Terms) == "" {
		return invalid("terms path is empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return invalid("output path is empty")
	}
	if _, err := storage.ParseFormat(c.OutputFormat); err != nil {
		return invalidErr(err)
	}
	if c.Marker == "" {
		return invalid("marker is empty")
	}
	if c.Timeout <= 0 {
		return invalid("timeout must be positive, got %s", c.Timeout)
	}
	if c.DelayMin < 0 {
		return invalid("delay_min must not be negative, got %s", c.DelayMin)
	}
	if c.DelayMax < c.DelayMin {
		return invalid("delay_max %s is below delay_min %s", c.DelayMax, c.DelayMin)
	}
	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		return invalidErr(err)
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return invalid("scheme must be http or https, got %q", c.Scheme)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "color", "text", "json":
	default:
		return invalid("unknown log format %q", c.LogFormat)
	}
	switch c.Report {
	case "text", "json", "none":
	default:
		return invalid("unknown report format %q", c.Report)
	}
	if _, err := c.MarketplaceList(); err != nil {
		return err
	}
	if len(c.UserAgents) > 0 && !hasNonBlank(c.UserAgents) {
		return invalid("user_agents has no non-blank entries")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, invalid("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// MarketplaceList returns the configured marketplaces, or the built-in table
// when none are configured.
func (c Config) MarketplaceList() ([]search.Marketplace, error) {
	if len(c.Marketplaces) == 0 {
		return search.DefaultMarketplaces(), nil
	}
	m, err := search.ParseMarketplaces(c.Marketplaces)
	if err != nil {
		return nil, invalidErr(err)
	}
	return m, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func invalidErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
