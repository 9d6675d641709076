package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	DefaultListen           = ":3000"
	DefaultUpstream         = "http://localhost:8888"
	DefaultPrefix           = "/proxy"
	DefaultStudentsPath     = "api/students"
	DefaultScholarshipsPath = "gestion-bourse-condidature-service/api/bourses"
	DefaultConfigFile       = "excellia.toml"
	DefaultStateDirName     = ".excellia"

	ErrorModeUnified = "unified"
	ErrorModeCompat  = "compat"
)

// Environment variables consulted by Load.
const (
	EnvConfig         = "EXCELLIA_CONFIG"
	EnvListen         = "EXCELLIA_LISTEN"
	EnvUpstream       = "EXCELLIA_UPSTREAM"
	EnvPrefix         = "EXCELLIA_PREFIX"
	EnvErrorMode      = "EXCELLIA_ERROR_MODE"
	EnvAPIURL         = "EXCELLIA_API_URL"
	EnvStateDir       = "EXCELLIA_STATE_DIR"
	EnvAllowedOrigins = "EXCELLIA_ALLOWED_ORIGINS"
	EnvRateLimit      = "EXCELLIA_RATE_LIMIT"
)

// Duration wraps time.Duration so TOML files can use "30s" style values.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete excellia configuration.
type Config struct {
	// Listen is the relay server address (e.g., ":3000")
	Listen string `toml:"listen"`

	// Upstream is the origin of the backend service that owns the records
	Upstream string `toml:"upstream"`

	// Prefix is the local path prefix routed to the relay
	Prefix string `toml:"prefix"`

	// ErrorMode selects the relay failure mapping: "unified" or "compat"
	ErrorMode string `toml:"error_mode"`

	// UpstreamTimeout bounds each relayed call (0 = no timeout)
	UpstreamTimeout Duration `toml:"upstream_timeout"`

	// AllowedOrigins lists CORS origins allowed to call the relay
	AllowedOrigins []string `toml:"allowed_origins"`

	// Metrics exposes /metrics on the relay server
	Metrics bool `toml:"metrics"`

	// RateLimit is the max relayed requests per client per window (0 = unlimited)
	RateLimit int `toml:"rate_limit"`

	// RateWindow is the rate limit window duration
	RateWindow Duration `toml:"rate_window"`

	// AuditLog is the path of the relay request log (empty = disabled)
	AuditLog string `toml:"audit_log"`

	// StateDir holds the CLI audit trail
	StateDir string `toml:"state_dir"`

	API APIConfig `toml:"api"`

	// Source is the file the configuration was read from, if any
	Source string `toml:"-"`
}

// APIConfig configures the admin client used by the CLI commands.
type APIConfig struct {
	// BaseURL is where record requests are sent; defaults to Upstream.
	// Point it at "http://host:3000/proxy" to go through a running relay.
	BaseURL string `toml:"base_url"`

	StudentsPath     string   `toml:"students_path"`
	ScholarshipsPath string   `toml:"scholarships_path"`
	Timeout          Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:     DefaultListen,
		Upstream:   DefaultUpstream,
		Prefix:     DefaultPrefix,
		ErrorMode:  ErrorModeUnified,
		RateWindow: Duration{time.Minute},
		StateDir:   defaultStateDir(),
		API: APIConfig{
			StudentsPath:     DefaultStudentsPath,
			ScholarshipsPath: DefaultScholarshipsPath,
			Timeout:          Duration{30 * time.Second},
		},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultStateDirName
	}
	return filepath.Join(home, DefaultStateDirName)
}

// Load builds the effective configuration: defaults, then the TOML file,
// then .env and process environment overrides. path may be empty, in which
// case $EXCELLIA_CONFIG or ./excellia.toml is used when present.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Source = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads a .env file into the process environment. A missing
// file is not an error; existing variables are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvListen); ok {
		c.Listen = v
	}
	if v, ok := os.LookupEnv(EnvUpstream); ok {
		c.Upstream = v
	}
	if v, ok := os.LookupEnv(EnvPrefix); ok {
		c.Prefix = v
	}
	if v, ok := os.LookupEnv(EnvErrorMode); ok {
		c.ErrorMode = v
	}
	if v, ok := os.LookupEnv(EnvAPIURL); ok {
		c.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvStateDir); ok {
		c.StateDir = v
	}
	if v, ok := os.LookupEnv(EnvAllowedOrigins); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvRateLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		c.RateLimit = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// normalize fills derived values after all sources are merged.
func (c *Config) normalize() {
	c.Upstream = strings.TrimRight(c.Upstream, "/")
	if c.Prefix != "" && !strings.HasPrefix(c.Prefix, "/") {
		c.Prefix = "/" + c.Prefix
	}
	c.Prefix = strings.TrimRight(c.Prefix, "/")
	c.ErrorMode = strings.ToLower(strings.TrimSpace(c.ErrorMode))
	if c.API.BaseURL == "" {
		c.API.BaseURL = c.Upstream
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.StateDir = expandHome(c.StateDir)
	c.API.StudentsPath = strings.Trim(c.API.StudentsPath, "/")
	c.API.ScholarshipsPath = strings.Trim(c.API.ScholarshipsPath, "/")
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Listen == "" {
		result = multierror.Append(result, fmt.Errorf("listen is required"))
	}
	if err := validateOrigin("upstream", c.Upstream); err != nil {
		result = multierror.Append(result, err)
	}
	if c.API.BaseURL != "" {
		if err := validateBaseURL("api.base_url", c.API.BaseURL); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Prefix == "" {
		result = multierror.Append(result, fmt.Errorf("prefix must not be empty or \"/\""))
	}
	switch c.ErrorMode {
	case ErrorModeUnified, ErrorModeCompat:
	default:
		result = multierror.Append(result, fmt.Errorf("invalid error_mode %q (must be %s or %s)", c.ErrorMode, ErrorModeUnified, ErrorModeCompat))
	}
	if c.RateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit must not be negative"))
	}
	if c.RateLimit > 0 && c.RateWindow.Duration <= 0 {
		result = multierror.Append(result, fmt.Errorf("rate_window must be positive when rate_limit is set"))
	}
	if c.UpstreamTimeout.Duration < 0 {
		result = multierror.Append(result, fmt.Errorf("upstream_timeout must not be negative"))
	}
	if c.API.StudentsPath == "" {
		result = multierror.Append(result, fmt.Errorf("api.students_path is required"))
	}
	if c.API.ScholarshipsPath == "" {
		result = multierror.Append(result, fmt.Errorf("api.scholarships_path is required"))
	}

	return result.ErrorOrNil()
}

// validateOrigin requires an absolute http(s) URL without query or fragment.
func validateOrigin(field, raw string) error {
	if err := validateBaseURL(field, raw); err != nil {
		return err
	}
	u, _ := url.Parse(raw)
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%s must not carry a query or fragment: %q", field, raw)
	}
	return nil
}

func validateBaseURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https (got %q)", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host (got %q)", field, raw)
	}
	return nil
}

// UpstreamURL returns the parsed upstream origin.
func (c *Config) UpstreamURL() (*url.URL, error) {
	return url.Parse(c.Upstream)
}
