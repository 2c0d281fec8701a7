package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Database DatabaseConfig `yaml:"database"`
	Editor   EditorConfig   `yaml:"editor"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Security SecurityConfig `yaml:"security"`
	Billing  BillingConfig  `yaml:"billing"`
	TLS      TLSConfig      `yaml:"tls"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBody  int64         `yaml:"max_request_body_bytes"`
}

// SandboxConfig points at the remote execution service. A zero
// RequestTimeout means no client-side deadline: a hung call resolves
// only when the transport errors.
type SandboxConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// EditorConfig seeds new sessions and locates the CLI's state file.
type EditorConfig struct {
	DefaultLanguage string `yaml:"default_language"`
	DefaultTheme    string `yaml:"default_theme"`
	DefaultFontSize int    `yaml:"default_font_size"`
	StatePath       string `yaml:"state_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Endpoint string  `yaml:"endpoint"`
	Sample   float64 `yaml:"sample_rate"`
}

// SecurityConfig maps bearer tokens to identity subjects and bounds
// request rates. Tokens stand in for the external auth provider's
// verification step.
type SecurityConfig struct {
	Tokens         map[string]string `yaml:"tokens"`
	RateLimitRPS   float64           `yaml:"rate_limit_rps"`
	RateLimitBurst int               `yaml:"rate_limit_burst"`
}

// BillingConfig holds the webhook shared secret.
type BillingConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// TLSConfig controls HTTPS/TLS termination.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sensible defaults for all configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second, // sandbox calls have no deadline of their own
			ShutdownTimeout: 30 * time.Second,
			MaxRequestBody:  1 << 20, // 1MB
		},
		Sandbox: SandboxConfig{
			Endpoint:       "https://emkc.org/api/v2/piston/execute",
			RequestTimeout: 0,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Editor: EditorConfig{
			DefaultLanguage: "javascript",
			DefaultTheme:    "github-dark",
			DefaultFontSize: 16,
			StatePath:       defaultStatePath(),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled: false,
			Sample:  0.1,
		},
		Security: SecurityConfig{
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
		TLS: TLSConfig{
			Enabled: false,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Sandbox.Endpoint == "" {
		return fmt.Errorf("sandbox.endpoint is required")
	}
	if c.Editor.DefaultLanguage == "" {
		return fmt.Errorf("editor.default_language is required")
	}
	if c.Editor.DefaultFontSize < 12 || c.Editor.DefaultFontSize > 24 {
		return fmt.Errorf("editor.default_font_size must be 12-24, got %d", c.Editor.DefaultFontSize)
	}
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls.cert_file and tls.key_file are required when TLS is enabled")
		}
	}
	if c.Database.DSN != "" && strings.Contains(c.Database.DSN, "sslmode=disable") {
		log.Warn().Msg("database DSN has sslmode=disable — connections to Postgres are unencrypted")
	}
	return nil
}

// Address returns the listen address string.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "codepad-state.yaml"
	}
	return filepath.Join(home, ".codepad", "state.yaml")
}
