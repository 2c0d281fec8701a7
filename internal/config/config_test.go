package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Sandbox.Endpoint == "" {
		t.Error("Sandbox.Endpoint is empty")
	}
	if cfg.Sandbox.RequestTimeout != 0 {
		t.Errorf("Sandbox.RequestTimeout = %s, want 0 (no deadline)", cfg.Sandbox.RequestTimeout)
	}
	if cfg.Editor.DefaultLanguage != "javascript" {
		t.Errorf("Editor.DefaultLanguage = %q, want javascript", cfg.Editor.DefaultLanguage)
	}
	if cfg.Editor.DefaultFontSize != 16 {
		t.Errorf("Editor.DefaultFontSize = %d, want 16", cfg.Editor.DefaultFontSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"server port 0", func(c *Config) { c.Server.Port = 0 }, true},
		{"server port 99999", func(c *Config) { c.Server.Port = 99999 }, true},
		{"empty sandbox endpoint", func(c *Config) { c.Sandbox.Endpoint = "" }, true},
		{"empty default language", func(c *Config) { c.Editor.DefaultLanguage = "" }, true},
		{"font size below bound", func(c *Config) { c.Editor.DefaultFontSize = 8 }, true},
		{"font size above bound", func(c *Config) { c.Editor.DefaultFontSize = 32 }, true},
		{"TLS enabled without cert", func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.CertFile = ""
			c.TLS.KeyFile = ""
		}, true},
		{"TLS enabled with cert+key", func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.CertFile = "/etc/ssl/cert.pem"
			c.TLS.KeyFile = "/etc/ssl/key.pem"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
server:
  host: "127.0.0.1"
  port: 9090
sandbox:
  endpoint: "http://localhost:2000/api/v2/execute"
  request_timeout: 30s
editor:
  default_language: python
  default_font_size: 18
security:
  tokens:
    tok_abc: user_1
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(yamlContent); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Sandbox.Endpoint != "http://localhost:2000/api/v2/execute" {
		t.Errorf("Sandbox.Endpoint = %q", cfg.Sandbox.Endpoint)
	}
	if cfg.Sandbox.RequestTimeout != 30*time.Second {
		t.Errorf("Sandbox.RequestTimeout = %s, want 30s", cfg.Sandbox.RequestTimeout)
	}
	if cfg.Editor.DefaultLanguage != "python" {
		t.Errorf("Editor.DefaultLanguage = %q, want python", cfg.Editor.DefaultLanguage)
	}
	if cfg.Security.Tokens["tok_abc"] != "user_1" {
		t.Errorf("Security.Tokens = %v", cfg.Security.Tokens)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestAddress(t *testing.T) {
	cfg := DefaultConfig()
	want := "0.0.0.0:8080"
	if got := cfg.Address(); got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}

	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 3000
	want = "127.0.0.1:3000"
	if got := cfg.Address(); got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}
}
