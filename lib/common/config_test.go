package common

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"memory without dir", func(c *Config) { c.Engine = EngineMemory; c.DataDir = "" }, false},
		{"badger ignores codec", func(c *Config) { c.Engine = EngineBadger; c.Codec = "" }, false},
		{"json codec", func(c *Config) { c.Codec = CodecJSON }, false},
		{"file without dir", func(c *Config) { c.DataDir = "" }, true},
		{"unknown engine", func(c *Config) { c.Engine = "sqlite" }, true},
		{"unknown codec", func(c *Config) { c.Codec = "xml" }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Errorf("Expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	for _, want := range []string{"STORAGE", "Engine", "file", "Codec", "binary", "LOGGING", "info"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected config string to contain %q:\n%s", want, s)
		}
	}

	cfg.Engine = EngineMemory
	if strings.Contains(cfg.String(), "Data Directory") {
		t.Errorf("Expected no data directory for the memory engine")
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected error for invalid level")
	}
}
