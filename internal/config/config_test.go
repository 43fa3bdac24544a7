package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultSession = "work"
	cfg.BaseURL = "https://acadlinker.example/api"
	cfg.PollIntervalSeconds = 15
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.BaseURL != "https://acadlinker.example/api" {
		t.Errorf("BaseURL = %q", loaded.BaseURL)
	}
	if loaded.PollInterval() != 15*time.Second {
		t.Errorf("PollInterval() = %v, want 15s", loaded.PollInterval())
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_session = \"lab\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.ComposeMaxLines != DefaultComposeMaxLines {
		t.Errorf("ComposeMaxLines = %d, want %d", cfg.ComposeMaxLines, DefaultComposeMaxLines)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v, want 30s", cfg.RequestTimeout())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	t.Setenv("ACADCHAT_BASE_URL", "")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ACADCHAT_BASE_URL":        "http://10.0.0.2:5000/api",
		"ACADCHAT_SESSION":         "night",
		"ACADCHAT_REQUEST_TIMEOUT": "5",
		"ACADCHAT_POLL_INTERVAL":   "3",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != env["ACADCHAT_BASE_URL"] {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DefaultSession != "night" {
		t.Errorf("DefaultSession = %q, want night", cfg.DefaultSession)
	}
	if cfg.RequestTimeoutSeconds != 5 || cfg.PollIntervalSeconds != 3 {
		t.Errorf("timeouts = %d/%d, want 5/3", cfg.RequestTimeoutSeconds, cfg.PollIntervalSeconds)
	}
}

func TestApplyEnvRejectsNonNumeric(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == "ACADCHAT_POLL_INTERVAL" {
			return "soon"
		}
		return ""
	})
	if err == nil {
		t.Error("ApplyEnv() expected error for non-numeric interval")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"https", func(c *Config) { c.BaseURL = "https://x.example/api" }, false},
		{"relative url", func(c *Config) { c.BaseURL = "/api" }, true},
		{"ftp", func(c *Config) { c.BaseURL = "ftp://x.example" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeoutSeconds = -1 }, true},
		{"negative poll", func(c *Config) { c.PollIntervalSeconds = -2 }, true},
		{"zero compose", func(c *Config) { c.ComposeMaxLines = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
