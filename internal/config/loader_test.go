package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Memory.SummaryInterval != 6 {
		t.Errorf("summaryInterval = %d, want 6", cfg.Memory.SummaryInterval)
	}
	if cfg.Memory.RecentWindow != 4 {
		t.Errorf("recentWindow = %d, want 4", cfg.Memory.RecentWindow)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoadInvalidJSONFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Memory.SummaryInterval != 6 {
		t.Errorf("summaryInterval = %d, want default 6", cfg.Memory.SummaryInterval)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = "postgres://farmstay@localhost/farmstay?sslmode=disable"
	cfg.Providers.Anthropic.APIKey = "sk-test"
	cfg.Memory.SummaryInterval = 8
	cfg.Channels.WhatsApp.Enabled = true
	cfg.Channels.WhatsApp.BridgeURL = "ws://bridge:3001"

	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Database.Driver != "postgres" {
		t.Errorf("driver = %q", got.Database.Driver)
	}
	if got.Memory.SummaryInterval != 8 {
		t.Errorf("summaryInterval = %d, want 8", got.Memory.SummaryInterval)
	}
	if !got.Channels.WhatsApp.Enabled || got.Channels.WhatsApp.BridgeURL != "ws://bridge:3001" {
		t.Errorf("whatsapp config = %+v", got.Channels.WhatsApp)
	}
	// Sections absent from the file keep their defaults.
	if got.Maintenance.IdleDays != 30 {
		t.Errorf("idleDays = %d, want default 30", got.Maintenance.IdleDays)
	}
}

func TestDatabaseDSNDefaultsForSqlite(t *testing.T) {
	cfg := DefaultConfig()
	if dsn := cfg.DatabaseDSN(); filepath.Base(dsn) != "farmstay.db" {
		t.Errorf("default sqlite dsn = %q", dsn)
	}
	cfg.Database.DSN = "/tmp/other.db"
	if dsn := cfg.DatabaseDSN(); dsn != "/tmp/other.db" {
		t.Errorf("explicit dsn = %q", dsn)
	}
}

func TestMatchProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.Anthropic.APIKey = "a-key"
	cfg.Providers.OpenAI.APIKey = "o-key"

	got := cfg.MatchProvider("anthropic/claude-sonnet-4-5")
	if got.Name != "anthropic" || got.Provider.APIKey != "a-key" {
		t.Errorf("MatchProvider prefix = %+v", got)
	}

	got = cfg.MatchProvider("gpt-4o")
	if got.Name != "anthropic" {
		t.Errorf("fallback should pick the first configured provider, got %q", got.Name)
	}

	cfg.Providers.Anthropic.APIKey = ""
	got = cfg.MatchProvider("gpt-4o")
	if got.Name != "openai" {
		t.Errorf("fallback = %q, want openai", got.Name)
	}
}
