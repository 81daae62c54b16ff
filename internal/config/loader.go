package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigPath returns the default configuration file path: ~/.farmstay/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".farmstay/config.json"
	}
	return filepath.Join(home, ".farmstay", "config.json")
}

// DataDir returns the farmstay data directory: ~/.farmstay.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".farmstay"
	}
	return filepath.Join(home, ".farmstay")
}

// Load reads and parses the config file at path.
// If path is empty, ConfigPath() is used.
// On parse failure it prints a warning and returns DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Printf("Warning: failed to parse config %s: %v\n", path, err)
		fmt.Println("Using default configuration.")
		cfg2 := DefaultConfig()
		return &cfg2, nil
	}

	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DatabaseDSN returns the configured DSN, defaulting the sqlite driver to a
// database file inside the data directory.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Driver == "" || c.Database.Driver == "sqlite" {
		return filepath.Join(DataDir(), "farmstay.db")
	}
	return ""
}

// MatchResult is the resolved LLM provider config and registry name for a model.
type MatchResult struct {
	Provider *ProviderConfig
	Name     string
}

// MatchProvider resolves which provider credentials to use for model.
// An explicit "provider/model" prefix wins; otherwise the first configured
// provider (custom, then the named ones) is used.
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Agents.Defaults.Model
	}
	if prefix, _, ok := strings.Cut(strings.ToLower(model), "/"); ok {
		if p := c.ProviderByName(prefix); p != nil && p.APIKey != "" {
			return MatchResult{Provider: p, Name: prefix}
		}
	}
	for _, name := range []string{"custom", "anthropic", "openai", "deepseek", "groq"} {
		if p := c.ProviderByName(name); p != nil && p.APIKey != "" {
			return MatchResult{Provider: p, Name: name}
		}
	}
	return MatchResult{}
}
