// Package config defines the configuration schema for farmstay.
//
// Configuration lives in a single JSON file (~/.farmstay/config.json by
// default) with camelCase keys. Missing file or unparsable content falls
// back to DefaultConfig so the CLI always starts.
package config

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite" or "postgres"
	DSN    string `json:"dsn"`
}

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for the supported LLM providers.
type ProvidersConfig struct {
	Custom    ProviderConfig `json:"custom"`
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
	DeepSeek  ProviderConfig `json:"deepseek"`
	Groq      ProviderConfig `json:"groq"`
}

// AgentDefaults holds default values for agent behaviour.
type AgentDefaults struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	MaxToolIter int     `json:"maxToolIterations"`
	PersonaPath string  `json:"personaPath"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Model:       "anthropic/claude-sonnet-4-5",
		MaxTokens:   4096,
		Temperature: 0.7,
		MaxToolIter: 10,
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// MemoryConfig tunes the conversation memory manager.
type MemoryConfig struct {
	SummaryInterval    int     `json:"summaryInterval"`
	RecentWindow       int     `json:"recentWindow"`
	MessageLoadLimit   int     `json:"messageLoadLimit"`
	MaxSummaryWords    int     `json:"maxSummaryWords"`
	PromptSnippetChars int     `json:"promptSnippetChars"`
	SummaryModel       string  `json:"summaryModel,omitempty"`
	SummaryMaxTokens   int     `json:"summaryMaxTokens"`
	SummaryTemperature float64 `json:"summaryTemperature"`
}

func defaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		SummaryInterval:    6,
		RecentWindow:       4,
		MessageLoadLimit:   6,
		MaxSummaryWords:    100,
		PromptSnippetChars: 500,
		SummaryMaxTokens:   512,
		SummaryTemperature: 0.3,
	}
}

// ---- Channel configs -------------------------------------------------------

// WhatsAppConfig configures the WhatsApp bridge channel.
type WhatsAppConfig struct {
	Enabled     bool     `json:"enabled"`
	BridgeURL   string   `json:"bridgeUrl"`
	BridgeToken string   `json:"bridgeToken"`
	AllowFrom   []string `json:"allowFrom"`
}

func defaultWhatsAppConfig() WhatsAppConfig {
	return WhatsAppConfig{BridgeURL: "ws://localhost:3001", AllowFrom: []string{}}
}

// WebConfig configures the web chat widget endpoint.
type WebConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

func defaultWebConfig() WebConfig {
	return WebConfig{Host: "0.0.0.0", Port: 18890, Path: "/ws"}
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
}

func defaultTelegramConfig() TelegramConfig {
	return TelegramConfig{AllowFrom: []string{}}
}

// ChannelsConfig groups all channel configurations.
type ChannelsConfig struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Web      WebConfig      `json:"web"`
	Telegram TelegramConfig `json:"telegram"`
}

func defaultChannelsConfig() ChannelsConfig {
	return ChannelsConfig{
		WhatsApp: defaultWhatsAppConfig(),
		Web:      defaultWebConfig(),
		Telegram: defaultTelegramConfig(),
	}
}

// NotificationsConfig configures operator alerting.
type NotificationsConfig struct {
	SlackToken   string `json:"slackToken"`
	SlackChannel string `json:"slackChannel"`
}

// MaintenanceConfig configures the background sweeper.
type MaintenanceConfig struct {
	Enabled      bool   `json:"enabled"`
	CronExpr     string `json:"cronExpr"`
	IdleDays     int    `json:"idleDays"`
	PruneHistory bool   `json:"pruneHistory"`
}

func defaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		CronExpr:     "0 4 * * *",
		IdleDays:     30,
		PruneHistory: true,
	}
}

// ---- Root config -----------------------------------------------------------

// Config is the root configuration object.
type Config struct {
	Database      DatabaseConfig      `json:"database"`
	Providers     ProvidersConfig     `json:"providers"`
	Agents        AgentsConfig        `json:"agents"`
	Memory        MemoryConfig        `json:"memory"`
	Channels      ChannelsConfig      `json:"channels"`
	Notifications NotificationsConfig `json:"notifications"`
	Maintenance   MaintenanceConfig   `json:"maintenance"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Database:    DatabaseConfig{Driver: "sqlite"},
		Providers:   ProvidersConfig{},
		Agents:      AgentsConfig{Defaults: defaultAgentDefaults()},
		Memory:      defaultMemoryConfig(),
		Channels:    defaultChannelsConfig(),
		Maintenance: defaultMaintenanceConfig(),
	}
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given registry name. Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "custom":
		return &c.Providers.Custom
	case "anthropic":
		return &c.Providers.Anthropic
	case "openai":
		return &c.Providers.OpenAI
	case "deepseek":
		return &c.Providers.DeepSeek
	case "groq":
		return &c.Providers.Groq
	}
	return nil
}
