package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PHOTOCURATOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	intelProviderEnv  = "INTEL_PROVIDER"
	intelEndpointEnv  = "INTEL_ENDPOINT"
	intelAPIKeyEnv    = "INTEL_API_KEY"
	intelModelEnv     = "INTEL_MODEL"
	vaultPasscodeEnv  = "VAULT_PASSCODE"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Intelligence providers.
const (
	ProviderService = "service"
	ProviderChatGPT = "chatgpt"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Intelligence  IntelligenceConfig `yaml:"intelligence"`
	Retry         RetryConfig        `yaml:"retry"`
	Dispatch      DispatchConfig     `yaml:"dispatch"`
	Activity      ActivityConfig     `yaml:"activity"`
	Vault         VaultConfig        `yaml:"vault"`
	Watch         WatchConfig        `yaml:"watch"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// IntelligenceConfig defines how to reach the analysis service. Provider
// "service" speaks the REST contract, "chatgpt" an OpenAI-compatible
// chat-completions API.
type IntelligenceConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"apiKey"`
	Model       string        `yaml:"model"`
	VisionModel string        `yaml:"visionModel"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RetryConfig bounds backoff on rate-limited calls.
type RetryConfig struct {
	MaxRetries   int           `yaml:"maxRetries"`
	InitialDelay time.Duration `yaml:"initialDelay"`
}

// DispatchConfig paces per-item analysis.
type DispatchConfig struct {
	Stagger     time.Duration `yaml:"stagger"`
	MaxInFlight int           `yaml:"maxInFlight"`
}

// ActivityConfig caps the activity log.
type ActivityConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// VaultConfig holds the shared privacy passcode.
type VaultConfig struct {
	Passcode string `yaml:"passcode"`
}

// WatchConfig defines how often watched sources are polled.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// MetricsConfig points at an optional node_exporter textfile and, in watch
// mode, an optional listen address for /metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
	Listen   string `yaml:"listen"`
}

// SourceConfig describes one place uploads are read from.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Loader  string            `yaml:"loader"`
	Path    string            `yaml:"path"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An empty path falls back to PHOTOCURATOR_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(intelProviderEnv); v != "" {
		c.Intelligence.Provider = v
	}
	if v := os.Getenv(intelEndpointEnv); v != "" {
		c.Intelligence.Endpoint = v
	}
	if v := os.Getenv(intelAPIKeyEnv); v != "" {
		c.Intelligence.APIKey = v
	}
	if v := os.Getenv(intelModelEnv); v != "" {
		c.Intelligence.Model = v
	}

	if v := os.Getenv(vaultPasscodeEnv); v != "" {
		c.Vault.Passcode = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) normalize() {
	c.Intelligence.Provider = strings.ToLower(strings.TrimSpace(c.Intelligence.Provider))
	switch c.Intelligence.Provider {
	case ProviderService, ProviderChatGPT:
	default:
		log.Printf("config: unknown intelligence provider %q, reverting to %s", c.Intelligence.Provider, ProviderService)
		c.Intelligence.Provider = ProviderService
	}

	defaults := defaultConfig()
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = defaults.Retry.MaxRetries
	}
	if c.Dispatch.MaxInFlight <= 0 {
		c.Dispatch.MaxInFlight = defaults.Dispatch.MaxInFlight
	}
	if c.Dispatch.Stagger < 0 {
		c.Dispatch.Stagger = 0
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Intelligence.Provider != "" {
		base.Intelligence.Provider = override.Intelligence.Provider
	}
	if override.Intelligence.Endpoint != "" {
		base.Intelligence.Endpoint = override.Intelligence.Endpoint
	}
	if override.Intelligence.APIKey != "" {
		base.Intelligence.APIKey = override.Intelligence.APIKey
	}
	if override.Intelligence.Model != "" {
		base.Intelligence.Model = override.Intelligence.Model
	}
	if override.Intelligence.VisionModel != "" {
		base.Intelligence.VisionModel = override.Intelligence.VisionModel
	}
	if override.Intelligence.Timeout > 0 {
		base.Intelligence.Timeout = override.Intelligence.Timeout
	}

	if override.Retry.MaxRetries != 0 {
		base.Retry.MaxRetries = override.Retry.MaxRetries
	}
	if override.Retry.InitialDelay > 0 {
		base.Retry.InitialDelay = override.Retry.InitialDelay
	}

	if override.Dispatch.Stagger != 0 {
		base.Dispatch.Stagger = override.Dispatch.Stagger
	}
	if override.Dispatch.MaxInFlight != 0 {
		base.Dispatch.MaxInFlight = override.Dispatch.MaxInFlight
	}

	if override.Activity.MaxEntries > 0 {
		base.Activity.MaxEntries = override.Activity.MaxEntries
	}
	if override.Vault.Passcode != "" {
		base.Vault.Passcode = override.Vault.Passcode
	}
	if override.Watch.Interval > 0 {
		base.Watch.Interval = override.Watch.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Metrics.Textfile != "" {
		base.Metrics.Textfile = override.Metrics.Textfile
	}
	if override.Metrics.Listen != "" {
		base.Metrics.Listen = override.Metrics.Listen
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Intelligence: IntelligenceConfig{
			Provider:    ProviderService,
			Endpoint:    "http://localhost:8080",
			Model:       "gpt-4o-mini",
			VisionModel: "gpt-4o-mini",
			Timeout:     60 * time.Second,
		},
		Retry:    RetryConfig{MaxRetries: 3, InitialDelay: 1500 * time.Millisecond},
		Dispatch: DispatchConfig{Stagger: 300 * time.Millisecond, MaxInFlight: 4},
		Activity: ActivityConfig{MaxEntries: 50},
		Vault:    VaultConfig{Passcode: "1234"},
		Watch:    WatchConfig{Interval: 30 * time.Second},
	}
}
