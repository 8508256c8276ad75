package config

import (
	"strings"
)

// UpstreamMode says whether real upstream calls are attempted. It is
// resolved once at load time from the credential's presence and format;
// request paths never re-inspect the key string.
type UpstreamMode int

const (
	// UpstreamDisabled selects fallback-only response generation.
	UpstreamDisabled UpstreamMode = iota
	// UpstreamConfigured enables real OpenRouter calls.
	UpstreamConfigured
)

func (m UpstreamMode) String() string {
	if m == UpstreamConfigured {
		return "configured"
	}
	return "disabled"
}

// openRouterKeyPrefix is the credential format OpenRouter issues; a key
// without it would only produce auth errors upstream, so it selects
// fallback mode instead.
const openRouterKeyPrefix = "sk-or-v1-"

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Storage  StorageConfig
	History  HistoryConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type UpstreamConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Mode    UpstreamMode
}

type StorageConfig struct {
	// DataDir selects the SQLite profile store when set; empty keeps
	// profiles in memory for the process lifetime. The literal value
	// "default" resolves to the platform-native data directory.
	DataDir string
}

type HistoryConfig struct {
	MaxEntries int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "google/gemini-pro",
		},
		History: HistoryConfig{
			MaxEntries: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.innervoice.app) and
// the API key falls back to macOS Keychain. On Linux the backend is a
// JSON file at $XDG_CONFIG_HOME/innervoice/config.json and secrets live
// in $XDG_DATA_HOME/innervoice/secrets.json.
//
// Environment variables (INNERVOICE_*) override backend values on all
// platforms. A missing or malformed API key is not an error: it selects
// UpstreamDisabled and the server answers from the fallback tables.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API key if still empty.
	if cfg.Upstream.APIKey == "" {
		if key, err := kc.Get("innervoice", "openrouter_api_key"); err == nil && key != "" {
			cfg.Upstream.APIKey = key
		}
	}

	if cfg.Storage.DataDir == "default" {
		cfg.Storage.DataDir = defaultDataDir()
	}

	cfg.Upstream.Mode = resolveUpstreamMode(cfg.Upstream.APIKey)
	return cfg, nil
}

func resolveUpstreamMode(apiKey string) UpstreamMode {
	if apiKey != "" && strings.HasPrefix(apiKey, openRouterKeyPrefix) {
		return UpstreamConfigured
	}
	return UpstreamDisabled
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
