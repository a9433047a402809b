package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Environment variables read at startup.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvDatabaseURL  = "DB_URL"

	EnvProvider      = "MEDORYX_PROVIDER"
	EnvModel         = "MEDORYX_MODEL"
	EnvAddr          = "MEDORYX_ADDR"
	EnvMCPCommand    = "MEDORYX_MCP_COMMAND"
	EnvTelegramToken = "TELEGRAM_TOKEN"
)

const (
	configDir  = ".medoryx"
	configFile = "config.json"
)

// Loader reads configuration in layers: defaults, the optional
// ~/.medoryx/config.json overlay, then environment variables.
type Loader struct {
	mu       sync.Mutex
	filePath string
	lookup   func(string) (string, bool) // overridable for tests
	secrets  SecretSource
}

// NewLoader creates a loader rooted at the user's home directory. A .env
// file in the working directory is applied to the process environment
// before anything is read.
func NewLoader() (*Loader, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Loader{
		filePath: filepath.Join(home, configDir, configFile),
		lookup:   os.LookupEnv,
		secrets:  keyringSource{},
	}, nil
}

// Load assembles the configuration. The result may still be incomplete;
// callers must check Validate before using it.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := Defaults()

	data, err := os.ReadFile(l.filePath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, &Error{Reason: "invalid config file " + l.filePath + ": " + err.Error()}
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	l.applyEnv(cfg)
	l.resolveCredential(cfg)
	l.resolveFallbackCredential(cfg)
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if v, ok := l.lookup(EnvProvider); ok && v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v, ok := l.lookup(EnvModel); ok && v != "" {
		cfg.LLM.Model = v
	}
	if v, ok := l.lookup(EnvAddr); ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := l.lookup(EnvMCPCommand); ok && v != "" {
		parts := strings.Fields(v)
		cfg.MCP.Command = parts[0]
		cfg.MCP.Args = parts[1:]
	}
	if v, ok := l.lookup(EnvDatabaseURL); ok {
		cfg.Database.URL = v
	}
	if v, ok := l.lookup(EnvTelegramToken); ok && v != "" {
		if cfg.Channels.Telegram == nil {
			cfg.Channels.Telegram = &TelegramConfig{}
		}
		cfg.Channels.Telegram.Token = v
	}
}

// resolveCredential fills LLM.APIKey from the provider's environment
// variable, falling back to the OS keyring.
func (l *Loader) resolveCredential(cfg *Config) {
	envVar := credentialVar(cfg.LLM.Provider)
	if v, ok := l.lookup(envVar); ok && v != "" {
		cfg.LLM.APIKey = v
		return
	}
	if l.secrets == nil {
		return
	}
	if v, err := l.secrets.Get(secretName(cfg.LLM.Provider)); err == nil && v != "" {
		cfg.LLM.APIKey = v
	}
}

func (l *Loader) resolveFallbackCredential(cfg *Config) {
	if cfg.Fallback == nil {
		return
	}
	if v, ok := l.lookup(credentialVar(cfg.Fallback.Provider)); ok && v != "" {
		cfg.Fallback.APIKey = v
		return
	}
	if l.secrets == nil {
		return
	}
	if v, err := l.secrets.Get(secretName(cfg.Fallback.Provider)); err == nil && v != "" {
		cfg.Fallback.APIKey = v
	}
}

// Save writes the non-secret parts of the config to disk.
func (l *Loader) Save(cfg *Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.filePath), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.filePath, data, 0600)
}

// FilePath returns the overlay file path.
func (l *Loader) FilePath() string {
	return l.filePath
}
