// Package config handles configuration loading and management for tasktalk.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Oracle providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
)

// Task store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Checkpoint backends.
const (
	CheckpointMemory = "memory"
	CheckpointBolt   = "bolt"
	CheckpointSQLite = "sqlite"
)

// DefaultMongoURI is used when neither config nor MONGODB_URI names a server.
const DefaultMongoURI = "mongodb://localhost:27017/agentic_tasks"

// Config holds all configuration for tasktalk.
type Config struct {
	Oracle     OracleConfig     `mapstructure:"oracle" yaml:"oracle"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic" yaml:"anthropic"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" yaml:"checkpoint"`
	Session    SessionConfig    `mapstructure:"session" yaml:"session"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// OracleConfig selects and bounds the language model.
type OracleConfig struct {
	Provider            string        `mapstructure:"provider" yaml:"provider"`
	Model               string        `mapstructure:"model" yaml:"model"`
	Timeout             time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts         int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	DescriptionAttempts int           `mapstructure:"description_attempts" yaml:"description_attempts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock" yaml:"use_bedrock"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// OpenAIConfig holds OpenAI settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// StoreConfig selects the task store.
type StoreConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`
	SQLitePath   string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	SQLiteDriver string `mapstructure:"sqlite_driver" yaml:"sqlite_driver"`
	MongoURI     string `mapstructure:"mongodb_uri" yaml:"mongodb_uri"`
}

// CheckpointConfig selects where conversation state is saved.
type CheckpointConfig struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	BoltPath string        `mapstructure:"bolt_path" yaml:"bolt_path"`
	Capacity int           `mapstructure:"capacity" yaml:"capacity"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SessionConfig holds REPL defaults.
type SessionConfig struct {
	ThreadID string `mapstructure:"thread_id" yaml:"thread_id"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	DebugPath string `mapstructure:"debug_path" yaml:"debug_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, GOOGLE_API_KEY, OPENAI_API_KEY, MONGODB_URI)
// 2. Project config (.tasktalk.yaml in current directory or parent)
// 3. User config (~/.config/tasktalk/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads the configuration and calls onChange with the reloaded config
// whenever the user config file changes.
func Watch(onChange func(*Config)) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" {
		return cfg, nil
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		next, err := decode(v)
		if err != nil {
			return
		}
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)
	return v, nil
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("gemini.api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("store.mongodb_uri", "MONGODB_URI")
	v.BindEnv("oracle.provider", "TASKTALK_PROVIDER")
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Gemini.APIKey = expandEnv(cfg.Gemini.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)
	cfg.Store.MongoURI = expandEnv(cfg.Store.MongoURI)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

// Validate rejects unknown provider and backend names.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case ProviderAnthropic, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("oracle.provider %q: want anthropic, gemini or openai", c.Oracle.Provider)
	}
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StoreMongo:
	default:
		return fmt.Errorf("store.backend %q: want memory, sqlite or mongo", c.Store.Backend)
	}
	switch c.Checkpoint.Backend {
	case CheckpointMemory, CheckpointBolt, CheckpointSQLite:
	default:
		return fmt.Errorf("checkpoint.backend %q: want memory, bolt or sqlite", c.Checkpoint.Backend)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.Oracle.Timeout)
	}
	return nil
}

// Save writes one key to the user config file, keeping the other keys.
func Save(key string, value any) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}
	}
	v.Set(key, value)
	return v.WriteConfigAs(configPath)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Keys lists every configuration key.
func Keys() []string {
	v := viper.New()
	setDefaults(v)
	return v.AllKeys()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("oracle.provider", d.Oracle.Provider)
	v.SetDefault("oracle.model", d.Oracle.Model)
	v.SetDefault("oracle.timeout", d.Oracle.Timeout.String())
	v.SetDefault("oracle.max_attempts", d.Oracle.MaxAttempts)
	v.SetDefault("oracle.description_attempts", d.Oracle.DescriptionAttempts)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("store.sqlite_driver", d.Store.SQLiteDriver)
	v.SetDefault("store.mongodb_uri", d.Store.MongoURI)

	v.SetDefault("checkpoint.backend", d.Checkpoint.Backend)
	v.SetDefault("checkpoint.bolt_path", "")
	v.SetDefault("checkpoint.capacity", d.Checkpoint.Capacity)
	v.SetDefault("checkpoint.ttl", "0s")

	v.SetDefault("session.thread_id", d.Session.ThreadID)
	v.SetDefault("log.debug_path", "")
}

// getUserConfigDir returns the XDG config directory for tasktalk.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tasktalk")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tasktalk")
	}
	return filepath.Join(home, ".config", "tasktalk")
}

// findProjectConfig searches for .tasktalk.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tasktalk.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider:            ProviderGemini,
			Timeout:             30 * time.Second,
			MaxAttempts:         3,
			DescriptionAttempts: 3,
		},
		Store: StoreConfig{
			Backend:      StoreSQLite,
			SQLiteDriver: "sqlite",
			MongoURI:     DefaultMongoURI,
		},
		Checkpoint: CheckpointConfig{
			Backend:  CheckpointSQLite,
			Capacity: 1000,
		},
		Session: SessionConfig{
			ThreadID: "1",
		},
	}
}
