package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured for the provider.
var ErrNoAPIKey = errors.New("no API key configured")

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// envKeys lists the environment variables checked for each provider, in order.
var envKeys = map[string][]string{
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderOpenAI:    {"OPENAI_API_KEY"},
}

// GetAPIKey returns the key for provider and where it came from.
// It checks in order: environment variables, config file.
func GetAPIKey(cfg *Config, provider string) (string, KeySource, error) {
	for _, name := range envKeys[provider] {
		if key := os.Getenv(name); key != "" {
			return key, KeySourceEnv, nil
		}
	}

	if cfg != nil {
		key := os.ExpandEnv(configuredKey(cfg, provider))
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig, nil
		}
	}

	return "", KeySourceNone, fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
}

func configuredKey(cfg *Config, provider string) string {
	switch provider {
	case ProviderAnthropic:
		return cfg.Anthropic.APIKey
	case ProviderGemini:
		return cfg.Gemini.APIKey
	case ProviderOpenAI:
		return cfg.OpenAI.APIKey
	default:
		return ""
	}
}

// ValidateAPIKey performs basic format checks on a key. It does not call
// the provider.
func ValidateAPIKey(provider, key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	var prefix string
	switch provider {
	case ProviderAnthropic:
		prefix = "sk-ant-"
	case ProviderOpenAI:
		prefix = "sk-"
	}
	if prefix != "" && !strings.HasPrefix(key, prefix) {
		return fmt.Errorf("invalid API key format: expected %q prefix", prefix)
	}

	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}
