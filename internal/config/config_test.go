package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Oracle.Provider != ProviderGemini {
		t.Errorf("expected default provider %q, got %q", ProviderGemini, cfg.Oracle.Provider)
	}

	if cfg.Oracle.Timeout != 30*time.Second {
		t.Errorf("expected oracle timeout 30s, got %v", cfg.Oracle.Timeout)
	}

	if cfg.Oracle.DescriptionAttempts != 3 {
		t.Errorf("expected 3 description attempts, got %d", cfg.Oracle.DescriptionAttempts)
	}

	if cfg.Store.MongoURI != "mongodb://localhost:27017/agentic_tasks" {
		t.Errorf("unexpected default mongodb uri %q", cfg.Store.MongoURI)
	}

	if cfg.Session.ThreadID != "1" {
		t.Errorf("expected default thread id '1', got %q", cfg.Session.ThreadID)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
oracle:
  provider: anthropic
  model: claude-sonnet-4-5
  timeout: 10s
anthropic:
  api_key: test-key
store:
  backend: mongo
checkpoint:
  backend: bolt
  bolt_path: /tmp/threads.db
session:
  thread_id: work
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Oracle.Provider != ProviderAnthropic || cfg.Oracle.Model != "claude-sonnet-4-5" {
		t.Errorf("unexpected oracle config %+v", cfg.Oracle)
	}

	if cfg.Oracle.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Oracle.Timeout)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Oracle.MaxAttempts != 3 {
		t.Errorf("expected default max attempts 3, got %d", cfg.Oracle.MaxAttempts)
	}

	if cfg.Store.Backend != StoreMongo || cfg.Store.MongoURI != DefaultMongoURI {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}

	if cfg.Checkpoint.Backend != CheckpointBolt || cfg.Checkpoint.BoltPath != "/tmp/threads.db" {
		t.Errorf("unexpected checkpoint config %+v", cfg.Checkpoint)
	}

	if cfg.Session.ThreadID != "work" {
		t.Errorf("expected thread id 'work', got %q", cfg.Session.ThreadID)
	}
}

func TestLoadFromPath_RejectsUnknownBackend(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("store:\n  backend: postgres\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(configPath)
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("expected store.backend error, got %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MONGODB_URI", "mongodb://db.internal:27017/tasks")
	t.Chdir(dir)

	if err := os.MkdirAll(filepath.Join(dir, "tasktalk"), 0700); err != nil {
		t.Fatal(err)
	}
	content := "store:\n  backend: mongo\n  mongodb_uri: mongodb://file:27017/x\n"
	if err := os.WriteFile(filepath.Join(dir, "tasktalk", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.MongoURI != "mongodb://db.internal:27017/tasks" {
		t.Errorf("expected MONGODB_URI to win, got %q", cfg.Store.MongoURI)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := Save("session.thread_id", "home"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save("oracle.provider", ProviderOpenAI); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Session.ThreadID != "home" || cfg.Oracle.Provider != ProviderOpenAI {
		t.Errorf("saved keys not preserved: %+v %+v", cfg.Session, cfg.Oracle)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/tasktalk"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	for _, want := range []string{"oracle.provider", "store.mongodb_uri", "session.thread_id"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Keys() missing %q", want)
		}
	}
}
