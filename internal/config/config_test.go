package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Prompt != "Generate underlying data table for the chart." {
		t.Errorf("default prompt = %q", cfg.Prompt)
	}
	if cfg.ConversationTemplate != "phi" {
		t.Errorf("default conversation template = %q, want phi", cfg.ConversationTemplate)
	}
	if cfg.MaxNewTokens != 1024 {
		t.Errorf("default max_new_tokens = %d, want 1024", cfg.MaxNewTokens)
	}
}

func TestLoad(t *testing.T) {
	t.Run("explicit file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		content := "server_url: http://gpu-box:8000\nmax_new_tokens: 512\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ServerURL != "http://gpu-box:8000" {
			t.Errorf("ServerURL = %q", cfg.ServerURL)
		}
		if cfg.MaxNewTokens != 512 {
			t.Errorf("MaxNewTokens = %d, want 512", cfg.MaxNewTokens)
		}
		// Untouched fields keep their defaults.
		if cfg.ConversationTemplate != "phi" {
			t.Errorf("ConversationTemplate = %q, want phi", cfg.ConversationTemplate)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Fatal("Load() expected error for missing explicit file")
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("server_url: [unclosed"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("Load() expected parse error")
		}
	})

	t.Run("no file at all falls back to defaults", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(t.TempDir()); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(wd)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load(\"\") error = %v", err)
		}
		if cfg.MaxNewTokens != 1024 {
			t.Errorf("MaxNewTokens = %d, want default 1024", cfg.MaxNewTokens)
		}
	})
}
