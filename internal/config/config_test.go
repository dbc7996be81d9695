package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("QUILL_API_TOKEN", "env-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "quill")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.API.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.Assets.Banner.MaxWidth != 1345 || cfg.Assets.Banner.MaxHeight != 256 {
		t.Fatalf("unexpected banner limits: %+v", cfg.Assets.Banner)
	}
	if cfg.Assets.Cover.MaxWidth != 500 || cfg.Assets.Cover.MaxHeight != 800 {
		t.Fatalf("unexpected cover limits: %+v", cfg.Assets.Cover)
	}
	if cfg.Editor.SuggestionHintMin != 20 || cfg.Editor.SuggestionMin != 30 || cfg.Editor.CreateDescriptionMin != 30 {
		t.Fatalf("unexpected editor thresholds: %+v", cfg.Editor)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("QUILL_API_TOKEN", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "quill.toml")

	type payload struct {
		API struct {
			BaseURL string `toml:"base_url"`
			Token   string `toml:"token"`
		} `toml:"api"`
		Editor struct {
			MaxCategories int `toml:"max_categories"`
		} `toml:"editor"`
	}
	custom := payload{}
	custom.API.BaseURL = "https://example.com/api/"
	custom.API.Token = "file-token"
	custom.Editor.MaxCategories = 3
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.API.BaseURL != "https://example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "file-token" {
		t.Fatalf("expected token from file, got %q", cfg.API.Token)
	}
	if cfg.Editor.MaxCategories != 3 {
		t.Fatalf("expected max categories 3, got %d", cfg.Editor.MaxCategories)
	}
	// Untouched sections keep their defaults.
	if cfg.Assets.Cover.MaxSizeMB != 20 {
		t.Fatalf("expected default cover size, got %d", cfg.Assets.Cover.MaxSizeMB)
	}
}

func TestAPIEndpointsJoinsPaths(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://api.example.com/v1"
	cfg.API.GenerateCoverPath = "https://ai.example.com/cover"

	endpoints, err := cfg.APIEndpoints()
	if err != nil {
		t.Fatalf("APIEndpoints: %v", err)
	}
	if endpoints.CreateWork != "https://api.example.com/v1/works/create" {
		t.Fatalf("unexpected create url %q", endpoints.CreateWork)
	}
	if endpoints.Works != "https://api.example.com/v1/works" {
		t.Fatalf("unexpected works url %q", endpoints.Works)
	}
	if endpoints.GenerateCover != "https://ai.example.com/cover" {
		t.Fatalf("expected absolute path to be kept, got %q", endpoints.GenerateCover)
	}

	cfg.API.BaseURL = ""
	cfg.API.GenerateCoverPath = "ai/generate-cover"
	if _, err := cfg.APIEndpoints(); err == nil {
		t.Fatal("expected error for relative path without base url")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_api_token_here") {
		t.Fatalf("sample config missing placeholder token: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Assets.Banner.MaxWidth != 1345 {
		t.Fatalf("expected banner width in sample, got %d", cfg.Assets.Banner.MaxWidth)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Cover.MaxWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive cover width")
	}

	cfg = config.Default()
	cfg.Editor.SuggestionMin = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when suggestion_min < suggestion_hint_min")
	}

	cfg = config.Default()
	cfg.API.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for timeout")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestRequireToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	if err := cfg.RequireToken(); err == nil || !strings.Contains(err.Error(), "QUILL_API_TOKEN") {
		t.Fatalf("expected token hint, got %v", err)
	}
	cfg.API.Token = "abc"
	if err := cfg.RequireToken(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
