package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains the backend endpoints and credentials used by the authoring client.
type API struct {
	BaseURL           string `toml:"base_url"`
	CreateWorkPath    string `toml:"create_work_path"`
	WorksPath         string `toml:"works_path"`
	ManageWorkPath    string `toml:"manage_work_path"`
	SuggestTagsPath   string `toml:"suggest_tags_path"`
	GenerateCoverPath string `toml:"generate_cover_path"`
	CatalogPath       string `toml:"catalog_path"`
	Token             string `toml:"token"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// AssetLimits bounds a single image slot.
type AssetLimits struct {
	MaxSizeMB int `toml:"max_size_mb"`
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
}

// Assets contains the constraint profile for each image slot.
type Assets struct {
	Banner AssetLimits `toml:"banner"`
	Cover  AssetLimits `toml:"cover"`
}

// Editor contains the thresholds that drive form validity and AI availability.
type Editor struct {
	// CreateDescriptionMin is exclusive: a create-mode description must be longer.
	CreateDescriptionMin int `toml:"create_description_min"`
	// SuggestionHintMin is exclusive: above it the suggestion panel stops asking for more text.
	SuggestionHintMin int `toml:"suggestion_hint_min"`
	// SuggestionMin is inclusive: tag suggestions can be requested at this length.
	SuggestionMin int `toml:"suggestion_min"`
	MaxCategories int `toml:"max_categories"`
}

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Preview contains configuration for the local preview server.
type Preview struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Quill.
//
// Configuration sections by subsystem:
//   - API: backend endpoints, bearer token, request timeout
//   - Assets: banner and cover size/dimension limits
//   - Editor: description thresholds and category cap
//   - Paths: draft state and log directories
//   - Preview: local preview server for unsaved images
//   - Logging: log format and level
type Config struct {
	API     API     `toml:"api"`
	Assets  Assets  `toml:"assets"`
	Editor  Editor  `toml:"editor"`
	Paths   Paths   `toml:"paths"`
	Preview Preview `toml:"preview"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DraftDBPath returns the SQLite file holding autosaved drafts.
func (c *Config) DraftDBPath() string {
	return filepath.Join(c.Paths.StateDir, "drafts.db")
}

// EditorLockPath returns the lock file guarding interactive sessions.
func (c *Config) EditorLockPath() string {
	return filepath.Join(c.Paths.StateDir, "editor.lock")
}

// Endpoints holds fully resolved backend URLs.
type Endpoints struct {
	CreateWork    string
	Works         string
	ManageWork    string
	SuggestTags   string
	GenerateCover string
	Catalog       string
}

// APIEndpoints joins each configured path onto the base URL. Paths that are
// already absolute URLs are used as-is.
func (c *Config) APIEndpoints() (Endpoints, error) {
	var (
		out Endpoints
		err error
	)
	resolve := func(field, value string) string {
		if err != nil {
			return ""
		}
		var joined string
		joined, err = joinEndpoint(c.API.BaseURL, value)
		if err != nil {
			err = fmt.Errorf("api.%s: %w", field, err)
		}
		return joined
	}
	out.CreateWork = resolve("create_work_path", c.API.CreateWorkPath)
	out.Works = resolve("works_path", c.API.WorksPath)
	out.ManageWork = resolve("manage_work_path", c.API.ManageWorkPath)
	out.SuggestTags = resolve("suggest_tags_path", c.API.SuggestTagsPath)
	out.GenerateCover = resolve("generate_cover_path", c.API.GenerateCoverPath)
	out.Catalog = resolve("catalog_path", c.API.CatalogPath)
	if err != nil {
		return Endpoints{}, err
	}
	return out, nil
}

func joinEndpoint(base, path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return strings.TrimRight(path, "/"), nil
	}
	if strings.TrimSpace(base) == "" {
		return "", errors.New("relative path requires api.base_url")
	}
	joined, err := url.JoinPath(base, path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(joined, "/"), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
