package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, err := c.APIEndpoints(); err != nil {
		return err
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAssets() error {
	return ensurePositiveMap(map[string]int{
		"assets.banner.max_size_mb": c.Assets.Banner.MaxSizeMB,
		"assets.banner.max_width":   c.Assets.Banner.MaxWidth,
		"assets.banner.max_height":  c.Assets.Banner.MaxHeight,
		"assets.cover.max_size_mb":  c.Assets.Cover.MaxSizeMB,
		"assets.cover.max_width":    c.Assets.Cover.MaxWidth,
		"assets.cover.max_height":   c.Assets.Cover.MaxHeight,
	})
}

func (c *Config) validateEditor() error {
	if c.Editor.CreateDescriptionMin < 0 {
		return errors.New("editor.create_description_min must be >= 0")
	}
	if c.Editor.SuggestionHintMin < 0 {
		return errors.New("editor.suggestion_hint_min must be >= 0")
	}
	if c.Editor.SuggestionMin < c.Editor.SuggestionHintMin {
		return errors.New("editor.suggestion_min must be >= editor.suggestion_hint_min")
	}
	if c.Editor.MaxCategories <= 0 {
		return errors.New("editor.max_categories must be positive")
	}
	return nil
}

// RequireToken reports a descriptive error when no bearer token is configured.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.API.Token) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("api.token is required. Set QUILL_API_TOKEN env var or edit %s (create with 'quill config init')", defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
