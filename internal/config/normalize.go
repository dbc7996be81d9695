package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeAssets()
	c.normalizeEditor()
	c.normalizePreview()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("QUILL_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	for _, field := range []*string{
		&c.API.CreateWorkPath,
		&c.API.WorksPath,
		&c.API.ManageWorkPath,
		&c.API.SuggestTagsPath,
		&c.API.GenerateCoverPath,
		&c.API.CatalogPath,
	} {
		*field = strings.TrimSpace(*field)
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
}

func (c *Config) normalizeAssets() {
	if c.Assets.Banner.MaxSizeMB <= 0 {
		c.Assets.Banner.MaxSizeMB = defaultAssetMaxSizeMB
	}
	if c.Assets.Cover.MaxSizeMB <= 0 {
		c.Assets.Cover.MaxSizeMB = defaultAssetMaxSizeMB
	}
}

func (c *Config) normalizeEditor() {
	if c.Editor.MaxCategories <= 0 {
		c.Editor.MaxCategories = defaultMaxCategories
	}
}

func (c *Config) normalizePreview() {
	c.Preview.Bind = strings.TrimSpace(c.Preview.Bind)
	if c.Preview.Bind == "" {
		c.Preview.Bind = defaultPreviewBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
