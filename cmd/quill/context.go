package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"quill/internal/catalog"
	"quill/internal/config"
	"quill/internal/draftstore"
	"quill/internal/logging"
	"quill/internal/services/workapi"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	clientOnce sync.Once
	client     *workapi.Client
	catalogs   *catalog.Cache
	clientErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// apiClient builds the backend client and the process-wide catalog cache.
func (c *commandContext) apiClient() (*workapi.Client, error) {
	c.clientOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.clientErr = err
			return
		}
		if err := cfg.RequireToken(); err != nil {
			c.clientErr = err
			return
		}
		endpoints, err := cfg.APIEndpoints()
		if err != nil {
			c.clientErr = err
			return
		}
		logger, err := c.ensureLogger()
		if err != nil {
			c.clientErr = err
			return
		}
		c.client = workapi.NewClient(workapi.Config{
			CreateWorkURL:    endpoints.CreateWork,
			WorksURL:         endpoints.Works,
			ManageWorkURL:    endpoints.ManageWork,
			SuggestTagsURL:   endpoints.SuggestTags,
			GenerateCoverURL: endpoints.GenerateCover,
			CatalogURL:       endpoints.Catalog,
			Token:            cfg.API.Token,
			TimeoutSeconds:   cfg.API.TimeoutSeconds,
		}, workapi.WithLogger(logger))
		c.catalogs = catalog.NewCache(c.client)
	})
	return c.client, c.clientErr
}

func (c *commandContext) catalogCache() (*catalog.Cache, error) {
	if _, err := c.apiClient(); err != nil {
		return nil, err
	}
	return c.catalogs, nil
}

func (c *commandContext) withStore(fn func(*draftstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := draftstore.Open(cfg.DraftDBPath())
	if err != nil {
		return fmt.Errorf("open draft store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
