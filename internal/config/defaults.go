package config

const (
	defaultConfigPath           = "~/.config/quill/config.toml"
	defaultStateDir             = "~/.local/share/quill"
	defaultLogDir               = "~/.local/share/quill/logs"
	defaultBaseURL              = "http://localhost:8080/api"
	defaultCreateWorkPath       = "works/create"
	defaultWorksPath            = "works"
	defaultManageWorkPath       = "manage-work"
	defaultSuggestTagsPath      = "ai/suggest-tags"
	defaultGenerateCoverPath    = "ai/generate-cover"
	defaultCatalogPath          = "catalog"
	defaultAPITimeoutSeconds    = 60
	defaultAssetMaxSizeMB       = 20
	defaultBannerMaxWidth       = 1345
	defaultBannerMaxHeight      = 256
	defaultCoverMaxWidth        = 500
	defaultCoverMaxHeight       = 800
	defaultCreateDescriptionMin = 30
	defaultSuggestionHintMin    = 20
	defaultSuggestionMin        = 30
	defaultMaxCategories        = 2
	defaultPreviewBind          = "127.0.0.1:0"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:           defaultBaseURL,
			CreateWorkPath:    defaultCreateWorkPath,
			WorksPath:         defaultWorksPath,
			ManageWorkPath:    defaultManageWorkPath,
			SuggestTagsPath:   defaultSuggestTagsPath,
			GenerateCoverPath: defaultGenerateCoverPath,
			CatalogPath:       defaultCatalogPath,
			TimeoutSeconds:    defaultAPITimeoutSeconds,
		},
		Assets: Assets{
			Banner: AssetLimits{
				MaxSizeMB: defaultAssetMaxSizeMB,
				MaxWidth:  defaultBannerMaxWidth,
				MaxHeight: defaultBannerMaxHeight,
			},
			Cover: AssetLimits{
				MaxSizeMB: defaultAssetMaxSizeMB,
				MaxWidth:  defaultCoverMaxWidth,
				MaxHeight: defaultCoverMaxHeight,
			},
		},
		Editor: Editor{
			CreateDescriptionMin: defaultCreateDescriptionMin,
			SuggestionHintMin:    defaultSuggestionHintMin,
			SuggestionMin:        defaultSuggestionMin,
			MaxCategories:        defaultMaxCategories,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Preview: Preview{
			Enabled: true,
			Bind:    defaultPreviewBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
