package authoring

import (
	"context"
	"errors"
	"time"

	"quill/internal/catalog"
	"quill/internal/config"
	"quill/internal/covergen"
	"quill/internal/gate"
	"quill/internal/media"
	"quill/internal/services/workapi"
	"quill/internal/tags"
	"quill/internal/work"
)

// ErrClosed is returned by every mutation after Close.
var ErrClosed = errors.New("authoring: session closed")

// API is the subset of the backend client a session needs.
type API interface {
	CreateWork(ctx context.Context, req workapi.CreateWorkRequest) (int64, error)
	UploadCover(ctx context.Context, workID int64, upload workapi.CoverUpload) error
	UploadBanner(ctx context.Context, workID int64, banner media.File, cover *media.File) error
	SaveWork(ctx context.Context, workID int64, req workapi.SaveRequest) error
	SuggestTags(ctx context.Context, req workapi.SuggestTagsRequest) ([]string, error)
	GenerateCover(ctx context.Context, req workapi.GenerateCoverRequest) (string, error)
}

// Validator checks a candidate image.
type Validator interface {
	Validate(ctx context.Context, file media.File, c media.Constraints) media.Result
}

// Action names a tracked network operation.
type Action string

const (
	ActionCreate        Action = "create"
	ActionSave          Action = "save"
	ActionUploadBanner  Action = "upload_banner"
	ActionUploadCover   Action = "upload_cover"
	ActionSuggestTags   Action = "suggest_tags"
	ActionGenerateCover Action = "generate_cover"
)

// Actions lists every tracked action in display order.
var Actions = []Action{
	ActionCreate,
	ActionSave,
	ActionUploadBanner,
	ActionUploadCover,
	ActionSuggestTags,
	ActionGenerateCover,
}

func uploadAction(kind media.AssetKind) Action {
	if kind == media.Banner {
		return ActionUploadBanner
	}
	return ActionUploadCover
}

// Phase is the progress of one action.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status is the last known phase of an action.
type Status struct {
	Phase     Phase
	Err       error
	Message   string
	UpdatedAt time.Time
}

// CreateState tracks the create-mode submit.
type CreateState string

const (
	CreateEditing    CreateState = "editing"
	CreateSubmitting CreateState = "submitting"
	CreateCreated    CreateState = "created"
)

// EventKind classifies a session event.
type EventKind string

const (
	EventPhase          EventKind = "phase"
	EventValidation     EventKind = "validation"
	EventSuggestions    EventKind = "suggestions"
	EventCoverGenerated EventKind = "cover_generated"
	EventNavigate       EventKind = "navigate"
)

// Event is delivered to the session listener.
type Event struct {
	Kind    EventKind
	Action  Action
	Phase   Phase
	Asset   media.AssetKind
	WorkID  int64
	Message string
	Err     error
}

// Settings holds the thresholds and limits a session enforces.
type Settings struct {
	Profiles      media.Profiles
	Gate          gate.Rules
	Suggest       tags.Thresholds
	MaxCategories int
}

// DefaultSettings returns the stock limits.
func DefaultSettings() Settings {
	return Settings{
		Profiles:      media.DefaultProfiles(),
		Gate:          gate.DefaultRules(),
		Suggest:       tags.Thresholds{HintMin: 20, SuggestMin: 30},
		MaxCategories: catalog.DefaultMaxCategories,
	}
}

// SettingsFromConfig maps the configuration onto session settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return DefaultSettings()
	}
	limits := func(l config.AssetLimits) media.Constraints {
		return media.Constraints{MaxSizeMB: l.MaxSizeMB, MaxWidth: l.MaxWidth, MaxHeight: l.MaxHeight}
	}
	return Settings{
		Profiles: media.Profiles{
			Banner: limits(cfg.Assets.Banner),
			Cover:  limits(cfg.Assets.Cover),
		},
		Gate: gate.Rules{DescriptionMin: cfg.Editor.CreateDescriptionMin},
		Suggest: tags.Thresholds{
			HintMin:    cfg.Editor.SuggestionHintMin,
			SuggestMin: cfg.Editor.SuggestionMin,
		},
		MaxCategories: cfg.Editor.MaxCategories,
	}
}

// AssetView is the renderable state of one image slot. SavedURL is the image
// the backend had when the session opened; once a local file is uploaded,
// SavedName names that file instead. Uploaded reports that the backend
// already has the slot's current local file.
type AssetView struct {
	Kind       media.AssetKind
	State      work.SlotState
	Name       string
	URL        string
	PreviewURL string
	SavedURL   string
	SavedName  string
	Uploaded   bool
	Validating bool
	Issue      string
}

// CoverGenView is the renderable state of the cover generator.
type CoverGenView struct {
	State    covergen.State
	Request  covergen.Request
	ImageURL string
	Err      error
}

// View is a consistent copy of the session for rendering.
type View struct {
	ID              string
	Mode            work.Mode
	WorkID          int64
	Title           string
	Description     string
	FormatID        int
	LanguageID      int
	Categories      []catalog.Entry
	CanAddCategory  bool
	Tags            []string
	Suggestions     []string
	SuggestionsOpen bool
	Availability    tags.Availability
	IsPaid          bool
	Price           float64
	State           string
	Banner          AssetView
	Cover           AssetView
	CoverGen        *CoverGenView
	Phases          map[Action]Status
	Gate            gate.Report
	Diagnostics     []gate.Issue
	CreateState     CreateState
}
