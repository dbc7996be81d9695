// Package work defines the persisted shape of a work draft and its
// conversions to and from the backend wire types.
package work

import (
	"fmt"
	"strings"

	"quill/internal/catalog"
	"quill/internal/media"
	"quill/internal/services/workapi"
)

// Mode selects between creating a new work and editing an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ParseMode accepts "create" or "edit".
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeCreate:
		return ModeCreate, nil
	case ModeEdit:
		return ModeEdit, nil
	default:
		return "", fmt.Errorf("unknown mode %q", value)
	}
}

// SlotState is the variant held by an AssetSlot.
type SlotState string

const (
	SlotEmpty     SlotState = "empty"
	SlotLocalFile SlotState = "local_file"
	SlotRemoteURL SlotState = "remote_url"
)

// AssetSlot is one image slot. LocalFile carries the selected file; the
// matching preview handle is owned by the session's preview manager.
// RemoteURL holds an AI-generated cover and is never used for banners.
type AssetSlot struct {
	State SlotState  `json:"state"`
	Path  string     `json:"path,omitempty"`
	URL   string     `json:"url,omitempty"`
	File  media.File `json:"-"`
}

// EmptySlot returns an empty slot.
func EmptySlot() AssetSlot { return AssetSlot{State: SlotEmpty} }

// LocalSlot returns a slot holding file.
func LocalSlot(file media.File) AssetSlot {
	return AssetSlot{State: SlotLocalFile, Path: file.Path, File: file}
}

// RemoteSlot returns a slot holding a generated image URL.
func RemoteSlot(url string) AssetSlot {
	return AssetSlot{State: SlotRemoteURL, URL: strings.TrimSpace(url)}
}

// Present reports whether the slot holds anything.
func (s AssetSlot) Present() bool {
	return s.State == SlotLocalFile || s.State == SlotRemoteURL
}

// HasFile reports whether the slot holds a local file.
func (s AssetSlot) HasFile() bool { return s.State == SlotLocalFile }

// HasURL reports whether the slot holds a generated URL.
func (s AssetSlot) HasURL() bool { return s.State == SlotRemoteURL && s.URL != "" }

// Describe renders the slot for display.
func (s AssetSlot) Describe() string {
	switch s.State {
	case SlotLocalFile:
		if s.File.Name != "" {
			return s.File.Name
		}
		return s.Path
	case SlotRemoteURL:
		return s.URL
	default:
		return "(none)"
	}
}

// Draft is the in-progress work. FormatID and LanguageID are zero when not
// selected; Price is zero whenever IsPaid is false.
type Draft struct {
	Mode        Mode            `json:"mode"`
	WorkID      int64           `json:"work_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	FormatID    int             `json:"format_id,omitempty"`
	LanguageID  int             `json:"original_language_id,omitempty"`
	Categories  []catalog.Entry `json:"categories"`
	Tags        []string        `json:"tags"`
	IsPaid      bool            `json:"is_paid"`
	Price       float64         `json:"price"`
	State       string          `json:"state,omitempty"`
	Banner      AssetSlot       `json:"banner"`
	Cover       AssetSlot       `json:"cover"`

	// Images already stored on the backend, shown in edit mode.
	SavedBannerURL string `json:"saved_banner_url,omitempty"`
	SavedCoverURL  string `json:"saved_cover_url,omitempty"`
}

// NewDraft returns an empty create-mode draft.
func NewDraft() Draft {
	return Draft{Mode: ModeCreate, Banner: EmptySlot(), Cover: EmptySlot()}
}

// Slot returns the slot for kind.
func (d Draft) Slot(kind media.AssetKind) AssetSlot {
	if kind == media.Banner {
		return d.Banner
	}
	return d.Cover
}

// FromDTO hydrates an edit-mode draft from a fetched work.
func FromDTO(dto workapi.WorkDTO) Draft {
	d := Draft{
		Mode:           ModeEdit,
		WorkID:         dto.ID,
		Title:          dto.Title,
		Description:    dto.Description,
		FormatID:       dto.FormatID,
		LanguageID:     dto.OriginalLanguageID,
		Categories:     append([]catalog.Entry(nil), dto.Categories...),
		Tags:           append([]string(nil), dto.Tags...),
		IsPaid:         dto.Price > 0,
		State:          dto.State,
		Banner:         EmptySlot(),
		Cover:          EmptySlot(),
		SavedBannerURL: dto.BannerURL,
		SavedCoverURL:  dto.CoverURL,
	}
	if d.IsPaid {
		d.Price = dto.Price
	}
	return d
}

// CreatePayload builds the create request from the draft. Local files go in
// as parts; a generated cover goes in as coverIaUrl.
func (d Draft) CreatePayload() workapi.CreateWorkRequest {
	req := workapi.CreateWorkRequest{
		Work: workapi.WorkPayload{
			Title:              strings.TrimSpace(d.Title),
			Description:        strings.TrimSpace(d.Description),
			FormatID:           d.FormatID,
			OriginalLanguageID: d.LanguageID,
			CategoryIDs:        categoryIDs(d.Categories),
			TagIDs:             tagIDs(d.Tags),
			Price:              d.effectivePrice(),
		},
	}
	if d.Banner.HasFile() {
		banner := d.Banner.File
		req.Banner = &banner
	}
	switch {
	case d.Cover.HasFile():
		cover := d.Cover.File
		req.Cover = &cover
	case d.Cover.HasURL():
		req.Work.CoverIAURL = d.Cover.URL
	}
	return req
}

// SavePayload builds the edit-mode management request.
func (d Draft) SavePayload() workapi.SaveRequest {
	return workapi.SaveRequest{
		Price:       d.effectivePrice(),
		CategoryIDs: categoryIDs(d.Categories),
		TagIDs:      tagIDs(d.Tags),
		State:       d.State,
	}
}

func (d Draft) effectivePrice() float64 {
	if !d.IsPaid {
		return 0
	}
	return d.Price
}

func categoryIDs(entries []catalog.Entry) []int {
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func tagIDs(tags []string) []string {
	out := make([]string, 0, len(tags))
	return append(out, tags...)
}
