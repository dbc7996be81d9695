package workapi

import (
	"quill/internal/catalog"
	"quill/internal/media"
)

// WorkPayload is the JSON "work" part of the create request.
type WorkPayload struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	FormatID           int      `json:"formatId"`
	OriginalLanguageID int      `json:"originalLanguageId"`
	CategoryIDs        []int    `json:"categoryIds"`
	TagIDs             []string `json:"tagIds"`
	Price              float64  `json:"price"`
	CoverIAURL         string   `json:"coverIaUrl,omitempty"`
}

// CreateWorkRequest bundles the work JSON with optional image parts.
type CreateWorkRequest struct {
	Work   WorkPayload
	Banner *media.File
	Cover  *media.File
}

// CoverUpload carries either a cover file, an AI image URL, or both.
type CoverUpload struct {
	File  *media.File
	IAURL string
}

// SaveRequest is the management PUT body.
type SaveRequest struct {
	Price       float64  `json:"price"`
	CategoryIDs []int    `json:"categoryIds"`
	TagIDs      []string `json:"tagIds"`
	State       string   `json:"state"`
}

// SuggestTagsRequest asks the backend for tag ideas.
type SuggestTagsRequest struct {
	Description  string   `json:"description"`
	Title        string   `json:"title"`
	ExistingTags []string `json:"existingTags"`
}

// GenerateCoverRequest asks the backend for a generated cover image.
type GenerateCoverRequest struct {
	ArtisticStyleID int    `json:"artisticStyleId"`
	ColorPaletteID  int    `json:"colorPaletteId"`
	CompositionID   int    `json:"compositionId"`
	Description     string `json:"description"`
}

// WorkDTO is a work as returned by the backend.
type WorkDTO struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	FormatID           int             `json:"formatId"`
	OriginalLanguageID int             `json:"originalLanguageId"`
	Categories         []catalog.Entry `json:"categories"`
	Tags               []string        `json:"tags"`
	Price              float64         `json:"price"`
	State              string          `json:"state"`
	BannerURL          string          `json:"bannerUrl"`
	CoverURL           string          `json:"coverUrl"`
}
