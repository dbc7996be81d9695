// Package gate computes whether a draft can be submitted.
//
// Evaluate is a pure function of its inputs. Create mode requires the full
// set of fields; edit mode only checks what the management save sends. The
// resulting Report always carries every unmet condition, but callers show
// them only after the first submit attempt (see Report.Visible).
package gate

import (
	"fmt"
	"strings"

	"quill/internal/tags"
	"quill/internal/work"
)

// Field names a checked condition.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldFormat      Field = "format"
	FieldLanguage    Field = "language"
	FieldCategories  Field = "categories"
	FieldTags        Field = "tags"
	FieldPrice       Field = "price"
	FieldBanner      Field = "banner"
	FieldCover       Field = "cover"
)

// Snapshot is the subset of draft state the gate looks at.
type Snapshot struct {
	Title            string
	Description      string
	FormatSelected   bool
	LanguageSelected bool
	Categories       int
	Tags             int
	IsPaid           bool
	Price            float64
	BannerPresent    bool
	CoverFile        bool
	CoverURL         bool
}

// SnapshotOf extracts a snapshot from a draft.
func SnapshotOf(d work.Draft) Snapshot {
	return Snapshot{
		Title:            d.Title,
		Description:      d.Description,
		FormatSelected:   d.FormatID > 0,
		LanguageSelected: d.LanguageID > 0,
		Categories:       len(d.Categories),
		Tags:             len(d.Tags),
		IsPaid:           d.IsPaid,
		Price:            d.Price,
		BannerPresent:    d.Banner.Present(),
		CoverFile:        d.Cover.HasFile(),
		CoverURL:         d.Cover.HasURL(),
	}
}

// Rules holds the configurable thresholds.
type Rules struct {
	// DescriptionMin is exclusive, counted in runes after trimming.
	DescriptionMin int
}

// DefaultRules returns the stock thresholds.
func DefaultRules() Rules { return Rules{DescriptionMin: 30} }

// Issue is one unmet condition.
type Issue struct {
	Field   Field
	Message string
}

// Report is the gate outcome.
type Report struct {
	Ready  bool
	Issues []Issue
}

// Visible returns the issues to display. Nothing is shown until the user
// has attempted a submit.
func (r Report) Visible(attempted bool) []Issue {
	if !attempted {
		return nil
	}
	return r.Issues
}

// Has reports whether field is among the unmet conditions.
func (r Report) Has(field Field) bool {
	for _, issue := range r.Issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}

// Evaluate checks s against the rules for mode.
func Evaluate(mode work.Mode, rules Rules, s Snapshot) Report {
	var issues []Issue
	add := func(field Field, msg string) {
		issues = append(issues, Issue{Field: field, Message: msg})
	}

	if mode != work.ModeEdit {
		if strings.TrimSpace(s.Title) == "" {
			add(FieldTitle, "add a title")
		}
		if n := tags.DescriptionLength(s.Description); n <= rules.DescriptionMin {
			add(FieldDescription, fmt.Sprintf("description needs more than %d characters (has %d)", rules.DescriptionMin, n))
		}
		if !s.FormatSelected {
			add(FieldFormat, "choose a format")
		}
		if !s.LanguageSelected {
			add(FieldLanguage, "choose the original language")
		}
	}
	if s.Categories < 1 {
		add(FieldCategories, "choose at least one category")
	}
	if s.Tags < 1 {
		add(FieldTags, "add at least one tag")
	}
	if s.IsPaid && s.Price <= 0 {
		add(FieldPrice, "a paid work needs a price above zero")
	}
	if mode != work.ModeEdit {
		if !s.BannerPresent {
			add(FieldBanner, "add a banner image")
		}
		if !s.CoverFile && !s.CoverURL {
			add(FieldCover, "add a cover image or generate one")
		}
	}

	return Report{Ready: len(issues) == 0, Issues: issues}
}
