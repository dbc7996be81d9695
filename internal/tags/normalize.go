package tags

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims raw, lowercases it, and joins whitespace runs with "-".
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// Casers carry state and must not be shared across goroutines.
	lower := cases.Lower(language.Und).String(trimmed)
	return strings.Join(strings.Fields(lower), "-")
}

// Thresholds gate the suggestion affordance on description length.
type Thresholds struct {
	// HintMin is exclusive: at or below it the panel asks for more text.
	HintMin int
	// SuggestMin is inclusive: suggestions can be requested at this length.
	SuggestMin int
}

// Availability describes whether suggestions can be requested.
type Availability int

const (
	// NeedsText: the description is too short to say anything useful.
	NeedsText Availability = iota
	// AlmostReady: past the hint threshold but still below the minimum.
	AlmostReady
	// Ready: suggestions can be requested.
	Ready
)

func (a Availability) String() string {
	switch a {
	case Ready:
		return "ready"
	case AlmostReady:
		return "almost_ready"
	default:
		return "needs_text"
	}
}

// CanSuggest reports whether the trigger is enabled.
func (a Availability) CanSuggest() bool { return a == Ready }

// DescriptionLength counts runes in the trimmed description.
func DescriptionLength(description string) int {
	return utf8.RuneCountInString(strings.TrimSpace(description))
}

// Evaluate classifies description against the thresholds.
func (t Thresholds) Evaluate(description string) Availability {
	n := DescriptionLength(description)
	switch {
	case n >= t.SuggestMin:
		return Ready
	case n > t.HintMin:
		return AlmostReady
	default:
		return NeedsText
	}
}
