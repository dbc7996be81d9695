package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrGeneration    = errors.New("generation error")
	ErrUpload        = errors.New("upload error")
	ErrBusy          = errors.New("request already pending")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Kind classifies a failure for presentation.
type Kind string

const (
	KindValidation Kind = "validation"
	KindGeneration Kind = "generation"
	KindUpload     Kind = "upload"
	KindOther      Kind = "other"
)

// Wrap builds an error message that includes action context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, action, operation, message string, err error) error {
	detail := buildDetail(action, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the kind that decides how it is surfaced:
// validation errors stay inline, generation errors become transient
// notifications, upload errors keep the form intact for a retry.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrGeneration):
		return KindGeneration
	case errors.Is(err, ErrUpload):
		return KindUpload
	default:
		return KindOther
	}
}

func buildDetail(action, operation, message string) string {
	parts := make([]string, 0, 3)
	if action = strings.TrimSpace(action); action != "" {
		parts = append(parts, action)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
