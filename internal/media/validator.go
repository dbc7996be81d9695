package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/webp"

	"quill/internal/logging"
	"quill/internal/services"
)

// ReasonCode classifies why a file was rejected.
type ReasonCode string

const (
	ReasonNone       ReasonCode = ""
	ReasonTooLarge   ReasonCode = "too_large"
	ReasonNotImage   ReasonCode = "not_image"
	ReasonDimensions ReasonCode = "dimensions"
	ReasonCanceled   ReasonCode = "canceled"
)

// Result is the outcome of validating one file.
type Result struct {
	Valid  bool
	Code   ReasonCode
	Reason string
	Width  int
	Height int
}

// Err converts an invalid result into a validation error for kind.
func (r Result) Err(kind AssetKind) error {
	if r.Valid {
		return nil
	}
	return services.Wrap(services.ErrValidation, kind.String(), "validate", r.Reason, nil)
}

// Validator checks candidate images against a slot's constraints.
type Validator struct {
	logger *slog.Logger
}

// NewValidator builds a validator. A nil logger discards output.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate checks file against c. The size check runs before any decoding.
// Cancellation yields an invalid result with ReasonCanceled.
func (v *Validator) Validate(ctx context.Context, file File, c Constraints) Result {
	if limit := c.MaxBytes(); file.Size > limit {
		return Result{
			Code: ReasonTooLarge,
			Reason: fmt.Sprintf("file is %s; the limit is %s",
				humanize.IBytes(uint64(file.Size)), humanize.IBytes(uint64(limit))),
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{Code: ReasonCanceled, Reason: "validation canceled"}
	}
	if file.ContentType != "" && !file.IsImage() {
		return notImage(file)
	}

	reader, err := file.Open()
	if err != nil {
		logging.WarnWithContext(v.logger, "image open failed", "image_open_failed",
			logging.String("file", file.Name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file still exists and is readable"),
			logging.String(logging.FieldImpact, "selection rejected"),
		)
		return Result{Code: ReasonNotImage, Reason: fmt.Sprintf("%s could not be read", file.Name)}
	}
	defer reader.Close()

	cfg, format, err := image.DecodeConfig(reader)
	if err != nil {
		v.logger.Debug("image decode failed", logging.String("file", file.Name), logging.Error(err))
		return notImage(file)
	}
	if err := ctx.Err(); err != nil {
		return Result{Code: ReasonCanceled, Reason: "validation canceled"}
	}

	result := Result{Width: cfg.Width, Height: cfg.Height}
	if cfg.Width > c.MaxWidth || cfg.Height > c.MaxHeight {
		result.Code = ReasonDimensions
		result.Reason = fmt.Sprintf("image is %dx%d; the maximum is %dx%d",
			cfg.Width, cfg.Height, c.MaxWidth, c.MaxHeight)
		return result
	}

	v.logger.Debug("image accepted",
		logging.String("file", file.Name),
		logging.String("format", format),
		logging.Int("width", cfg.Width),
		logging.Int("height", cfg.Height),
	)
	result.Valid = true
	return result
}

func notImage(file File) Result {
	return Result{Code: ReasonNotImage, Reason: fmt.Sprintf("%s is not a valid image", file.Name)}
}
