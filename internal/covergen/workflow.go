// Package covergen tracks one AI cover-generation dialog.
//
// A Workflow starts Idle. Begin moves it to Generating and hands back a
// token; only the completion carrying the current token is applied, so a
// response that arrives after the dialog was closed or restarted is dropped.
// A successful completion moves to Generated, a failure to Error. Both accept
// a new Begin.
package covergen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quill/internal/services"
)

// State is the workflow phase.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateGenerated
	StateError
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Request carries the generation parameters. Catalog IDs are positive; zero
// means not selected.
type Request struct {
	ArtisticStyleID int
	ColorPaletteID  int
	CompositionID   int
	Description     string
}

// MissingFieldsError lists the parameters still required before generating.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "cover generation needs: " + strings.Join(e.Fields, ", ")
}

// Unwrap marks the error as a validation failure.
func (e *MissingFieldsError) Unwrap() error { return services.ErrValidation }

// Missing lists the unset parameters in display order.
func (r Request) Missing() []string {
	var missing []string
	if r.ArtisticStyleID <= 0 {
		missing = append(missing, "artistic style")
	}
	if r.ColorPaletteID <= 0 {
		missing = append(missing, "color palette")
	}
	if r.CompositionID <= 0 {
		missing = append(missing, "composition")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	return missing
}

// Workflow is not safe for concurrent use; callers serialize access.
type Workflow struct {
	state    State
	request  Request
	token    string
	imageURL string
	err      error
}

// New returns an Idle workflow.
func New() *Workflow { return &Workflow{} }

func (w *Workflow) SelectStyle(id int)         { w.request.ArtisticStyleID = id }
func (w *Workflow) SelectPalette(id int)       { w.request.ColorPaletteID = id }
func (w *Workflow) SelectComposition(id int)   { w.request.CompositionID = id }
func (w *Workflow) SetDescription(text string) { w.request.Description = text }

// Request returns the current parameters.
func (w *Workflow) Request() Request { return w.request }

// State returns the current phase.
func (w *Workflow) State() State { return w.state }

// Err returns the failure behind StateError.
func (w *Workflow) Err() error { return w.err }

// ImageURL returns the generated image while in StateGenerated.
func (w *Workflow) ImageURL() (string, bool) {
	if w.state != StateGenerated {
		return "", false
	}
	return w.imageURL, true
}

// Begin validates the parameters and enters Generating. Any previously
// generated image is discarded. A missing parameter leaves the state as is.
func (w *Workflow) Begin() (string, Request, error) {
	if w.state == StateGenerating {
		return "", Request{}, services.Wrap(services.ErrBusy, "generate_cover", "begin", "generation already running", nil)
	}
	if missing := w.request.Missing(); len(missing) > 0 {
		return "", Request{}, &MissingFieldsError{Fields: missing}
	}
	w.state = StateGenerating
	w.imageURL = ""
	w.err = nil
	w.token = uuid.NewString()
	req := w.request
	req.Description = strings.TrimSpace(req.Description)
	return w.token, req, nil
}

// Complete applies a successful response. It returns false for stale tokens.
func (w *Workflow) Complete(token, imageURL string) bool {
	if !w.current(token) {
		return false
	}
	w.token = ""
	if strings.TrimSpace(imageURL) == "" {
		w.state = StateError
		w.err = services.Wrap(services.ErrGeneration, "generate_cover", "complete", "backend returned no image", nil)
		return true
	}
	w.state = StateGenerated
	w.imageURL = strings.TrimSpace(imageURL)
	return true
}

// Fail applies a failed response. It returns false for stale tokens.
func (w *Workflow) Fail(token string, err error) bool {
	if !w.current(token) {
		return false
	}
	w.token = ""
	w.state = StateError
	if err == nil {
		err = errors.New("generation failed")
	}
	if !errors.Is(err, services.ErrGeneration) {
		err = services.Wrap(services.ErrGeneration, "generate_cover", "request", "", err)
	}
	w.err = err
	return true
}

// Use returns the generated image URL for applying to the work.
func (w *Workflow) Use() (string, error) {
	url, ok := w.ImageURL()
	if !ok {
		return "", fmt.Errorf("%w: no generated cover to use (state %s)", services.ErrValidation, w.state)
	}
	return url, nil
}

// Close discards the workflow. Late completions are ignored afterwards.
func (w *Workflow) Close() {
	w.token = ""
	w.state = StateIdle
	w.imageURL = ""
	w.err = nil
}

func (w *Workflow) current(token string) bool {
	return token != "" && w.state == StateGenerating && token == w.token
}
