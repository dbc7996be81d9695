package authoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quill/internal/covergen"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/services"
	"quill/internal/services/workapi"
	"quill/internal/work"
)

// RequestSuggestions asks the backend for tag ideas based on the current
// description. Only one request runs at a time; the current tags are never
// touched by the response, which only fills the suggestion panel.
func (s *Session) RequestSuggestions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if !s.settings.Suggest.Evaluate(s.description).CanSuggest() {
		return services.Wrap(services.ErrValidation, ActionSuggestTags.String(), "request",
			fmt.Sprintf("description needs at least %d characters", s.settings.Suggest.SuggestMin), nil)
	}
	if s.statusLocked(ActionSuggestTags).Phase == PhasePending {
		return services.Wrap(services.ErrBusy, ActionSuggestTags.String(), "request", "suggestions already loading", nil)
	}

	token := uuid.NewString()
	s.suggestToken = token
	req := workapi.SuggestTagsRequest{
		Description:  strings.TrimSpace(s.description),
		Title:        strings.TrimSpace(s.title),
		ExistingTags: s.tags.Tags(),
	}
	s.setPhaseLocked(ActionSuggestTags, PhasePending, nil)
	s.spawnLocked(ActionSuggestTags.String(), func(ctx context.Context) {
		suggestions, err := s.api.SuggestTags(ctx, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.suggestToken != token {
			return
		}
		s.suggestToken = ""
		if err != nil {
			s.setPhaseLocked(ActionSuggestTags, PhaseFailed, services.Wrap(services.ErrGeneration, ActionSuggestTags.String(), "request", "", err))
			return
		}
		shown := s.tags.OpenSuggestions(suggestions)
		s.setPhaseLocked(ActionSuggestTags, PhaseSucceeded, nil)
		s.emitLocked(Event{Kind: EventSuggestions, Action: ActionSuggestTags, Message: fmt.Sprintf("%d suggestions", shown)})
	})
	return nil
}

// OpenCoverGenerator starts a fresh generator if none is open.
func (s *Session) OpenCoverGenerator() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.flowLocked()
	return nil
}

func (s *Session) flowLocked() *covergen.Workflow {
	if s.coverFlow == nil {
		s.coverFlow = covergen.New()
	}
	return s.coverFlow
}

// SelectCoverStyle sets the artistic style catalog id.
func (s *Session) SelectCoverStyle(id int) error {
	return s.withFlow(func(w *covergen.Workflow) { w.SelectStyle(id) })
}

// SelectCoverPalette sets the color palette catalog id.
func (s *Session) SelectCoverPalette(id int) error {
	return s.withFlow(func(w *covergen.Workflow) { w.SelectPalette(id) })
}

// SelectCoverComposition sets the composition catalog id.
func (s *Session) SelectCoverComposition(id int) error {
	return s.withFlow(func(w *covergen.Workflow) { w.SelectComposition(id) })
}

// SetCoverDescription sets the prompt text for generation.
func (s *Session) SetCoverDescription(text string) error {
	return s.withFlow(func(w *covergen.Workflow) { w.SetDescription(text) })
}

func (s *Session) withFlow(fn func(*covergen.Workflow)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	fn(s.flowLocked())
	return nil
}

// GenerateCover requests an image for the generator's parameters. Missing
// parameters are reported without contacting the backend.
func (s *Session) GenerateCover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	flow := s.flowLocked()
	token, params, err := flow.Begin()
	if err != nil {
		return err
	}
	s.setPhaseLocked(ActionGenerateCover, PhasePending, nil)
	req := workapi.GenerateCoverRequest{
		ArtisticStyleID: params.ArtisticStyleID,
		ColorPaletteID:  params.ColorPaletteID,
		CompositionID:   params.CompositionID,
		Description:     params.Description,
	}
	s.spawnLocked(ActionGenerateCover.String(), func(ctx context.Context) {
		url, err := s.api.GenerateCover(ctx, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.coverFlow != flow {
			return
		}
		if err != nil {
			if flow.Fail(token, err) {
				s.setPhaseLocked(ActionGenerateCover, PhaseFailed, flow.Err())
			}
			return
		}
		if !flow.Complete(token, url) {
			return
		}
		if flow.State() != covergen.StateGenerated {
			s.setPhaseLocked(ActionGenerateCover, PhaseFailed, flow.Err())
			return
		}
		generated, _ := flow.ImageURL()
		s.setPhaseLocked(ActionGenerateCover, PhaseSucceeded, nil)
		s.emitLocked(Event{Kind: EventCoverGenerated, Action: ActionGenerateCover, Message: generated})
	})
	return nil
}

// UseGeneratedCover makes the generated image the work's cover. In create
// mode the cover slot switches to the remote image at once. In edit mode the
// image is sent to the backend first and applied only when that succeeds.
func (s *Session) UseGeneratedCover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.coverFlow == nil {
		return services.Wrap(services.ErrValidation, ActionGenerateCover.String(), "use", "cover generator is not open", nil)
	}
	url, err := s.coverFlow.Use()
	if err != nil {
		return err
	}
	if s.mode == work.ModeCreate {
		s.applyRemoteCoverLocked(url)
		return nil
	}

	if s.statusLocked(ActionUploadCover).Phase == PhasePending {
		return services.Wrap(services.ErrBusy, ActionUploadCover.String(), "use", "cover upload already running", nil)
	}
	flow := s.coverFlow
	token := s.claimUploadLocked(&s.cover)
	workID := s.workID
	s.setPhaseLocked(ActionUploadCover, PhasePending, nil)
	s.cover.cancelUpload = s.spawnLocked(ActionUploadCover.String(), func(ctx context.Context) {
		err := s.api.UploadCover(ctx, workID, workapi.CoverUpload{IAURL: url})

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.cover.upload != token {
			return
		}
		s.cover.upload = ""
		s.cover.cancelUpload = nil
		if err != nil {
			s.setPhaseLocked(ActionUploadCover, PhaseFailed, services.Wrap(services.ErrUpload, ActionUploadCover.String(), "use generated", "", err))
			return
		}
		s.setSavedURLLocked(media.Cover, url)
		s.cover.uploadedID = ""
		s.cover.uploadedName = ""
		if s.coverFlow == flow {
			s.applyRemoteCoverLocked(url)
		} else {
			s.setRemoteCoverLocked(url)
		}
		s.setPhaseLocked(ActionUploadCover, PhaseSucceeded, nil)
	})
	return nil
}

func (s *Session) applyRemoteCoverLocked(url string) {
	s.setRemoteCoverLocked(url)
	s.closeFlowLocked()
}

func (s *Session) setRemoteCoverLocked(url string) {
	s.cover.target = ""
	s.cover.validating = false
	s.cover.issue = ""
	s.cover.preview = preview.Handle{}
	s.previews.ClearPreview(media.Cover)
	s.cover.asset = work.RemoteSlot(url)
}

// CloseCoverGenerator discards the generator. A generation still running is
// ignored when it returns.
func (s *Session) CloseCoverGenerator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeFlowLocked()
}

func (s *Session) closeFlowLocked() {
	if s.coverFlow == nil {
		return
	}
	s.coverFlow.Close()
	s.coverFlow = nil
	if s.statusLocked(ActionGenerateCover).Phase == PhasePending {
		s.setPhaseLocked(ActionGenerateCover, PhaseIdle, nil)
	}
}
