package authoring

import (
	"context"

	"quill/internal/gate"
	"quill/internal/media"
	"quill/internal/services"
	"quill/internal/tags"
	"quill/internal/work"
)

// Submit creates the work (create mode) or saves its management fields
// (edit mode). A draft that fails the gate is not sent; the report is
// returned and its issues become visible from then on.
func (s *Session) Submit() (gate.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gate.Report{}, ErrClosed
	}
	if s.mode == work.ModeEdit {
		return s.saveLocked()
	}
	if s.createState == CreateSubmitting {
		return gate.Report{}, services.Wrap(services.ErrBusy, ActionCreate.String(), "submit", "the work is being submitted", nil)
	}

	report := s.gateLocked()
	s.attempted = true
	if !report.Ready {
		s.emitLocked(Event{Kind: EventValidation, Action: ActionCreate, Message: "the work is not ready to submit"})
		return report, nil
	}

	req := s.draftLocked().CreatePayload()
	s.createState = CreateSubmitting
	s.setPhaseLocked(ActionCreate, PhasePending, nil)
	s.spawnLocked(ActionCreate.String(), func(ctx context.Context) {
		id, err := s.api.CreateWork(ctx, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if err != nil {
			s.createState = CreateEditing
			s.setPhaseLocked(ActionCreate, PhaseFailed, services.Wrap(services.ErrUpload, ActionCreate.String(), "submit", "", err))
			return
		}
		s.createState = CreateCreated
		s.createdID = id
		s.setPhaseLocked(ActionCreate, PhaseSucceeded, nil)
		s.resetLocked()
		s.emitLocked(Event{Kind: EventNavigate, Action: ActionCreate, WorkID: id})
	})
	return report, nil
}

func (s *Session) saveLocked() (gate.Report, error) {
	if s.statusLocked(ActionSave).Phase == PhasePending {
		return gate.Report{}, services.Wrap(services.ErrBusy, ActionSave.String(), "submit", "save already running", nil)
	}
	report := s.gateLocked()
	s.attempted = true
	if !report.Ready {
		s.emitLocked(Event{Kind: EventValidation, Action: ActionSave, Message: "the work is not ready to save"})
		return report, nil
	}

	workID := s.workID
	req := s.draftLocked().SavePayload()
	s.setPhaseLocked(ActionSave, PhasePending, nil)
	s.spawnLocked(ActionSave.String(), func(ctx context.Context) {
		err := s.api.SaveWork(ctx, workID, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if err != nil {
			s.setPhaseLocked(ActionSave, PhaseFailed, services.Wrap(services.ErrUpload, ActionSave.String(), "submit", "", err))
			return
		}
		s.setPhaseLocked(ActionSave, PhaseSucceeded, nil)
	})
	return report, nil
}

// CreatedWorkID returns the id assigned by the last successful create.
func (s *Session) CreatedWorkID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdID
}

// resetLocked returns a create session to an empty form after a successful
// create. Pending suggestion and generation results are dropped.
func (s *Session) resetLocked() {
	s.title = ""
	s.description = ""
	s.formatID = 0
	s.languageID = 0
	s.categories.Clear()
	s.tags = tags.NewManager()
	s.isPaid = false
	s.price = 0
	for _, kind := range media.Kinds {
		s.clearSlotLocked(kind)
	}
	s.closeFlowLocked()
	s.suggestToken = ""
	s.attempted = false
	for action := range s.phases {
		if action != ActionCreate {
			delete(s.phases, action)
		}
	}
}
