package authoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/logging"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/services"
	"quill/internal/services/workapi"
	"quill/internal/work"
)

// SelectAsset validates file for the kind's slot in the background. Only the
// most recent selection for a slot is applied; a rejected file leaves the
// previous asset in place and records the reason on the slot. In edit mode a
// valid file is uploaded immediately.
func (s *Session) SelectAsset(kind media.AssetKind, file media.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if file.IsZero() {
		return services.Wrap(services.ErrValidation, uploadAction(kind).String(), "select", "no file", nil)
	}
	s.selectLocked(kind, file)
	return nil
}

func (s *Session) selectLocked(kind media.AssetKind, file media.File) {
	sl := s.slotFor(kind)
	sl.target = file.ID
	sl.validating = true
	sl.issue = ""
	constraints := s.settings.Profiles.For(kind)

	s.spawnLocked("validate_"+kind.String(), func(ctx context.Context) {
		result := s.validator.Validate(ctx, file, constraints)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || sl.target != file.ID {
			s.logger.Debug("stale validation ignored",
				logging.String(logging.FieldAssetKind, kind.String()),
				logging.String("file", file.Name),
			)
			return
		}
		sl.target = ""
		sl.validating = false
		if !result.Valid {
			sl.issue = result.Reason
			s.emitLocked(Event{Kind: EventValidation, Asset: kind, Message: result.Reason, Err: result.Err(kind)})
			return
		}
		s.applyLocalLocked(kind, file)
	})
}

func (s *Session) applyLocalLocked(kind media.AssetKind, file media.File) {
	sl := s.slotFor(kind)
	handle, err := s.previews.SetPreview(kind, file)
	if err != nil {
		logging.WarnWithContext(s.logger, "preview unavailable", "preview_allocate_failed",
			logging.String(logging.FieldAssetKind, kind.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the image is kept without a preview"),
		)
		handle = preview.Handle{}
	}
	sl.preview = handle
	sl.asset = work.LocalSlot(file)
	sl.issue = ""
	s.emitLocked(Event{Kind: EventValidation, Asset: kind, Message: fmt.Sprintf("%s accepted", file.Name)})

	if s.mode == work.ModeEdit {
		s.startUploadLocked(kind)
	}
}

// ClearAsset empties a slot and abandons any pending validation for it.
func (s *Session) ClearAsset(kind media.AssetKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.clearSlotLocked(kind)
	return nil
}

func (s *Session) clearSlotLocked(kind media.AssetKind) {
	sl := s.slotFor(kind)
	sl.target = ""
	sl.validating = false
	sl.issue = ""
	if s.abandonUploadLocked(sl) {
		s.setPhaseLocked(uploadAction(kind), PhaseIdle, nil)
	}
	sl.asset = work.EmptySlot()
	sl.preview = preview.Handle{}
	s.previews.ClearPreview(kind)
}

// RetryUpload resends the slot's local file. Edit mode only.
func (s *Session) RetryUpload(kind media.AssetKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	action := uploadAction(kind)
	if s.mode != work.ModeEdit {
		return services.Wrap(services.ErrValidation, action.String(), "retry", "images are sent with the create request", nil)
	}
	if !s.slotFor(kind).asset.HasFile() {
		return services.Wrap(services.ErrValidation, action.String(), "retry", "no local image selected", nil)
	}
	if s.statusLocked(action).Phase == PhasePending {
		return services.Wrap(services.ErrBusy, action.String(), "retry", "upload already running", nil)
	}
	s.startUploadLocked(kind)
	return nil
}

// claimUploadLocked gives the slot's upload phase to a new request. A request
// still in flight is canceled and its result will be ignored.
func (s *Session) claimUploadLocked(sl *slot) string {
	s.abandonUploadLocked(sl)
	sl.upload = uuid.NewString()
	return sl.upload
}

// abandonUploadLocked cancels the slot's in-flight upload, if any, and
// reports whether there was one.
func (s *Session) abandonUploadLocked(sl *slot) bool {
	if sl.cancelUpload != nil {
		sl.cancelUpload()
		sl.cancelUpload = nil
	}
	pending := sl.upload != ""
	sl.upload = ""
	return pending
}

func (s *Session) startUploadLocked(kind media.AssetKind) {
	sl := s.slotFor(kind)
	action := uploadAction(kind)
	token := s.claimUploadLocked(sl)
	file := sl.asset.File
	workID := s.workID

	// The banner endpoint also accepts the cover when one is staged locally.
	var cover *media.File
	if kind == media.Banner && s.cover.asset.HasFile() {
		c := s.cover.asset.File
		cover = &c
	}

	s.setPhaseLocked(action, PhasePending, nil)
	sl.cancelUpload = s.spawnLocked(action.String(), func(ctx context.Context) {
		var err error
		if kind == media.Banner {
			err = s.api.UploadBanner(ctx, workID, file, cover)
		} else {
			err = s.api.UploadCover(ctx, workID, workapi.CoverUpload{File: &file})
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || sl.upload != token {
			return
		}
		sl.upload = ""
		sl.cancelUpload = nil
		if err != nil {
			s.setPhaseLocked(action, PhaseFailed, services.Wrap(services.ErrUpload, action.String(), "upload", "", err))
			return
		}
		// The backend now serves this file, not the URL the session opened with.
		s.setSavedURLLocked(kind, "")
		sl.uploadedID = file.ID
		sl.uploadedName = file.Name
		s.setPhaseLocked(action, PhaseSucceeded, nil)
	})
}

func (s *Session) setSavedURLLocked(kind media.AssetKind, url string) {
	if kind == media.Banner {
		s.savedBanner = url
		return
	}
	s.savedCover = url
}

func (a Action) String() string { return string(a) }
