package authoring_test

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"quill/internal/authoring"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/services"
	"quill/internal/testsupport"
	"quill/internal/work"
)

func waitForPhase(t *testing.T, s *authoring.Session, action authoring.Action, phase authoring.Phase) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Status(action).Phase != phase {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s to be %s, last %+v", action, phase, s.Status(action))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClearDuringUploadReleasesUploadPhase(t *testing.T) {
	const url = "https://cdn.example.com/ai/cover.png"
	api := &fakeAPI{coverURL: url, hold: make(chan struct{})}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	waitForPhase(t, s, authoring.ActionUploadCover, authoring.PhasePending)

	must(t, s.ClearAsset(media.Cover))
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseIdle {
		t.Fatalf("expected upload idle after clear, got %+v", st)
	}
	close(api.hold)
	s.Wait()
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseIdle {
		t.Fatalf("abandoned upload changed the phase: %+v", st)
	}
	if s.Snapshot().Cover.State != work.SlotEmpty {
		t.Fatal("expected cover slot to stay empty")
	}

	if err := s.RetryUpload(media.Cover); !errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected no-file validation error, got %v", err)
	}
	fillGenerator(t, s)
	must(t, s.GenerateCover())
	s.Wait()
	if err := s.UseGeneratedCover(); err != nil {
		t.Fatalf("UseGeneratedCover after clear: %v", err)
	}
	s.Wait()
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseSucceeded {
		t.Fatalf("expected generated cover saved, got %+v", st)
	}
	if d := s.Draft(); d.Cover.URL != url {
		t.Fatalf("expected generated cover applied, got %+v", d.Cover)
	}
}

func TestClearDuringGeneratedCoverUpdate(t *testing.T) {
	const url = "https://cdn.example.com/ai/cover.png"
	api := &fakeAPI{coverURL: url}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	fillGenerator(t, s)
	must(t, s.GenerateCover())
	s.Wait()

	api.hold = make(chan struct{})
	must(t, s.UseGeneratedCover())
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhasePending {
		t.Fatalf("expected pending cover update, got %+v", st)
	}
	must(t, s.ClearAsset(media.Cover))
	close(api.hold)
	s.Wait()

	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseIdle {
		t.Fatalf("expected idle after clear, got %+v", st)
	}
	if s.Draft().Cover.State != work.SlotEmpty {
		t.Fatalf("abandoned update applied the cover: %+v", s.Draft().Cover)
	}
	if gen := s.Snapshot().CoverGen; gen == nil || gen.ImageURL != url {
		t.Fatalf("expected generator to keep the image, got %+v", gen)
	}

	must(t, s.UseGeneratedCover())
	s.Wait()
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseSucceeded {
		t.Fatalf("expected second use to succeed, got %+v", st)
	}
}

func TestNewSelectionReplacesPendingUpload(t *testing.T) {
	api := &fakeAPI{hold: make(chan struct{})}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "first.png", 400, 600, 0)))
	waitForPhase(t, s, authoring.ActionUploadCover, authoring.PhasePending)
	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "second.png", 300, 450, 0)))

	deadline := time.Now().Add(5 * time.Second)
	for s.Snapshot().Cover.Name != "second.png" {
		if time.Now().After(deadline) {
			t.Fatalf("second selection never applied: %+v", s.Snapshot().Cover)
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(api.hold)
	s.Wait()

	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseSucceeded {
		t.Fatalf("expected replacement upload to settle as succeeded, got %+v", st)
	}
	cover := s.Snapshot().Cover
	if cover.Name != "second.png" || !cover.Uploaded {
		t.Fatalf("expected second.png uploaded, got %+v", cover)
	}
	sent := false
	for _, u := range api.coverUploads {
		if u.File != nil && u.File.Name == "second.png" {
			sent = true
		}
	}
	if !sent {
		t.Fatalf("second.png never reached the backend: %+v", api.coverUploads)
	}
}

func TestEditUploadReplacesSavedURL(t *testing.T) {
	const old = "https://cdn.example.com/covers/7.png"
	draft := editDraft()
	draft.SavedCoverURL = old
	h := newHarness(t, &fakeAPI{}, draft, nil)
	s := h.session

	if got := s.Snapshot().Cover.SavedURL; got != old {
		t.Fatalf("SavedURL = %q, want %q", got, old)
	}
	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	s.Wait()

	cover := s.Snapshot().Cover
	if cover.SavedURL != "" || !cover.Uploaded || cover.SavedName != "cover.png" {
		t.Fatalf("expected uploaded file to replace the saved URL, got %+v", cover)
	}
	if s.Draft().SavedCoverURL != "" {
		t.Fatalf("draft still carries the old URL %q", s.Draft().SavedCoverURL)
	}

	must(t, s.ClearAsset(media.Cover))
	cover = s.Snapshot().Cover
	if cover.SavedURL != "" || cover.SavedName != "cover.png" {
		t.Fatalf("expected cleared slot to report the uploaded file, got %+v", cover)
	}
}

func TestListenerSeesEventsInEmitOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	listener := func(ev authoring.Event) {
		if ev.Kind == authoring.EventValidation {
			// A slow listener must not let later events overtake this one.
			time.Sleep(30 * time.Millisecond)
		}
		label := string(ev.Kind) + ":" + ev.Asset.String()
		if ev.Kind == authoring.EventPhase {
			label = fmt.Sprintf("%s:%s:%s", ev.Kind, ev.Action, ev.Phase)
		}
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, label)
	}
	s, err := authoring.New(authoring.Dependencies{
		API:      &fakeAPI{},
		Previews: preview.NewRegistry(""),
		Listener: listener,
	}, authoring.DefaultSettings(), editDraft())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)

	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	s.Wait()

	mu.Lock()
	got := slices.Clone(seen)
	mu.Unlock()
	want := []string{
		"validation:cover",
		"phase:upload_cover:pending",
		"phase:upload_cover:succeeded",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestCloseDeliversQueuedEvents(t *testing.T) {
	var mu sync.Mutex
	var count int
	s, err := authoring.New(authoring.Dependencies{
		API:      &fakeAPI{},
		Previews: preview.NewRegistry(""),
		Listener: func(authoring.Event) {
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			count++
			mu.Unlock()
		},
	}, authoring.DefaultSettings(), editDraft())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	waitForPhase(t, s, authoring.ActionUploadCover, authoring.PhaseSucceeded)
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Fatalf("listener saw %d events before Close returned, want 3", count)
	}
}
