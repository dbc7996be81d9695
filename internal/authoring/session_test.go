package authoring_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"quill/internal/authoring"
	"quill/internal/catalog"
	"quill/internal/covergen"
	"quill/internal/gate"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/services"
	"quill/internal/services/workapi"
	"quill/internal/testsupport"
	"quill/internal/work"
)

const longDescription = "Una historia de dragones y magia en un reino perdido."

type fakeAPI struct {
	mu sync.Mutex

	creates       []workapi.CreateWorkRequest
	coverUploads  []workapi.CoverUpload
	bannerUploads int
	saves         []workapi.SaveRequest
	suggestReqs   []workapi.SuggestTagsRequest
	generateReqs  []workapi.GenerateCoverRequest

	createID    int64
	createErr   error
	coverErrs   []error
	suggestions []string
	suggestErr  error
	coverURL    string
	generateErr error

	// hold, when set, blocks every call until it is closed.
	hold chan struct{}
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.hold == nil {
		return nil
	}
	select {
	case <-f.hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) CreateWork(ctx context.Context, req workapi.CreateWorkRequest) (int64, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.createID, f.createErr
}

func (f *fakeAPI) UploadCover(ctx context.Context, _ int64, upload workapi.CoverUpload) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coverUploads = append(f.coverUploads, upload)
	if len(f.coverErrs) > 0 {
		err := f.coverErrs[0]
		f.coverErrs = f.coverErrs[1:]
		return err
	}
	return nil
}

func (f *fakeAPI) UploadBanner(ctx context.Context, _ int64, _ media.File, _ *media.File) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bannerUploads++
	return nil
}

func (f *fakeAPI) SaveWork(ctx context.Context, _ int64, req workapi.SaveRequest) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	return nil
}

func (f *fakeAPI) SuggestTags(ctx context.Context, req workapi.SuggestTagsRequest) ([]string, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestReqs = append(f.suggestReqs, req)
	return f.suggestions, f.suggestErr
}

func (f *fakeAPI) GenerateCover(ctx context.Context, req workapi.GenerateCoverRequest) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateReqs = append(f.generateReqs, req)
	return f.coverURL, f.generateErr
}

// gatedValidator holds validation of the named files until released.
type gatedValidator struct {
	inner *media.Validator
	gates map[string]chan struct{}
}

func (g *gatedValidator) Validate(ctx context.Context, file media.File, c media.Constraints) media.Result {
	if ch, ok := g.gates[file.Name]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
	return g.inner.Validate(ctx, file, c)
}

type eventLog struct {
	mu     sync.Mutex
	events []authoring.Event
}

func (l *eventLog) record(ev authoring.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) ofKind(kind authoring.EventKind) []authoring.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []authoring.Event
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type harness struct {
	session  *authoring.Session
	api      *fakeAPI
	registry *preview.Registry
	events   *eventLog
}

func newHarness(t *testing.T, api *fakeAPI, draft work.Draft, validator authoring.Validator) *harness {
	t.Helper()
	registry := preview.NewRegistry("")
	events := &eventLog{}
	cfg := testsupport.NewConfig(t)
	s, err := authoring.New(authoring.Dependencies{
		API:       api,
		Validator: validator,
		Previews:  registry,
		Listener:  events.record,
	}, authoring.SettingsFromConfig(cfg), draft)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return &harness{session: s, api: api, registry: registry, events: events}
}

func editDraft() work.Draft {
	return work.Draft{
		Mode:       work.ModeEdit,
		WorkID:     7,
		Title:      "Existente",
		Categories: []catalog.Entry{{ID: 1, Name: "Drama"}},
		Tags:       []string{"clasico"},
		Banner:     work.EmptySlot(),
		Cover:      work.EmptySlot(),
	}
}

func fillCreate(t *testing.T, h *harness, withCover bool) {
	t.Helper()
	s := h.session
	must(t, s.SetTitle("El reino perdido"))
	must(t, s.SetDescription(longDescription))
	must(t, s.SetFormat(1))
	must(t, s.SetLanguage(2))
	must(t, s.SelectCategory(catalog.Entry{ID: 3, Name: "Fantasía"}))
	if _, _, err := s.AddTag("  Aventura "); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	must(t, s.SelectAsset(media.Banner, testsupport.ImageFile(t, "banner.png", 1200, 200, 0)))
	if withCover {
		must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	}
	s.Wait()
}

func fillGenerator(t *testing.T, s *authoring.Session) {
	t.Helper()
	must(t, s.OpenCoverGenerator())
	must(t, s.SelectCoverStyle(1))
	must(t, s.SelectCoverPalette(2))
	must(t, s.SelectCoverComposition(3))
	must(t, s.SetCoverDescription("  un dragón sobre un castillo "))
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSubmitSendsPayloadAndResets(t *testing.T) {
	api := &fakeAPI{createID: 42}
	h := newHarness(t, api, work.NewDraft(), nil)
	fillCreate(t, h, true)

	if live := h.registry.Live(); live != 2 {
		t.Fatalf("expected two live previews, got %d", live)
	}
	report, err := h.session.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !report.Ready {
		t.Fatalf("expected ready report, got %+v", report.Issues)
	}
	h.session.Wait()

	if len(api.creates) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.creates))
	}
	req := api.creates[0]
	if !slices.Equal(req.Work.TagIDs, []string{"aventura"}) {
		t.Fatalf("unexpected tags %v", req.Work.TagIDs)
	}
	if !slices.Equal(req.Work.CategoryIDs, []int{3}) {
		t.Fatalf("unexpected categories %v", req.Work.CategoryIDs)
	}
	if req.Work.Price != 0 {
		t.Fatalf("expected free work price 0, got %v", req.Work.Price)
	}
	if req.Banner == nil || req.Cover == nil || req.Work.CoverIAURL != "" {
		t.Fatalf("expected banner and cover files, got banner=%v cover=%v ia=%q", req.Banner, req.Cover, req.Work.CoverIAURL)
	}

	nav := h.events.ofKind(authoring.EventNavigate)
	if len(nav) != 1 || nav[0].WorkID != 42 {
		t.Fatalf("expected navigate event to 42, got %+v", nav)
	}
	view := h.session.Snapshot()
	if view.CreateState != authoring.CreateCreated {
		t.Fatalf("expected created state, got %s", view.CreateState)
	}
	if view.Title != "" || len(view.Tags) != 0 || len(view.Categories) != 0 {
		t.Fatalf("expected reset form, got %+v", view)
	}
	if view.Banner.State != work.SlotEmpty || view.Cover.State != work.SlotEmpty {
		t.Fatalf("expected empty slots after create")
	}
	if h.registry.Live() != 0 {
		t.Fatalf("expected previews released, got %d", h.registry.Live())
	}
	if h.session.CreatedWorkID() != 42 {
		t.Fatalf("expected created id 42, got %d", h.session.CreatedWorkID())
	}
}

func TestBlockedSubmitShowsDiagnosticsOnlyAfterAttempt(t *testing.T) {
	api := &fakeAPI{}
	h := newHarness(t, api, work.NewDraft(), nil)
	must(t, h.session.SetTitle("Solo título"))

	if diags := h.session.Diagnostics(); len(diags) != 0 {
		t.Fatalf("expected no diagnostics before an attempt, got %+v", diags)
	}
	report, err := h.session.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if report.Ready {
		t.Fatal("expected blocked report")
	}
	if !report.Has(gate.FieldDescription) || report.Has(gate.FieldTitle) {
		t.Fatalf("unexpected issues %+v", report.Issues)
	}
	if diags := h.session.Diagnostics(); len(diags) == 0 {
		t.Fatal("expected diagnostics after the attempt")
	}
	h.session.Wait()
	if len(api.creates) != 0 {
		t.Fatalf("expected no create call, got %d", len(api.creates))
	}
}

func TestLaterSelectionWins(t *testing.T) {
	first := make(chan struct{})
	second := make(chan struct{})
	validator := &gatedValidator{
		inner: media.NewValidator(nil),
		gates: map[string]chan struct{}{"first.png": first, "second.png": second},
	}
	h := newHarness(t, &fakeAPI{}, work.NewDraft(), validator)

	must(t, h.session.SelectAsset(media.Banner, testsupport.ImageFile(t, "first.png", 100, 50, 0)))
	must(t, h.session.SelectAsset(media.Banner, testsupport.ImageFile(t, "second.png", 100, 50, 0)))
	if !h.session.Snapshot().Banner.Validating {
		t.Fatal("expected banner to be validating")
	}
	close(second)
	close(first)
	h.session.Wait()

	if name := h.session.Draft().Banner.File.Name; name != "second.png" {
		t.Fatalf("expected second selection to win, got %q", name)
	}
	if live := h.registry.Live(); live != 1 {
		t.Fatalf("expected exactly one live preview, got %d", live)
	}
}

func TestInvalidSelectionKeepsPreviousAsset(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, work.NewDraft(), nil)

	must(t, h.session.SelectAsset(media.Cover, testsupport.ImageFile(t, "good.png", 400, 600, 0)))
	h.session.Wait()
	must(t, h.session.SelectAsset(media.Cover, testsupport.ImageFile(t, "wide.png", 900, 600, 0)))
	h.session.Wait()

	if name := h.session.Draft().Cover.File.Name; name != "good.png" {
		t.Fatalf("expected previous cover kept, got %q", name)
	}
	view := h.session.Snapshot()
	if view.Cover.Issue == "" {
		t.Fatal("expected an inline issue for the rejected cover")
	}
	if view.Cover.PreviewURL == "" {
		t.Fatal("expected the previous preview to stay")
	}
	if live := h.registry.Live(); live != 1 {
		t.Fatalf("expected one live preview, got %d", live)
	}
	if got := h.events.ofKind(authoring.EventValidation); len(got) != 2 {
		t.Fatalf("expected accept and reject events, got %+v", got)
	}
}

func TestEditModeUploadsImmediatelyAndBatchesSave(t *testing.T) {
	api := &fakeAPI{}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	if err := s.SetTitle("Nuevo"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected title to be read-only in edit mode, got %v", err)
	}
	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	s.Wait()
	if len(api.coverUploads) != 1 || api.coverUploads[0].File == nil {
		t.Fatalf("expected one cover file upload, got %+v", api.coverUploads)
	}
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseSucceeded {
		t.Fatalf("expected upload succeeded, got %+v", st)
	}
	if len(api.saves) != 0 {
		t.Fatal("expected no save before submit")
	}

	if _, _, err := s.AddTag("Nuevo Tag"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	must(t, s.SetPricing(true, 4.5))
	must(t, s.SetState("published"))
	report, err := s.Submit()
	if err != nil || !report.Ready {
		t.Fatalf("Submit: report=%+v err=%v", report, err)
	}
	s.Wait()

	if len(api.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(api.saves))
	}
	save := api.saves[0]
	if !slices.Equal(save.TagIDs, []string{"clasico", "nuevo-tag"}) {
		t.Fatalf("unexpected tags %v", save.TagIDs)
	}
	if save.Price != 4.5 || save.State != "published" || !slices.Equal(save.CategoryIDs, []int{1}) {
		t.Fatalf("unexpected save payload %+v", save)
	}
}

func TestFailedUploadDoesNotBlockSaveAndCanRetry(t *testing.T) {
	api := &fakeAPI{coverErrs: []error{&workapi.APIError{Op: "upload cover", StatusCode: 500, Message: "almacenamiento no disponible"}}}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	must(t, s.SelectAsset(media.Cover, testsupport.ImageFile(t, "cover.png", 400, 600, 0)))
	s.Wait()
	st := s.Status(authoring.ActionUploadCover)
	if st.Phase != authoring.PhaseFailed || !errors.Is(st.Err, services.ErrUpload) {
		t.Fatalf("expected failed upload, got %+v", st)
	}
	if st.Message != "almacenamiento no disponible" {
		t.Fatalf("expected server message verbatim, got %q", st.Message)
	}
	if !s.Draft().Cover.HasFile() {
		t.Fatal("expected the selected file to be kept")
	}

	if report, err := s.Submit(); err != nil || !report.Ready {
		t.Fatalf("Submit: report=%+v err=%v", report, err)
	}
	must(t, s.RetryUpload(media.Cover))
	s.Wait()
	if len(api.saves) != 1 || len(api.coverUploads) != 2 {
		t.Fatalf("expected one save and two uploads, got %d/%d", len(api.saves), len(api.coverUploads))
	}
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseSucceeded {
		t.Fatalf("expected retry to succeed, got %+v", st)
	}
}

func TestRetryUploadRequiresEditModeFile(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, work.NewDraft(), nil)
	if err := h.session.RetryUpload(media.Banner); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error in create mode, got %v", err)
	}
	e := newHarness(t, &fakeAPI{}, editDraft(), nil)
	if err := e.session.RetryUpload(media.Banner); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without a file, got %v", err)
	}
}

func TestEditUseGeneratedCoverAppliesOnlyOnSuccess(t *testing.T) {
	const url = "https://cdn.example.com/ai/cover.png"
	api := &fakeAPI{coverURL: url, coverErrs: []error{errors.New("connection reset")}}
	h := newHarness(t, api, editDraft(), nil)
	s := h.session

	fillGenerator(t, s)
	must(t, s.GenerateCover())
	s.Wait()
	view := s.Snapshot()
	if view.CoverGen == nil || view.CoverGen.State != covergen.StateGenerated || view.CoverGen.ImageURL != url {
		t.Fatalf("expected generated cover, got %+v", view.CoverGen)
	}
	if got := api.generateReqs[0].Description; got != "un dragón sobre un castillo" {
		t.Fatalf("expected trimmed description, got %q", got)
	}

	must(t, s.UseGeneratedCover())
	s.Wait()
	if st := s.Status(authoring.ActionUploadCover); st.Phase != authoring.PhaseFailed {
		t.Fatalf("expected failed cover update, got %+v", st)
	}
	if s.Draft().Cover.State != work.SlotEmpty {
		t.Fatalf("expected cover unchanged after failure, got %+v", s.Draft().Cover)
	}
	if api.coverUploads[0].IAURL != url || api.coverUploads[0].File != nil {
		t.Fatalf("expected url-only upload, got %+v", api.coverUploads[0])
	}
	if s.Snapshot().CoverGen == nil {
		t.Fatal("expected generator to stay open after failure")
	}

	must(t, s.UseGeneratedCover())
	s.Wait()
	d := s.Draft()
	if !d.Cover.HasURL() || d.Cover.URL != url || d.SavedCoverURL != url {
		t.Fatalf("expected generated cover applied, got %+v", d)
	}
	if s.Snapshot().CoverGen != nil {
		t.Fatal("expected generator closed after use")
	}
}

func TestGenerateWithMissingFieldsMakesNoCall(t *testing.T) {
	api := &fakeAPI{coverURL: "https://cdn.example.com/x.png"}
	h := newHarness(t, api, work.NewDraft(), nil)
	s := h.session

	must(t, s.OpenCoverGenerator())
	must(t, s.SelectCoverStyle(1))
	err := s.GenerateCover()
	var missing *covergen.MissingFieldsError
	if !errors.As(err, &missing) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	s.Wait()
	if len(api.generateReqs) != 0 {
		t.Fatalf("expected no generate call, got %d", len(api.generateReqs))
	}
	if st := s.Status(authoring.ActionGenerateCover); st.Phase != authoring.PhaseIdle {
		t.Fatalf("expected idle phase, got %+v", st)
	}
}

func TestSuggestionsLifecycle(t *testing.T) {
	api := &fakeAPI{suggestions: []string{"Magia", "Dragones", "aventura"}, hold: make(chan struct{})}
	h := newHarness(t, api, work.NewDraft(), nil)
	s := h.session

	must(t, s.SetDescription("corta"))
	if err := s.RequestSuggestions(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for short description, got %v", err)
	}
	must(t, s.SetDescription(longDescription))
	if _, _, err := s.AddTag("Aventura"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	must(t, s.RequestSuggestions())
	if err := s.RequestSuggestions(); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy while pending, got %v", err)
	}
	close(api.hold)
	s.Wait()

	view := s.Snapshot()
	if !view.SuggestionsOpen || !slices.Equal(view.Suggestions, []string{"magia", "dragones"}) {
		t.Fatalf("unexpected suggestions %+v open=%v", view.Suggestions, view.SuggestionsOpen)
	}
	if !slices.Equal(api.suggestReqs[0].ExistingTags, []string{"aventura"}) {
		t.Fatalf("expected existing tags in request, got %v", api.suggestReqs[0].ExistingTags)
	}
	if _, ok := s.AcceptSuggestion("Magia"); !ok {
		t.Fatal("expected magia to be accepted")
	}
	if _, ok := s.AcceptSuggestion("dragones"); !ok {
		t.Fatal("expected dragones to be accepted")
	}
	view = s.Snapshot()
	if view.SuggestionsOpen {
		t.Fatal("expected panel to close when emptied")
	}
	if !slices.Equal(view.Tags, []string{"aventura", "magia", "dragones"}) {
		t.Fatalf("unexpected tags %v", view.Tags)
	}
}

func TestSuggestionFailureLeavesTagsUntouched(t *testing.T) {
	api := &fakeAPI{suggestErr: errors.New("model unavailable")}
	h := newHarness(t, api, work.NewDraft(), nil)
	s := h.session

	must(t, s.SetDescription(longDescription))
	if _, _, err := s.AddTag("uno"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	must(t, s.RequestSuggestions())
	s.Wait()

	st := s.Status(authoring.ActionSuggestTags)
	if st.Phase != authoring.PhaseFailed || !errors.Is(st.Err, services.ErrGeneration) {
		t.Fatalf("expected generation failure, got %+v", st)
	}
	view := s.Snapshot()
	if !slices.Equal(view.Tags, []string{"uno"}) || view.SuggestionsOpen {
		t.Fatalf("expected tags untouched, got %v open=%v", view.Tags, view.SuggestionsOpen)
	}
}

func TestCreateFailurePreservesState(t *testing.T) {
	api := &fakeAPI{createErr: &workapi.APIError{Op: "create work", StatusCode: 400, Message: "El título ya existe"}}
	h := newHarness(t, api, work.NewDraft(), nil)
	fillCreate(t, h, true)

	if _, err := h.session.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.session.Wait()

	st := h.session.Status(authoring.ActionCreate)
	if st.Phase != authoring.PhaseFailed || st.Message != "El título ya existe" {
		t.Fatalf("expected server message, got %+v", st)
	}
	view := h.session.Snapshot()
	if view.CreateState != authoring.CreateEditing || view.Title != "El reino perdido" {
		t.Fatalf("expected form preserved, got state=%s title=%q", view.CreateState, view.Title)
	}
	if h.registry.Live() != 2 {
		t.Fatalf("expected previews kept, got %d", h.registry.Live())
	}
	if len(h.events.ofKind(authoring.EventNavigate)) != 0 {
		t.Fatal("expected no navigation on failure")
	}
}

func TestCreateUseGeneratedCoverSendsURL(t *testing.T) {
	const url = "https://cdn.example.com/ai/generated.png"
	api := &fakeAPI{createID: 9, coverURL: url}
	h := newHarness(t, api, work.NewDraft(), nil)
	fillCreate(t, h, true)
	s := h.session

	fillGenerator(t, s)
	must(t, s.GenerateCover())
	s.Wait()
	must(t, s.UseGeneratedCover())

	view := s.Snapshot()
	if view.Cover.State != work.SlotRemoteURL || view.Cover.URL != url {
		t.Fatalf("expected remote cover, got %+v", view.Cover)
	}
	if h.registry.Live() != 1 {
		t.Fatalf("expected the local cover preview released, got %d", h.registry.Live())
	}
	if len(api.coverUploads) != 0 {
		t.Fatal("expected no separate cover upload in create mode")
	}

	if _, err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.Wait()
	req := api.creates[0]
	if req.Cover != nil || req.Work.CoverIAURL != url {
		t.Fatalf("expected coverIaUrl only, got cover=%v ia=%q", req.Cover, req.Work.CoverIAURL)
	}
}

func TestCloseReleasesPreviews(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, work.NewDraft(), nil)
	fillCreate(t, h, true)
	if h.registry.Live() != 2 {
		t.Fatalf("expected two previews, got %d", h.registry.Live())
	}
	h.session.Close()
	if h.registry.Live() != 0 {
		t.Fatalf("expected previews released, got %d", h.registry.Live())
	}
	if err := h.session.SetTitle("x"); !errors.Is(err, authoring.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLateGenerationAfterCloseIsIgnored(t *testing.T) {
	api := &fakeAPI{coverURL: "https://cdn.example.com/late.png", hold: make(chan struct{})}
	h := newHarness(t, api, work.NewDraft(), nil)
	s := h.session

	fillGenerator(t, s)
	must(t, s.GenerateCover())
	if st := s.Status(authoring.ActionGenerateCover); st.Phase != authoring.PhasePending {
		t.Fatalf("expected pending generation, got %+v", st)
	}
	s.CloseCoverGenerator()
	close(api.hold)
	s.Wait()

	if s.Snapshot().CoverGen != nil {
		t.Fatal("expected generator to stay closed")
	}
	if st := s.Status(authoring.ActionGenerateCover); st.Phase != authoring.PhaseIdle {
		t.Fatalf("expected idle after close, got %+v", st)
	}
	if len(h.events.ofKind(authoring.EventCoverGenerated)) != 0 {
		t.Fatal("expected no generated event")
	}
}

func TestCategoryCapAndPricing(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, work.NewDraft(), nil)
	s := h.session

	must(t, s.SelectCategory(catalog.Entry{ID: 1, Name: "A"}))
	must(t, s.SelectCategory(catalog.Entry{ID: 2, Name: "B"}))
	if err := s.SelectCategory(catalog.Entry{ID: 3, Name: "C"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected cap error, got %v", err)
	}
	if s.Snapshot().CanAddCategory {
		t.Fatal("expected category add disabled at the cap")
	}
	if err := s.SetPricing(true, -1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected negative price rejected, got %v", err)
	}
	must(t, s.SetPricing(true, 12))
	must(t, s.SetPricing(false, 12))
	if d := s.Draft(); d.IsPaid || d.Price != 0 {
		t.Fatalf("expected free work with price 0, got paid=%v price=%v", d.IsPaid, d.Price)
	}
}

func TestNewRestoresLocalImagesFromDraft(t *testing.T) {
	path := testsupport.WriteImage(t, t.TempDir(), "saved-banner.png", 800, 200, 0)
	draft := work.NewDraft()
	draft.Title = "Borrador"
	draft.Banner = work.AssetSlot{State: work.SlotLocalFile, Path: path}
	draft.Cover = work.AssetSlot{State: work.SlotLocalFile, Path: "/does/not/exist.png"}

	h := newHarness(t, &fakeAPI{}, draft, nil)
	h.session.Wait()

	d := h.session.Draft()
	if !d.Banner.HasFile() || d.Banner.Path != path {
		t.Fatalf("expected restored banner, got %+v", d.Banner)
	}
	if d.Cover.State != work.SlotEmpty {
		t.Fatalf("expected missing cover dropped, got %+v", d.Cover)
	}
	if h.registry.Live() != 1 {
		t.Fatalf("expected one preview, got %d", h.registry.Live())
	}
}
