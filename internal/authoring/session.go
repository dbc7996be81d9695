package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/catalog"
	"quill/internal/covergen"
	"quill/internal/gate"
	"quill/internal/logging"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/services"
	"quill/internal/services/workapi"
	"quill/internal/tags"
	"quill/internal/work"
)

// Dependencies are the collaborators a session drives.
type Dependencies struct {
	API       API
	Validator Validator
	Previews  preview.Allocator
	Logger    *slog.Logger
	Listener  func(Event)
}

type slot struct {
	kind       media.AssetKind
	asset      work.AssetSlot
	preview    preview.Handle
	target     string
	validating bool
	issue      string

	// upload is the token of the request that owns the slot's upload phase.
	upload       string
	cancelUpload context.CancelFunc
	// uploadedID and uploadedName describe the last local file the backend
	// accepted for this slot.
	uploadedID   string
	uploadedName string
}

// Session is one create or edit session.
type Session struct {
	mu       sync.Mutex
	id       string
	mode     work.Mode
	settings Settings

	api       API
	validator Validator
	previews  *preview.Manager
	logger    *slog.Logger
	events    *dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	workID      int64
	title       string
	description string
	formatID    int
	languageID  int
	categories  *catalog.Selection
	tags        *tags.Manager
	isPaid      bool
	price       float64
	state       string
	banner      slot
	cover       slot
	savedBanner string
	savedCover  string

	coverFlow    *covergen.Workflow
	suggestToken string
	phases       map[Action]Status
	attempted    bool
	createState  CreateState
	createdID    int64
}

// New starts a session over draft. Create-mode drafts that reference local
// image files have those files reopened and revalidated.
func New(deps Dependencies, settings Settings, draft work.Draft) (*Session, error) {
	if deps.API == nil {
		return nil, errors.New("authoring: api client required")
	}
	mode := draft.Mode
	if mode == "" {
		mode = work.ModeCreate
	}
	if mode == work.ModeEdit && draft.WorkID <= 0 {
		return nil, errors.New("authoring: edit session requires a work id")
	}
	if deps.Validator == nil {
		deps.Validator = media.NewValidator(deps.Logger)
	}
	if deps.Previews == nil {
		deps.Previews = preview.NewRegistry("")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = services.WithSessionID(ctx, id)
	ctx = services.WithWorkID(ctx, draft.WorkID)

	s := &Session{
		id:          id,
		mode:        mode,
		settings:    settings,
		api:         deps.API,
		validator:   deps.Validator,
		previews:    preview.NewManager(deps.Previews),
		logger:      logging.NewComponentLogger(deps.Logger, "authoring").With(logging.String(logging.FieldSessionID, id)),
		events:      newDispatcher(deps.Listener),
		ctx:         ctx,
		cancel:      cancel,
		workID:      draft.WorkID,
		title:       draft.Title,
		description: draft.Description,
		formatID:    draft.FormatID,
		languageID:  draft.LanguageID,
		categories:  catalog.NewSelection(settings.MaxCategories, draft.Categories...),
		tags:        tags.NewManager(draft.Tags...),
		isPaid:      draft.IsPaid,
		state:       draft.State,
		banner:      slot{kind: media.Banner, asset: work.EmptySlot()},
		cover:       slot{kind: media.Cover, asset: work.EmptySlot()},
		savedBanner: draft.SavedBannerURL,
		savedCover:  draft.SavedCoverURL,
		phases:      make(map[Action]Status),
		createState: CreateEditing,
	}
	if s.isPaid {
		s.price = draft.Price
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.Cover.HasURL() {
		s.cover.asset = work.RemoteSlot(draft.Cover.URL)
	}
	if mode == work.ModeCreate {
		for _, kind := range media.Kinds {
			saved := draft.Slot(kind)
			if !saved.HasFile() || saved.Path == "" {
				continue
			}
			file, err := media.OpenFile(saved.Path)
			if err != nil {
				logging.WarnWithContext(s.logger, "draft image unavailable", "draft_image_missing",
					logging.String(logging.FieldAssetKind, kind.String()),
					logging.String("path", saved.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "select the image again"),
				)
				continue
			}
			s.selectLocked(kind, file)
		}
	}
	s.logger.Info("session started", logging.String("mode", string(mode)), logging.Int64(logging.FieldWorkID, draft.WorkID))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns create or edit.
func (s *Session) Mode() work.Mode { return s.mode }

// WorkID returns the remote work id, zero before a create succeeds.
func (s *Session) WorkID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workID
}

// SetTitle updates the title. Create mode only.
func (s *Session) SetTitle(title string) error {
	return s.mutateCreateField("title", func() { s.title = title })
}

// SetDescription updates the description. Create mode only.
func (s *Session) SetDescription(description string) error {
	return s.mutateCreateField("description", func() { s.description = description })
}

// SetFormat selects the work format by catalog id. Create mode only.
func (s *Session) SetFormat(id int) error {
	return s.mutateCreateField("format", func() { s.formatID = max(id, 0) })
}

// SetLanguage selects the original language by catalog id. Create mode only.
func (s *Session) SetLanguage(id int) error {
	return s.mutateCreateField("language", func() { s.languageID = max(id, 0) })
}

func (s *Session) mutateCreateField(field string, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.mode == work.ModeEdit {
		return services.Wrap(services.ErrValidation, field, "edit", "not editable on an existing work", nil)
	}
	apply()
	return nil
}

// SelectCategory adds a category. Selecting one already present is a no-op.
func (s *Session) SelectCategory(entry catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.categories.Contains(entry.ID) {
		return nil
	}
	if !s.categories.CanAdd() {
		return services.Wrap(services.ErrValidation, "categories", "select",
			fmt.Sprintf("at most %d categories", s.categories.Max()), nil)
	}
	s.categories.Select(entry)
	return nil
}

// UnselectCategory removes a category. Unknown IDs are ignored.
func (s *Session) UnselectCategory(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return false
	}
	return s.categories.Unselect(id)
}

// AddTag adds a typed tag and returns its canonical form.
func (s *Session) AddTag(raw string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return "", false, err
	}
	tag, added := s.tags.Add(raw)
	return tag, added, nil
}

// RemoveTag deletes a tag.
func (s *Session) RemoveTag(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return false
	}
	return s.tags.Remove(raw)
}

// AcceptSuggestion moves a suggested tag into the work's tags.
func (s *Session) AcceptSuggestion(raw string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return "", false
	}
	return s.tags.AcceptSuggestion(raw)
}

// DismissSuggestions closes the suggestion panel.
func (s *Session) DismissSuggestions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags.DismissSuggestions()
}

// SetPricing sets whether the work is paid and its price. A free work
// always carries price 0.
func (s *Session) SetPricing(paid bool, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if price < 0 {
		return services.Wrap(services.ErrValidation, "price", "set", "price cannot be negative", nil)
	}
	s.isPaid = paid
	if paid {
		s.price = price
	} else {
		s.price = 0
	}
	return nil
}

// SetState sets the publication state sent on save. Edit mode only.
func (s *Session) SetState(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.mode != work.ModeEdit {
		return services.Wrap(services.ErrValidation, "state", "set", "state applies to existing works only", nil)
	}
	s.state = strings.TrimSpace(state)
	return nil
}

func (s *Session) editableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.mode == work.ModeCreate && s.createState == CreateSubmitting {
		return services.Wrap(services.ErrBusy, string(ActionCreate), "edit", "the work is being submitted", nil)
	}
	return nil
}

// Draft returns the persisted shape of the current state.
func (s *Session) Draft() work.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftLocked()
}

func (s *Session) draftLocked() work.Draft {
	return work.Draft{
		Mode:           s.mode,
		WorkID:         s.workID,
		Title:          s.title,
		Description:    s.description,
		FormatID:       s.formatID,
		LanguageID:     s.languageID,
		Categories:     s.categories.Entries(),
		Tags:           s.tags.Tags(),
		IsPaid:         s.isPaid,
		Price:          s.price,
		State:          s.state,
		Banner:         s.banner.asset,
		Cover:          s.cover.asset,
		SavedBannerURL: s.savedBanner,
		SavedCoverURL:  s.savedCover,
	}
}

// Gate evaluates submission readiness.
func (s *Session) Gate() gate.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateLocked()
}

func (s *Session) gateLocked() gate.Report {
	return gate.Evaluate(s.mode, s.settings.Gate, gate.SnapshotOf(s.draftLocked()))
}

// Diagnostics returns the unmet conditions to display, which stay empty
// until the first submit attempt.
func (s *Session) Diagnostics() []gate.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateLocked().Visible(s.attempted)
}

// Status returns the last phase of action.
func (s *Session) Status(action Action) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(action)
}

func (s *Session) statusLocked(action Action) Status {
	if st, ok := s.phases[action]; ok {
		return st
	}
	return Status{Phase: PhaseIdle}
}

// Snapshot returns a consistent copy of the session for rendering.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.gateLocked()
	v := View{
		ID:              s.id,
		Mode:            s.mode,
		WorkID:          s.workID,
		Title:           s.title,
		Description:     s.description,
		FormatID:        s.formatID,
		LanguageID:      s.languageID,
		Categories:      s.categories.Entries(),
		CanAddCategory:  s.categories.CanAdd(),
		Tags:            s.tags.Tags(),
		Suggestions:     s.tags.Suggestions(),
		SuggestionsOpen: s.tags.SuggestionsOpen(),
		Availability:    s.settings.Suggest.Evaluate(s.description),
		IsPaid:          s.isPaid,
		Price:           s.price,
		State:           s.state,
		Banner:          s.banner.view(s.savedBanner),
		Cover:           s.cover.view(s.savedCover),
		Phases:          make(map[Action]Status, len(s.phases)),
		Gate:            report,
		Diagnostics:     report.Visible(s.attempted),
		CreateState:     s.createState,
	}
	for action, st := range s.phases {
		v.Phases[action] = st
	}
	if s.coverFlow != nil {
		url, _ := s.coverFlow.ImageURL()
		v.CoverGen = &CoverGenView{
			State:    s.coverFlow.State(),
			Request:  s.coverFlow.Request(),
			ImageURL: url,
			Err:      s.coverFlow.Err(),
		}
	}
	return v
}

func (sl *slot) view(saved string) AssetView {
	v := AssetView{
		Kind:       sl.kind,
		State:      sl.asset.State,
		SavedURL:   saved,
		SavedName:  sl.uploadedName,
		Validating: sl.validating,
		Issue:      sl.issue,
	}
	switch sl.asset.State {
	case work.SlotLocalFile:
		v.Name = sl.asset.Describe()
		v.PreviewURL = sl.preview.URL
		v.Uploaded = sl.uploadedID != "" && sl.asset.File.ID == sl.uploadedID
	case work.SlotRemoteURL:
		v.URL = sl.asset.URL
	}
	return v
}

// Wait blocks until every in-flight operation has completed and the
// listener has seen every event those operations emitted. It must not be
// called from the listener.
func (s *Session) Wait() {
	s.wg.Wait()
	s.events.drain()
}

// Close cancels in-flight requests, waits for them, delivers the events
// already queued, and releases every preview handle. Later completions and
// mutations are ignored. It must not be called from the listener.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.events.stop()
	s.previews.Close()
	s.logger.Info("session closed")
}

func (s *Session) slotFor(kind media.AssetKind) *slot {
	if kind == media.Banner {
		return &s.banner
	}
	return &s.cover
}

// spawnLocked runs fn in a goroutine tracked by Wait. The returned func
// cancels fn's context.
func (s *Session) spawnLocked(action string, fn func(ctx context.Context)) context.CancelFunc {
	ctx := services.WithAction(s.ctx, action)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	if s.workID > 0 {
		ctx = services.WithWorkID(ctx, s.workID)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		fn(ctx)
	}()
	return cancel
}

func (s *Session) setPhaseLocked(action Action, phase Phase, err error) {
	st := Status{Phase: phase, Err: err, UpdatedAt: time.Now()}
	if err != nil {
		st.Message = userMessage(err)
	}
	s.phases[action] = st

	attrs := []slog.Attr{
		logging.String(logging.FieldAction, string(action)),
		logging.String("phase", string(phase)),
	}
	switch phase {
	case PhaseFailed:
		logging.WarnWithContext(s.logger, "action failed", "action_failed", append(attrs,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(action)),
			logging.String(logging.FieldImpact, "form state preserved"),
		)...)
	case PhaseSucceeded:
		s.logger.Info("action succeeded", logging.Args(attrs...)...)
	default:
		s.logger.Debug("action phase", logging.Args(attrs...)...)
	}
	s.emitLocked(Event{Kind: EventPhase, Action: action, Phase: phase, Err: err, Message: st.Message, WorkID: s.workID})
}

func (s *Session) emitLocked(ev Event) {
	s.events.push(ev)
}

// userMessage prefers the server's own explanation.
func userMessage(err error) string {
	var apiErr *workapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var missing *covergen.MissingFieldsError
	if errors.As(err, &missing) {
		return missing.Error()
	}
	return err.Error()
}

func hintFor(action Action) string {
	switch action {
	case ActionUploadBanner, ActionUploadCover:
		return "retry the upload; the selected file is kept"
	case ActionSuggestTags, ActionGenerateCover:
		return "try again in a moment"
	default:
		return "fix the reported problem and submit again"
	}
}
