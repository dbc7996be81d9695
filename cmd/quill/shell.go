package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"quill/internal/authoring"
	"quill/internal/catalog"
	"quill/internal/draftstore"
	"quill/internal/logging"
	"quill/internal/work"
)

var errQuit = errors.New("quit")

type shellOptions struct {
	in      io.Reader
	out     io.Writer
	store   *draftstore.Store
	draftID string
	catalog catalog.Catalog
	logger  *slog.Logger
}

// shell is the line-oriented front end of one authoring session.
type shell struct {
	session  *authoring.Session
	store    *draftstore.Store
	catalog  catalog.Catalog
	logger   *slog.Logger
	in       io.Reader
	prompt   bool
	colorize bool

	outMu sync.Mutex
	out   io.Writer

	stateMu sync.Mutex
	draftID string
	created int64
}

func newShell(opts shellOptions) *shell {
	logger := opts.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &shell{
		store:    opts.store,
		draftID:  opts.draftID,
		catalog:  opts.catalog,
		logger:   logging.NewComponentLogger(logger, "shell"),
		in:       opts.in,
		out:      opts.out,
		prompt:   isTerminal(opts.in),
		colorize: shouldColorize(opts.out),
	}
}

// attach binds the session. Events may arrive from the moment the session
// is constructed, so notify tolerates a nil session until then.
func (sh *shell) attach(session *authoring.Session) {
	sh.session = session
}

func (sh *shell) run(ctx context.Context) error {
	defer sh.session.Close()

	mode := sh.session.Mode()
	sh.println(fmt.Sprintf("quill %s session. Type 'help' for commands, 'quit' to leave.", mode))

	scanner := bufio.NewScanner(sh.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if sh.prompt {
			sh.print("quill> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := sh.execute(ctx, line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sh.println(renderStatusLine("error", statusError, err.Error(), sh.colorize))
		}
		if sh.createdID() > 0 {
			return nil
		}
		sh.autosave(ctx)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	// Let running uploads and requests finish before tearing down.
	sh.session.Wait()
	if sh.createdID() == 0 {
		sh.autosave(ctx)
	}
	return nil
}

func (sh *shell) execute(ctx context.Context, line string) error {
	root := newShellCommandTree(sh)
	root.SetArgs(strings.Fields(line))
	root.SetOut(lockedWriter{sh})
	root.SetErr(lockedWriter{sh})
	root.SetIn(strings.NewReader(""))
	return root.ExecuteContext(ctx)
}

// autosave persists the create-mode form so the shell can be resumed.
func (sh *shell) autosave(ctx context.Context) {
	if sh.store == nil || sh.session.Mode() != work.ModeCreate {
		return
	}
	sh.stateMu.Lock()
	defer sh.stateMu.Unlock()
	if sh.created > 0 {
		return
	}
	record, err := sh.store.Save(ctx, sh.draftID, sh.session.Draft())
	if err != nil {
		logging.WarnWithContext(sh.logger, "autosave failed", "draft_autosave_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "changes since the last save are not persisted"),
		)
		return
	}
	sh.draftID = record.ID
}

func (sh *shell) createdID() int64 {
	sh.stateMu.Lock()
	defer sh.stateMu.Unlock()
	return sh.created
}

// notify prints session events. The session calls it from one goroutine, in
// emit order.
func (sh *shell) notify(ev authoring.Event) {
	switch ev.Kind {
	case authoring.EventPhase:
		if kind, text, ok := phaseStatus(ev.Phase, ev.Message); ok {
			sh.println(renderStatusLine(actionLabel(ev.Action), kind, text, sh.colorize))
		}
	case authoring.EventValidation:
		if ev.Asset == 0 {
			return
		}
		kind := statusOK
		if ev.Err != nil {
			kind = statusWarn
		}
		sh.println(renderStatusLine(ev.Asset.String(), kind, ev.Message, sh.colorize))
	case authoring.EventSuggestions:
		if sh.session == nil {
			return
		}
		view := sh.session.Snapshot()
		if !view.SuggestionsOpen {
			sh.println(renderStatusLine("suggestions", statusInfo, "nothing new to suggest", sh.colorize))
			return
		}
		sh.println(renderStatusLine("suggestions", statusInfo, strings.Join(view.Suggestions, ", "), sh.colorize))
		sh.println(statusIndent + "accept with 'tag accept <tag>', close with 'tag dismiss'")
	case authoring.EventCoverGenerated:
		sh.println(renderStatusLine("cover", statusOK, "generated "+ev.Message+" (apply with 'gen use')", sh.colorize))
	case authoring.EventNavigate:
		sh.finishCreate(ev.WorkID)
	}
}

func (sh *shell) finishCreate(workID int64) {
	sh.stateMu.Lock()
	sh.created = workID
	draftID := sh.draftID
	sh.stateMu.Unlock()

	if sh.store != nil && draftID != "" {
		if _, err := sh.store.Delete(context.Background(), draftID); err != nil {
			logging.WarnWithContext(sh.logger, "draft cleanup failed", "draft_delete_failed",
				logging.String("draft_id", draftID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'quill drafts discard "+draftID+"'"),
			)
		}
	}
	sh.println(renderStatusLine("created", statusOK, fmt.Sprintf("work #%d; manage it with 'quill edit %d'", workID, workID), sh.colorize))
}

func (sh *shell) print(s string) {
	sh.outMu.Lock()
	defer sh.outMu.Unlock()
	fmt.Fprint(sh.out, s)
}

func (sh *shell) println(s string) {
	sh.outMu.Lock()
	defer sh.outMu.Unlock()
	fmt.Fprintln(sh.out, s)
}

// lockedWriter serializes command output with event notifications.
type lockedWriter struct{ sh *shell }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.sh.outMu.Lock()
	defer w.sh.outMu.Unlock()
	return w.sh.out.Write(p)
}

func actionLabel(action authoring.Action) string {
	return strings.ReplaceAll(string(action), "_", " ")
}
