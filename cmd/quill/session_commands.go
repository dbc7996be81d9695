package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/authoring"
	"quill/internal/catalog"
	"quill/internal/draftstore"
	"quill/internal/logging"
	"quill/internal/media"
	"quill/internal/preview"
	"quill/internal/work"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var fresh bool
	var draftID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an interactive shell to create a new work",
		Long: "Open an interactive shell to create a new work. The form is autosaved between runs;\n" +
			"the most recent draft is resumed unless --fresh is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditorLock(ctx, func() error {
				return ctx.withStore(func(store *draftstore.Store) error {
					record, err := pickCreateDraft(cmd.Context(), store, draftID, fresh)
					if err != nil {
						return err
					}
					draft := work.NewDraft()
					id := ""
					if record != nil {
						draft = record.Draft
						id = record.ID
						fmt.Fprintf(cmd.OutOrStdout(), "Resuming draft %s (updated %s)\n", record.ID, record.UpdatedAt.Local().Format(time.DateTime))
					}
					return runShell(cmd, ctx, draft, store, id)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start from an empty form instead of the last draft")
	cmd.Flags().StringVar(&draftID, "draft", "", "Resume a specific draft by id")
	return cmd
}

func pickCreateDraft(ctx context.Context, store *draftstore.Store, id string, fresh bool) (*draftstore.Record, error) {
	switch {
	case id != "":
		record, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("draft %s not found", id)
		}
		if record.Mode != work.ModeCreate {
			return nil, fmt.Errorf("draft %s belongs to work %d; use 'quill edit %d'", id, record.WorkID, record.WorkID)
		}
		return record, nil
	case fresh:
		return nil, nil
	default:
		return store.LatestCreate(ctx)
	}
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <work-id>",
		Short: "Open an interactive shell to manage an existing work",
		Long: "Open an interactive shell for an existing work. Banner and cover changes are uploaded\n" +
			"as soon as they are chosen; price, categories, tags and state are sent by 'save'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || workID <= 0 {
				return fmt.Errorf("invalid work id %q", args[0])
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			dto, err := client.GetWork(cmd.Context(), workID)
			if err != nil {
				return err
			}
			return withEditorLock(ctx, func() error {
				return runShell(cmd, ctx, work.FromDTO(dto), nil, "")
			})
		},
	}
}

// runShell wires a session to the configured backend and runs the line loop
// until the user quits or a create succeeds.
func runShell(cmd *cobra.Command, ctx *commandContext, draft work.Draft, store *draftstore.Store, draftID string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	client, err := ctx.apiClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	cat := catalog.New(nil)
	if cache, err := ctx.catalogCache(); err == nil {
		if loaded, err := cache.Get(cmd.Context()); err == nil {
			cat = loaded
		} else {
			logging.WarnWithContext(logger, "catalog unavailable", "catalog_load_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog names cannot be resolved; use numeric ids"),
			)
			fmt.Fprintf(out, "Catalogs unavailable (%v); use numeric ids\n", err)
		}
	}

	registry := preview.NewRegistry("")
	if cfg.Preview.Enabled {
		server := preview.NewServer(registry, logger)
		base, err := server.Start(cfg.Preview.Bind)
		if err != nil {
			logging.WarnWithContext(logger, "preview server unavailable", "preview_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check preview.bind or set preview.enabled = false"),
			)
		} else {
			fmt.Fprintf(out, "Previews served at %s\n", base)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = server.Close(shutdownCtx)
			}()
		}
	}

	sh := newShell(shellOptions{
		in:      cmd.InOrStdin(),
		out:     out,
		store:   store,
		draftID: draftID,
		catalog: cat,
		logger:  logger,
	})
	session, err := authoring.New(authoring.Dependencies{
		API:       client,
		Validator: media.NewValidator(logger),
		Previews:  registry,
		Logger:    logger,
		Listener:  sh.notify,
	}, authoring.SettingsFromConfig(cfg), draft)
	if err != nil {
		return err
	}
	sh.attach(session)

	err = sh.run(cmd.Context())
	if errors.Is(err, errQuit) {
		err = nil
	}
	return err
}
