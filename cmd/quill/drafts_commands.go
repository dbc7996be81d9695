package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quill/internal/draftstore"
)

func newDraftsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and discard autosaved drafts",
	}
	cmd.AddCommand(newDraftsListCommand(ctx))
	cmd.AddCommand(newDraftsDiscardCommand(ctx))
	return cmd
}

func newDraftsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List autosaved drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *draftstore.Store) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSONList(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No drafts")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					title := strings.TrimSpace(r.Title)
					if title == "" {
						title = "(untitled)"
					}
					rows = append(rows, []string{r.ID, string(r.Mode), title, humanize.Time(r.UpdatedAt)})
				}
				fmt.Fprintln(out, renderTable([]column{textColumn("ID"), textColumn("Mode"), textColumn("Title"), textColumn("Updated")}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newDraftsDiscardCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "discard [id]",
		Short: "Delete an autosaved draft, or all of them with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("draft id required (or use --all)")
			}
			return withEditorLock(ctx, func() error {
				return ctx.withStore(func(store *draftstore.Store) error {
					out := cmd.OutOrStdout()
					if all {
						n, err := store.Clear(cmd.Context())
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Discarded %d drafts\n", n)
						return nil
					}
					removed, err := store.Delete(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("draft %s not found", args[0])
					}
					fmt.Fprintf(out, "Discarded draft %s\n", args[0])
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Discard every draft")
	return cmd
}

// withEditorLock runs fn while holding the single-editor lock, so draft
// maintenance never races an open authoring shell.
func withEditorLock(ctx *commandContext, fn func() error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := draftstore.AcquireEditorLock(cfg.EditorLockPath())
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}
