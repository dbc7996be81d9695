package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/draftstore"
)

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard every local draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditorLock(ctx, func() error {
				return ctx.withStore(func(store *draftstore.Store) error {
					n, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Discarded %d drafts\n", n)
					fmt.Fprintln(out, "Remove api.token from the config (or unset QUILL_API_TOKEN) to finish signing out.")
					return nil
				})
			})
		},
	}
}
