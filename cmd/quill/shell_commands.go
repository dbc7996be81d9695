package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/authoring"
	"quill/internal/catalog"
	"quill/internal/config"
	"quill/internal/media"
	"quill/internal/services"
	"quill/internal/work"
)

// newShellCommandTree builds the per-line command table. A fresh tree is
// built for every line so no flag or arg state leaks between commands.
func newShellCommandTree(sh *shell) *cobra.Command {
	root := &cobra.Command{
		Use:           "quill>",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	s := sh.session
	text := func(args []string) string { return strings.Join(args, " ") }

	root.AddCommand(
		leaf("title <text>", "Set the title", 0, func(cmd *cobra.Command, args []string) error {
			return s.SetTitle(text(args))
		}),
		leaf("desc <text>", "Set the description", 0, func(cmd *cobra.Command, args []string) error {
			if err := s.SetDescription(text(args)); err != nil {
				return err
			}
			view := s.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), renderField("suggestions", describeAvailability(view)))
			return nil
		}),
		leaf("format <id|name>", "Choose the work format", 1, func(cmd *cobra.Command, args []string) error {
			e, err := resolveEntry(sh.catalog, catalog.KindFormats, text(args))
			if err != nil {
				return err
			}
			return s.SetFormat(e.ID)
		}),
		leaf("language <id|name>", "Choose the original language", 1, func(cmd *cobra.Command, args []string) error {
			e, err := resolveEntry(sh.catalog, catalog.KindLanguages, text(args))
			if err != nil {
				return err
			}
			return s.SetLanguage(e.ID)
		}),
		newShellCategoryCommand(sh),
		newShellTagCommand(sh),
		leaf("suggest", "Ask for tag suggestions based on the description", 0, func(cmd *cobra.Command, args []string) error {
			return s.RequestSuggestions()
		}),
		leaf("price <free|amount>", "Make the work free or set its price", 1, func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(args[0], "free") {
				return s.SetPricing(false, 0)
			}
			amount, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
			if err != nil {
				return fmt.Errorf("%w: price %q is not a number", services.ErrValidation, args[0])
			}
			return s.SetPricing(true, amount)
		}),
		leaf("state <value>", "Set the publication state (existing works)", 1, func(cmd *cobra.Command, args []string) error {
			return s.SetState(text(args))
		}),
		assetLeaf(sh, media.Banner),
		assetLeaf(sh, media.Cover),
		leaf("clear <banner|cover>", "Remove the chosen image", 1, func(cmd *cobra.Command, args []string) error {
			kind, err := media.ParseAssetKind(args[0])
			if err != nil {
				return err
			}
			return s.ClearAsset(kind)
		}),
		leaf("retry <banner|cover>", "Retry a failed image upload", 1, func(cmd *cobra.Command, args []string) error {
			kind, err := media.ParseAssetKind(args[0])
			if err != nil {
				return err
			}
			return s.RetryUpload(kind)
		}),
		newShellGenerateCommand(sh),
		withAliases(leaf("status", "Show the form", 0, func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), renderView(s.Snapshot(), sh.catalog, sh.colorize))
			return nil
		}), "show"),
		withAliases(leaf("submit", "Create the work, or save changes to an existing one", 0, func(cmd *cobra.Command, args []string) error {
			report, err := s.Submit()
			if err != nil {
				return err
			}
			if !report.Ready {
				fmt.Fprint(cmd.OutOrStdout(), renderDiagnostics(s.Diagnostics(), sh.colorize))
				return nil
			}
			s.Wait()
			return nil
		}), "save"),
		leaf("wait", "Wait for running uploads and requests", 0, func(cmd *cobra.Command, args []string) error {
			s.Wait()
			return nil
		}),
		withAliases(leaf("quit", "Leave the shell (the form is autosaved)", 0, func(cmd *cobra.Command, args []string) error {
			return errQuit
		}), "exit"),
	)
	return root
}

// leaf builds a command whose raw words are passed through untouched, so
// text such as "-1" or "--" reaches the handler.
func leaf(use, short string, minArgs int, run func(*cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < minArgs {
				return fmt.Errorf("usage: %s", use)
			}
			return nil
		},
		RunE: run,
	}
}

func withAliases(cmd *cobra.Command, aliases ...string) *cobra.Command {
	cmd.Aliases = append(cmd.Aliases, aliases...)
	return cmd
}

func assetLeaf(sh *shell, kind media.AssetKind) *cobra.Command {
	use := fmt.Sprintf("%s <path>", kind)
	short := fmt.Sprintf("Choose the %s image", kind)
	return leaf(use, short, 1, func(cmd *cobra.Command, args []string) error {
		path, err := config.ExpandPath(strings.Join(args, " "))
		if err != nil {
			return err
		}
		file, err := media.OpenFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", services.ErrValidation, err)
		}
		if err := sh.session.SelectAsset(kind, file); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderField(kind.String(), "checking "+file.Name))
		return nil
	})
}

func newShellCategoryCommand(sh *shell) *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Add or remove categories"}
	cmd.AddCommand(
		leaf("add <id|name>", "Add a category", 1, func(cmd *cobra.Command, args []string) error {
			e, err := resolveEntry(sh.catalog, catalog.KindCategories, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return sh.session.SelectCategory(e)
		}),
		withAliases(leaf("rm <id|name>", "Remove a category", 1, func(cmd *cobra.Command, args []string) error {
			e, err := resolveEntry(sh.catalog, catalog.KindCategories, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !sh.session.UnselectCategory(e.ID) {
				fmt.Fprintln(cmd.OutOrStdout(), renderField("category", e.Name+" was not selected"))
			}
			return nil
		}), "remove"),
	)
	return cmd
}

func newShellTagCommand(sh *shell) *cobra.Command {
	cmd := &cobra.Command{Use: "tag", Short: "Manage tags and suggestions"}
	cmd.AddCommand(
		leaf("add <tag>", "Add a tag", 1, func(cmd *cobra.Command, args []string) error {
			tag, added, err := sh.session.AddTag(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.OutOrStdout(), renderField("tag", tag+" is already present"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderField("tag", "added "+tag))
			return nil
		}),
		withAliases(leaf("rm <tag>", "Remove a tag", 1, func(cmd *cobra.Command, args []string) error {
			if !sh.session.RemoveTag(strings.Join(args, " ")) {
				return errors.New("no such tag")
			}
			return nil
		}), "remove"),
		leaf("accept <tag>", "Accept a suggested tag", 1, func(cmd *cobra.Command, args []string) error {
			tag, ok := sh.session.AcceptSuggestion(strings.Join(args, " "))
			if !ok {
				return fmt.Errorf("%q is not among the suggestions", tag)
			}
			return nil
		}),
		leaf("dismiss", "Close the suggestion panel", 0, func(cmd *cobra.Command, args []string) error {
			sh.session.DismissSuggestions()
			return nil
		}),
	)
	return cmd
}

func newShellGenerateCommand(sh *shell) *cobra.Command {
	s := sh.session
	pick := func(kind catalog.Kind, set func(int) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := resolveEntry(sh.catalog, kind, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return set(e.ID)
		}
	}

	cmd := &cobra.Command{Use: "gen", Short: "Generate a cover image"}
	cmd.AddCommand(
		leaf("open", "Open the cover generator", 0, func(cmd *cobra.Command, args []string) error {
			return s.OpenCoverGenerator()
		}),
		leaf("style <id|name>", "Choose the artistic style", 1, pick(catalog.KindArtisticStyles, s.SelectCoverStyle)),
		leaf("palette <id|name>", "Choose the color palette", 1, pick(catalog.KindColorPalettes, s.SelectCoverPalette)),
		leaf("composition <id|name>", "Choose the composition", 1, pick(catalog.KindCompositions, s.SelectCoverComposition)),
		leaf("desc <text>", "Describe the image", 1, func(cmd *cobra.Command, args []string) error {
			return s.SetCoverDescription(strings.Join(args, " "))
		}),
		leaf("run", "Generate an image", 0, func(cmd *cobra.Command, args []string) error {
			return s.GenerateCover()
		}),
		leaf("use", "Use the generated image as the cover", 0, func(cmd *cobra.Command, args []string) error {
			if err := s.UseGeneratedCover(); err != nil {
				return err
			}
			if s.Mode() == work.ModeEdit {
				s.Wait()
			}
			return nil
		}),
		leaf("close", "Close the generator", 0, func(cmd *cobra.Command, args []string) error {
			s.CloseCoverGenerator()
			return nil
		}),
	)
	return cmd
}

func describeAvailability(view authoring.View) string {
	return fmt.Sprintf("%s (%d characters)", view.Availability, len([]rune(strings.TrimSpace(view.Description))))
}
