package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog [kind]",
		Short: "List reference catalogs (categories, formats, languages, styles)",
		Long: "List the catalogs works are described with. Without a kind, prints the size of every catalog.\n" +
			"Kinds: " + strings.Join(kindNames(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.catalogCache()
			if err != nil {
				return err
			}
			cat, err := cache.Get(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if asJSON {
					all := make(map[catalog.Kind][]catalog.Entry, len(catalog.Kinds))
					for _, kind := range catalog.Kinds {
						all[kind] = cat.List(kind)
					}
					return writeJSON(cmd, all)
				}
				rows := make([][]string, 0, len(catalog.Kinds))
				for _, kind := range catalog.Kinds {
					rows = append(rows, []string{string(kind), strconv.Itoa(len(cat.List(kind)))})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{textColumn("Catalog"), numberColumn("Entries")}, rows))
				return nil
			}

			kind, err := catalog.ParseKind(args[0])
			if err != nil {
				return err
			}
			entries := cat.List(kind)
			if asJSON {
				return writeJSONList(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s available\n", kind)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{strconv.Itoa(e.ID), e.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{numberColumn("ID"), textColumn("Name")}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func kindNames() []string {
	names := make([]string, 0, len(catalog.Kinds))
	for _, kind := range catalog.Kinds {
		names = append(names, string(kind))
	}
	return names
}

// resolveEntry finds a catalog entry by numeric id or case-insensitive name.
// When the catalog has no entries for kind (it could not be loaded), numeric
// ids are accepted as-is.
func resolveEntry(cat catalog.Catalog, kind catalog.Kind, ref string) (catalog.Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return catalog.Entry{}, fmt.Errorf("%s: value required", kind)
	}
	entries := cat.List(kind)
	if id, err := strconv.Atoi(ref); err == nil {
		if e, ok := cat.Find(kind, id); ok {
			return e, nil
		}
		if len(entries) == 0 && id > 0 {
			return catalog.Entry{ID: id, Name: "#" + ref}, nil
		}
		return catalog.Entry{}, fmt.Errorf("%s: no entry with id %d", kind, id)
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, ref) {
			return e, nil
		}
	}
	return catalog.Entry{}, fmt.Errorf("%s: no entry named %q (see 'quill catalog %s')", kind, ref, kind)
}

func entryLabel(cat catalog.Catalog, kind catalog.Kind, id int) string {
	if id <= 0 {
		return "(none)"
	}
	if e, ok := cat.Find(kind, id); ok {
		return fmt.Sprintf("%s (#%d)", e.Name, e.ID)
	}
	return fmt.Sprintf("#%d", id)
}
