package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right-aligned and
// never wrap; text columns wrap on word boundaries past wrap runes.
type column struct {
	title   string
	numeric bool
	wrap    int
}

func textColumn(title string) column { return column{title: title, wrap: 48} }

func numberColumn(title string) column { return column{title: title, numeric: true} }

// messageColumn holds server and validation messages, which run long.
func messageColumn(title string) column { return column{title: title, wrap: 60} }

// renderTable draws rows under cols. Short rows are padded with blanks and
// surplus cells are dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if c.numeric {
			cfg.Align = text.AlignRight
		}
		if c.wrap > 0 {
			cfg.WidthMax = c.wrap
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
