package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"quill/internal/authoring"
	"quill/internal/catalog"
	"quill/internal/gate"
	"quill/internal/work"
)

func renderView(v authoring.View, cat catalog.Catalog, colorize bool) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	heading := "New work"
	if v.Mode == work.ModeEdit {
		heading = fmt.Sprintf("Work #%d", v.WorkID)
	}
	line(renderSectionHeader(heading, colorize))
	line(renderField("title", orNone(v.Title)))
	line(renderField("description", describeAvailability(v)))
	line(renderField("format", entryLabel(cat, catalog.KindFormats, v.FormatID)))
	line(renderField("language", entryLabel(cat, catalog.KindLanguages, v.LanguageID)))

	names := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		names = append(names, c.Name)
	}
	categories := orNone(strings.Join(names, ", "))
	if !v.CanAddCategory {
		categories += " (limit reached)"
	}
	line(renderField("categories", categories))
	line(renderField("tags", orNone(strings.Join(v.Tags, ", "))))
	if v.SuggestionsOpen {
		line(renderField("suggested", strings.Join(v.Suggestions, ", ")))
	}
	if v.IsPaid {
		line(renderField("price", strconv.FormatFloat(v.Price, 'f', 2, 64)))
	} else {
		line(renderField("price", "free"))
	}
	if v.Mode == work.ModeEdit {
		line(renderField("state", orNone(v.State)))
	}
	line(renderAsset(v.Banner, colorize))
	line(renderAsset(v.Cover, colorize))

	if g := v.CoverGen; g != nil {
		line(renderSectionHeader("Cover generator", colorize))
		line(renderField("style", entryLabel(cat, catalog.KindArtisticStyles, g.Request.ArtisticStyleID)))
		line(renderField("palette", entryLabel(cat, catalog.KindColorPalettes, g.Request.ColorPaletteID)))
		line(renderField("composition", entryLabel(cat, catalog.KindCompositions, g.Request.CompositionID)))
		line(renderField("prompt", orNone(strings.TrimSpace(g.Request.Description))))
		state := g.State.String()
		if g.ImageURL != "" {
			state += " " + g.ImageURL
		}
		if g.Err != nil {
			state += ": " + g.Err.Error()
		}
		line(renderField("state", state))
	}

	if rows := phaseRows(v.Phases); len(rows) > 0 {
		line(renderSectionHeader("Activity", colorize))
		line(renderTable([]column{textColumn("Action"), textColumn("Phase"), textColumn("When"), messageColumn("Message")}, rows))
	}

	if v.Mode == work.ModeCreate && v.CreateState != authoring.CreateEditing {
		line(renderField("submit", string(v.CreateState)))
	}
	if len(v.Diagnostics) > 0 {
		b.WriteString(renderDiagnostics(v.Diagnostics, colorize))
	} else if v.Gate.Ready {
		line(renderStatusLine("ready", statusOK, "submit when you are done", colorize))
	}
	return b.String()
}

func renderAsset(a authoring.AssetView, colorize bool) string {
	label := a.Kind.String()
	switch {
	case a.Validating:
		return renderStatusLine(label, statusInfo, "checking image...", colorize)
	case a.Issue != "":
		current := "nothing kept"
		if a.State != work.SlotEmpty {
			current = "keeping " + assetValue(a)
		}
		return renderStatusLine(label, statusWarn, a.Issue+"; "+current, colorize)
	}
	return renderField(label, assetValue(a))
}

func assetValue(a authoring.AssetView) string {
	switch a.State {
	case work.SlotLocalFile:
		name := a.Name
		if a.Uploaded {
			name += " [uploaded]"
		}
		if a.PreviewURL != "" {
			return fmt.Sprintf("%s (preview %s)", name, a.PreviewURL)
		}
		return name
	case work.SlotRemoteURL:
		return "generated " + a.URL
	}
	switch {
	case a.SavedURL != "":
		return "current " + a.SavedURL
	case a.SavedName != "":
		return "current " + a.SavedName + " (uploaded this session)"
	}
	return "(none)"
}

func phaseRows(phases map[authoring.Action]authoring.Status) [][]string {
	var rows [][]string
	for _, action := range authoring.Actions {
		st, ok := phases[action]
		if !ok || st.Phase == authoring.PhaseIdle {
			continue
		}
		rows = append(rows, []string{actionLabel(action), string(st.Phase), humanize.Time(st.UpdatedAt), st.Message})
	}
	return rows
}

func renderDiagnostics(issues []gate.Issue, colorize bool) string {
	if len(issues) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(renderSectionHeader("Not ready", colorize))
	b.WriteByte('\n')
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{string(issue.Field), issue.Message})
	}
	b.WriteString(renderTable([]column{textColumn("Field"), messageColumn("Problem")}, rows))
	b.WriteByte('\n')
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
