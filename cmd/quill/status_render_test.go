package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"quill/internal/authoring"
	"quill/internal/draftstore"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("upload cover", statusError, "almacenamiento no disponible", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "upload cover:", "[ERROR] almacenamiento no disponible")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("cover", statusOK, "cover.png accepted", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestPhaseStatus(t *testing.T) {
	cases := []struct {
		phase   authoring.Phase
		message string
		kind    statusKind
		text    string
		shown   bool
	}{
		{authoring.PhasePending, "", statusInfo, "working...", true},
		{authoring.PhaseSucceeded, "", statusOK, "done", true},
		{authoring.PhaseFailed, "título duplicado", statusError, "título duplicado", true},
		{authoring.PhaseFailed, "  ", statusError, "failed", true},
		{authoring.PhaseIdle, "", statusInfo, "", false},
	}
	for _, tc := range cases {
		kind, text, shown := phaseStatus(tc.phase, tc.message)
		if kind != tc.kind || text != tc.text || shown != tc.shown {
			t.Fatalf("phaseStatus(%s, %q) = %v %q %v, want %v %q %v",
				tc.phase, tc.message, kind, text, shown, tc.kind, tc.text, tc.shown)
		}
	}
}

func TestRenderFieldIndentsContinuationLines(t *testing.T) {
	got := renderField("description", "primera línea\nsegunda línea\n")
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
	first := strings.Index(lines[0], "primera")
	second := strings.Index(lines[1], "segunda")
	if first != second {
		t.Fatalf("continuation not aligned: %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestShouldColorizeHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(io.Discard) {
		t.Fatal("expected NO_COLOR to disable color")
	}
}

func TestRenderTableWrapsMessages(t *testing.T) {
	message := strings.Repeat("la portada supera el tamaño permitido ", 4)
	out := renderTable([]column{textColumn("Field"), messageColumn("Problem")}, [][]string{{"cover", message}})
	for _, line := range strings.Split(out, "\n") {
		if n := len([]rune(line)); n > 80 {
			t.Fatalf("line is %d runes wide, expected messages to wrap:\n%s", n, out)
		}
	}
	if !strings.Contains(out, "cover") || !strings.Contains(out, "portada") {
		t.Fatalf("expected cells in output:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{numberColumn("ID"), textColumn("Name")}, [][]string{{"12"}, {"3", "Drama", "extra"}})
	if strings.Contains(out, "extra") {
		t.Fatalf("expected surplus cells dropped:\n%s", out)
	}
	if !strings.Contains(out, "Drama") || !strings.Contains(out, "12") {
		t.Fatalf("expected rows rendered:\n%s", out)
	}
	if renderTable(nil, [][]string{{"x"}}) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestWriteJSONListWritesEmptyArray(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	var records []draftstore.Record
	if err := writeJSONList(cmd, records); err != nil {
		t.Fatalf("writeJSONList: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}

func TestWriteJSONKeepsURLsReadable(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := writeJSON(cmd, map[string]string{"cover": "https://cdn.example.com/c.png?w=1&h=2"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "w=1&h=2") {
		t.Fatalf("expected unescaped ampersand, got %s", buf.String())
	}
}
