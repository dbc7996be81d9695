package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"quill/internal/authoring"
)

// statusKind grades one status line in the shell and in config validate.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

func (k statusKind) String() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

// phaseStatus is how the shell reports an action entering phase. Idle is
// not reported.
func phaseStatus(phase authoring.Phase, message string) (statusKind, string, bool) {
	switch phase {
	case authoring.PhasePending:
		return statusInfo, "working...", true
	case authoring.PhaseSucceeded:
		return statusOK, "done", true
	case authoring.PhaseFailed:
		if strings.TrimSpace(message) == "" {
			message = "failed"
		}
		return statusError, message, true
	}
	return statusInfo, "", false
}

func checkStatus(passed bool) statusKind {
	if passed {
		return statusOK
	}
	return statusError
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	value := "[" + kind.String() + "]"
	if message != "" {
		value += " " + message
	}
	return paint(renderField(label, value), kind.color(), colorize)
}

// renderField prints label and value in aligned columns. Later lines of a
// multi-line value are indented under the first.
func renderField(label, value string) string {
	pad := "\n" + strings.Repeat(" ", len(statusIndent)+statusLabelWidth+1)
	value = strings.ReplaceAll(strings.TrimRight(value, "\n"), "\n", pad)
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func renderSectionHeader(title string, colorize bool) string {
	return paint("== "+strings.TrimSpace(title)+" ==", ansiBlue, colorize)
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// shouldColorize reports whether w gets ANSI colours. Setting NO_COLOR turns
// them off even on a terminal.
func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}
