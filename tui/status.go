package tui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var (
	stdoutRenderer = lipgloss.NewRenderer(os.Stdout)
	stderrRenderer = lipgloss.NewRenderer(os.Stderr)

	statusStyle = stdoutRenderer.NewStyle().Bold(true).Foreground(ColorCyan)
	errorStyle  = stderrRenderer.NewStyle().Bold(true).Foreground(ColorError)
	debugStyle  = stderrRenderer.NewStyle().Bold(true).Foreground(ColorField)

	debugEnabled atomic.Bool
)

// SetDebug toggles Debug output. The root --debug flag flips it before a
// command runs.
func SetDebug(on bool) { debugEnabled.Store(on) }

func writeStatus(w io.Writer, verb string, style lipgloss.Style, format string, args ...any) {
	padded := fmt.Sprintf("%12s", verb)
	styled := style.Render(padded)
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(w, "%s %s\n", styled, msg)
}

// Status prints a right-aligned bold cyan verb followed by a message to stdout.
func Status(verb string, format string, args ...any) {
	writeStatus(os.Stdout, verb, statusStyle, format, args...)
}

// Error prints a right-aligned bold "error" followed by a message to stderr.
func Error(format string, args ...any) {
	writeStatus(os.Stderr, "error", errorStyle, format, args...)
}

// Debug prints a right-aligned "debug" followed by a message to stderr.
// It is a no-op unless SetDebug(true) was called.
func Debug(format string, args ...any) {
	debugTo(os.Stderr, format, args...)
}

func debugTo(w io.Writer, format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	writeStatus(w, "debug", debugStyle, format, args...)
}
