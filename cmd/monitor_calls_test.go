package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestRenderCallLine(t *testing.T) {
	// Force a color profile so lipgloss actually emits ANSI sequences.
	lipgloss.DefaultRenderer().SetColorProfile(termenv.ANSI)
	defer lipgloss.DefaultRenderer().SetColorProfile(termenv.Ascii)

	entry := calllog.Entry{
		Time:         time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC),
		Provider:     "gemini",
		Agent:        "Flash",
		Model:        "gemini-3-flash",
		Reason:       "large-task-researcher",
		InputTokens:  1200,
		OutputTokens: 300,
		Success:      true,
	}

	normal := renderCallLine(entry, false)
	assert.Contains(t, normal, "gemini")
	assert.Contains(t, normal, "Flash")
	assert.Contains(t, normal, "large-task-researcher")
	assert.Contains(t, normal, "1200↑ 300↓")
	assert.Contains(t, normal, "✓")
	assert.True(t, strings.HasPrefix(normal, "  "), "unhighlighted lines keep the marker gutter")

	highlighted := renderCallLine(entry, true)
	assert.Contains(t, highlighted, "▸")
	assert.NotEqual(t, normal, highlighted)
}

func TestRenderCallLineFailure(t *testing.T) {
	entry := calllog.Entry{
		Time:     time.Now(),
		Provider: "openai",
		Agent:    "Codex",
		Reason:   "exec: codex: not found",
	}
	line := renderCallLine(entry, false)
	assert.Contains(t, line, "✗")
}
