package tui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestWriteStatus(t *testing.T) {
	// An unstyled style yields plain text without ANSI escapes.
	plain := lipgloss.NewStyle()

	tests := []struct {
		name   string
		verb   string
		format string
		args   []any
		want   string
	}{
		{
			name:   "short verb is right-padded to 12 chars",
			verb:   "Routed",
			format: "researcher to gemini",
			want:   "      Routed researcher to gemini\n",
		},
		{
			name:   "format args are interpolated",
			verb:   "Fallback",
			format: "%s -> %s",
			args:   []any{"gpt-5.3-codex", "gemini-3-pro"},
			want:   "    Fallback gpt-5.3-codex -> gemini-3-pro\n",
		},
		{
			name:   "listening verb aligns with the others",
			verb:   "Listening",
			format: "on http://%s", args: []any{"127.0.0.1:4517"},
			want:   "   Listening on http://127.0.0.1:4517\n",
		},
		{
			name:   "error verb aligns with the others",
			verb:   "error",
			format: "limits file: permission denied",
			want:   "       error limits file: permission denied\n",
		},
		{
			name:   "verb longer than 12 chars is not truncated",
			verb:   "Synchronizing",
			format: "usage",
			want:   "Synchronizing usage\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeStatus(&buf, tt.verb, plain, tt.format, tt.args...)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDebugGate(t *testing.T) {
	t.Cleanup(func() { SetDebug(false) })

	var buf bytes.Buffer
	debugTo(&buf, "snapshot: %v", "stale")
	assert.Empty(t, buf.String(), "debug output stays off by default")

	SetDebug(true)
	debugTo(&buf, "snapshot: %v", "stale")
	assert.Contains(t, buf.String(), "snapshot: stale")
	assert.Contains(t, buf.String(), "debug")

	SetDebug(false)
	buf.Reset()
	debugTo(&buf, "again")
	assert.Empty(t, buf.String())
}
