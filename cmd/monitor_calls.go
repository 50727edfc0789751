package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const callsPollInterval = time.Second

// callsScreen tails the routed-call feed of a serve process.
type callsScreen struct {
	client        *ControlClient
	cursor        tui.Cursor
	entries       []calllog.Entry
	lastID        string
	filter        cycleFilter
	firstTickSeen bool
	heightOffset  int // lines reserved by parent (e.g. tab bar)
}

func newCallsScreen(client *ControlClient) *callsScreen {
	return &callsScreen{
		client: client,
	}
}

func (s *callsScreen) filteredEntries() []calllog.Entry {
	if s.filter.active == "" {
		return s.entries
	}
	var filtered []calllog.Entry
	for _, e := range s.entries {
		if e.Provider == s.filter.active {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (s *callsScreen) Update(msg tea.Msg, w *tui.Window) (tui.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "f":
			s.filter.cycle()
			s.cursor.SetCount(len(s.filteredEntries()))
			return s, nil
		default:
			if s.cursor.HandleKey(msg) {
				return s, nil
			}
		}

	case tea.WindowSizeMsg:
		s.cursor.VpHeight = w.VpHeight() - s.heightOffset
		s.cursor.EnsureVisible()

	case tui.TickMsg:
		if w.IntervalElapsed(callsPollInterval) || !s.firstTickSeen {
			entries, err := s.client.Calls(0)
			if err != nil {
				w.SetError(err)
			} else {
				w.ClearError()
				wasFollowing := s.cursor.Following()
				for _, e := range entries {
					if e.ID <= s.lastID {
						continue
					}
					s.entries = append(s.entries, e)
					s.lastID = e.ID
					s.filter.track(e.Provider)
				}
				s.cursor.SetCount(len(s.filteredEntries()))
				if wasFollowing {
					s.cursor.JumpToEnd()
				}
			}
		}
		s.firstTickSeen = true
	}

	return s, nil
}

func (s *callsScreen) View(w *tui.Window) string {
	height := w.VpHeight() - s.heightOffset

	filtered := s.filteredEntries()
	var lines []string
	end := min(s.cursor.Offset+height, len(filtered))
	for i := s.cursor.Offset; i < end; i++ {
		lines = append(lines, renderCallLine(filtered[i], i == s.cursor.Pos))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderCallLine(e calllog.Entry, highlighted bool) string {
	base, marker := tui.LineStyle(highlighted)

	ts := base.Foreground(tui.ColorField).Render(e.Time.Local().Format("15:04:05"))
	provider := base.Foreground(tui.ColorOrange).Render(fmt.Sprintf("%-7s", e.Provider))
	agent := base.Foreground(tui.ColorCyan).Render(fmt.Sprintf("%-8s", e.Agent))

	var details []string
	if e.Model != "" {
		details = append(details, base.Render(e.Model))
	}
	if e.Reason != "" {
		details = append(details, base.Foreground(tui.ColorField).Render(e.Reason))
	}
	if e.InputTokens > 0 || e.OutputTokens > 0 {
		tok := fmt.Sprintf("%d↑ %d↓", e.InputTokens, e.OutputTokens)
		details = append(details, base.Foreground(tui.ColorField).Render(tok))
	}
	if e.Success {
		details = append(details, base.Foreground(tui.ColorCyan).Render("✓"))
	} else {
		details = append(details, base.Foreground(tui.ColorError).Render("✗"))
	}

	sp := base.Render(" ")
	detail := base.Render(strings.Join(details, sp))

	return marker + base.Render("[") + ts + base.Render("]") + sp + provider + sp + agent + sp + detail
}

func (s *callsScreen) FooterStatus(w *tui.Window) string {
	var parts []string

	if s.cursor.Following() {
		glyph := spinnerFrames[w.TickFrame()%len(spinnerFrames)]
		parts = append(parts, lipgloss.NewStyle().Foreground(tui.ColorCyan).Render(glyph))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(tui.ColorField).Render("⏸"))
	}

	if s.filter.active != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(tui.ColorOrange).Render("provider:"+s.filter.active))
	}

	return strings.Join(parts, " ")
}

func (s *callsScreen) FooterKeys(w *tui.Window) []tui.FooterKey {
	keys := []tui.FooterKey{
		{Key: "f", Desc: "filter provider"},
	}
	keys = append(keys, s.cursor.FooterKeys()...)
	return keys
}
