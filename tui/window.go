package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const tickInterval = 250 * time.Millisecond

// TickMsg is sent on every tick interval, after Window has incremented the
// frame counter.
type TickMsg struct{}

// Window is the top-level tea.Model for the monitor. It owns the shared
// frame (header, footer, sizing, tick, poll errors), handles quitting, and
// delegates content to the active Screen. Screens that compose children,
// like the tab bar, swap them internally; the window itself never switches
// screens.
type Window struct {
	header    *HeaderInfo
	screen    Screen
	width     int
	height    int
	vpHeight  int
	tickFrame int
	err       error
}

func NewWindow(header *HeaderInfo, screen Screen) *Window {
	return &Window{
		header: header,
		screen: screen,
	}
}

// Accessors for screens to read shared state.
func (w *Window) Width() int     { return w.width }
func (w *Window) Height() int    { return w.height }
func (w *Window) VpHeight() int  { return w.vpHeight }
func (w *Window) TickFrame() int { return w.tickFrame }
func (w *Window) Err() error     { return w.err }

// IntervalElapsed reports whether the given poll interval has elapsed on
// the current tick frame. Screens use it to poll slower than the 250ms
// render tick.
func (w *Window) IntervalElapsed(interval time.Duration) bool {
	n := int(interval / tickInterval)
	if n <= 1 {
		return true
	}
	return w.tickFrame%n == 0
}

// SetError records a poll failure for the footer; ClearError removes it on
// the next successful poll.
func (w *Window) SetError(err error) { w.err = err }
func (w *Window) ClearError()        { w.err = nil }

func (w *Window) headerHeight() int {
	h := RenderHeader(w.header, w.width, w.height)
	return strings.Count(h, "\n") + 1
}

func doTick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (w *Window) Init() tea.Cmd {
	return tea.Batch(doTick(), tea.WindowSize())
}

func (w *Window) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return w, tea.Quit
		}

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		headerH := w.headerHeight()
		w.vpHeight = max(w.height-headerH-2, 1) // 1 separator after header + 1 footer line

	case TickMsg:
		w.tickFrame++
		cmds = append(cmds, doTick())
	}

	screen, cmd := w.screen.Update(msg, w)
	w.screen = screen
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return w, tea.Batch(cmds...)
}

func (w *Window) View() string {
	if w.width == 0 {
		return "Starting..."
	}

	header := RenderHeader(w.header, w.width, w.height)
	content := w.screen.View(w)
	footer := w.renderFooter()

	return header + "\n" + content + "\n" + footer
}

func (w *Window) renderFooter() string {
	keyStyle := lipgloss.NewStyle().Foreground(ColorCyan)
	descStyle := lipgloss.NewStyle().Foreground(ColorField)

	// Left: screen indicator, then the poll error if the serve process
	// stopped answering.
	left := w.screen.FooterStatus(w)
	if w.err != nil {
		errText := lipgloss.NewStyle().Foreground(ColorError).
			Render(fmt.Sprintf("serve unreachable: %v", w.err))
		if left != "" {
			left += " "
		}
		left += errText
	}

	// Right: screen keys + base keys
	var keys []string
	for _, fk := range w.screen.FooterKeys(w) {
		keys = append(keys, keyStyle.Render(fk.Key)+" "+descStyle.Render(fk.Desc))
	}
	keys = append(keys,
		keyStyle.Render("q")+" "+descStyle.Render("quit"),
	)

	right := strings.Join(keys, "  ")

	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	gap := max(w.width-leftWidth-rightWidth, 2)

	return left + strings.Repeat(" ", gap) + right
}
