package tui

import tea "github.com/charmbracelet/bubbletea"

// Cursor is the shared navigation state for the monitor's list screens.
// Screens embed it, route key events through HandleKey, and render the
// slice [Offset, Offset+VpHeight) with Pos highlighted.
type Cursor struct {
	Pos       int
	Offset    int
	VpHeight  int
	ItemCount int
}

// AtEnd reports whether the cursor is on the last item.
func (c *Cursor) AtEnd() bool {
	return c.ItemCount > 0 && c.Pos == c.ItemCount-1
}

// Following reports whether a live feed should keep auto-scrolling: the
// list is still empty, or the cursor sits on the tail. Scrolling up pauses
// the feed until the user jumps back to the end.
func (c *Cursor) Following() bool {
	return c.ItemCount == 0 || c.AtEnd()
}

// SetCount updates the item count and clamps position and offset. Call it
// whenever the backing list changed size, e.g. after a filter cycle.
func (c *Cursor) SetCount(n int) {
	c.ItemCount = n
	if c.Pos >= n {
		c.Pos = n - 1
	}
	if c.Pos < 0 {
		c.Pos = 0
	}
	if c.Offset > c.Pos {
		c.Offset = c.Pos
	}
	c.EnsureVisible()
}

// JumpToEnd moves the cursor onto the last item. Feed screens call it when
// new entries arrive while following.
func (c *Cursor) JumpToEnd() {
	if c.ItemCount > 0 {
		c.Pos = c.ItemCount - 1
	}
	c.EnsureVisible()
}

// EnsureVisible adjusts Offset so Pos is within the visible window.
func (c *Cursor) EnsureVisible() {
	if c.Pos < c.Offset {
		c.Offset = c.Pos
	}
	if c.Pos >= c.Offset+c.VpHeight {
		c.Offset = c.Pos - c.VpHeight + 1
	}
}

func (c *Cursor) move(delta int) {
	c.Pos += delta
	if c.Pos >= c.ItemCount {
		c.Pos = c.ItemCount - 1
	}
	if c.Pos < 0 {
		c.Pos = 0
	}
	c.EnsureVisible()
}

// HandleKey processes navigation keys (j/k/G/g/arrows/pgdn/pgup) and
// reports whether the key was one of them.
func (c *Cursor) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "j", "down":
		c.move(1)
	case "k", "up":
		c.move(-1)
	case "G", "end":
		c.JumpToEnd()
	case "g", "home":
		c.move(-c.ItemCount)
	case "pgdown":
		c.move(c.VpHeight)
	case "pgup":
		c.move(-c.VpHeight)
	default:
		return false
	}
	return true
}

// FooterKeys returns the standard navigation keybinding hints.
func (c *Cursor) FooterKeys() []FooterKey {
	return []FooterKey{
		{Key: "↑/↓ k/j", Desc: "navigate"},
		{Key: "Home/End g/G", Desc: "jump"},
	}
}
