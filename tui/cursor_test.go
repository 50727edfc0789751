package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestCursorHandleKey(t *testing.T) {
	t.Run("j and k move within bounds", func(t *testing.T) {
		c := Cursor{Pos: 2, ItemCount: 10, VpHeight: 5}
		assert.True(t, c.HandleKey(keyRune('j')))
		assert.Equal(t, 3, c.Pos)
		assert.True(t, c.HandleKey(keyRune('k')))
		assert.Equal(t, 2, c.Pos)
	})

	t.Run("movement clamps at both ends", func(t *testing.T) {
		c := Cursor{Pos: 9, ItemCount: 10, VpHeight: 5}
		c.HandleKey(keyRune('j'))
		assert.Equal(t, 9, c.Pos)

		c.Pos = 0
		c.HandleKey(keyRune('k'))
		assert.Equal(t, 0, c.Pos)
	})

	t.Run("G jumps to the tail, g back to the head", func(t *testing.T) {
		c := Cursor{ItemCount: 10, VpHeight: 5}
		c.HandleKey(keyRune('G'))
		assert.Equal(t, 9, c.Pos)
		c.HandleKey(keyRune('g'))
		assert.Equal(t, 0, c.Pos)
		assert.Equal(t, 0, c.Offset)
	})

	t.Run("page keys move a viewport at a time", func(t *testing.T) {
		c := Cursor{ItemCount: 20, VpHeight: 5}
		c.HandleKey(tea.KeyMsg{Type: tea.KeyPgDown})
		assert.Equal(t, 5, c.Pos)
		c.HandleKey(tea.KeyMsg{Type: tea.KeyPgUp})
		assert.Equal(t, 0, c.Pos)
	})

	t.Run("unknown keys are not handled", func(t *testing.T) {
		c := Cursor{Pos: 3, ItemCount: 10, VpHeight: 5}
		assert.False(t, c.HandleKey(keyRune('x')))
		assert.Equal(t, 3, c.Pos)
	})

	t.Run("keys on an empty list are safe", func(t *testing.T) {
		c := Cursor{VpHeight: 5}
		c.HandleKey(keyRune('j'))
		c.HandleKey(keyRune('G'))
		c.HandleKey(tea.KeyMsg{Type: tea.KeyPgUp})
		assert.Equal(t, 0, c.Pos)
		assert.Equal(t, 0, c.Offset)
	})
}

func TestCursorEnsureVisible(t *testing.T) {
	c := Cursor{Pos: 12, Offset: 0, VpHeight: 5, ItemCount: 20}
	c.EnsureVisible()
	assert.Equal(t, 8, c.Offset)

	c.Pos = 2
	c.EnsureVisible()
	assert.Equal(t, 2, c.Offset)
}

func TestCursorFollowing(t *testing.T) {
	c := Cursor{VpHeight: 5}
	assert.True(t, c.Following(), "empty list tails by default")

	c.ItemCount = 10
	c.Pos = 9
	assert.True(t, c.Following())

	c.Pos = 4
	assert.False(t, c.Following(), "scrolling up pauses the feed")

	c.JumpToEnd()
	assert.True(t, c.Following())
	assert.Equal(t, 5, c.Offset)
}

func TestCursorSetCount(t *testing.T) {
	t.Run("shrinking list pulls the cursor back in range", func(t *testing.T) {
		c := Cursor{Pos: 9, Offset: 5, ItemCount: 10, VpHeight: 5}
		c.SetCount(3)
		assert.Equal(t, 2, c.Pos)
		assert.Equal(t, 2, c.Offset)
	})

	t.Run("shrinking to empty resets position", func(t *testing.T) {
		c := Cursor{Pos: 4, Offset: 2, ItemCount: 8, VpHeight: 5}
		c.SetCount(0)
		assert.Equal(t, 0, c.Pos)
		assert.Equal(t, 0, c.Offset)
	})

	t.Run("growing list keeps the cursor put", func(t *testing.T) {
		c := Cursor{Pos: 2, ItemCount: 5, VpHeight: 5}
		c.SetCount(12)
		assert.Equal(t, 2, c.Pos)
	})
}

func TestCursorFooterKeys(t *testing.T) {
	c := Cursor{}
	assert.Len(t, c.FooterKeys(), 2)
}
