package calllog

import (
	"testing"
	"time"

	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	t.Run("retains insertion order under capacity", func(t *testing.T) {
		b := NewBuffer(4)
		b.Add(Entry{ID: "a", Provider: "openai"})
		b.Add(Entry{ID: "b", Provider: "gemini"})

		entries := b.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "a", entries[0].ID)
		assert.Equal(t, "b", entries[1].ID)
	})

	t.Run("wraps and keeps the newest entries", func(t *testing.T) {
		b := NewBuffer(3)
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			b.Add(Entry{ID: id, Provider: "openai"})
		}
		entries := b.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "c", entries[0].ID)
		assert.Equal(t, "e", entries[2].ID)
	})

	t.Run("stats survive ring eviction", func(t *testing.T) {
		b := NewBuffer(2)
		b.Add(Entry{Provider: "openai", Success: true, InputTokens: 100, OutputTokens: 50})
		b.Add(Entry{Provider: "openai", Success: false})
		b.Add(Entry{Provider: "gemini", Success: true, InputTokens: 10})
		b.Add(Entry{Provider: "openai", Success: true})

		stats := b.Stats()
		assert.Equal(t, 3, stats["openai"].Calls)
		assert.Equal(t, 2, stats["openai"].Succeeded)
		assert.Equal(t, 1, stats["openai"].Failed)
		assert.Equal(t, uint64(100), stats["openai"].InputTokens)
		assert.Equal(t, 1, stats["gemini"].Calls)
	})
}

func TestStore(t *testing.T) {
	open := func(t *testing.T) *Store {
		t.Helper()
		s, err := OpenStore(state.Paths{Base: t.TempDir()})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("record and read back", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Record(Entry{
			SessionID:    "20260830_120000_abc123",
			Provider:     "openai",
			Model:        "gpt-5.3-codex",
			Agent:        "Codex",
			Reason:       "large-task-executor",
			InputTokens:  1200,
			OutputTokens: 800,
			Success:      true,
			DurationMS:   4200,
		}))

		entries, err := s.Recent("", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		e := entries[0]
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Time.IsZero())
		assert.Equal(t, "gpt-5.3-codex", e.Model)
		assert.True(t, e.Success)
	})

	t.Run("recent filters by session and orders newest first", func(t *testing.T) {
		s := open(t)
		base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Record(Entry{
				ID:        string(rune('a' + i)),
				Time:      base.Add(time.Duration(i) * time.Second),
				SessionID: "s1",
				Provider:  "openai",
			}))
		}
		require.NoError(t, s.Record(Entry{ID: "x", Time: base, SessionID: "s2", Provider: "gemini"}))

		entries, err := s.Recent("s1", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "c", entries[0].ID)
		assert.Equal(t, "b", entries[1].ID)
	})

	t.Run("provider stats aggregate the full log", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Record(Entry{Provider: "openai", Success: true, InputTokens: 10, OutputTokens: 5}))
		require.NoError(t, s.Record(Entry{Provider: "openai", Success: false, InputTokens: 20}))
		require.NoError(t, s.Record(Entry{Provider: "gemini", Success: true}))

		stats, err := s.StatsByProvider()
		require.NoError(t, err)
		assert.Equal(t, 2, stats["openai"].Calls)
		assert.Equal(t, 1, stats["openai"].Failed)
		assert.Equal(t, uint64(30), stats["openai"].InputTokens)
		assert.Equal(t, 1, stats["gemini"].Succeeded)
	})
}
