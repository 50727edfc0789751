package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	return Paths{Base: t.TempDir()}
}

func TestFusionStore(t *testing.T) {
	t.Run("load miss returns defaults", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		st, ok := s.Load("sess1")
		assert.False(t, ok)
		assert.False(t, st.Enabled)
		assert.Equal(t, ModeBalanced, st.Mode)
		assert.NotNil(t, st.ActualTokens)
		assert.NotNil(t, st.ByProvider)
	})

	t.Run("counter invariant holds over mixed sequence", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		routed := []bool{true, false, true, true, false, false, true}
		for _, r := range routed {
			_, err := s.RecordRouting("sess1", r, "openai", 1000)
			require.NoError(t, err)
		}
		st, ok := s.Load("sess1")
		require.True(t, ok)
		assert.Equal(t, uint64(7), st.TotalTasks)
		assert.Equal(t, uint64(4), st.RoutedToOpenCode)
		assert.LessOrEqual(t, st.RoutedToOpenCode, st.TotalTasks)
		// round(4/7*100) == 57
		assert.Equal(t, uint64(57), st.RoutingRate)
		assert.Equal(t, uint64(4), st.ByProvider["openai"])
		assert.Equal(t, uint64(4000), st.EstimatedSavedTokens)
	})

	t.Run("mirrors every event into the global aggregate", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		_, err := s.RecordRouting("sess1", true, "gemini", 0)
		require.NoError(t, err)
		_, err = s.RecordRouting("sess2", false, "", 0)
		require.NoError(t, err)

		global, ok := s.Load("")
		require.True(t, ok)
		assert.Equal(t, uint64(2), global.TotalTasks)
		assert.Equal(t, uint64(1), global.RoutedToOpenCode)

		sess1, _ := s.Load("sess1")
		assert.Equal(t, uint64(1), sess1.TotalTasks)
	})

	t.Run("token sync replaces snapshots instead of accumulating", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		_, err := s.UpdateSavingsFromTokens("sess1", map[string]TokenCount{
			"claude": {Input: 100, Output: 100},
			"openai": {Input: 500, Output: 100},
		})
		require.NoError(t, err)
		st, err := s.UpdateSavingsFromTokens("sess1", map[string]TokenCount{
			"openai": {Input: 600, Output: 200},
		})
		require.NoError(t, err)

		assert.Equal(t, TokenCount{Input: 600, Output: 200}, st.ActualTokens["openai"])
		assert.Equal(t, TokenCount{Input: 100, Output: 100}, st.ActualTokens["claude"])
		// savings = round(800/(800+200)*100)
		assert.Equal(t, uint64(80), st.SavingsRate)
	})

	t.Run("savings rate is zero with no tokens", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		st, err := s.RecordRouting("sess1", true, "openai", 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), st.SavingsRate)
	})

	t.Run("reset keeps enable flag and mode", func(t *testing.T) {
		s := NewFusionStore(testPaths(t))
		_, err := s.SetEnabled("sess1", true, ModeSaveTokens)
		require.NoError(t, err)
		_, err = s.RecordRouting("sess1", true, "openai", 10)
		require.NoError(t, err)

		require.NoError(t, s.Reset("sess1"))

		st, ok := s.Load("sess1")
		require.True(t, ok)
		assert.True(t, st.Enabled)
		assert.Equal(t, ModeSaveTokens, st.Mode)
		assert.Zero(t, st.TotalTasks)
		assert.Zero(t, st.EstimatedSavedTokens)
	})

	t.Run("corrupt file is treated as missing", func(t *testing.T) {
		paths := testPaths(t)
		s := NewFusionStore(paths)
		require.NoError(t, os.MkdirAll(paths.Base, 0o700))
		require.NoError(t, os.WriteFile(paths.GlobalFusionFile(), []byte("{not json!"), 0o600))

		st, ok := s.Load("")
		assert.False(t, ok)
		assert.Equal(t, ModeBalanced, st.Mode)

		// A write after a corrupt read starts from defaults.
		out, err := s.RecordRouting("", true, "openai", 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), out.TotalTasks)
	})
}
