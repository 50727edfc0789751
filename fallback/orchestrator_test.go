package fallback

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrchestrator(t *testing.T, usage *Usage) (*Orchestrator, state.Paths) {
	t.Helper()
	paths := state.Paths{Base: t.TempDir()}
	o := NewOrchestrator(paths, func() *Usage { return usage })
	return o, paths
}

func TestCheckAndFallback(t *testing.T) {
	t.Run("unavailable usage never guesses", func(t *testing.T) {
		o, _ := testOrchestrator(t, nil)
		res, err := o.CheckAndFallback()
		require.NoError(t, err)
		assert.Equal(t, "none", res.Action)
		assert.Equal(t, "limit-info-unavailable", res.Reason)
		assert.False(t, o.State().FallbackActive)
	})

	t.Run("activates at the high-water mark", func(t *testing.T) {
		o, _ := testOrchestrator(t, &Usage{FiveHourPercent: 92})
		res, err := o.CheckAndFallback()
		require.NoError(t, err)

		assert.Equal(t, "fallback", res.Action)
		assert.Equal(t, "claude-opus", res.From)
		assert.Equal(t, "gpt-5.3-codex", res.To)

		st := o.State()
		assert.True(t, st.FallbackActive)
		assert.Equal(t, "gpt-5.3-codex", st.CurrentModel)
		assert.NotEmpty(t, st.FallbackStartedAt)
		require.Len(t, st.History, 1)
		assert.Equal(t, "fallback", st.History[0].Action)
	})

	t.Run("weekly percent alone can trigger", func(t *testing.T) {
		o, _ := testOrchestrator(t, &Usage{WeeklyPercent: 90})
		res, err := o.CheckAndFallback()
		require.NoError(t, err)
		assert.Equal(t, "fallback", res.Action)
	})

	t.Run("hysteresis holds inside the 85-90 band", func(t *testing.T) {
		usage := &Usage{FiveHourPercent: 50}
		paths := state.Paths{Base: t.TempDir()}
		o := NewOrchestrator(paths, func() *Usage { return usage })

		series := []struct {
			pct        uint64
			wantAction string
			wantActive bool
		}{
			{80, "none", false},
			{88, "none", false}, // inside the band, never activates
			{90, "fallback", true},
			{91, "none", true},
			{87, "none", true}, // inside the band, never recovers
			{85, "none", true}, // recovery is strictly below 85
			{84, "recover", false},
			{86, "none", false}, // back inside the band, stays recovered
		}
		for _, step := range series {
			usage.FiveHourPercent = step.pct
			res, err := o.CheckAndFallback()
			require.NoError(t, err)
			assert.Equal(t, step.wantAction, res.Action, "at %d%%", step.pct)
			assert.Equal(t, step.wantActive, o.State().FallbackActive, "at %d%%", step.pct)
		}
	})

	t.Run("skips exhausted chain models", func(t *testing.T) {
		o, paths := testOrchestrator(t, &Usage{FiveHourPercent: 95})
		limits := state.NewLimitsStore(paths)
		// Exhaust OpenAI so both GPT entries are unavailable.
		h := headerSet(map[string]string{
			"x-ratelimit-limit-requests":     "100",
			"x-ratelimit-remaining-requests": "0",
			"x-ratelimit-limit-tokens":       "100",
			"x-ratelimit-remaining-tokens":   "50",
		})
		require.NoError(t, limits.UpdateOpenAIFromHeaders(h))

		res, err := o.CheckAndFallback()
		require.NoError(t, err)
		assert.Equal(t, "fallback", res.Action)
		assert.Equal(t, "gemini-3-flash", res.To)
	})

	t.Run("reports when no chain model is available", func(t *testing.T) {
		o, paths := testOrchestrator(t, &Usage{FiveHourPercent: 95})
		limits := state.NewLimitsStore(paths)
		h := headerSet(map[string]string{
			"x-ratelimit-limit-requests":     "100",
			"x-ratelimit-remaining-requests": "0",
			"x-ratelimit-limit-tokens":       "100",
			"x-ratelimit-remaining-tokens":   "50",
		})
		require.NoError(t, limits.UpdateOpenAIFromHeaders(h))
		require.NoError(t, limits.SetGemini429(true))

		res, err := o.CheckAndFallback()
		require.NoError(t, err)
		assert.Equal(t, "none", res.Action)
		assert.Equal(t, "no-fallback-model-available", res.Reason)
		assert.False(t, o.State().FallbackActive)
	})

	t.Run("writes a best-effort handoff artifact on activation", func(t *testing.T) {
		o, paths := testOrchestrator(t, &Usage{FiveHourPercent: 95})
		_, err := o.CheckAndFallback()
		require.NoError(t, err)

		entries, err := os.ReadDir(paths.HandoffDir())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestManualFallback(t *testing.T) {
	t.Run("bypasses threshold checks", func(t *testing.T) {
		o, _ := testOrchestrator(t, nil)
		st, err := o.ManualFallback("gemini-3-flash", "")
		require.NoError(t, err)

		assert.True(t, st.FallbackActive)
		assert.Equal(t, "gemini-3-flash", st.CurrentModel)
		require.Len(t, st.History, 1)
		assert.Equal(t, "manual", st.History[0].Action)
	})

	t.Run("rejects models outside the chain", func(t *testing.T) {
		o, _ := testOrchestrator(t, nil)
		_, err := o.ManualFallback("gpt-2", "")
		assert.Error(t, err)
	})

	t.Run("manual switch to primary clears the active flag", func(t *testing.T) {
		o, _ := testOrchestrator(t, nil)
		_, err := o.ManualFallback("gpt-5.3", "")
		require.NoError(t, err)

		st, err := o.ManualFallback("claude-opus", "")
		require.NoError(t, err)
		assert.False(t, st.FallbackActive)
		assert.Empty(t, st.FallbackReason)
	})
}

func TestHistoryBound(t *testing.T) {
	o, _ := testOrchestrator(t, nil)
	for i := 0; i < maxHistory+10; i++ {
		_, err := o.ManualFallback("gpt-5.3", "")
		require.NoError(t, err)
	}
	assert.Len(t, o.State().History, maxHistory)
}

func TestUsageSource(t *testing.T) {
	t.Run("prefers the usage cache file", func(t *testing.T) {
		dir := t.TempDir()
		s := &UsageSource{
			cachePath: filepath.Join(dir, usageCacheName),
			hudPath:   filepath.Join(dir, hudCacheName),
		}
		require.NoError(t, os.WriteFile(s.cachePath, []byte(`{"fiveHourPercent":42,"weeklyPercent":10}`), 0o600))
		require.NoError(t, os.WriteFile(s.hudPath, []byte(`{"claude":{"fiveHour":{"percent":99}}}`), 0o600))

		u := s.ClaudeUsage()
		require.NotNil(t, u)
		assert.Equal(t, uint64(42), u.FiveHourPercent)
	})

	t.Run("falls back to the HUD snapshot", func(t *testing.T) {
		dir := t.TempDir()
		s := &UsageSource{
			cachePath: filepath.Join(dir, usageCacheName),
			hudPath:   filepath.Join(dir, hudCacheName),
		}
		require.NoError(t, os.WriteFile(s.hudPath, []byte(`{"claude":{"fiveHour":{"percent":77},"weekly":{"percent":33}}}`), 0o600))

		u := s.ClaudeUsage()
		require.NotNil(t, u)
		assert.Equal(t, uint64(77), u.FiveHourPercent)
		assert.Equal(t, uint64(33), u.WeeklyPercent)
	})

	t.Run("nil when both sources are absent or corrupt", func(t *testing.T) {
		dir := t.TempDir()
		s := &UsageSource{
			cachePath: filepath.Join(dir, usageCacheName),
			hudPath:   filepath.Join(dir, hudCacheName),
		}
		assert.Nil(t, s.ClaudeUsage())

		require.NoError(t, os.WriteFile(s.cachePath, []byte("garbage"), 0o600))
		s2 := &UsageSource{cachePath: s.cachePath, hudPath: s.hudPath}
		assert.Nil(t, s2.ClaudeUsage())
	})
}

func headerSet(kv map[string]string) http.Header {
	h := http.Header{}
	for k, v := range kv {
		h.Set(k, v)
	}
	return h
}
