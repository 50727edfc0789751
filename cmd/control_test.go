package cmd

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/fallback"
	"github.com/DrFREEST/omcm/hud"
	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testControlServer(t *testing.T) (*ControlClient, *state.FusionStore) {
	t.Helper()
	paths := state.Paths{Base: t.TempDir()}
	fusion := state.NewFusionStore(paths)
	limits := state.NewLimitsStore(paths)
	orch := fallback.NewOrchestrator(paths, func() *fallback.Usage { return nil })

	buf := calllog.NewBuffer(16)
	buf.Add(calllog.Entry{ID: "c1", Provider: "openai", Agent: "Codex", Success: true})

	api := hud.NewControlAPI(fusion, limits, orch, buf, hud.NewMetricBuffer(), config.Default())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return NewControlClient(strings.TrimPrefix(srv.URL, "http://")), fusion
}

func TestControlClient(t *testing.T) {
	client, fusion := testControlServer(t)

	t.Run("fusion state round trip", func(t *testing.T) {
		_, err := fusion.SetEnabled("s1", true, state.ModeSaveTokens)
		require.NoError(t, err)

		st, err := client.Fusion("s1")
		require.NoError(t, err)
		assert.True(t, st.Enabled)
		assert.Equal(t, state.ModeSaveTokens, st.Mode)
	})

	t.Run("calls and stats", func(t *testing.T) {
		entries, err := client.Calls(0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Codex", entries[0].Agent)

		stats, err := client.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats["openai"].Calls)
	})

	t.Run("fallback activate and recover", func(t *testing.T) {
		st, err := client.Activate("gemini-3-flash", "testing")
		require.NoError(t, err)
		assert.True(t, st.FallbackActive)
		assert.Equal(t, "gemini-3-flash", st.CurrentModel)

		st, err = client.Recover("testing")
		require.NoError(t, err)
		assert.False(t, st.FallbackActive)
	})

	t.Run("unknown fallback model is an error", func(t *testing.T) {
		_, err := client.Activate("gpt-2", "testing")
		require.Error(t, err)
	})

	t.Run("empty metrics", func(t *testing.T) {
		metrics, err := client.Metrics()
		require.NoError(t, err)
		assert.Empty(t, metrics)
	})

	t.Run("config", func(t *testing.T) {
		cfg, err := client.Config()
		require.NoError(t, err)
		assert.Equal(t, config.Default().Context.SessionMaxAgeDays, cfg.Context.SessionMaxAgeDays)
	})
}
