package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg := Load(state.Paths{Base: t.TempDir()})
		assert.False(t, cfg.FusionDefault)
		assert.Equal(t, 7, cfg.Context.SessionMaxAgeDays)
	})

	t.Run("json config with unknown keys", func(t *testing.T) {
		paths := state.Paths{Base: t.TempDir()}
		require.NoError(t, os.MkdirAll(paths.Base, 0o700))
		data := `{
			"fusionDefault": true,
			"threshold": 85,
			"routing": {"eco-mode": true, "large-task-keywords": ["rewrite"]},
			"someFutureOption": {"nested": 1}
		}`
		require.NoError(t, os.WriteFile(paths.ConfigFile(), []byte(data), 0o600))

		cfg := Load(paths)
		assert.True(t, cfg.FusionDefault)
		assert.Equal(t, uint64(85), cfg.EffectiveThreshold())
		assert.True(t, cfg.Routing.EcoMode)
		assert.Equal(t, []string{"rewrite"}, cfg.Routing.LargeTaskKeywords)
	})

	t.Run("yaml config is read when no json exists", func(t *testing.T) {
		paths := state.Paths{Base: t.TempDir()}
		require.NoError(t, os.MkdirAll(paths.Base, 0o700))
		data := "fusionMode: always\nrouting:\n  threshold: 80\ntriggers:\n  cost-budget-usd: 2.5\n"
		require.NoError(t, os.WriteFile(paths.ConfigFileYAML(), []byte(data), 0o600))

		cfg := Load(paths)
		assert.Equal(t, "always", cfg.FusionMode)
		assert.Equal(t, uint64(80), cfg.EffectiveThreshold())
		require.NotNil(t, cfg.Triggers.CostBudgetUSD)
		assert.Equal(t, 2.5, *cfg.Triggers.CostBudgetUSD)
	})

	t.Run("corrupt config is treated as missing", func(t *testing.T) {
		paths := state.Paths{Base: t.TempDir()}
		require.NoError(t, os.MkdirAll(paths.Base, 0o700))
		require.NoError(t, os.WriteFile(paths.ConfigFile(), []byte("{not json"), 0o600))

		cfg := Load(paths)
		assert.False(t, cfg.FusionDefault)
	})

	t.Run("routing threshold wins over the flat key", func(t *testing.T) {
		cfg := Config{Threshold: 90, Routing: RoutingConfig{Threshold: 70}}
		assert.Equal(t, uint64(70), cfg.EffectiveThreshold())
	})
}

func TestRouterOptions(t *testing.T) {
	cfg := Config{
		FusionDefault: true,
		FusionMode:    "always",
		Threshold:     88,
		Routing:       RoutingConfig{EcoMode: true, LargeTaskKeywords: []string{"overhaul"}},
	}
	opts := cfg.RouterOptions(true)
	assert.True(t, opts.FusionDefault)
	assert.True(t, opts.DelegationActive)
	assert.Equal(t, uint64(88), opts.Threshold)
	assert.Equal(t, []string{"overhaul"}, opts.LargeTaskKeywords)
	assert.True(t, opts.EcoMode)
}

func TestWriteStarterConfig(t *testing.T) {
	t.Run("writes a parseable template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, WriteStarterConfig(path))

		var cfg Config
		// All keys are commented out, so parsing must succeed and change
		// nothing.
		assert.True(t, loadFile(path, &cfg))
		assert.False(t, cfg.FusionDefault)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, WriteStarterConfig(path))
		assert.Error(t, WriteStarterConfig(path))
	})
}
