package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDelegation(t *testing.T) {
	write := func(t *testing.T, content string) []string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return []string{path}
	}

	t.Run("missing file means not active", func(t *testing.T) {
		assert.False(t, detectDelegationIn([]string{filepath.Join(t.TempDir(), "nope.json")}))
	})

	t.Run("parse failure means not active", func(t *testing.T) {
		assert.False(t, detectDelegationIn(write(t, "{broken")))
	})

	t.Run("nested delegation flag", func(t *testing.T) {
		assert.True(t, detectDelegationIn(write(t, `{"delegation":{"enabled":true}}`)))
	})

	t.Run("flat legacy flag", func(t *testing.T) {
		assert.True(t, detectDelegationIn(write(t, `{"delegationEnabled":true}`)))
	})

	t.Run("present but disabled", func(t *testing.T) {
		assert.False(t, detectDelegationIn(write(t, `{"delegation":{"enabled":false}}`)))
	})

	t.Run("first readable file does not mask a later active one", func(t *testing.T) {
		off := write(t, `{"delegation":{"enabled":false}}`)
		on := write(t, `{"delegationEnabled":true}`)
		assert.True(t, detectDelegationIn(append(off, on...)))
	})
}

func TestDetectCodex(t *testing.T) {
	t.Run("missing config means not installed", func(t *testing.T) {
		info := detectCodexAt(filepath.Join(t.TempDir(), "config.toml"))
		assert.False(t, info.Installed)
	})

	t.Run("reads model and profile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		data := "model = \"gpt-5.3-codex\"\nprofile = \"default\"\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		info := detectCodexAt(path)
		assert.True(t, info.Installed)
		assert.Equal(t, "gpt-5.3-codex", info.Model)
		assert.Equal(t, "default", info.Profile)
	})

	t.Run("malformed toml means not installed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("model = [broken"), 0o600))
		assert.False(t, detectCodexAt(path).Installed)
	})
}
