package usage

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, root, project, session string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, projectsDirName, project)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, session+".jsonl"), []byte(content), 0o600))
}

func TestLoadSessions(t *testing.T) {
	entry := func(ts, msgID, reqID string, in, out, cacheRead int64) string {
		return `{"timestamp":"` + ts + `","requestId":"` + reqID + `","message":{"id":"` + msgID +
			`","model":"claude-opus","usage":{"input_tokens":` + itoa(in) +
			`,"output_tokens":` + itoa(out) + `,"cache_read_input_tokens":` + itoa(cacheRead) + `}}}`
	}

	t.Run("aggregates per session", func(t *testing.T) {
		root := t.TempDir()
		writeLog(t, root, "proj-a", "sess-1",
			entry("2026-08-29T10:00:00Z", "m1", "r1", 100, 50, 10),
			entry("2026-08-30T11:00:00Z", "m2", "r2", 200, 100, 0),
		)
		writeLog(t, root, "proj-a", "sess-2",
			entry("2026-08-30T12:00:00Z", "m3", "r3", 5, 5, 0),
		)

		sessions, err := LoadSessions([]string{root})
		require.NoError(t, err)
		require.Len(t, sessions, 2)

		byID := map[string]SessionUsage{}
		for _, s := range sessions {
			byID[s.SessionID] = s
		}
		s1 := byID["sess-1"]
		assert.Equal(t, uint64(300), s1.InputTokens)
		assert.Equal(t, uint64(150), s1.OutputTokens)
		assert.Equal(t, uint64(10), s1.CacheTokens)
		assert.Equal(t, uint64(460), s1.TotalTokens)
		assert.Equal(t, "2026-08-30", s1.LastActivity)
		assert.Equal(t, "proj-a", s1.Project)
	})

	t.Run("duplicate entries count once", func(t *testing.T) {
		root := t.TempDir()
		dup := entry("2026-08-30T10:00:00Z", "m1", "r1", 100, 0, 0)
		writeLog(t, root, "proj", "sess", dup, dup, dup)

		sessions, err := LoadSessions([]string{root})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, uint64(100), sessions[0].InputTokens)
	})

	t.Run("broken lines and missing timestamps are skipped", func(t *testing.T) {
		root := t.TempDir()
		writeLog(t, root, "proj", "sess",
			"not json at all",
			`{"message":{"id":"m1","usage":{"input_tokens":999}}}`,
			entry("2026-08-30T10:00:00Z", "m2", "r2", 10, 0, 0),
		)

		sessions, err := LoadSessions([]string{root})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, uint64(10), sessions[0].InputTokens)
	})

	t.Run("negative counters are ignored", func(t *testing.T) {
		root := t.TempDir()
		writeLog(t, root, "proj", "sess",
			entry("2026-08-30T10:00:00Z", "m1", "r1", -50, 20, 0),
		)

		sessions, err := LoadSessions([]string{root})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), sessions[0].InputTokens)
		assert.Equal(t, uint64(20), sessions[0].OutputTokens)
	})

	t.Run("sorted by last activity", func(t *testing.T) {
		root := t.TempDir()
		writeLog(t, root, "proj", "newer", entry("2026-08-30T10:00:00Z", "m1", "r1", 1, 0, 0))
		writeLog(t, root, "proj", "older", entry("2026-08-01T10:00:00Z", "m2", "r2", 1, 0, 0))

		sessions, err := LoadSessions([]string{root})
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "older", sessions[0].SessionID)
		assert.Equal(t, "newer", sessions[1].SessionID)
	})
}

func TestResolveRoots(t *testing.T) {
	t.Run("env override requires a projects dir", func(t *testing.T) {
		valid := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(valid, projectsDirName), 0o755))
		invalid := t.TempDir()
		t.Setenv(envConfigDir, invalid+","+valid)

		roots, err := ResolveRoots()
		require.NoError(t, err)
		assert.Equal(t, []string{valid}, roots)
	})

	t.Run("env override with no valid dirs errors", func(t *testing.T) {
		t.Setenv(envConfigDir, t.TempDir())
		_, err := ResolveRoots()
		assert.Error(t, err)
	})
}

func TestSync(t *testing.T) {
	t.Run("global sync replaces the claude snapshot", func(t *testing.T) {
		paths := state.Paths{Base: t.TempDir()}
		store := state.NewFusionStore(paths)

		sessions := []SessionUsage{
			{SessionID: "a", InputTokens: 1000, OutputTokens: 200},
			{SessionID: "b", InputTokens: 500, OutputTokens: 300},
		}
		require.NoError(t, Sync(store, sessions))

		st, ok := store.Load("")
		require.True(t, ok)
		assert.Equal(t, state.TokenCount{Input: 1500, Output: 500}, st.ActualTokens["claude"])

		// A second sync replaces rather than accumulates.
		require.NoError(t, Sync(store, sessions[:1]))
		st, _ = store.Load("")
		assert.Equal(t, state.TokenCount{Input: 1000, Output: 200}, st.ActualTokens["claude"])
	})

	t.Run("session sync mirrors into the global aggregate", func(t *testing.T) {
		paths := state.Paths{Base: t.TempDir()}
		store := state.NewFusionStore(paths)

		require.NoError(t, SyncSession(store, "20260830_100000_abcdef", SessionUsage{InputTokens: 42, OutputTokens: 8}))

		st, ok := store.Load("20260830_100000_abcdef")
		require.True(t, ok)
		assert.Equal(t, uint64(42), st.ActualTokens["claude"].Input)

		global, ok := store.Load("")
		require.True(t, ok)
		assert.Equal(t, uint64(42), global.ActualTokens["claude"].Input)
	})
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
