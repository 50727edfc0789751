package executor

import (
	"testing"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	entries []calllog.Entry
}

func (m *memorySink) Record(e calllog.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestRecordResult(t *testing.T) {
	newRecorder := func(t *testing.T) (*Recorder, *memorySink, state.Paths) {
		t.Helper()
		paths := state.Paths{Base: t.TempDir()}
		sink := &memorySink{}
		r := &Recorder{
			Fusion: state.NewFusionStore(paths),
			Limits: state.NewLimitsStore(paths),
			Calls:  sink,
		}
		return r, sink, paths
	}

	t.Run("tokens feed the fusion savings path", func(t *testing.T) {
		r, sink, paths := newRecorder(t)
		req := Request{Prompt: "refactor the parser", Provider: "openai", Agent: "Codex", Model: "gpt-5.3-codex"}
		res := Result{
			Success:  true,
			Tokens:   &TokenUsage{Input: 1000, Output: 500},
			Duration: 3 * time.Second,
			Provider: "openai",
		}
		require.NoError(t, r.RecordResult("s1", req, res))

		st, ok := state.NewFusionStore(paths).Load("s1")
		require.True(t, ok)
		assert.Equal(t, state.TokenCount{Input: 1000, Output: 500}, st.ActualTokens["openai"])

		require.Len(t, sink.entries, 1)
		assert.Equal(t, uint64(1000), sink.entries[0].InputTokens)
		assert.Equal(t, uint64(3000), sink.entries[0].DurationMS)
	})

	t.Run("missing token report skips the sync but still logs", func(t *testing.T) {
		r, sink, paths := newRecorder(t)
		res := Result{Success: false, Error: "timeout", Duration: DefaultTimeout}
		require.NoError(t, r.RecordResult("s1", Request{Provider: "openai"}, res))

		_, ok := state.NewFusionStore(paths).Load("s1")
		assert.False(t, ok)
		require.Len(t, sink.entries, 1)
		assert.Equal(t, "timeout", sink.entries[0].Reason)
	})

	t.Run("gemini calls count against the local rate window", func(t *testing.T) {
		r, _, paths := newRecorder(t)
		res := Result{Success: true, Tokens: &TokenUsage{Input: 200, Output: 100}, Provider: "gemini"}
		require.NoError(t, r.RecordResult("s1", Request{Provider: "gemini"}, res))

		limits := state.NewLimitsStore(paths).Load()
		assert.Equal(t, uint64(1), limits.Gemini.RPM.Used)
		assert.Equal(t, uint64(300), limits.Gemini.TPM.Used)
	})
}
