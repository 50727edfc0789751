package state

// ChainModel is one entry in the fixed, ordered fallback chain.
type ChainModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Agent    string `json:"agent"`
	Primary  bool   `json:"primary"`
}

// FallbackChain is walked in order starting after the primary when Claude is
// rate-limited. The order is load-bearing; do not reorder.
var FallbackChain = []ChainModel{
	{ID: "claude-opus", Name: "Claude Opus", Provider: "anthropic", Agent: "claude", Primary: true},
	{ID: "gpt-5.3-codex", Name: "GPT-5.3 Codex", Provider: "openai", Agent: "Codex"},
	{ID: "gemini-3-flash", Name: "Gemini 3 Flash", Provider: "gemini", Agent: "Flash"},
	{ID: "gpt-5.3", Name: "GPT-5.3", Provider: "openai", Agent: "Oracle"},
}

// ChainModelByID returns the chain entry for id, or the primary if unknown.
func ChainModelByID(id string) ChainModel {
	for _, m := range FallbackChain {
		if m.ID == id {
			return m
		}
	}
	return FallbackChain[0]
}

// HistoryEntry records one fallback transition.
type HistoryEntry struct {
	Action    string `json:"action"` // "fallback", "recover" or "manual"
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// FallbackState is the single global fallback record. The invariant
// FallbackActive == !ChainModelByID(CurrentModel).Primary is maintained by
// every mutator in the fallback package.
type FallbackState struct {
	CurrentModel      string         `json:"currentModel"`
	FallbackActive    bool           `json:"fallbackActive"`
	FallbackReason    string         `json:"fallbackReason,omitempty"`
	FallbackStartedAt string         `json:"fallbackStartedAt,omitempty"`
	History           []HistoryEntry `json:"history"`
}

func DefaultFallbackState() FallbackState {
	return FallbackState{CurrentModel: FallbackChain[0].ID}
}

// FallbackStore persists the global fallback record.
type FallbackStore struct {
	path string
}

func NewFallbackStore(paths Paths) *FallbackStore {
	return &FallbackStore{path: paths.FallbackFile()}
}

func (s *FallbackStore) Load() FallbackState {
	st := DefaultFallbackState()
	readSnapshot(s.path, &st)
	if st.CurrentModel == "" {
		st.CurrentModel = FallbackChain[0].ID
	}
	return st
}

// Save persists the record synchronously. Transitions must be durable before
// the orchestrator returns.
func (s *FallbackStore) Save(st FallbackState) error {
	return writeSnapshot(s.path, st)
}
