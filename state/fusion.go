package state

import (
	"time"
)

// Fusion modes control how aggressively tasks are routed away from Claude.
const (
	ModeBalanced     = "balanced"
	ModeSaveTokens   = "save-tokens"
	ModeQualityFirst = "quality-first"
)

// TokenCount is an input/output token pair as reported by a caller.
type TokenCount struct {
	Input  uint64 `json:"input"`
	Output uint64 `json:"output"`
}

// FusionState tracks routing statistics for a single session, or globally
// when stored in the session-less aggregate file.
type FusionState struct {
	Enabled              bool                  `json:"enabled"`
	Mode                 string                `json:"mode"`
	TotalTasks           uint64                `json:"totalTasks"`
	RoutedToOpenCode     uint64                `json:"routedToOpenCode"`
	RoutingRate          uint64                `json:"routingRate"`
	EstimatedSavedTokens uint64                `json:"estimatedSavedTokens"`
	ActualTokens         map[string]TokenCount `json:"actualTokens"`
	ByProvider           map[string]uint64     `json:"byProvider"`
	SavingsRate          uint64                `json:"savingsRate"`
	LastUpdated          string                `json:"lastUpdated"`
}

// DefaultFusionState returns the state used when no file exists yet.
func DefaultFusionState() FusionState {
	return FusionState{
		Enabled:      false,
		Mode:         ModeBalanced,
		ActualTokens: map[string]TokenCount{},
		ByProvider:   map[string]uint64{},
	}
}

// recompute refreshes the derived fields. RoutingRate is always derived from
// the two counters and never stored independently of them.
func (f *FusionState) recompute() {
	f.RoutingRate = roundPercent(f.RoutedToOpenCode, f.TotalTasks)

	claude := f.ActualTokens["claude"]
	claudeTotal := claude.Input + claude.Output
	var openCodeTotal uint64
	for provider, tc := range f.ActualTokens {
		if provider == "claude" {
			continue
		}
		openCodeTotal += tc.Input + tc.Output
	}
	f.SavingsRate = roundPercent(openCodeTotal, openCodeTotal+claudeTotal)
}

// FusionStore reads and writes fusion state snapshots. Every mutation is
// mirrored into the global aggregate regardless of session.
type FusionStore struct {
	paths Paths
	now   func() time.Time
}

func NewFusionStore(paths Paths) *FusionStore {
	return &FusionStore{paths: paths, now: time.Now}
}

// Load returns the fusion state for a session (global when sessionID is
// empty). The second return reports whether a state file was actually
// present and parseable.
func (s *FusionStore) Load(sessionID string) (FusionState, bool) {
	st := DefaultFusionState()
	ok := readSnapshot(s.paths.FusionFile(sessionID), &st)
	if st.ActualTokens == nil {
		st.ActualTokens = map[string]TokenCount{}
	}
	if st.ByProvider == nil {
		st.ByProvider = map[string]uint64{}
	}
	return st, ok
}

// SetEnabled flips the fusion enable flag and optionally the mode.
func (s *FusionStore) SetEnabled(sessionID string, enabled bool, mode string) (FusionState, error) {
	return s.mutate(sessionID, func(f *FusionState) {
		f.Enabled = enabled
		if mode != "" {
			f.Mode = mode
		}
	})
}

// RecordRouting records one routing decision. TotalTasks always increments;
// routed decisions additionally bump RoutedToOpenCode, the provider counter,
// and the estimated savings.
func (s *FusionStore) RecordRouting(sessionID string, routed bool, provider string, estimatedTokens uint64) (FusionState, error) {
	return s.mutate(sessionID, func(f *FusionState) {
		f.TotalTasks++
		if routed {
			f.RoutedToOpenCode++
			if provider != "" {
				f.ByProvider[provider]++
			}
			f.EstimatedSavedTokens += estimatedTokens
		}
	})
}

// UpdateSavingsFromTokens replaces the per-provider token snapshots with the
// latest values reported by the caller. Each entry represents the current
// session total as reported externally, not an internal accumulator, so
// values overwrite rather than accumulate.
func (s *FusionStore) UpdateSavingsFromTokens(sessionID string, tokens map[string]TokenCount) (FusionState, error) {
	return s.mutate(sessionID, func(f *FusionState) {
		for provider, tc := range tokens {
			f.ActualTokens[provider] = tc
		}
	})
}

// Reset discards all statistics for the addressed state file, keeping the
// enable flag and mode. The global aggregate is only touched when addressed
// directly with an empty sessionID.
func (s *FusionStore) Reset(sessionID string) error {
	st, _ := s.Load(sessionID)
	enabled, mode := st.Enabled, st.Mode
	st = DefaultFusionState()
	st.Enabled = enabled
	st.Mode = mode
	st.LastUpdated = s.now().UTC().Format(time.RFC3339)
	return writeSnapshot(s.paths.FusionFile(sessionID), st)
}

// mutate applies fn to the session state and the global aggregate, persisting
// both. The per-session mutation result is returned.
func (s *FusionStore) mutate(sessionID string, fn func(*FusionState)) (FusionState, error) {
	st, _ := s.Load(sessionID)
	fn(&st)
	st.recompute()
	st.LastUpdated = s.now().UTC().Format(time.RFC3339)
	if err := writeSnapshot(s.paths.FusionFile(sessionID), st); err != nil {
		return st, err
	}

	if sessionID != "" {
		global, _ := s.Load("")
		fn(&global)
		global.recompute()
		global.LastUpdated = st.LastUpdated
		if err := writeSnapshot(s.paths.GlobalFusionFile(), global); err != nil {
			return st, err
		}
	}
	return st, nil
}
