package usage

import (
	"github.com/DrFREEST/omcm/state"
)

// Sync pushes scanned Claude token totals into the fusion store. Each
// session's claude entry is replaced with the scanned totals, which is what
// the savings calculation expects: externally reported session totals, not
// increments.
func Sync(store *state.FusionStore, sessions []SessionUsage) error {
	var totalIn, totalOut uint64
	for _, s := range sessions {
		totalIn += s.InputTokens
		totalOut += s.OutputTokens
	}
	// The global aggregate gets the sum across sessions. Addressed directly
	// so per-session files stay untouched: scanned log session ids are
	// Claude Code's, not this tool's.
	_, err := store.UpdateSavingsFromTokens("", map[string]state.TokenCount{
		"claude": {Input: totalIn, Output: totalOut},
	})
	return err
}

// SyncSession pushes one scanned session's totals into the named fusion
// session file (and, through the store, the global aggregate).
func SyncSession(store *state.FusionStore, sessionID string, s SessionUsage) error {
	_, err := store.UpdateSavingsFromTokens(sessionID, map[string]state.TokenCount{
		"claude": {Input: s.InputTokens, Output: s.OutputTokens},
	})
	return err
}
