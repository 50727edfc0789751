// Package fallback drives the model fallback chain: when Claude's usage
// crosses the high-water mark the next available chain model takes over, and
// the primary is restored once usage drops below the low-water mark. The
// asymmetric thresholds keep the state from flapping inside the band.
package fallback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DrFREEST/omcm/state"
	"github.com/rs/xid"
)

const (
	// FallbackThreshold is the max(fiveHour, weekly) percentage that
	// activates a fallback.
	FallbackThreshold = 90
	// RecoveryThreshold is the percentage below which the primary recovers.
	RecoveryThreshold = 85

	maxHistory = 50
)

// Usage is the Claude usage snapshot consumed by the threshold checks.
type Usage struct {
	FiveHourPercent uint64 `json:"fiveHourPercent"`
	WeeklyPercent   uint64 `json:"weeklyPercent"`
}

func (u Usage) Max() uint64 {
	if u.WeeklyPercent > u.FiveHourPercent {
		return u.WeeklyPercent
	}
	return u.FiveHourPercent
}

// UsageFunc supplies the current Claude usage, or nil when no usage
// information is available from any source.
type UsageFunc func() *Usage

// CheckResult reports what CheckAndFallback did.
type CheckResult struct {
	Action string `json:"action"` // "none", "fallback" or "recover"
	Reason string `json:"reason"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// Orchestrator owns all fallback state transitions. Every transition is
// persisted synchronously before the mutating call returns.
type Orchestrator struct {
	store      *state.FallbackStore
	limits     *state.LimitsStore
	usage      UsageFunc
	handoffDir string
	now        func() time.Time
}

func NewOrchestrator(paths state.Paths, usage UsageFunc) *Orchestrator {
	return &Orchestrator{
		store:      state.NewFallbackStore(paths),
		limits:     state.NewLimitsStore(paths),
		usage:      usage,
		handoffDir: paths.HandoffDir(),
		now:        time.Now,
	}
}

// State returns the current fallback record.
func (o *Orchestrator) State() state.FallbackState {
	return o.store.Load()
}

// CheckAndFallback applies the hysteresis thresholds to the current usage.
// Unavailable usage information never guesses: the check reports
// limit-info-unavailable and changes nothing.
func (o *Orchestrator) CheckAndFallback() (CheckResult, error) {
	usage := o.usage()
	if usage == nil {
		return CheckResult{Action: "none", Reason: "limit-info-unavailable"}, nil
	}
	pct := usage.Max()
	st := o.store.Load()

	switch {
	case !st.FallbackActive && pct >= FallbackThreshold:
		reason := fmt.Sprintf("claude-usage-%d%%", pct)
		next, ok := o.nextAvailableModel()
		if !ok {
			return CheckResult{Action: "none", Reason: "no-fallback-model-available"}, nil
		}
		from := st.CurrentModel
		if err := o.transition(&st, "fallback", next.ID, reason); err != nil {
			return CheckResult{}, err
		}
		o.writeHandoff(from, next.ID, reason)
		return CheckResult{Action: "fallback", Reason: reason, From: from, To: next.ID}, nil

	case st.FallbackActive && pct < RecoveryThreshold:
		reason := fmt.Sprintf("claude-recovered-%d%%", pct)
		from := st.CurrentModel
		primary := state.FallbackChain[0].ID
		if err := o.transition(&st, "recover", primary, reason); err != nil {
			return CheckResult{}, err
		}
		return CheckResult{Action: "recover", Reason: reason, From: from, To: primary}, nil
	}

	return CheckResult{Action: "none", Reason: "within-thresholds"}, nil
}

// ManualFallback switches to an explicit chain model, bypassing threshold
// checks. Used for operator and testing control.
func (o *Orchestrator) ManualFallback(modelID, reason string) (state.FallbackState, error) {
	found := false
	for _, m := range state.FallbackChain {
		if m.ID == modelID {
			found = true
			break
		}
	}
	if !found {
		return state.FallbackState{}, fmt.Errorf("unknown fallback model %q", modelID)
	}
	st := o.store.Load()
	if reason == "" {
		reason = "manual-override"
	}
	if err := o.transition(&st, "manual", modelID, reason); err != nil {
		return state.FallbackState{}, err
	}
	return st, nil
}

// RecoverToPrimary restores the primary model regardless of usage.
func (o *Orchestrator) RecoverToPrimary(reason string) (state.FallbackState, error) {
	st := o.store.Load()
	if reason == "" {
		reason = "manual-recover"
	}
	if err := o.transition(&st, "recover", state.FallbackChain[0].ID, reason); err != nil {
		return state.FallbackState{}, err
	}
	return st, nil
}

// transition moves the record to target, appends history and persists. The
// fallbackActive invariant is re-derived from the target's chain position on
// every transition.
func (o *Orchestrator) transition(st *state.FallbackState, action, target, reason string) error {
	from := st.CurrentModel
	to := state.ChainModelByID(target)
	now := o.now().UTC().Format(time.RFC3339)

	st.CurrentModel = to.ID
	st.FallbackActive = !to.Primary
	if st.FallbackActive {
		st.FallbackReason = reason
		if st.FallbackStartedAt == "" || action == "fallback" || action == "manual" {
			st.FallbackStartedAt = now
		}
	} else {
		st.FallbackReason = ""
		st.FallbackStartedAt = ""
	}

	st.History = append(st.History, state.HistoryEntry{
		Action:    action,
		From:      from,
		To:        to.ID,
		Reason:    reason,
		Timestamp: now,
	})
	if len(st.History) > maxHistory {
		st.History = st.History[len(st.History)-maxHistory:]
	}
	return o.store.Save(*st)
}

// nextAvailableModel walks the chain in order after the primary and returns
// the first model whose own tracked usage is below 100%.
func (o *Orchestrator) nextAvailableModel() (state.ChainModel, bool) {
	limits := o.limits.Load()
	for _, m := range state.FallbackChain[1:] {
		if o.modelAvailable(m, limits) {
			return m, true
		}
	}
	return state.ChainModel{}, false
}

func (o *Orchestrator) modelAvailable(m state.ChainModel, limits state.ProviderLimits) bool {
	switch m.Provider {
	case "openai":
		return limits.OpenAI.Requests.Percent < 100 && limits.OpenAI.Tokens.Percent < 100
	case "gemini":
		if limits.Gemini.Is429 {
			return false
		}
		rpm := limits.Gemini.RPM
		return rpm.Limit == 0 || rpm.Used < rpm.Limit
	}
	return true
}

type handoffContext struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// writeHandoff drops a handoff context artifact for the receiving model.
// Best effort only: a failed write never aborts or rolls back the fallback
// transition.
func (o *Orchestrator) writeHandoff(from, to, reason string) {
	if err := os.MkdirAll(o.handoffDir, 0o700); err != nil {
		return
	}
	ctx := handoffContext{
		ID:        xid.New().String(),
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: o.now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(o.handoffDir, ctx.ID+".json")
	_ = os.WriteFile(path, data, 0o600)
}
