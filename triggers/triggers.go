// Package triggers evaluates secondary switch signals against configurable
// thresholds. It is purely advisory: callers surface the recommendation, the
// routing decision path never consumes it directly.
package triggers

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix is prepended to every threshold override environment variable.
const EnvPrefix = "OMCM_TRIGGER_"

// Recommended actions, strongest first. When several checks fire at once the
// strongest action wins.
const (
	ActionForceOpenCode    = "force_opencode"
	ActionFallbackOpenCode = "fallback_opencode"
	ActionSuggestDowngrade = "suggest_downgrade"
	ActionSwitchModel      = "switch_model"
	ActionSuggestOpenCode  = "suggest_opencode"
)

var actionRank = map[string]int{
	ActionForceOpenCode:    5,
	ActionFallbackOpenCode: 4,
	ActionSuggestDowngrade: 3,
	ActionSwitchModel:      2,
	ActionSuggestOpenCode:  1,
}

// Metrics carries the observed values. A nil field means the metric was not
// collected, and its check is skipped entirely.
type Metrics struct {
	HourlyRequests      *uint64  `json:"hourlyRequests,omitempty"`
	SessionCostUSD      *float64 `json:"sessionCostUsd,omitempty"`
	ConsecutiveMCPFails *uint64  `json:"consecutiveMcpFails,omitempty"`
	AvgLatencyMS        *float64 `json:"avgLatencyMs,omitempty"`
	TokensPerMinute     *uint64  `json:"tokensPerMinute,omitempty"`
}

// Thresholds holds the effective limits after override resolution.
type Thresholds struct {
	HourlyRequestLimit uint64  `json:"hourlyRequestLimit"`
	CostBudgetUSD      float64 `json:"costBudgetUsd"`
	MCPFailureLimit    uint64  `json:"mcpFailureLimit"`
	LatencyLimitMS     float64 `json:"latencyLimitMs"`
	TokenBurnLimit     uint64  `json:"tokenBurnLimit"`
}

// Overrides are explicit per-call threshold overrides. They beat both the
// defaults and any environment variables.
type Overrides struct {
	HourlyRequestLimit *uint64  `json:"hourlyRequestLimit,omitempty" koanf:"hourly-request-limit"`
	CostBudgetUSD      *float64 `json:"costBudgetUsd,omitempty" koanf:"cost-budget-usd"`
	MCPFailureLimit    *uint64  `json:"mcpFailureLimit,omitempty" koanf:"mcp-failure-limit"`
	LatencyLimitMS     *float64 `json:"latencyLimitMs,omitempty" koanf:"latency-limit-ms"`
	TokenBurnLimit     *uint64  `json:"tokenBurnLimit,omitempty" koanf:"token-burn-limit"`
}

// Hit is one tripped threshold.
type Hit struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	Severity  string  `json:"severity"`
	Reason    string  `json:"reason"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Result reports every tripped check from one evaluation.
type Result struct {
	Triggered bool  `json:"triggered"`
	Triggers  []Hit `json:"triggers"`
}

// Recommendation is the single action distilled from a set of hits.
type Recommendation struct {
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// DefaultThresholds returns the built-in limits before any overrides.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HourlyRequestLimit: 60,
		CostBudgetUSD:      5.0,
		MCPFailureLimit:    3,
		LatencyLimitMS:     30_000,
		TokenBurnLimit:     50_000,
	}
}

// ResolveThresholds layers defaults, then OMCM_TRIGGER_* environment
// variables, then explicit overrides. A malformed environment value is
// ignored, not an error.
func ResolveThresholds(o *Overrides) Thresholds {
	t := DefaultThresholds()

	if v, ok := envUint("HOURLY_REQUEST_LIMIT"); ok {
		t.HourlyRequestLimit = v
	}
	if v, ok := envFloat("COST_BUDGET_USD"); ok {
		t.CostBudgetUSD = v
	}
	if v, ok := envUint("MCP_FAILURE_LIMIT"); ok {
		t.MCPFailureLimit = v
	}
	if v, ok := envFloat("LATENCY_LIMIT_MS"); ok {
		t.LatencyLimitMS = v
	}
	if v, ok := envUint("TOKEN_BURN_LIMIT"); ok {
		t.TokenBurnLimit = v
	}

	if o != nil {
		if o.HourlyRequestLimit != nil {
			t.HourlyRequestLimit = *o.HourlyRequestLimit
		}
		if o.CostBudgetUSD != nil {
			t.CostBudgetUSD = *o.CostBudgetUSD
		}
		if o.MCPFailureLimit != nil {
			t.MCPFailureLimit = *o.MCPFailureLimit
		}
		if o.LatencyLimitMS != nil {
			t.LatencyLimitMS = *o.LatencyLimitMS
		}
		if o.TokenBurnLimit != nil {
			t.TokenBurnLimit = *o.TokenBurnLimit
		}
	}
	return t
}

// Evaluate runs all five threshold checks against the supplied metrics.
// Checks whose metric is absent are skipped.
func Evaluate(m Metrics, o *Overrides) Result {
	t := ResolveThresholds(o)
	var hits []Hit

	if m.ConsecutiveMCPFails != nil && *m.ConsecutiveMCPFails >= t.MCPFailureLimit {
		hits = append(hits, Hit{
			ID:        "mcp-failures",
			Action:    ActionForceOpenCode,
			Severity:  "critical",
			Reason:    fmt.Sprintf("%d consecutive MCP failures (limit %d)", *m.ConsecutiveMCPFails, t.MCPFailureLimit),
			Value:     float64(*m.ConsecutiveMCPFails),
			Threshold: float64(t.MCPFailureLimit),
		})
	}
	if m.SessionCostUSD != nil && *m.SessionCostUSD >= t.CostBudgetUSD {
		hits = append(hits, Hit{
			ID:        "cost-budget",
			Action:    ActionFallbackOpenCode,
			Severity:  "high",
			Reason:    fmt.Sprintf("session cost $%.2f over budget $%.2f", *m.SessionCostUSD, t.CostBudgetUSD),
			Value:     *m.SessionCostUSD,
			Threshold: t.CostBudgetUSD,
		})
	}
	if m.TokensPerMinute != nil && *m.TokensPerMinute >= t.TokenBurnLimit {
		hits = append(hits, Hit{
			ID:        "token-burn",
			Action:    ActionSuggestDowngrade,
			Severity:  "high",
			Reason:    fmt.Sprintf("token burn %d/min over limit %d/min", *m.TokensPerMinute, t.TokenBurnLimit),
			Value:     float64(*m.TokensPerMinute),
			Threshold: float64(t.TokenBurnLimit),
		})
	}
	if m.AvgLatencyMS != nil && *m.AvgLatencyMS >= t.LatencyLimitMS {
		hits = append(hits, Hit{
			ID:        "latency",
			Action:    ActionSwitchModel,
			Severity:  "medium",
			Reason:    fmt.Sprintf("average latency %.0fms over limit %.0fms", *m.AvgLatencyMS, t.LatencyLimitMS),
			Value:     *m.AvgLatencyMS,
			Threshold: t.LatencyLimitMS,
		})
	}
	if m.HourlyRequests != nil && *m.HourlyRequests >= t.HourlyRequestLimit {
		hits = append(hits, Hit{
			ID:        "hourly-rate",
			Action:    ActionSuggestOpenCode,
			Severity:  "medium",
			Reason:    fmt.Sprintf("%d requests this hour (limit %d)", *m.HourlyRequests, t.HourlyRequestLimit),
			Value:     float64(*m.HourlyRequests),
			Threshold: float64(t.HourlyRequestLimit),
		})
	}

	return Result{Triggered: len(hits) > 0, Triggers: hits}
}

// RecommendedAction picks the strongest action among the hits. The reason is
// the winning hit's, suffixed with how many other checks co-triggered.
func RecommendedAction(hits []Hit) *Recommendation {
	if len(hits) == 0 {
		return nil
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if actionRank[h.Action] > actionRank[best.Action] {
			best = h
		}
	}
	reason := best.Reason
	if extra := len(hits) - 1; extra > 0 {
		reason = fmt.Sprintf("%s (+%d more)", reason, extra)
	}
	return &Recommendation{Action: best.Action, Reason: reason, Severity: best.Severity}
}

func envUint(name string) (uint64, bool) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
