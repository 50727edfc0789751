package router

import (
	"fmt"
	"strings"

	"github.com/DrFREEST/omcm/state"
)

const (
	// DefaultThreshold is the Claude usage percentage at which tasks are
	// routed away unconditionally.
	DefaultThreshold = 90

	// largeTaskPromptChars is the prompt length beyond which a task is
	// considered large regardless of keywords.
	largeTaskPromptChars = 500

	// sessionTokenFloor is the session Claude input-token count at which
	// tiered level routing starts.
	sessionTokenFloor = 5_000_000
)

// DefaultLargeTaskKeywords marks prompts describing sweeping changes. The
// list is bilingual because task prompts arrive in both English and Korean;
// it is overridable through configuration.
var DefaultLargeTaskKeywords = []string{
	"refactor", "리팩토링",
	"all files", "모든 파일",
	"entire", "전체",
	"complete", "전부",
	"migrate", "마이그레이션",
}

// tokenSavingRoles is the fixed allow-list for save-tokens mode: analysis,
// review, research and design roles. Execution, testing, planning,
// verification, git and product-manager roles stay local.
var tokenSavingRoles = map[string]bool{
	"architect":        true,
	"system-architect": true,
	"designer":         true,
	"api-designer":     true,
	"analyst":          true,
	"researcher":       true,
	"scientist":        true,
	"explorer":         true,
	"reviewer":         true,
	"code-reviewer":    true,
	"documenter":       true,
}

// routingLevel is one tier of the session-token threshold ladder. Higher
// tiers unlock routing for more roles.
type routingLevel struct {
	name      string
	minTokens uint64
	roles     map[string]bool
	allRoles  bool
}

var routingLevels = []routingLevel{
	{name: "aggressive", minTokens: 20_000_000, allRoles: true},
	{name: "extended", minTokens: 10_000_000, roles: mergeRoleSets(tokenSavingRoles, map[string]bool{
		"executor": true, "deep-executor": true, "coder": true, "debugger": true,
	})},
	{name: "standard", minTokens: sessionTokenFloor, roles: tokenSavingRoles},
}

func mergeRoleSets(sets ...map[string]bool) map[string]bool {
	merged := map[string]bool{}
	for _, s := range sets {
		for k, v := range s {
			merged[k] = v
		}
	}
	return merged
}

// Options carries the configuration inputs to a decision.
type Options struct {
	FusionDefault     bool
	FusionMode        string // local config fusion mode; "always" ignores delegation deferral
	DelegationActive  bool   // the external orchestrator's own delegation routing is on
	Threshold         uint64
	LargeTaskKeywords []string
	EcoMode           bool
}

func (o Options) threshold() uint64 {
	if o.Threshold == 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

func (o Options) keywords() []string {
	if len(o.LargeTaskKeywords) == 0 {
		return DefaultLargeTaskKeywords
	}
	return o.LargeTaskKeywords
}

// Deps is the frozen state snapshot a decision is computed against. Given
// identical Deps and input, the decision is identical: the engine reads no
// clocks and mutates nothing.
type Deps struct {
	Fusion        state.FusionState
	FusionPresent bool
	Fallback      state.FallbackState
	Usage         Usage
}

// Engine computes routing decisions.
type Engine struct {
	opts   Options
	mapper *Mapper
}

func NewEngine(opts Options, mapper *Mapper) *Engine {
	if mapper == nil {
		mapper = NewMapper()
	}
	return &Engine{opts: opts, mapper: mapper}
}

// Decide runs the core branch ladder. The branch order is load-bearing:
// earlier branches always win, see the decision tests for the pairwise
// precedence cases.
func (e *Engine) Decide(in ToolInput, deps Deps) Decision {
	// 1. An active external delegation layer owns routing unless fusion is
	// forced on locally.
	if e.opts.DelegationActive && e.opts.FusionMode != "always" {
		return noRoute("omc-delegation-deferred")
	}

	// 2. Fusion off (or never initialized) means hands off, unless the
	// fusion-default config flag overrides.
	if !e.opts.FusionDefault {
		if !deps.FusionPresent || !deps.Fusion.Enabled {
			return noRoute("fusion-disabled")
		}
	}

	// 3. Active fallback routes everything to whatever model the fallback
	// state already selected.
	if deps.Fallback.FallbackActive {
		m := state.ChainModelByID(deps.Fallback.CurrentModel)
		return Decision{
			Route:         true,
			Reason:        "fallback-active",
			OpenCodeAgent: m.Agent,
			TargetModel:   &ModelInfo{ID: m.ID, Name: m.Name},
		}
	}

	role := in.Role()

	// 4. Claude hard limit.
	if pct := deps.Usage.Max(); pct >= e.opts.threshold() {
		return e.route(fmt.Sprintf("claude-limit-%d%%", pct), role)
	}

	// 5. Large-task heuristic. Planner tasks stay local regardless.
	if role != "planner" && e.isLargeTask(in.Prompt) {
		return e.route("large-task-"+role, role)
	}

	// 6. Session-token threshold ladder.
	sessionTokens := deps.Fusion.ActualTokens["claude"].Input
	if sessionTokens >= sessionTokenFloor {
		for _, level := range routingLevels {
			if sessionTokens < level.minTokens {
				continue
			}
			if (level.allRoles && role != "planner") || level.roles[role] {
				d := e.route(fmt.Sprintf("session-token-%s-%s", level.name, role), role)
				d.RoutingLevel = level.name
				return d
			}
			break // only the highest qualifying level is consulted
		}
	}

	// 7. Mode-driven routing.
	if e.opts.FusionDefault {
		if role != "planner" {
			return e.route("fusion-default-"+role, role)
		}
	} else if deps.Fusion.Mode == state.ModeSaveTokens {
		if tokenSavingRoles[role] {
			return e.route("token-saving-agent-"+role, role)
		}
	}

	// 8.
	return noRoute("no-routing-needed")
}

// route resolves the mapped agent and model for the requested role. Role
// resolution failure (empty role) degrades to not routing: internal failures
// must be indistinguishable from "routing declined".
func (e *Engine) route(reason, role string) Decision {
	agent, err := e.mapper.MapAgent(role)
	if err != nil {
		return noRoute("no-routing-needed")
	}
	model := e.mapper.ModelInfo(agent)
	return Decision{Route: true, Reason: reason, OpenCodeAgent: agent, TargetModel: &model}
}

func (e *Engine) isLargeTask(prompt string) bool {
	if len(prompt) > largeTaskPromptChars {
		return true
	}
	lower := strings.ToLower(prompt)
	for _, kw := range e.opts.keywords() {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// complexity tiers a prompt for rule conditions. Large-task signals mean
// high; prompts past half the large-task bar count as medium.
func (e *Engine) complexity(prompt string) string {
	switch {
	case e.isLargeTask(prompt):
		return "high"
	case len(prompt) > largeTaskPromptChars/2:
		return "medium"
	default:
		return "low"
	}
}

// Context assembles the rules-engine context for an input and dependency
// snapshot.
func (e *Engine) Context(in ToolInput, deps Deps) Context {
	return Context{
		AgentRole:          in.Role(),
		PromptLength:       len(in.Prompt),
		TaskComplexity:     e.complexity(in.Prompt),
		Usage:              deps.Usage,
		FusionEnabled:      deps.Fusion.Enabled,
		FusionMode:         deps.Fusion.Mode,
		FusionDefault:      e.opts.FusionDefault,
		FallbackActive:     deps.Fallback.FallbackActive,
		SessionClaudeInput: deps.Fusion.ActualTokens["claude"].Input,
		EcoMode:            e.opts.EcoMode,
	}
}

// DecideV2 layers the decision cache and the declarative rules engine over
// the core ladder. The cache is consulted first; the rules run after the
// delegation, disabled and fallback branches and before the hard-limit
// branch. When neither produces a verdict the core branches decide, so the
// rules engine is strictly additive.
func (e *Engine) DecideV2(in ToolInput, deps Deps, cache *Cache, rules *RulesEngine) Decision {
	ctx := e.Context(in, deps)
	largeTask := e.isLargeTask(in.Prompt)

	if cache != nil {
		if d, ok := cache.Get(in.SubagentType, ctx, largeTask); ok {
			return d
		}
	}

	d, decided := e.decideV2(in, deps, ctx, rules)
	if !decided {
		d = e.Decide(in, deps)
	}
	if cache != nil {
		cache.Set(in.SubagentType, ctx, largeTask, d)
	}
	return d
}

// decideV2 runs branches 1-3, then the rules engine. The bool reports
// whether a final verdict was reached; false falls back to the full core
// ladder (whose branches 1-3 re-evaluate identically).
func (e *Engine) decideV2(in ToolInput, deps Deps, ctx Context, rules *RulesEngine) (Decision, bool) {
	if e.opts.DelegationActive && e.opts.FusionMode != "always" {
		return noRoute("omc-delegation-deferred"), true
	}
	if !e.opts.FusionDefault && (!deps.FusionPresent || !deps.Fusion.Enabled) {
		return noRoute("fusion-disabled"), true
	}
	if deps.Fallback.FallbackActive {
		m := state.ChainModelByID(deps.Fallback.CurrentModel)
		return Decision{
			Route:         true,
			Reason:        "fallback-active",
			OpenCodeAgent: m.Agent,
			TargetModel:   &ModelInfo{ID: m.ID, Name: m.Name},
		}, true
	}

	if rules == nil {
		return Decision{}, false
	}
	res := rules.Evaluate(ctx)
	if !res.Matched {
		return Decision{}, false
	}
	role := in.Role()
	switch res.Action {
	case ActionForceOpenCode, ActionPreferOpenCode:
		return e.route("rule-"+res.Rule.ID, role), true
	case ActionForceClaude:
		return noRoute("rule-" + res.Rule.ID), true
	case ActionBlock:
		return noRoute("blocked-by-rule-" + res.Rule.ID), true
	case ActionPreferClaude:
		// Soft recommendation: the hard-limit and threshold branches may
		// still override it.
		return Decision{}, false
	}
	return Decision{}, false
}
