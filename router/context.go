// Package router decides, per agent task, whether execution stays with
// Claude or is handed to an external CLI. The decision engine evaluates a
// fixed branch order over fusion, fallback and provider-limit state; a
// declarative rules engine and an LRU decision cache layer on top of it.
package router

import (
	"fmt"
	"strings"
)

// ToolInput is the Task tool payload the hook receives on PreToolUse.
type ToolInput struct {
	SubagentType string `json:"subagent_type"`
	Prompt       string `json:"prompt"`
	Description  string `json:"description,omitempty"`
}

// Role returns the abstract agent role: the subagent type with any
// plugin-namespace prefix (e.g. "oh-my-claudecode:") stripped.
func (t ToolInput) Role() string {
	if idx := strings.LastIndexByte(t.SubagentType, ':'); idx >= 0 {
		return t.SubagentType[idx+1:]
	}
	return t.SubagentType
}

// Usage carries the Claude rate-limit percentages the decision compares
// against.
type Usage struct {
	FiveHour uint64
	Weekly   uint64
}

func (u Usage) Max() uint64 {
	if u.Weekly > u.FiveHour {
		return u.Weekly
	}
	return u.FiveHour
}

// Context is the explicit, typed routing context. Rule conditions address
// its fields through dot paths; Field is the only lookup mechanism -- no
// function calls, no side effects.
type Context struct {
	AgentRole          string
	PromptLength       int
	Usage              Usage
	FusionEnabled      bool
	FusionMode         string
	FusionDefault      bool
	FallbackActive     bool
	SessionClaudeInput uint64
	EcoMode            bool
	TaskComplexity     string
}

// Field resolves a dot-path to a context value. The known paths are the
// closed set rule conditions may reference; anything else resolves to
// (nil, false) and the referencing rule simply never matches.
func (c Context) Field(path string) (any, bool) {
	switch path {
	case "usage.fiveHour":
		return float64(c.Usage.FiveHour), true
	case "usage.weekly":
		return float64(c.Usage.Weekly), true
	case "usage.max":
		return float64(c.Usage.Max()), true
	case "fusion.enabled":
		return c.FusionEnabled, true
	case "fusion.mode":
		return c.FusionMode, true
	case "fusion.default":
		return c.FusionDefault, true
	case "fallback.active":
		return c.FallbackActive, true
	case "session.claudeInputTokens":
		return float64(c.SessionClaudeInput), true
	case "agent.role":
		return c.AgentRole, true
	case "task.promptLength":
		return float64(c.PromptLength), true
	case "task.complexity":
		return c.TaskComplexity, true
	case "config.ecoMode":
		return c.EcoMode, true
	}
	return nil, false
}

// ModelInfo identifies a concrete provider model.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Decision is the routing verdict for one task.
type Decision struct {
	Route         bool       `json:"route"`
	Reason        string     `json:"reason"`
	TargetModel   *ModelInfo `json:"targetModel,omitempty"`
	OpenCodeAgent string     `json:"opencodeAgent,omitempty"`
	RoutingLevel  string     `json:"routingLevel,omitempty"`
}

func noRoute(reason string) Decision {
	return Decision{Route: false, Reason: reason}
}

// cacheKey serializes the decision-relevant subset of the context. The free
// prompt text is deliberately excluded so keys stay bounded and reusable
// across near-identical calls; only the derived large-task signals go in.
func cacheKey(agentType string, ctx Context, largeTask bool) string {
	return fmt.Sprintf("%s|%d|%d|%t|%s|%t|%t|%d|%t|%t|%s",
		agentType,
		ctx.Usage.FiveHour, ctx.Usage.Weekly,
		ctx.FusionEnabled, ctx.FusionMode, ctx.FusionDefault,
		ctx.FallbackActive, ctx.SessionClaudeInput,
		ctx.EcoMode, largeTask, ctx.TaskComplexity)
}
