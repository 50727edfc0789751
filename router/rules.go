package router

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Rule actions. prefer_* is a soft recommendation the decision engine may
// override; force_* compels the choice; block refuses the tool call.
const (
	ActionPreferOpenCode = "prefer_opencode"
	ActionForceOpenCode  = "force_opencode"
	ActionPreferClaude   = "prefer_claude"
	ActionForceClaude    = "force_claude"
	ActionBlock          = "block"
	ActionDefault        = "default"
)

// Rule is one declarative condition→action routing rule.
type Rule struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Priority  int    `json:"priority"`
}

// RuleResult is the outcome of evaluating the rule set against a context.
type RuleResult struct {
	Matched bool
	Action  string
	Rule    *Rule
}

// RulesEngine evaluates an ordered rule list; first match by descending
// priority wins.
type RulesEngine struct {
	rules []Rule
}

// DefaultRules is the built-in rule set used when no rules file is present.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "claude-five-hour-high", Condition: "usage.fiveHour > 90", Action: ActionPreferOpenCode, Priority: 100},
		{ID: "claude-weekly-high", Condition: "usage.weekly > 85", Action: ActionPreferOpenCode, Priority: 90},
		{ID: "eco-mode", Condition: "config.ecoMode == true", Action: ActionPreferOpenCode, Priority: 80},
		{ID: "high-complexity-task", Condition: "task.complexity == 'high'", Action: ActionPreferClaude, Priority: 70},
		{ID: "security-sensitive-agent", Condition: "agent.role == 'security-reviewer'", Action: ActionForceClaude, Priority: 60},
	}
}

// NewRulesEngine sorts rules once by descending priority.
func NewRulesEngine(rules []Rule) *RulesEngine {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return &RulesEngine{rules: sorted}
}

// LoadRulesEngine reads a rules JSON file, falling back to the built-in
// defaults when the file is missing or unparseable.
func LoadRulesEngine(path string) *RulesEngine {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewRulesEngine(DefaultRules())
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil || len(rules) == 0 {
		return NewRulesEngine(DefaultRules())
	}
	return NewRulesEngine(rules)
}

// Evaluate walks the rules in priority order and returns on the first whose
// condition holds. No match yields {Matched:false, Action:"default"} so the
// caller falls through to the core decision branches.
func (e *RulesEngine) Evaluate(ctx Context) RuleResult {
	for i := range e.rules {
		if evalCondition(e.rules[i].Condition, ctx) {
			return RuleResult{Matched: true, Action: e.rules[i].Action, Rule: &e.rules[i]}
		}
	}
	return RuleResult{Matched: false, Action: ActionDefault}
}

// Rules returns the engine's rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	return e.rules
}

// evalCondition evaluates a single "path op literal" predicate against the
// context. The grammar is deliberately restricted to comparisons over named
// fields: there is no arbitrary expression evaluation.
func evalCondition(cond string, ctx Context) bool {
	path, op, lit, ok := splitCondition(cond)
	if !ok {
		return false
	}
	val, ok := ctx.Field(path)
	if !ok {
		return false
	}

	switch v := val.(type) {
	case float64:
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return false
		}
		switch op {
		case ">":
			return v > n
		case "<":
			return v < n
		case ">=":
			return v >= n
		case "<=":
			return v <= n
		case "==":
			return v == n
		case "!=":
			return v != n
		}
	case bool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			return false
		}
		switch op {
		case "==":
			return v == b
		case "!=":
			return v != b
		}
	case string:
		s := strings.Trim(lit, "'\"")
		switch op {
		case "==":
			return v == s
		case "!=":
			return v != s
		}
	}
	return false
}

// splitCondition parses "path op literal". Two-character operators are
// checked before their one-character prefixes.
func splitCondition(cond string) (path, op, lit string, ok bool) {
	for _, candidate := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if idx := strings.Index(cond, candidate); idx > 0 {
			path = strings.TrimSpace(cond[:idx])
			lit = strings.TrimSpace(cond[idx+len(candidate):])
			if path == "" || lit == "" {
				return "", "", "", false
			}
			return path, candidate, lit, true
		}
	}
	return "", "", "", false
}
