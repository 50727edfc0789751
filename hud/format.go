package hud

import (
	"fmt"
	"slices"
	"strings"
)

// MetricFormatter formats an agent's metrics into plain-text display lines.
type MetricFormatter func(agent string, metrics []MetricSummary) []string

var formatRegistry = map[string]MetricFormatter{
	"claude_code.": formatClaudeCode,
}

// FormatAgent formats all metrics for a single agent. Metrics matching a
// registered prefix use the agent-specific formatter; the rest use the
// generic one.
func FormatAgent(agent string, metrics []MetricSummary) []string {
	if len(metrics) == 0 {
		return nil
	}

	matched := make(map[string][]MetricSummary)
	var unmatched []MetricSummary

	for _, m := range metrics {
		prefix := detectPrefix(m.Name)
		if prefix != "" {
			matched[prefix] = append(matched[prefix], m)
		} else {
			unmatched = append(unmatched, m)
		}
	}

	prefixes := make([]string, 0, len(matched))
	for p := range matched {
		prefixes = append(prefixes, p)
	}
	slices.Sort(prefixes)

	var lines []string
	for _, prefix := range prefixes {
		lines = append(lines, formatRegistry[prefix](agent, matched[prefix])...)
	}
	if len(unmatched) > 0 {
		lines = append(lines, formatGeneric(agent, unmatched)...)
	}
	return lines
}

func detectPrefix(name string) string {
	for prefix := range formatRegistry {
		if strings.HasPrefix(name, prefix) {
			return prefix
		}
	}
	return ""
}

func formatClaudeCode(_ string, metrics []MetricSummary) []string {
	var (
		model                       string
		cost                        float64
		tokInput, tokOutput         float64
		tokCacheRead, tokCacheWrite float64
		sessions                    float64
	)

	for _, m := range metrics {
		if model == "" {
			if v, ok := m.Attributes["model"]; ok {
				model = v
			}
		}
		switch m.Name {
		case "claude_code.cost.usage":
			cost += m.Value
		case "claude_code.token.usage":
			switch m.Attributes["type"] {
			case "input":
				tokInput += m.Value
			case "output":
				tokOutput += m.Value
			case "cacheRead":
				tokCacheRead += m.Value
			case "cacheCreation":
				tokCacheWrite += m.Value
			}
		case "claude_code.session.count":
			sessions += m.Value
		}
	}

	var lines []string
	if model != "" {
		lines = append(lines, fmt.Sprintf("  Model:    %s", model))
	}
	if cost > 0 {
		lines = append(lines, fmt.Sprintf("  Cost:     $%.4g", cost))
	}
	if tokInput > 0 || tokOutput > 0 || tokCacheRead > 0 || tokCacheWrite > 0 {
		var parts []string
		if tokInput > 0 {
			parts = append(parts, fmt.Sprintf("%g input", tokInput))
		}
		if tokOutput > 0 {
			parts = append(parts, fmt.Sprintf("%g output", tokOutput))
		}
		if tokCacheRead > 0 {
			parts = append(parts, fmt.Sprintf("%g cache read", tokCacheRead))
		}
		if tokCacheWrite > 0 {
			parts = append(parts, fmt.Sprintf("%g cache write", tokCacheWrite))
		}
		lines = append(lines, fmt.Sprintf("  Tokens:   %s", strings.Join(parts, "  ")))
	}
	if sessions > 0 {
		lines = append(lines, fmt.Sprintf("  Sessions: %g", sessions))
	}
	return lines
}

func formatGeneric(_ string, metrics []MetricSummary) []string {
	lines := make([]string, 0, len(metrics))
	for _, m := range metrics {
		label := m.Name
		if t := m.Attributes["type"]; t != "" {
			label += " (" + t + ")"
		}
		lines = append(lines, fmt.Sprintf("  %-32s %g", label, m.Value))
	}
	return lines
}
