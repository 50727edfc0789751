package router

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target agent identities. Each maps to one model bucket below.
const (
	AgentCodex  = "Codex"  // GPT-Codex bucket, the default
	AgentOracle = "Oracle" // GPT-Oracle bucket
	AgentFlash  = "Flash"  // Gemini bucket
)

// staticMapping maps agent roles to external agent identities. Roles not
// listed here fall through to the build default (Codex).
var staticMapping = map[string]string{
	"architect":        AgentOracle,
	"system-architect": AgentOracle,
	"designer":         AgentOracle,
	"api-designer":     AgentOracle,
	"analyst":          AgentOracle,

	"researcher": AgentFlash,
	"scientist":  AgentFlash,
	"explorer":   AgentFlash,
	"documenter": AgentFlash,

	"executor":      AgentCodex,
	"deep-executor": AgentCodex,
	"build":         AgentCodex,
	"coder":         AgentCodex,
	"reviewer":      AgentCodex,
	"code-reviewer": AgentCodex,
	"tester":        AgentCodex,
	"debugger":      AgentCodex,
}

var modelBuckets = map[string]ModelInfo{
	AgentCodex:  {ID: "gpt-5.3-codex", Name: "GPT-5.3 Codex"},
	AgentOracle: {ID: "gpt-5.3", Name: "GPT-5.3 Oracle"},
	AgentFlash:  {ID: "gemini-3-flash", Name: "Gemini 3 Flash"},
}

// MappingEntry is one dynamic overlay record extending or overriding the
// static table.
type MappingEntry struct {
	Source   []string `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	Provider string   `json:"provider" yaml:"provider"`
	Model    string   `json:"model" yaml:"model"`
	Tier     string   `json:"tier" yaml:"tier"`
}

// Mapper resolves agent roles to external agent identities, combining the
// static table with an optional overlay loaded from disk.
type Mapper struct {
	overlay map[string]string
	models  map[string]ModelInfo
}

// NewMapper returns a Mapper with no overlay.
func NewMapper() *Mapper {
	return &Mapper{overlay: map[string]string{}, models: map[string]ModelInfo{}}
}

// LoadMapper reads an overlay file (YAML or JSON list of MappingEntry) and
// merges it over the static table. A missing file is not an error: the
// static table alone governs.
func LoadMapper(path string) (*Mapper, error) {
	m := NewMapper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, err
	}

	var entries []MappingEntry
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &entries)
	} else {
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return m, fmt.Errorf("parse mapping overlay: %w", err)
	}

	for _, e := range entries {
		if e.Target == "" {
			continue
		}
		for _, alias := range e.Source {
			m.overlay[strings.ToLower(alias)] = e.Target
		}
		if e.Model != "" {
			m.models[e.Target] = ModelInfo{ID: e.Model, Name: e.Target}
		}
	}
	return m, nil
}

// MapAgent resolves an agent role to its external agent identity. Unknown
// roles resolve to the build default; an empty role is a programming error
// at the call site and is rejected so callers guard before resolving.
func (m *Mapper) MapAgent(role string) (string, error) {
	if role == "" {
		return "", fmt.Errorf("agent role must not be empty")
	}
	role = strings.ToLower(role)
	if target, ok := m.overlay[role]; ok {
		return target, nil
	}
	if target, ok := staticMapping[role]; ok {
		return target, nil
	}
	return AgentCodex, nil
}

// ModelInfo returns the provider model for a target agent identity,
// consulting overlay-declared models first.
func (m *Mapper) ModelInfo(agent string) ModelInfo {
	if info, ok := m.models[agent]; ok {
		return info
	}
	return ModelInfoForAgent(agent)
}

// MapAgentToOpenCode resolves a role against the static table only.
func MapAgentToOpenCode(role string) (string, error) {
	return NewMapper().MapAgent(role)
}

// ModelInfoForAgent maps a target agent identity to its model bucket.
// Unrecognized identities land in the GPT-Codex bucket.
func ModelInfoForAgent(agent string) ModelInfo {
	if info, ok := modelBuckets[agent]; ok {
		return info
	}
	return modelBuckets[AgentCodex]
}

// ProviderForAgent returns the provider a target agent identity bills
// against.
func ProviderForAgent(agent string) string {
	if agent == AgentFlash {
		return "gemini"
	}
	return "openai"
}
