package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// omcConfig is the subset of the oh-my-claudecode configuration this core
// inspects. The file belongs to a sibling tool and is only ever read.
type omcConfig struct {
	Delegation struct {
		Enabled bool `json:"enabled"`
	} `json:"delegation"`
	DelegationEnabled bool `json:"delegationEnabled"`
}

// delegationConfigPaths lists where the sibling orchestrator keeps its
// config, checked in order.
func delegationConfigPaths(home string) []string {
	return []string{
		filepath.Join(home, ".claude", "oh-my-claudecode", "config.json"),
		filepath.Join(home, ".oh-my-claudecode", "config.json"),
	}
}

// DetectDelegation reports whether the external orchestrator's own delegation
// routing is active. A missing or unparseable file means "not active":
// deferring to a tool that isn't there would silence routing entirely.
func DetectDelegation() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return detectDelegationIn(delegationConfigPaths(home))
}

func detectDelegationIn(paths []string) bool {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg omcConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			continue
		}
		if cfg.Delegation.Enabled || cfg.DelegationEnabled {
			return true
		}
	}
	return false
}

// CodexInfo describes a locally installed Codex CLI as read from its
// config.toml.
type CodexInfo struct {
	Installed bool
	Model     string
	Profile   string
}

type codexConfig struct {
	Model   string `toml:"model"`
	Profile string `toml:"profile"`
}

// DetectCodex probes for the Codex CLI configuration. Used by the status
// surface to show which model a routed Codex call would actually hit.
func DetectCodex() CodexInfo {
	home, err := os.UserHomeDir()
	if err != nil {
		return CodexInfo{}
	}
	return detectCodexAt(filepath.Join(home, ".codex", "config.toml"))
}

func detectCodexAt(path string) CodexInfo {
	var cfg codexConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return CodexInfo{}
	}
	return CodexInfo{Installed: true, Model: cfg.Model, Profile: cfg.Profile}
}
