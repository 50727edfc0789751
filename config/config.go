// Package config loads the optional user configuration and detects the
// external tools whose presence changes routing behavior.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/DrFREEST/omcm/router"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/triggers"
)

// RoutingConfig tunes the decision heuristics.
type RoutingConfig struct {
	Threshold         uint64   `koanf:"threshold"`
	LargeTaskKeywords []string `koanf:"large-task-keywords"`
	EcoMode           bool     `koanf:"eco-mode"`
}

// ContextConfig tunes session context housekeeping.
type ContextConfig struct {
	SessionMaxAgeDays int `koanf:"session-max-age-days"`
}

// Config is the recognized option surface. Unknown keys in the file are
// ignored; a missing file yields all defaults.
type Config struct {
	FusionDefault bool               `koanf:"fusionDefault"`
	FusionMode    string             `koanf:"fusionMode"`
	Threshold     uint64             `koanf:"threshold"`
	Routing       RoutingConfig      `koanf:"routing"`
	Context       ContextConfig      `koanf:"context"`
	Triggers      triggers.Overrides `koanf:"triggers"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Context: ContextConfig{SessionMaxAgeDays: 7},
	}
}

// Load reads config.json (preferred) or config.yaml from the state
// directory. Parse errors are swallowed like a missing file: user config
// can never break a hook invocation.
func Load(paths state.Paths) Config {
	cfg := Default()
	for _, path := range []string{paths.ConfigFile(), paths.ConfigFileYAML()} {
		if loadFile(path, &cfg) {
			break
		}
	}
	return cfg
}

// loadFile parses one config file into target, reporting whether the file
// existed and parsed.
func loadFile(path string, target any) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	var parser koanf.Parser = json.Parser()
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		parser = yaml.Parser()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return false
	}
	if err := k.Unmarshal("", target); err != nil {
		return false
	}
	return true
}

// EffectiveThreshold resolves the two places a threshold can be set. The
// flat top-level key is the documented one, routing.threshold wins when
// both are present.
func (c Config) EffectiveThreshold() uint64 {
	if c.Routing.Threshold != 0 {
		return c.Routing.Threshold
	}
	return c.Threshold
}

// RouterOptions converts the config into decision-engine options.
// delegationActive comes from detection, not from the file.
func (c Config) RouterOptions(delegationActive bool) router.Options {
	return router.Options{
		FusionDefault:     c.FusionDefault,
		FusionMode:        c.FusionMode,
		DelegationActive:  delegationActive,
		Threshold:         c.EffectiveThreshold(),
		LargeTaskKeywords: c.Routing.LargeTaskKeywords,
		EcoMode:           c.Routing.EcoMode,
	}
}
