package state

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const dirName = ".omcm"

// Paths resolves the on-disk locations of all OMCM state files. Everything
// lives under a dotfile directory in the user's home, optionally namespaced
// per session under sessions/<sessionID>/.
type Paths struct {
	Base string
}

// DefaultPaths returns the standard state location: $OMCM_HOME if set,
// otherwise ~/.omcm.
func DefaultPaths() Paths {
	if dir := os.Getenv("OMCM_HOME"); dir != "" {
		return Paths{Base: dir}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No resolvable home (containers, odd CI setups). Fall back to the
		// XDG state dir so state still lands somewhere writable.
		return Paths{Base: filepath.Join(xdg.StateHome, "omcm")}
	}
	return Paths{Base: filepath.Join(home, dirName)}
}

// CacheDir returns the cache location used for collaborator-produced files
// (usage cache, HUD snapshot). These are read-mostly and safe to lose.
func CacheDir() string {
	if xdg.CacheHome != "" {
		return filepath.Join(xdg.CacheHome, "omcm")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "omcm-cache")
	}
	return filepath.Join(dir, "omcm")
}

func (p Paths) SessionsDir() string {
	return filepath.Join(p.Base, "sessions")
}

func (p Paths) SessionDir(sessionID string) string {
	return filepath.Join(p.SessionsDir(), sessionID)
}

// FusionFile returns the per-session fusion state path, or the global one
// when sessionID is empty.
func (p Paths) FusionFile(sessionID string) string {
	if sessionID == "" {
		return p.GlobalFusionFile()
	}
	return filepath.Join(p.SessionDir(sessionID), "fusion-state.json")
}

func (p Paths) GlobalFusionFile() string {
	return filepath.Join(p.Base, "fusion-state.json")
}

func (p Paths) FallbackFile() string {
	return filepath.Join(p.Base, "fallback-state.json")
}

func (p Paths) LimitsFile() string {
	return filepath.Join(p.Base, "provider-limits.json")
}

func (p Paths) RegistryFile() string {
	return filepath.Join(p.Base, "active-session.json")
}

func (p Paths) CallLogFile() string {
	return filepath.Join(p.Base, "call-log.db")
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.Base, "config.json")
}

func (p Paths) ConfigFileYAML() string {
	return filepath.Join(p.Base, "config.yaml")
}

func (p Paths) RulesFile() string {
	return filepath.Join(p.Base, "routing-rules.json")
}

func (p Paths) MappingFile() string {
	return filepath.Join(p.Base, "agent-mapping.yaml")
}

func (p Paths) HandoffDir() string {
	return filepath.Join(p.Base, "handoff")
}
