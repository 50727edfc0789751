package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/DrFREEST/omcm/state"
)

// Entry is one registered terminal session, keyed by TTY device path in the
// registry file.
type Entry struct {
	SessionID    string `json:"sessionId"`
	PID          int    `json:"pid"`
	StartTime    string `json:"startTime"`
	LastActivity string `json:"lastActivity"`
}

// Registry maps TTY device paths to active sessions in active-session.json.
// Missing or corrupt registry files read as empty; registry writes never
// bubble errors up since the hook must proceed regardless.
type Registry struct {
	path string
	now  func() time.Time
}

func NewRegistry(paths state.Paths) *Registry {
	return &Registry{path: paths.RegistryFile(), now: time.Now}
}

func (r *Registry) load() map[string]Entry {
	entries := map[string]Entry{}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]Entry{}
	}
	return entries
}

func (r *Registry) save(entries map[string]Entry) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return
	}
	writeFileAtomic(r.path, data)
}

// Lookup returns the registered session for a TTY path.
func (r *Registry) Lookup(tty string) (Entry, bool) {
	entry, ok := r.load()[tty]
	return entry, ok
}

// Register binds a session to a TTY path.
func (r *Registry) Register(tty string, entry Entry) {
	entries := r.load()
	entries[tty] = entry
	r.save(entries)
}

// Touch refreshes the last-activity timestamp for a TTY binding.
func (r *Registry) Touch(tty string) {
	entries := r.load()
	entry, ok := entries[tty]
	if !ok {
		return
	}
	entry.LastActivity = r.now().UTC().Format(time.RFC3339)
	entries[tty] = entry
	r.save(entries)
}

// Prune drops every registry entry whose session id is in drop.
func (r *Registry) Prune(drop map[string]bool) {
	entries := r.load()
	changed := false
	for tty, entry := range entries {
		if drop[entry.SessionID] {
			delete(entries, tty)
			changed = true
		}
	}
	if changed {
		r.save(entries)
	}
}

// All returns every registered session keyed by TTY path.
func (r *Registry) All() map[string]Entry {
	return r.load()
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
	}
}
