// Package session resolves a stable session id that scopes OMCM state to one
// terminal. Hook invocations are short-lived processes, so the id has to be
// re-derivable: an explicit env override wins, then the TTY registry, then a
// freshly synthesized id registered for the current TTY. With no detectable
// TTY the id is empty and callers fall back to the global state files.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DrFREEST/omcm/state"
)

// EnvSessionID overrides session resolution entirely when set.
const EnvSessionID = "OMCM_SESSION_ID"

// Resolver derives the session id for the current process.
type Resolver struct {
	paths     state.Paths
	registry  *Registry
	now       func() time.Time
	pid       int
	detectTTY func() string
}

func NewResolver(paths state.Paths) *Resolver {
	return &Resolver{
		paths:     paths,
		registry:  NewRegistry(paths),
		now:       time.Now,
		pid:       os.Getpid(),
		detectTTY: DetectTTY,
	}
}

// Resolve returns the session id for this process, or "" when no TTY is
// detectable (CI, background processes), signaling callers to use the
// session-less global state.
func (r *Resolver) Resolve() string {
	if id := os.Getenv(EnvSessionID); id != "" {
		return id
	}

	tty := r.detectTTY()
	if tty == "" {
		return ""
	}

	if entry, ok := r.registry.Lookup(tty); ok {
		r.registry.Touch(tty)
		return entry.SessionID
	}

	id := r.synthesize(tty)
	r.registry.Register(tty, Entry{
		SessionID:    id,
		PID:          r.pid,
		StartTime:    r.now().UTC().Format(time.RFC3339),
		LastActivity: r.now().UTC().Format(time.RFC3339),
	})
	r.initSessionDir(id, tty)
	return id
}

// synthesize builds a YYYYMMDD_HHMMSS_<6 hex chars> id from the TTY path,
// pid and timestamp.
func (r *Resolver) synthesize(tty string) string {
	now := r.now()
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", tty, r.pid, now.UnixNano()))
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), hex.EncodeToString(sum[:3]))
}

type sessionInfo struct {
	SessionID string `json:"sessionId"`
	TTY       string `json:"tty"`
	PID       int    `json:"pid"`
	StartTime string `json:"startTime"`
}

// initSessionDir creates the per-session directory and writes
// session-info.json once. Skipped when the file already exists, so repeated
// registration is idempotent.
func (r *Resolver) initSessionDir(id, tty string) {
	dir := r.paths.SessionDir(id)
	infoPath := filepath.Join(dir, "session-info.json")
	if _, err := os.Stat(infoPath); err == nil {
		return
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}
	writeJSONFile(infoPath, sessionInfo{
		SessionID: id,
		TTY:       tty,
		PID:       r.pid,
		StartTime: r.now().UTC().Format(time.RFC3339),
	})
}
