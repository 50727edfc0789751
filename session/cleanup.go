package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/DrFREEST/omcm/state"
)

// CleanupOldSessions removes session directories whose last modification is
// older than maxAgeDays and prunes their registry bindings. This is advisory
// maintenance, never run from the hot path. Returns the removed session ids.
func CleanupOldSessions(paths state.Paths, maxAgeDays int) ([]string, error) {
	dir := paths.SessionsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var removed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			continue
		}
		removed = append(removed, e.Name())
	}

	if len(removed) > 0 {
		drop := make(map[string]bool, len(removed))
		for _, id := range removed {
			drop[id] = true
		}
		NewRegistry(paths).Prune(drop)
	}
	return removed, nil
}
