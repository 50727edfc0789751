package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// readSnapshot loads a JSON state file into dest. A missing or malformed
// file is treated identically: dest is left untouched and false is returned.
// State readers must never surface read or parse errors -- a corrupt state
// file must not prevent the hook from proceeding.
func readSnapshot(path string, dest any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// writeSnapshot persists v as indented JSON via a temp file and rename, so a
// concurrent reader never observes a torn write. The read-modify-write cycle
// around it is still racy across processes; the call log is the durable
// record (see calllog).
func writeSnapshot(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// roundPercent computes round(num/den*100) as an integer percentage,
// returning 0 when the denominator is zero.
func roundPercent(num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	return (num*100 + den/2) / den
}

// clampPercent bounds a percentage to [0,100]. Header-derived values can
// exceed 100 when a stale header reports remaining > limit.
func clampPercent(p uint64) uint64 {
	if p > 100 {
		return 100
	}
	return p
}
