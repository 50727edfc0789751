package hud

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/DrFREEST/omcm/state"
)

// hudSnapshotName is the cache file the fallback usage source reads when the
// usage collaborator's own cache is absent.
const hudSnapshotName = "hud-snapshot.json"

type snapshotWindow struct {
	Percent uint64 `json:"percent"`
}

type snapshot struct {
	Claude struct {
		FiveHour snapshotWindow `json:"fiveHour"`
		Weekly   snapshotWindow `json:"weekly"`
	} `json:"claude"`
}

// WriteSnapshot publishes the current Claude window percentages to the cache
// directory so hook processes can read usage without the serve loop running
// at decision time.
func WriteSnapshot(limits *state.LimitsStore) error {
	dir := state.CacheDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	p := limits.Load()
	var snap snapshot
	snap.Claude.FiveHour.Percent = p.Claude.FiveHour.Percent
	snap.Claude.Weekly.Percent = p.Claude.Weekly.Percent

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, hudSnapshotName)
	tmp, err := os.CreateTemp(dir, ".hud-snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
