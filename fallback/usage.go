package fallback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/DrFREEST/omcm/state"
	"golang.org/x/time/rate"
)

// Claude usage retrieval is itself layered: the usage collaborator's cache
// file is preferred, the HUD snapshot is the fallback, and with neither
// present the source reports nil so threshold checks decline to guess.
const (
	usageCacheName = "usage-cache.json"
	hudCacheName   = "hud-snapshot.json"
)

// UsageSource reads Claude usage from the cache files left behind by the
// usage collaborator and the HUD. Reloads are throttled so a burst of hook
// invocations within one process doesn't hammer the filesystem.
type UsageSource struct {
	cachePath string
	hudPath   string
	reload    rate.Sometimes
	cached    *Usage
}

func NewUsageSource() *UsageSource {
	dir := state.CacheDir()
	return &UsageSource{
		cachePath: filepath.Join(dir, usageCacheName),
		hudPath:   filepath.Join(dir, hudCacheName),
		reload:    rate.Sometimes{Interval: 5 * time.Second},
	}
}

// ClaudeUsage returns the latest usage snapshot, or nil when no source has
// one.
func (s *UsageSource) ClaudeUsage() *Usage {
	s.reload.Do(func() {
		s.cached = s.read()
	})
	return s.cached
}

func (s *UsageSource) read() *Usage {
	if u := readUsageCache(s.cachePath); u != nil {
		return u
	}
	return readHUDCache(s.hudPath)
}

func readUsageCache(path string) *Usage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var u Usage
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	return &u
}

// hudSnapshot is the subset of the HUD's cached display data this core
// consumes.
type hudSnapshot struct {
	Claude struct {
		FiveHour struct {
			Percent uint64 `json:"percent"`
		} `json:"fiveHour"`
		Weekly struct {
			Percent uint64 `json:"percent"`
		} `json:"weekly"`
	} `json:"claude"`
}

func readHUDCache(path string) *Usage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var snap hudSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return &Usage{
		FiveHourPercent: snap.Claude.FiveHour.Percent,
		WeeklyPercent:   snap.Claude.Weekly.Percent,
	}
}
