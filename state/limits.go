package state

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// WindowUsage tracks consumption against a limit for one Claude rate window.
type WindowUsage struct {
	Used    uint64 `json:"used"`
	Limit   uint64 `json:"limit"`
	Percent uint64 `json:"percent"`
}

type ClaudeLimits struct {
	FiveHour    WindowUsage `json:"fiveHour"`
	Weekly      WindowUsage `json:"weekly"`
	Monthly     WindowUsage `json:"monthly"`
	LastUpdated string      `json:"lastUpdated"`
}

// OpenAIWindow mirrors the x-ratelimit response headers for one dimension.
type OpenAIWindow struct {
	Remaining uint64 `json:"remaining"`
	Limit     uint64 `json:"limit"`
	Reset     string `json:"reset"`
	Percent   uint64 `json:"percent"`
}

type OpenAILimits struct {
	Requests OpenAIWindow `json:"requests"`
	Tokens   OpenAIWindow `json:"tokens"`
}

type GeminiWindow struct {
	Used  uint64 `json:"used"`
	Limit uint64 `json:"limit"`
}

// GeminiRequest is one logged request in the sliding one-minute window.
type GeminiRequest struct {
	At     time.Time `json:"at"`
	Tokens uint64    `json:"tokens"`
}

type GeminiLimits struct {
	Tier          string          `json:"tier"`
	RPM           GeminiWindow    `json:"rpm"`
	TPM           GeminiWindow    `json:"tpm"`
	RPD           GeminiWindow    `json:"rpd"`
	RequestLog    []GeminiRequest `json:"requestLog"`
	DailyRequests uint64          `json:"dailyRequests"`
	DailyDate     string          `json:"dailyDate"`
	Is429         bool            `json:"is429"`
}

// ProviderLimits is the single global rate-limit record covering all
// providers.
type ProviderLimits struct {
	Claude ClaudeLimits `json:"claude"`
	OpenAI OpenAILimits `json:"openai"`
	Gemini GeminiLimits `json:"gemini"`
}

// Gemini free/paid tier limits (requests per minute, tokens per minute,
// requests per day).
var geminiTiers = map[string][3]uint64{
	"free":  {10, 250_000, 250},
	"tier1": {150, 2_000_000, 10_000},
	"tier2": {1_000, 4_000_000, 50_000},
	"tier3": {2_000, 8_000_000, 0},
}

func DefaultProviderLimits() ProviderLimits {
	var p ProviderLimits
	p.Gemini.Tier = "free"
	t := geminiTiers["free"]
	p.Gemini.RPM.Limit = t[0]
	p.Gemini.TPM.Limit = t[1]
	p.Gemini.RPD.Limit = t[2]
	return p
}

// LimitsStore reads and writes the global provider-limits record. Reads are
// cached by file mtime so repeated lookups within one hook invocation don't
// reparse the file.
type LimitsStore struct {
	path   string
	now    func() time.Time
	cached *ProviderLimits
	mtime  time.Time
}

func NewLimitsStore(paths Paths) *LimitsStore {
	return &LimitsStore{path: paths.LimitsFile(), now: time.Now}
}

// Load returns the current provider limits, falling back to defaults if the
// file is missing or corrupt.
func (s *LimitsStore) Load() ProviderLimits {
	if info, err := os.Stat(s.path); err == nil && s.cached != nil && info.ModTime().Equal(s.mtime) {
		return *s.cached
	}
	limits := DefaultProviderLimits()
	readSnapshot(s.path, &limits)
	if info, err := os.Stat(s.path); err == nil {
		s.mtime = info.ModTime()
	}
	s.cached = &limits
	return limits
}

// MaxClaudePercent returns the worst of the five-hour and weekly windows.
// This is the value the routing and fallback thresholds compare against.
func (s *LimitsStore) MaxClaudePercent() uint64 {
	limits := s.Load()
	p := limits.Claude.FiveHour.Percent
	if limits.Claude.Weekly.Percent > p {
		p = limits.Claude.Weekly.Percent
	}
	return p
}

// SetClaudeWindow records usage for one Claude window ("fiveHour", "weekly",
// "monthly"). Percent is derived and clamped.
func (s *LimitsStore) SetClaudeWindow(window string, used, limit uint64) error {
	return s.mutate(func(p *ProviderLimits) error {
		w := WindowUsage{Used: used, Limit: limit, Percent: clampPercent(roundPercent(used, limit))}
		switch window {
		case "fiveHour":
			p.Claude.FiveHour = w
		case "weekly":
			p.Claude.Weekly = w
		case "monthly":
			p.Claude.Monthly = w
		default:
			return fmt.Errorf("unknown claude window %q", window)
		}
		p.Claude.LastUpdated = s.now().UTC().Format(time.RFC3339)
		return nil
	})
}

// SetClaudePercents records pre-computed usage percentages, as reported by
// the usage collaborator which only exposes percent values.
func (s *LimitsStore) SetClaudePercents(fiveHour, weekly uint64) error {
	return s.mutate(func(p *ProviderLimits) error {
		p.Claude.FiveHour.Percent = clampPercent(fiveHour)
		p.Claude.Weekly.Percent = clampPercent(weekly)
		p.Claude.LastUpdated = s.now().UTC().Format(time.RFC3339)
		return nil
	})
}

// UpdateOpenAIFromHeaders folds OpenAI x-ratelimit response headers into the
// record. Percent values are clamped: a stale header can report
// remaining > limit, which would otherwise wrap.
func (s *LimitsStore) UpdateOpenAIFromHeaders(h http.Header) error {
	return s.mutate(func(p *ProviderLimits) error {
		parseWindow(h, "requests", &p.OpenAI.Requests)
		parseWindow(h, "tokens", &p.OpenAI.Tokens)
		return nil
	})
}

func parseWindow(h http.Header, dim string, w *OpenAIWindow) {
	limit, okL := headerUint(h, "x-ratelimit-limit-"+dim)
	remaining, okR := headerUint(h, "x-ratelimit-remaining-"+dim)
	if !okL || !okR {
		return
	}
	w.Limit = limit
	w.Remaining = remaining
	if reset := h.Get("x-ratelimit-reset-" + dim); reset != "" {
		w.Reset = reset
	}
	used := uint64(0)
	if limit > remaining {
		used = limit - remaining
	}
	w.Percent = clampPercent(roundPercent(used, limit))
}

func headerUint(h http.Header, key string) (uint64, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// RecordGeminiRequest counts one Gemini request locally: the request log is
// a sliding one-minute window, RPM and TPM are derived from the surviving
// entries, daily counts reset when the date changes.
func (s *LimitsStore) RecordGeminiRequest(tokens uint64) error {
	return s.mutate(func(p *ProviderLimits) error {
		now := s.now()
		cutoff := now.Add(-time.Minute)
		log := p.Gemini.RequestLog[:0]
		for _, r := range p.Gemini.RequestLog {
			if r.At.After(cutoff) {
				log = append(log, r)
			}
		}
		p.Gemini.RequestLog = append(log, GeminiRequest{At: now, Tokens: tokens})
		p.Gemini.RPM.Used = uint64(len(p.Gemini.RequestLog))
		tpm := uint64(0)
		for _, r := range p.Gemini.RequestLog {
			tpm += r.Tokens
		}
		p.Gemini.TPM.Used = tpm

		today := now.UTC().Format("2006-01-02")
		if p.Gemini.DailyDate != today {
			p.Gemini.DailyDate = today
			p.Gemini.DailyRequests = 0
		}
		p.Gemini.DailyRequests++
		p.Gemini.RPD.Used = p.Gemini.DailyRequests
		return nil
	})
}

// SetGeminiTier switches the Gemini tier and applies its limit table. An
// unknown tier is a programming error at the call site and is rejected,
// unlike malformed persisted state which is always swallowed.
func (s *LimitsStore) SetGeminiTier(tier string) error {
	t, ok := geminiTiers[tier]
	if !ok {
		return fmt.Errorf("invalid gemini tier %q (want free, tier1, tier2 or tier3)", tier)
	}
	return s.mutate(func(p *ProviderLimits) error {
		p.Gemini.Tier = tier
		p.Gemini.RPM.Limit = t[0]
		p.Gemini.TPM.Limit = t[1]
		p.Gemini.RPD.Limit = t[2]
		return nil
	})
}

// SetGemini429 flags (or clears) an observed 429 from the Gemini API.
func (s *LimitsStore) SetGemini429(active bool) error {
	return s.mutate(func(p *ProviderLimits) error {
		p.Gemini.Is429 = active
		return nil
	})
}

func (s *LimitsStore) mutate(fn func(*ProviderLimits) error) error {
	limits := s.Load()
	if err := fn(&limits); err != nil {
		return err
	}
	if err := writeSnapshot(s.path, limits); err != nil {
		return err
	}
	s.cached = &limits
	if info, err := os.Stat(s.path); err == nil {
		s.mtime = info.ModTime()
	}
	return nil
}
