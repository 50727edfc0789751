// Package calllog is the per-call audit sink. Routed external CLI calls are
// appended to a persistent SQLite log and mirrored into an in-memory ring
// buffer that the serve API reads without touching disk.
package calllog

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// Entry is one routed external call.
type Entry struct {
	ID           string    `json:"id"`
	Time         time.Time `json:"time"`
	SessionID    string    `json:"sessionId,omitempty"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model,omitempty"`
	Agent        string    `json:"agent,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	InputTokens  uint64    `json:"inputTokens"`
	OutputTokens uint64    `json:"outputTokens"`
	Success      bool      `json:"success"`
	DurationMS   uint64    `json:"durationMs"`
}

// NewEntry stamps an id and timestamp onto a partially filled entry.
func NewEntry(e Entry) Entry {
	if e.ID == "" {
		e.ID = xid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	return e
}

// ProviderStats aggregates outcomes per provider.
type ProviderStats struct {
	Calls        int    `json:"calls"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
	InputTokens  uint64 `json:"inputTokens"`
	OutputTokens uint64 `json:"outputTokens"`
}

// Buffer is a fixed-capacity ring of recent entries with running per-provider
// stats. Stats cover everything ever added, not just what the ring retains.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
	pos     int
	full    bool
	stats   map[string]*ProviderStats
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		entries: make([]Entry, capacity),
		cap:     capacity,
		stats:   make(map[string]*ProviderStats),
	}
}

func (b *Buffer) Add(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.pos] = entry
	b.pos = (b.pos + 1) % b.cap
	if b.pos == 0 && !b.full {
		b.full = true
	}

	s, ok := b.stats[entry.Provider]
	if !ok {
		s = &ProviderStats{}
		b.stats[entry.Provider] = s
	}
	s.Calls++
	if entry.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
	s.InputTokens += entry.InputTokens
	s.OutputTokens += entry.OutputTokens
}

// Entries returns the retained entries in insertion order.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		result := make([]Entry, b.pos)
		copy(result, b.entries[:b.pos])
		return result
	}

	result := make([]Entry, b.cap)
	copy(result, b.entries[b.pos:])
	copy(result[b.cap-b.pos:], b.entries[:b.pos])
	return result
}

func (b *Buffer) Stats() map[string]ProviderStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make(map[string]ProviderStats, len(b.stats))
	for k, v := range b.stats {
		result[k] = *v
	}
	return result
}
