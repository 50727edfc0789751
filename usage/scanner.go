// Package usage scans Claude Code session logs (JSONL) and aggregates token
// totals per session. The totals feed the usage report and, through Sync,
// the actual-token side of the fusion savings calculation.
package usage

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	envConfigDir    = "CLAUDE_CONFIG_DIR"
	projectsDirName = "projects"
)

type usagePayload struct {
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	CacheReadTokens   int64 `json:"cache_read_input_tokens"`
	CacheCreateTokens int64 `json:"cache_creation_input_tokens"`
}

type messagePayload struct {
	ID    string       `json:"id"`
	Model string       `json:"model"`
	Usage usagePayload `json:"usage"`
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"requestId"`
	Message   messagePayload `json:"message"`
}

// SessionUsage is the aggregated token count for one logged session.
type SessionUsage struct {
	SessionID    string `json:"sessionId"`
	Project      string `json:"project"`
	LastActivity string `json:"lastActivity"`
	InputTokens  uint64 `json:"inputTokens"`
	OutputTokens uint64 `json:"outputTokens"`
	CacheTokens  uint64 `json:"cacheTokens"`
	TotalTokens  uint64 `json:"totalTokens"`
}

// ResolveRoots returns the Claude data directories that contain a projects
// subdirectory. CLAUDE_CONFIG_DIR (comma separated) overrides the defaults.
func ResolveRoots() ([]string, error) {
	var roots []string
	seen := map[string]struct{}{}

	if env := strings.TrimSpace(os.Getenv(envConfigDir)); env != "" {
		for _, part := range strings.Split(env, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			abs, err := filepath.Abs(p)
			if err != nil || !hasProjectsDir(abs) {
				continue
			}
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			roots = append(roots, abs)
		}
		if len(roots) == 0 {
			return nil, errors.New("no valid Claude directories found in CLAUDE_CONFIG_DIR")
		}
		return roots, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	for _, p := range []string{
		filepath.Join(home, ".config", "claude"),
		filepath.Join(home, ".claude"),
	} {
		if !hasProjectsDir(p) {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		roots = append(roots, p)
	}
	if len(roots) == 0 {
		return nil, errors.New("no Claude data directories found")
	}
	return roots, nil
}

func hasProjectsDir(root string) bool {
	st, err := os.Stat(filepath.Join(root, projectsDirName))
	return err == nil && st.IsDir()
}

// LoadSessions walks the given roots and aggregates token usage per session.
// Entries sharing a message id and request id are counted once even when
// they appear in multiple files.
func LoadSessions(roots []string) ([]SessionUsage, error) {
	if len(roots) == 0 {
		resolved, err := ResolveRoots()
		if err != nil {
			return nil, err
		}
		roots = resolved
	}

	agg := map[string]*SessionUsage{}
	processed := map[string]struct{}{}

	for _, root := range roots {
		projectBase := filepath.Join(root, projectsDirName)
		_ = filepath.WalkDir(projectBase, func(path string, d os.DirEntry, err error) error {
			if err != nil || d == nil || d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".jsonl") {
				return nil
			}
			project, sessionID, ok := splitSessionPath(projectBase, path)
			if !ok {
				return nil
			}
			key := project + "/" + sessionID
			session := agg[key]
			if session == nil {
				session = &SessionUsage{SessionID: sessionID, Project: project}
				agg[key] = session
			}
			scanFile(path, func(entry logEntry) {
				if hash := dedupeHash(entry); hash != "" {
					if _, exists := processed[hash]; exists {
						return
					}
					processed[hash] = struct{}{}
				}
				if date := dateKey(entry.Timestamp); date > session.LastActivity {
					session.LastActivity = date
				}
				u := entry.Message.Usage
				session.InputTokens += nonNegative(u.InputTokens)
				session.OutputTokens += nonNegative(u.OutputTokens)
				session.CacheTokens += nonNegative(u.CacheReadTokens) + nonNegative(u.CacheCreateTokens)
				session.TotalTokens = session.InputTokens + session.OutputTokens + session.CacheTokens
			})
			return nil
		})
	}

	out := make([]SessionUsage, 0, len(agg))
	for _, s := range agg {
		if s.LastActivity == "" {
			s.LastActivity = "1970-01-01"
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity != out[j].LastActivity {
			return out[i].LastActivity < out[j].LastActivity
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

// scanFile consumes the parseable lines of one JSONL file. Broken lines and
// a missing file are skipped without error, matching the tolerance the rest
// of the state layer has for partially written data.
func scanFile(path string, consume func(logEntry)) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if strings.TrimSpace(entry.Timestamp) == "" {
			continue
		}
		consume(entry)
	}
}

func splitSessionPath(projectBase, file string) (project, sessionID string, ok bool) {
	rel, err := filepath.Rel(projectBase, file)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return "", "", false
	}
	project = parts[0]
	sessionID = strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(parts[len(parts)-1]))
	return project, sessionID, true
}

func dedupeHash(entry logEntry) string {
	if entry.Message.ID == "" || entry.RequestID == "" {
		return ""
	}
	return entry.Message.ID + ":" + entry.RequestID
}

func dateKey(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return ""
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
