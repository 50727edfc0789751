// Package executor defines the contracts this core expects from the CLI
// execution layer. Spawning external agent CLIs lives outside this module;
// routing only needs the request/result shapes and a way to fold a finished
// call back into the tracked state.
package executor

import (
	"context"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/state"
)

// DefaultTimeout bounds a single external CLI call.
const DefaultTimeout = 5 * time.Minute

// Request describes one task handed to an external CLI.
type Request struct {
	Prompt   string        `json:"prompt"`
	Provider string        `json:"provider"`
	Agent    string        `json:"agent"`
	Model    string        `json:"model,omitempty"`
	Dir      string        `json:"dir,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// TokenUsage is the token report an executor may return. Nil in a Result
// means the CLI reported nothing and the token-sync path is skipped.
type TokenUsage struct {
	Input  uint64 `json:"input"`
	Output uint64 `json:"output"`
}

// Result is the outcome of one external CLI call.
type Result struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output,omitempty"`
	Tokens   *TokenUsage   `json:"tokens,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Provider string        `json:"provider"`
}

// CLI is the execution collaborator. Implementations honor ctx cancellation
// and the request timeout, and always return a Result describing the attempt
// even when err is non-nil.
type CLI interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// CallSink accepts per-call audit records. calllog.Store satisfies it.
type CallSink interface {
	Record(calllog.Entry) error
}

// Recorder folds finished executor results into the tracked state: token
// counts into the fusion savings path, Gemini request counts into the local
// rate window, and an audit row into the call log.
type Recorder struct {
	Fusion *state.FusionStore
	Limits *state.LimitsStore
	Calls  CallSink
}

// RecordResult applies one result. Sink failures are returned but the state
// updates are applied first; a broken audit log never loses token tracking.
func (r *Recorder) RecordResult(sessionID string, req Request, res Result) error {
	if res.Tokens != nil && r.Fusion != nil {
		provider := res.Provider
		if provider == "" {
			provider = req.Provider
		}
		tokens := map[string]state.TokenCount{
			provider: {Input: res.Tokens.Input, Output: res.Tokens.Output},
		}
		if _, err := r.Fusion.UpdateSavingsFromTokens(sessionID, tokens); err != nil {
			return err
		}
	}
	if req.Provider == "gemini" && r.Limits != nil {
		var tokens uint64
		if res.Tokens != nil {
			tokens = res.Tokens.Input + res.Tokens.Output
		}
		if err := r.Limits.RecordGeminiRequest(tokens); err != nil {
			return err
		}
	}
	if r.Calls == nil {
		return nil
	}
	entry := calllog.Entry{
		SessionID:  sessionID,
		Provider:   req.Provider,
		Model:      req.Model,
		Agent:      req.Agent,
		Success:    res.Success,
		DurationMS: uint64(res.Duration.Milliseconds()),
	}
	if res.Tokens != nil {
		entry.InputTokens = res.Tokens.Input
		entry.OutputTokens = res.Tokens.Output
	}
	if !res.Success {
		entry.Reason = res.Error
	}
	return r.Calls.Record(entry)
}
