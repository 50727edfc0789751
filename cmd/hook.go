package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/fallback"
	"github.com/DrFREEST/omcm/router"
	"github.com/DrFREEST/omcm/session"
	"github.com/DrFREEST/omcm/state"
	"github.com/urfave/cli/v3"
)

// hookEvent is the PreToolUse payload Claude Code pipes to hook commands.
type hookEvent struct {
	SessionID string           `json:"session_id"`
	ToolName  string           `json:"tool_name"`
	ToolInput router.ToolInput `json:"tool_input"`
}

func HookCommand() *cli.Command {
	return &cli.Command{
		Name:  "hook",
		Usage: "Handle a Claude Code hook event piped to stdin",
		Commands: []*cli.Command{
			{
				Name:  "pre-tool-use",
				Usage: "Decide routing for a Task tool invocation",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					// The hook must never block the caller: every internal
					// failure degrades to a no-route verdict and exit 0.
					d := runHook(os.Stdin, state.DefaultPaths())
					_ = json.NewEncoder(os.Stdout).Encode(d)
					return nil
				},
			},
		},
	}
}

// runHook performs one routing decision for a PreToolUse event and records
// it in fusion state and the call log.
func runHook(in io.Reader, paths state.Paths) router.Decision {
	var ev hookEvent
	if err := json.NewDecoder(in).Decode(&ev); err != nil {
		return router.Decision{Reason: "invalid-hook-event"}
	}
	if ev.ToolName != "" && ev.ToolName != "Task" {
		return router.Decision{Reason: "not-a-task"}
	}

	sessionID := ev.SessionID
	if sessionID == "" {
		sessionID = session.NewResolver(paths).Resolve()
	}

	cfg := config.Load(paths)
	fusion := state.NewFusionStore(paths)
	limits := state.NewLimitsStore(paths)
	fb := state.NewFallbackStore(paths)

	fusionState, fusionPresent := fusion.Load(sessionID)
	deps := router.Deps{
		Fusion:        fusionState,
		FusionPresent: fusionPresent,
		Fallback:      fb.Load(),
		Usage:         claudeUsage(limits),
	}

	mapper, err := router.LoadMapper(paths.MappingFile())
	if err != nil {
		mapper = router.NewMapper()
	}
	engine := router.NewEngine(cfg.RouterOptions(config.DetectDelegation()), mapper)
	rules := router.LoadRulesEngine(paths.RulesFile())

	// One decision per process, so there is nothing to cache.
	d := engine.DecideV2(ev.ToolInput, deps, nil, rules)

	provider := ""
	if d.Route {
		provider = router.ProviderForAgent(d.OpenCodeAgent)
	}
	// State updates are best effort; the verdict stands either way.
	_, _ = fusion.RecordRouting(sessionID, d.Route, provider, estimateTokens(ev.ToolInput.Prompt))

	if d.Route {
		if store, err := calllog.OpenStore(paths); err == nil {
			defer store.Close()
			entry := calllog.Entry{
				SessionID: sessionID,
				Provider:  provider,
				Agent:     d.OpenCodeAgent,
				Reason:    d.Reason,
				Success:   true,
			}
			if d.TargetModel != nil {
				entry.Model = d.TargetModel.ID
			}
			_ = store.Record(entry)
		}
	}
	return d
}

func claudeUsage(limits *state.LimitsStore) router.Usage {
	return usageFromSnapshot(fallback.NewUsageSource().ClaudeUsage(), limits.Load().Claude)
}

// usageFromSnapshot prefers the live usage caches and falls back to the
// persisted limit percentages.
func usageFromSnapshot(u *fallback.Usage, claude state.ClaudeLimits) router.Usage {
	if u != nil {
		return router.Usage{FiveHour: u.FiveHourPercent, Weekly: u.WeeklyPercent}
	}
	return router.Usage{
		FiveHour: claude.FiveHour.Percent,
		Weekly:   claude.Weekly.Percent,
	}
}

// estimateTokens approximates prompt tokens at four characters per token.
func estimateTokens(prompt string) uint64 {
	return uint64(len(prompt) / 4)
}
