package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/session"
	"github.com/DrFREEST/omcm/state"
	"github.com/urfave/cli/v3"
)

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show routing, fallback and provider limit state",
		Flags: []cli.Flag{sessionFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := state.DefaultPaths()
			sessionID := resolveSession(cmd, paths)

			fusion, _ := state.NewFusionStore(paths).Load(sessionID)
			fb := state.NewFallbackStore(paths).Load()
			limits := state.NewLimitsStore(paths).Load()

			scope := "global"
			if sessionID != "" {
				scope = sessionID
			}
			fmt.Printf("Session:   %s\n", scope)
			fmt.Printf("Fusion:    %s mode=%s tasks=%d routed=%d (%d%%) saved≈%d tok savings=%d%%\n",
				onOff(fusion.Enabled), fusion.Mode, fusion.TotalTasks,
				fusion.RoutedToOpenCode, fusion.RoutingRate,
				fusion.EstimatedSavedTokens, fusion.SavingsRate)

			model := state.ChainModelByID(fb.CurrentModel)
			if fb.FallbackActive {
				fmt.Printf("Fallback:  active on %s (%s) since %s\n", model.Name, fb.FallbackReason, fb.FallbackStartedAt)
			} else {
				fmt.Printf("Fallback:  inactive, primary %s\n", model.Name)
			}

			fmt.Printf("Claude:    5h %d%%  weekly %d%%\n",
				limits.Claude.FiveHour.Percent, limits.Claude.Weekly.Percent)
			fmt.Printf("OpenAI:    requests %d/%d  tokens %d/%d\n",
				limits.OpenAI.Requests.Remaining, limits.OpenAI.Requests.Limit,
				limits.OpenAI.Tokens.Remaining, limits.OpenAI.Tokens.Limit)
			gemini := "ok"
			if limits.Gemini.Is429 {
				gemini = "429 backoff"
			}
			fmt.Printf("Gemini:    tier=%s rpm=%d/%d tpm=%d/%d %s\n",
				limits.Gemini.Tier, limits.Gemini.RPM.Used, limits.Gemini.RPM.Limit,
				limits.Gemini.TPM.Used, limits.Gemini.TPM.Limit, gemini)

			fmt.Printf("Delegation: %s\n", onOff(config.DetectDelegation()))
			codex := config.DetectCodex()
			if codex.Installed {
				fmt.Printf("Codex CLI: installed model=%s profile=%s\n", codex.Model, codex.Profile)
			} else {
				fmt.Printf("Codex CLI: not found\n")
			}
			return nil
		},
	}
}

func resolveSession(cmd *cli.Command, paths state.Paths) string {
	if s := cmd.String("session"); s != "" {
		return s
	}
	return session.NewResolver(paths).Resolve()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
