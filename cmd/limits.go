package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

func LimitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "limits",
		Usage: "Inspect and update provider rate-limit state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printLimits(state.NewLimitsStore(state.DefaultPaths()).Load())
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "claude",
				Usage: "Set the Claude usage percentages",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "five-hour", Usage: "Five-hour window percent"},
					&cli.UintFlag{Name: "weekly", Usage: "Weekly window percent"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store := state.NewLimitsStore(state.DefaultPaths())
					fiveHour := uint64(cmd.Uint("five-hour"))
					weekly := uint64(cmd.Uint("weekly"))
					if err := store.SetClaudePercents(fiveHour, weekly); err != nil {
						return err
					}
					tui.Status("Updated", "claude 5h=%d%% weekly=%d%%", fiveHour, weekly)
					return nil
				},
			},
			{
				Name:      "gemini-tier",
				Usage:     "Set the Gemini pricing tier (free, tier1, tier2, tier3)",
				ArgsUsage: "<tier>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					tier := cmd.Args().First()
					if tier == "" {
						return fmt.Errorf("missing tier argument")
					}
					store := state.NewLimitsStore(state.DefaultPaths())
					if err := store.SetGeminiTier(tier); err != nil {
						return err
					}
					tui.Status("Updated", "gemini tier %s", tier)
					return nil
				},
			},
			{
				Name:  "gemini-429",
				Usage: "Mark or clear a Gemini 429 backoff",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Clear the backoff flag"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store := state.NewLimitsStore(state.DefaultPaths())
					active := !cmd.Bool("clear")
					if err := store.SetGemini429(active); err != nil {
						return err
					}
					if active {
						tui.Status("Marked", "gemini 429 backoff")
					} else {
						tui.Status("Cleared", "gemini 429 backoff")
					}
					return nil
				},
			},
		},
	}
}

func printLimits(limits state.ProviderLimits) {
	fmt.Println("Claude:")
	fmt.Printf("  five-hour  %d/%d (%d%%)\n",
		limits.Claude.FiveHour.Used, limits.Claude.FiveHour.Limit, limits.Claude.FiveHour.Percent)
	fmt.Printf("  weekly     %d/%d (%d%%)\n",
		limits.Claude.Weekly.Used, limits.Claude.Weekly.Limit, limits.Claude.Weekly.Percent)
	if limits.Claude.LastUpdated != "" {
		fmt.Printf("  updated    %s\n", limits.Claude.LastUpdated)
	}

	fmt.Println("OpenAI:")
	fmt.Printf("  requests   %d remaining of %d (%d%% used)\n",
		limits.OpenAI.Requests.Remaining, limits.OpenAI.Requests.Limit, limits.OpenAI.Requests.Percent)
	fmt.Printf("  tokens     %d remaining of %d (%d%% used)\n",
		limits.OpenAI.Tokens.Remaining, limits.OpenAI.Tokens.Limit, limits.OpenAI.Tokens.Percent)

	fmt.Println("Gemini:")
	fmt.Printf("  tier       %s\n", limits.Gemini.Tier)
	fmt.Printf("  rpm        %d/%d\n", limits.Gemini.RPM.Used, limits.Gemini.RPM.Limit)
	fmt.Printf("  tpm        %d/%d\n", limits.Gemini.TPM.Used, limits.Gemini.TPM.Limit)
	fmt.Printf("  daily      %d/%d\n", limits.Gemini.DailyRequests, limits.Gemini.RPD.Limit)
	if limits.Gemini.Is429 {
		fmt.Println("  backoff    429 active")
	}
}
