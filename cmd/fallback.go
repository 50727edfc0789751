package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/fallback"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

func newOrchestrator() *fallback.Orchestrator {
	paths := state.DefaultPaths()
	usage := fallback.NewUsageSource()
	return fallback.NewOrchestrator(paths, usage.ClaudeUsage)
}

func FallbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "fallback",
		Usage: "Inspect and control the rate-limit fallback chain",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printFallback(newOrchestrator().State())
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Run one threshold check and apply any transition",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					res, err := newOrchestrator().CheckAndFallback()
					if err != nil {
						return err
					}
					switch res.Action {
					case "fallback":
						tui.Status("Fallback", "%s -> %s (%s)", res.From, res.To, res.Reason)
					case "recover":
						tui.Status("Recovered", "%s -> %s (%s)", res.From, res.To, res.Reason)
					default:
						tui.Status("Unchanged", "%s", res.Reason)
					}
					return nil
				},
			},
			{
				Name:  "activate",
				Usage: "Switch to a fallback model, bypassing thresholds",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "model",
						Usage: "Chain model id",
						Value: state.FallbackChain[1].ID,
					},
					&cli.StringFlag{
						Name:  "reason",
						Usage: "Reason recorded in fallback history",
						Value: "manual",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					st, err := newOrchestrator().ManualFallback(cmd.String("model"), cmd.String("reason"))
					if err != nil {
						return err
					}
					tui.Status("Switched", "to %s", state.ChainModelByID(st.CurrentModel).Name)
					return nil
				},
			},
			{
				Name:  "recover",
				Usage: "Return to the primary model",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reason",
						Usage: "Reason recorded in fallback history",
						Value: "manual",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					st, err := newOrchestrator().RecoverToPrimary(cmd.String("reason"))
					if err != nil {
						return err
					}
					tui.Status("Recovered", "to %s", state.ChainModelByID(st.CurrentModel).Name)
					return nil
				},
			},
		},
	}
}

func printFallback(st state.FallbackState) {
	model := state.ChainModelByID(st.CurrentModel)
	fmt.Printf("Current:  %s (%s)\n", model.Name, model.ID)
	fmt.Printf("Active:   %s\n", onOff(st.FallbackActive))
	if st.FallbackActive {
		fmt.Printf("Reason:   %s\n", st.FallbackReason)
		fmt.Printf("Since:    %s\n", st.FallbackStartedAt)
	}

	fmt.Println("Chain:")
	for i, m := range state.FallbackChain {
		marker := " "
		if m.ID == st.CurrentModel {
			marker = "▸"
		}
		fmt.Printf("  %s %d. %-14s %s\n", marker, i+1, m.ID, m.Name)
	}

	if len(st.History) > 0 {
		fmt.Println("History:")
		// Newest entries are appended last; show up to the ten most recent.
		start := max(len(st.History)-10, 0)
		for _, h := range st.History[start:] {
			fmt.Printf("  %s %-8s %s -> %s (%s)\n", h.Timestamp, h.Action, h.From, h.To, h.Reason)
		}
	}
}
