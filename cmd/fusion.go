package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

func FusionCommand() *cli.Command {
	return &cli.Command{
		Name:  "fusion",
		Usage: "Control routing fusion for the current session",
		Flags: []cli.Flag{sessionFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := state.DefaultPaths()
			sessionID := resolveSession(cmd, paths)
			st, _ := state.NewFusionStore(paths).Load(sessionID)
			printFusion(st)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "on",
				Usage: "Enable fusion routing",
				Flags: []cli.Flag{
					sessionFlag,
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Routing mode: save-tokens, balanced or quality-first",
						Value: state.ModeBalanced,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					paths := state.DefaultPaths()
					sessionID := resolveSession(cmd, paths)
					mode := cmd.String("mode")
					switch mode {
					case state.ModeSaveTokens, state.ModeBalanced, state.ModeQualityFirst:
					default:
						return fmt.Errorf("unknown fusion mode %q", mode)
					}
					st, err := state.NewFusionStore(paths).SetEnabled(sessionID, true, mode)
					if err != nil {
						return err
					}
					tui.Status("Enabled", "fusion in %s mode", st.Mode)
					return nil
				},
			},
			{
				Name:  "off",
				Usage: "Disable fusion routing",
				Flags: []cli.Flag{sessionFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					paths := state.DefaultPaths()
					sessionID := resolveSession(cmd, paths)
					store := state.NewFusionStore(paths)
					st, _ := store.Load(sessionID)
					if _, err := store.SetEnabled(sessionID, false, st.Mode); err != nil {
						return err
					}
					tui.Status("Disabled", "fusion routing")
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Discard routing statistics, keeping the enable flag and mode",
				Flags: []cli.Flag{sessionFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					paths := state.DefaultPaths()
					sessionID := resolveSession(cmd, paths)
					if err := state.NewFusionStore(paths).Reset(sessionID); err != nil {
						return err
					}
					tui.Status("Reset", "fusion statistics")
					return nil
				},
			},
		},
	}
}

func printFusion(st state.FusionState) {
	fmt.Printf("Enabled:        %s\n", onOff(st.Enabled))
	fmt.Printf("Mode:           %s\n", st.Mode)
	fmt.Printf("Tasks:          %d total, %d routed (%d%%)\n",
		st.TotalTasks, st.RoutedToOpenCode, st.RoutingRate)
	fmt.Printf("Est. saved:     %d tokens\n", st.EstimatedSavedTokens)
	fmt.Printf("Savings rate:   %d%%\n", st.SavingsRate)

	providers := make([]string, 0, len(st.ActualTokens))
	for p := range st.ActualTokens {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	for _, p := range providers {
		tc := st.ActualTokens[p]
		fmt.Printf("  %-8s %d↑ %d↓ (%d calls)\n", p, tc.Input, tc.Output, st.ByProvider[p])
	}
	if st.LastUpdated != "" {
		fmt.Printf("Updated:        %s\n", st.LastUpdated)
	}
}
