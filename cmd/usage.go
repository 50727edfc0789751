package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/DrFREEST/omcm/usage"
	"github.com/urfave/cli/v3"
)

func UsageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Summarize Claude token usage from session transcripts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "sync",
				Usage: "Write the aggregated totals into fusion state",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			roots, err := usage.ResolveRoots()
			if err != nil {
				return err
			}
			sessions, err := usage.LoadSessions(roots)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No session transcripts found.")
				return nil
			}

			var totalIn, totalOut, totalCache uint64
			fmt.Printf("%-38s %-24s %12s %12s %12s\n", "SESSION", "PROJECT", "INPUT", "OUTPUT", "CACHE")
			for _, s := range sessions {
				fmt.Printf("%-38s %-24s %12d %12d %12d\n",
					s.SessionID, truncateLabel(s.Project, 24), s.InputTokens, s.OutputTokens, s.CacheTokens)
				totalIn += s.InputTokens
				totalOut += s.OutputTokens
				totalCache += s.CacheTokens
			}
			fmt.Printf("%-38s %-24s %12d %12d %12d\n", "total", "", totalIn, totalOut, totalCache)

			if cmd.Bool("sync") {
				store := state.NewFusionStore(state.DefaultPaths())
				if err := usage.Sync(store, sessions); err != nil {
					return err
				}
				tui.Status("Synced", "%d sessions into fusion state", len(sessions))
			}
			return nil
		},
	}
}

func truncateLabel(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
