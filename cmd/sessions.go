package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/session"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:     "sessions",
		Usage:    "List registered terminal sessions",
		Category: "Utilities",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := state.DefaultPaths()
			entries := session.NewRegistry(paths).All()
			if len(entries) == 0 {
				fmt.Println("No registered sessions.")
				return nil
			}

			ttys := make([]string, 0, len(entries))
			for tty := range entries {
				ttys = append(ttys, tty)
			}
			sort.Strings(ttys)

			fmt.Printf("%-20s %-24s %-8s %s\n", "TTY", "SESSION", "PID", "LAST ACTIVITY")
			for _, tty := range ttys {
				e := entries[tty]
				fmt.Printf("%-20s %-24s %-8d %s\n", tty, e.SessionID, e.PID, e.LastActivity)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "cleanup",
				Usage: "Remove session state older than the configured age",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-age-days",
						Usage: "Override the configured maximum session age",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					paths := state.DefaultPaths()
					maxAge := int(cmd.Int("max-age-days"))
					if maxAge <= 0 {
						maxAge = config.Load(paths).Context.SessionMaxAgeDays
					}
					removed, err := session.CleanupOldSessions(paths, maxAge)
					if err != nil {
						return err
					}
					tui.Status("Cleaned", "%d sessions older than %d days", len(removed), maxAge)
					return nil
				},
			},
		},
	}
}
