package cmd

import (
	"context"

	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

var sessionFlag = &cli.StringFlag{
	Name:  "session",
	Usage: "Session ID (skips TTY-based detection)",
}

const debugFlag = "debug"

func RootCommand() *cli.Command {
	return &cli.Command{
		Name:            "omcm",
		Usage:           "Route agent tasks to external CLIs when Claude is rate-limited or wasteful",
		HideHelpCommand: true,
		DefaultCommand:  "status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "Enable debug output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			tui.SetDebug(cmd.Bool(debugFlag))
			return ctx, nil
		},
		Commands: []*cli.Command{
			// Order matters here!
			HookCommand(),
			StatusCommand(),
			FusionCommand(),
			FallbackCommand(),
			LimitsCommand(),
			UsageCommand(),
			ServeCommand(),
			MonitorCommand(),
			SessionsCommand(),
			TriggersCommand(),
			InitCommand(),
		},
	}
}
