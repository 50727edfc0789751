package cmd

import (
	"context"

	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

func InitCommand() *cli.Command {
	return &cli.Command{
		Name:     "init",
		Usage:    "Write a commented starter config",
		Category: "Utilities",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := state.DefaultPaths().ConfigFileYAML()
			if err := config.WriteStarterConfig(path); err != nil {
				return err
			}
			tui.Status("Created", "%s", path)
			return nil
		},
	}
}
