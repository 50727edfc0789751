package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

var spinnerFrames = []string{"☱", "☲", "☴"}

func MonitorCommand() *cli.Command {
	return &cli.Command{
		Name:     "monitor",
		Usage:    "Connect to a running serve process for live routing and telemetry",
		Category: "Utilities",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address of the serve process",
				Value: defaultServeAddr,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client := NewControlClient(cmd.String("addr"))

			calls := newCallsScreen(client)
			metrics := newMetricsScreen(client)
			screen := newTabbedMonitorScreen(calls, metrics)

			header := &tui.HeaderInfo{ProjectDir: "omcm", SessionID: cmd.String("addr")}
			w := tui.NewWindow(header, screen)
			p := tea.NewProgram(w, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("monitor UI: %w", err)
			}
			return nil
		},
	}
}
