package cmd

import (
	"context"
	"fmt"

	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/triggers"
	"github.com/urfave/cli/v3"
)

func TriggersCommand() *cli.Command {
	return &cli.Command{
		Name:     "triggers",
		Usage:    "Evaluate advisory routing triggers against session metrics",
		Category: "Utilities",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "hourly-requests", Usage: "Requests in the last hour"},
			&cli.FloatFlag{Name: "cost-usd", Usage: "Session cost in USD"},
			&cli.UintFlag{Name: "mcp-failures", Usage: "Consecutive MCP failures"},
			&cli.UintFlag{Name: "latency-ms", Usage: "Average response latency in milliseconds"},
			&cli.UintFlag{Name: "tokens-per-minute", Usage: "Token burn rate"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := collectTriggerMetrics(cmd)

			cfg := config.Load(state.DefaultPaths())
			result := triggers.Evaluate(m, &cfg.Triggers)

			if !result.Triggered {
				fmt.Println("No triggers fired.")
				return nil
			}
			for _, hit := range result.Triggers {
				fmt.Printf("%-10s %-20s %s (%.4g >= %.4g)\n",
					hit.Severity, hit.ID, hit.Reason, hit.Value, hit.Threshold)
			}
			if rec := triggers.RecommendedAction(result.Triggers); rec != nil {
				fmt.Printf("\nRecommended: %s (%s)\n", rec.Action, rec.Reason)
			}
			return nil
		},
	}
}

// collectTriggerMetrics builds the metrics snapshot from whichever flags
// were set. Latency is tracked as a float to match the threshold math.
func collectTriggerMetrics(cmd *cli.Command) triggers.Metrics {
	var m triggers.Metrics
	if cmd.IsSet("hourly-requests") {
		v := uint64(cmd.Uint("hourly-requests"))
		m.HourlyRequests = &v
	}
	if cmd.IsSet("cost-usd") {
		v := cmd.Float("cost-usd")
		m.SessionCostUSD = &v
	}
	if cmd.IsSet("mcp-failures") {
		v := uint64(cmd.Uint("mcp-failures"))
		m.ConsecutiveMCPFails = &v
	}
	if cmd.IsSet("latency-ms") {
		v := float64(cmd.Uint("latency-ms"))
		m.AvgLatencyMS = &v
	}
	if cmd.IsSet("tokens-per-minute") {
		v := uint64(cmd.Uint("tokens-per-minute"))
		m.TokensPerMinute = &v
	}
	return m
}
