package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DrFREEST/omcm/calllog"
	"github.com/DrFREEST/omcm/config"
	"github.com/DrFREEST/omcm/fallback"
	"github.com/DrFREEST/omcm/hud"
	"github.com/DrFREEST/omcm/session"
	"github.com/DrFREEST/omcm/state"
	"github.com/DrFREEST/omcm/tui"
	"github.com/urfave/cli/v3"
)

const (
	defaultServeAddr  = "127.0.0.1:4517"
	serveTickInterval = 15 * time.Second
	callBufferSize    = 512
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local control API and OTLP metrics receiver",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: defaultServeAddr,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.String("addr"))
		},
	}
}

func runServe(ctx context.Context, addr string) error {
	paths := state.DefaultPaths()
	cfg := config.Load(paths)

	fusion := state.NewFusionStore(paths)
	limits := state.NewLimitsStore(paths)
	usage := fallback.NewUsageSource()
	orch := fallback.NewOrchestrator(paths, usage.ClaudeUsage)

	buf := calllog.NewBuffer(callBufferSize)
	store, err := calllog.OpenStore(paths)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics := hud.NewMetricBuffer()
	receiver := hud.NewReceiver(metrics, &hud.FusionTokenSink{Store: fusion})
	api := hud.NewControlAPI(fusion, limits, orch, buf, metrics, cfg)

	mux := http.NewServeMux()
	mux.Handle("/v1/metrics", receiver)
	mux.Handle("/", api)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if removed, err := session.CleanupOldSessions(paths, cfg.Context.SessionMaxAgeDays); err == nil && len(removed) > 0 {
		tui.Status("Cleaned", "%d stale sessions", len(removed))
	}

	go serveLoop(ctx, store, buf, limits, orch)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	tui.Status("Listening", "control API and OTLP receiver on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serveLoop periodically mirrors new call-log rows into the in-memory ring,
// refreshes the HUD snapshot and runs the fallback check.
func serveLoop(ctx context.Context, store *calllog.Store, buf *calllog.Buffer, limits *state.LimitsStore, orch *fallback.Orchestrator) {
	// Preload the ring so /calls is useful immediately after start.
	lastID := ""
	if entries, err := store.Since("", callBufferSize); err == nil {
		for _, e := range entries {
			buf.Add(e)
			lastID = e.ID
		}
	}

	ticker := time.NewTicker(serveTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if entries, err := store.Since(lastID, callBufferSize); err == nil {
			for _, e := range entries {
				buf.Add(e)
				lastID = e.ID
			}
		}

		if err := hud.WriteSnapshot(limits); err != nil {
			tui.Debug("snapshot: %v", err)
		}

		if res, err := orch.CheckAndFallback(); err == nil {
			switch res.Action {
			case "fallback":
				tui.Status("Fallback", "%s -> %s (%s)", res.From, res.To, res.Reason)
			case "recover":
				tui.Status("Recovered", "%s -> %s", res.From, res.To)
			}
		}
	}
}
