package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/dota2-results/internal/app"
	"github.com/riskibarqy/dota2-results/internal/observability"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

const telemetryShutdownTimeout = 5 * time.Second

func runCmd(e *env) *cobra.Command {
	var demo, silent bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll live lobbies and announce results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := resolveMode(demo, silent)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry := startTelemetry(e)
			defer shutdownTelemetry()

			a, err := app.New(ctx, e.cfg, mode, e.logger)
			if err != nil {
				return errors.Wrap(err, "build app")
			}
			defer func() {
				if err := a.Close(); err != nil {
					e.logger.Error("close app", "error", err)
				}
			}()

			if err := a.Run(ctx); err != nil {
				return err
			}
			e.logger.Info("results worker stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Replay recent history without posting")
	cmd.Flags().BoolVar(&silent, "silent", false, "Run the full pipeline but log instead of posting")
	return cmd
}

func resolveMode(demo, silent bool) (usecase.Mode, error) {
	switch {
	case demo && silent:
		return "", errors.New("--demo and --silent are mutually exclusive")
	case demo:
		return usecase.ModeDemo, nil
	case silent:
		return usecase.ModeSilent, nil
	default:
		return usecase.ModeLive, nil
	}
}

// startTelemetry brings up tracing and profiling. Failures are logged and the
// worker runs without them.
func startTelemetry(e *env) func() {
	shutdownUptrace, err := observability.InitUptrace(e.cfg, e.logger)
	if err != nil {
		e.logger.Error("init uptrace", "error", err)
		shutdownUptrace = func(context.Context) error { return nil }
	}

	stopPyroscope, err := observability.InitPyroscope(e.cfg, e.logger)
	if err != nil {
		e.logger.Error("init pyroscope", "error", err)
		stopPyroscope = func() error { return nil }
	}

	pprofServer, err := observability.StartPprofServer(e.cfg, e.logger)
	if err != nil {
		e.logger.Error("start pprof", "error", err)
	}

	return func() {
		if err := observability.StopPprofServer(pprofServer, e.logger, telemetryShutdownTimeout); err != nil {
			e.logger.Warn("stop pprof", "error", err)
		}
		if err := stopPyroscope(); err != nil {
			e.logger.Warn("stop pyroscope", "error", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdownUptrace(ctx); err != nil {
			e.logger.Warn("shutdown uptrace", "error", err)
		}
	}
}
