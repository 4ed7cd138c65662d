// Command results watches professional Dota 2 lobbies and posts final scores.
//
// Usage:
//
//	results run
//	results run --silent
//	results run --demo
//	results teams --start-at 1838315
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/dota2-results/internal/config"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logging.Default().Error("results failed", "error", err)
		os.Exit(1)
	}
}

// env carries what every subcommand needs once the root has loaded it.
type env struct {
	cfg    config.Config
	logger *logging.Logger
}

func rootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "results",
		Short:         "Dota 2 match results bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = newLogger(cfg)
			logging.SetDefault(e.logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.AddCommand(runCmd(e), teamsCmd(e))
	return root
}

func newLogger(cfg config.Config) *logging.Logger {
	format := logging.FormatJSON
	if cfg.AppEnv == config.EnvDev {
		format = logging.FormatConsole
	}
	return logging.New(format, cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
	)
}
