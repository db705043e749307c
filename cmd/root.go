package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mssqlscript/mssqlscript/internal/config"
	"github.com/mssqlscript/mssqlscript/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootOpts scriptOptions

var rootCmd = &cobra.Command{
	Use:   "mssqlscript",
	Short: "mssqlscript generates SQL Server DROP, CREATE and INSERT scripts",
	Long: `mssqlscript reads the catalog of a SQL Server database and writes a
T-SQL script that drops, recreates and repopulates its tables.

Running without a subcommand is the same as "mssqlscript script".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, &rootOpts)
	},
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads --config, falling back to defaults when no file exists at
// the default location.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger honours --log-level over the config file. When the log
// directory cannot be used it logs to stderr only.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") || level == "" {
		level = logLevel
	}
	logger, err := logging.Setup(level, cfg.Logging.Directory)
	if err != nil {
		logger = logging.New(os.Stderr, level)
		logger.Warn("file logging disabled", "error", err)
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mssqlscript/mssqlscript.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	addScriptFlags(rootCmd, &rootOpts)
}
