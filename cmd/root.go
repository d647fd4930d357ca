package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/config"
)

const skipConfig = "skip-config"

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	logFile *os.File

	// Global flags
	dryRun   bool
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mtstation",
	Short: "Automate M-Team torrents on a download station",
	Long: `mtstation searches and downloads M-Team torrents, hands them to a
Synology Download Station or qBittorrent, and keeps the station tidy by
deleting stalled or expiring tasks and garbage collecting local metadata.

Every subcommand does one narrow task and is meant to be run from cron.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeLog,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches config.yaml, mt.json and synology.json)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "fetch and log torrent details, set log level to debug")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
}

// initializeApp loads the configuration and sets up the logger. Commands
// annotated with skipConfig only get a console logger.
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] != "" {
		logging := config.LoggingConfig{Level: "info", Format: "console", Color: true}
		if verbose {
			logging.Level = "debug"
		}
		if logLevel != "" {
			logging.Level = logLevel
		}
		logger = setupLogger(logging, cmd.Name())
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Command line flags win over config values, but only when set
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	applyOverrides(cmd, cfg)

	logger = setupLogger(cfg.Logging, cmd.Name())
	logger.Debug().Str("config", cfgFile).Bool("dry_run", cfg.Safety.DryRun).Msg("Configuration loaded")

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, command string) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
		}
	}

	// The log file always receives JSON lines
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", cfg.File, err)
		} else {
			logFile = f
			out = zerolog.MultiLevelWriter(out, f)
		}
	}

	return zerolog.New(out).With().
		Timestamp().
		Str("run", uuid.NewString()).
		Str("cmd", command).
		Logger()
}

func closeLog(cmd *cobra.Command, args []string) error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// getFilterExpression determines the filter expression to use
func getFilterExpression(filterExpr, preset string) (string, error) {
	// Priority: command line filter > preset > default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		return cfg.Preset(preset)
	}

	return cfg.Filter.Default, nil
}
