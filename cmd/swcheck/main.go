package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swcheck/internal/audit"
	"swcheck/internal/checker"
	"swcheck/internal/config"
	"swcheck/internal/notify"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger

	// exitCode is set by commands that finish but want a non-zero exit, so
	// cobra's PersistentPostRun and all defers still run before exiting.
	exitCode int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swcheck",
	Short: "swcheck - software configuration checker for assembled units",
	Long: `swcheck validates the software configuration of assembled units.

It extracts the HWEL, BTLD and SWFL identifiers from a unit's test report
(or from the pre-installation workbook), compares them against the reference
settings for the unit's part number, and records every verdict in an
append-only audit log. NOK verdicts trigger an alert mail.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pdiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// defaultConfigPath resolves the per-user config location.
func defaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "swcheck", "config.json"), nil
}

// loadConfig loads the configuration from --config or the default location
// into a shared store.
func loadConfig() (*config.Store, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return config.NewStore(cfg, path), nil
}

// buildService assembles the checking pipeline from the configuration.
func buildService(store *config.Store) (*checker.Service, error) {
	cfg := store.Snapshot()
	log, err := audit.New(cfg.CSVPath)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = &notify.Mailer{
			Host:    cfg.SMTP.Host,
			Port:    cfg.SMTP.Port,
			From:    cfg.SMTP.From,
			Timeout: time.Duration(cfg.SMTP.TimeoutSeconds) * time.Second,
			Log:     logger,
		}
	} else {
		notifier = notify.LogNotifier{Log: logger}
	}

	return &checker.Service{
		Config:   store,
		Audit:    log,
		Notifier: notifier,
		Log:      logger,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
