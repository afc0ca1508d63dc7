package cmd

import (
	"fmt"

	"github.com/harrison/textdump/internal/collector"
	"github.com/harrison/textdump/internal/config"
	"github.com/harrison/textdump/internal/history"
	"github.com/harrison/textdump/internal/logger"
	"github.com/spf13/cobra"
)

// loadConfig reads --config when given, otherwise the config file in the
// working directory, falling back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// changedString returns a pointer to the flag value when the flag was set
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// runDump implements the root command
func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var historyPtr *bool
	if cmd.Flags().Changed("history") {
		v, _ := cmd.Flags().GetBool("history")
		historyPtr = &v
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(
		changedString(cmd, "root"),
		changedString(cmd, "output"),
		changedString(cmd, "log-level"),
		changedString(cmd, "log-dir"),
		changedString(cmd, "compress"),
		historyPtr,
	)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	loggers := []logger.Logger{logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)}
	if cfg.LogDir != "" {
		fileLogger, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	log := logger.NewMultiLogger(loggers...)

	opts := []collector.Option{collector.WithWarningOutput(cmd.ErrOrStderr())}

	if cfg.History.Enabled && !dryRun {
		dbPath, err := cfg.GetHistoryDBPath()
		if err != nil {
			return fmt.Errorf("failed to get history database path: %w", err)
		}
		store, err := history.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()
		opts = append(opts, collector.WithRecorder(store))
	}

	c := collector.New(cfg, log, opts...)

	if dryRun {
		blocks, result, err := c.Collect(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, b := range blocks {
			fmt.Fprintln(out, b.Path)
		}
		log.LogSummary(*result)
		return nil
	}

	_, err = c.Run(cmd.Context())
	return err
}
