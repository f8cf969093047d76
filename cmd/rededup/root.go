package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/rrconfig"
	"github.com/sherwoodwang/rededup/version"
)

var (
	repositoryFlag string
	verboseFlag    bool
	logFileFlag    string
	logLevelFlag   string
	configFlag     string

	showVersion bool
)

func init() {
	RootCmd.PersistentFlags().StringVar(&repositoryFlag, "repository", "", "repository root (default: discovered from the working directory)")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write logs to this file instead of stderr")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to an optional rrconfig YAML file")

	RootCmd.Flags().BoolVar(&showVersion, "version", false, "show the version and exit")

	RootCmd.AddCommand(rebuildCmd)
	RootCmd.AddCommand(refreshCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(describeCmd)
	RootCmd.AddCommand(diffTreeCmd)
	RootCmd.AddCommand(inspectCmd)
}

// RootCmd is the rededup binary's top-level command.
var RootCmd = &cobra.Command{
	Use:   "rededup",
	Short: "content-addressed file and directory duplicate indexer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			version.PrintVersion()
			return nil
		}
		return cmd.Usage()
	},
}

// commandContext resolves process-wide configuration, configures
// logging accordingly, and returns the root context every subcommand
// derives its own context from.
func commandContext() (context.Context, error) {
	cfg, err := rrconfig.ParseFile(configFlag)
	if err != nil {
		return nil, fmt.Errorf("rededup: %w", err)
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if verboseFlag {
		cfg.Log.Level = "debug"
	}
	return configureLogging(dcontext.Background(), cfg)
}

// configureLogging prepares the context with a logger built from cfg,
// mirroring the registry's own configureLogging step: the formatter
// and level come from configuration, static fields (if any) are bound
// into the context, and the resulting logger becomes the package-wide
// default every dcontext.GetLogger call falls back to.
func configureLogging(ctx context.Context, cfg rrconfig.Configuration) (context.Context, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch cfg.Log.Formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return ctx, fmt.Errorf("unsupported logging formatter: %q", cfg.Log.Formatter)
	}

	if logFileFlag != "" {
		f, err := os.OpenFile(logFileFlag, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return ctx, fmt.Errorf("rededup: open log file: %w", err)
		}
		logrus.SetOutput(f)
	}

	if len(cfg.Log.Fields) > 0 {
		var keys []any
		for k := range cfg.Log.Fields {
			keys = append(keys, k)
		}
		ctx = dcontext.WithValues(ctx, cfg.Log.Fields)
		ctx = dcontext.WithLogger(ctx, dcontext.GetLogger(ctx, keys...))
	}

	dcontext.SetDefaultLogger(dcontext.GetLogger(ctx))
	return ctx, nil
}
