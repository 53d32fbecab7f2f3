// Package main provides the vibegallery binary entry point. Vibegallery
// scans a directory tree of standalone HTML apps and keeps the gallery's
// JSON manifest in sync, either once or continuously.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibegallery/vibegallery/config"
	"github.com/vibegallery/vibegallery/watcher"
)

const (
	Version   = "0.2.0"
	BuildTime = "dev"
	appName   = "vibegallery"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags shared by every mode.
type cliFlags struct {
	configPath string
	root       string
	logLevel   string
	noArchive  bool
	interval   string
	once       bool
}

func rootCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "vibegallery",
		Short: "Gallery manifest engine for local-first HTML apps",
		Long: `Vibegallery walks a directory tree of standalone HTML applications,
extracts metadata from each, classifies them into the gallery taxonomy,
groups versioned copies, and writes the JSON manifest the gallery index
page consumes.

Without a subcommand it runs in watch mode, continuously re-syncing the
manifest as files change. Use "update" (or --once) for a single pass.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.once {
				return runOnce(cmd, flags)
			}
			return runWatch(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.root, "root", "", "Scan root (default: current directory)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.noArchive, "no-archive", false, "Exclude the archive/ subtree")
	cmd.Flags().BoolVar(&flags.once, "once", false, "Run a single pass and exit")
	cmd.Flags().StringVar(&flags.interval, "interval", "", "Polling interval in watch mode (seconds, or a duration like 500ms)")

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Run a single pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, flags)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the tree and re-sync the manifest on changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}
	watchCmd.Flags().StringVar(&flags.interval, "interval", "", "Polling interval (seconds, or a duration like 500ms)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}

	cmd.AddCommand(updateCmd, watchCmd, versionCmd)
	return cmd
}

func runOnce(cmd *cobra.Command, flags *cliFlags) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watcher.New(cfg, logger).RunOnce(ctx)
}

func runWatch(cmd *cobra.Command, flags *cliFlags) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Interrupt is the normal way to leave watch mode; exit 0.
	return watcher.New(cfg, logger).Run(ctx)
}

// parseInterval reads a polling interval. A bare number means seconds, so
// "--interval 5" and "--interval 5s" are equivalent; anything else must be a
// Go duration string.
func parseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// setup configures logging, loads the layered config, and overlays flags.
func setup(flags *cliFlags) (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(flags.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	loader := config.NewLoader(logger)
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = loader.LoadFile(flags.configPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if flags.root != "" {
		cfg.Scan.Root = flags.root
	}
	if flags.noArchive {
		exclude := false
		cfg.Scan.IncludeArchive = &exclude
	}
	if flags.interval != "" {
		interval, err := parseInterval(flags.interval)
		if err != nil {
			return nil, nil, fmt.Errorf("parse interval: %w", err)
		}
		if interval <= 0 {
			return nil, nil, fmt.Errorf("interval must be positive: %s", flags.interval)
		}
		cfg.Watch.Interval = interval
	}

	info, err := os.Stat(cfg.Scan.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", cfg.Scan.Root)
	}

	return cfg, logger, nil
}
