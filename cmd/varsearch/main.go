package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/config"
	logpkg "github.com/kailas-cloud/varsearch/internal/logger"
	"github.com/kailas-cloud/varsearch/internal/version"
)

var (
	envName     string
	configPath  string
	apiURL      string
	jsonOutput  bool
	ephemeral   bool
	metricsFile string
	envFile     string

	current *app
)

func defaultAPI() string {
	return os.Getenv("VARSEARCH_API_URL")
}

var rootCmd = &cobra.Command{
	Use:   "varsearch",
	Short: "Query client for the codex tabular search API",
	Long: heredoc.Doc(`
		varsearch explores a tabular dataset served by a remote search API.

		It reads the field catalog, turns name=value filters into typed search
		requests, prints result pages, keeps named filter presets and downloads
		exports as csv or xlsx.

		Configuration is read from config/$ENV.yaml (or --config) and falls back
		to built-in defaults when no file exists.
	`),
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger.Debug("starting",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("api", cfg.API.BaseURL),
			zap.String("storage", cfg.Storage.Driver),
		)

		a, err := newApp(cmd.Context(), cfg, logger, prometheus.NewRegistry())
		if err != nil {
			_ = logger.Sync()
			return err
		}
		current = a
		cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger))
		return nil
	},
}

// loadConfig resolves the configuration from --config, the ENV-selected file,
// or the built-in defaults, then applies command-line overrides. Variables
// from --env-file are visible to ${VAR} expansion but never override the
// process environment.
func loadConfig() (config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var (
		cfg config.Config
		err error
	)
	switch {
	case configPath != "":
		cfg, err = config.LoadFile(configPath)
	default:
		cfg, err = config.Load(envName)
		if errors.Is(err, fs.ErrNotExist) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return config.Config{}, err
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if ephemeral {
		cfg.Storage.Driver = config.DriverMemory
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// shutdown writes --metrics-file and closes the app built by
// PersistentPreRunE. It runs after failed commands too, so error counters
// reach the metrics file.
func shutdown() error {
	if current == nil {
		return nil
	}
	defer func() {
		current.Close()
		current = nil
	}()
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, current.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "configuration environment (selects config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI(), "search API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep saved filters in memory only")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write client metrics in text format to this file on exit")

	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(savedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if serr := shutdown(); err == nil {
		err = serr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
