// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-harvest CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-harvest/internal/logging"
	"github.com/pdiddy/paper-harvest/internal/metrics"
	"github.com/pdiddy/paper-harvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	logger = logging.Nop()

	metricsServer *metrics.Server
)

// rootCmd is the base command for the paper-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-harvest",
	Short: "Retrieve arXiv papers with their full text",
	Long: `paper-harvest queries the arXiv search API, normalizes every returned entry,
downloads each paper's PDF and extracts its text. Entries of one query are
processed concurrently on a bounded worker pool.

harvest persists the results as JSON or YAML files and optionally into a
SQLite or Postgres catalog; read streams them to stdout as they complete;
list queries the SQLite catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetString("log_level"), viper.GetString("log_format"), os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(logger)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}

		if addr := viper.GetString("metrics_addr"); addr != "" {
			metricsServer = metrics.Start(addr, logger)
			logger.Info("serving metrics", "addr", addr)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return metricsServer.Stop(context.Background())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-harvest.yaml or ~/.config/paper-harvest/paper-harvest.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warning, error, critical")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	pf.String("base-url", "", "search endpoint the query string is appended to")
	pf.Int("workers", 0, "size of the shared worker pool")
	pf.Duration("fetch-timeout", 0, "timeout for each document download")
	pf.Duration("request-timeout", 0, "timeout for each search request")
	pf.String("user-agent", "", "User-Agent header for outgoing requests")
	pf.Int("max-retries", 0, "retries on HTTP 429/503 (negative disables)")
	pf.Int64("max-document-bytes", 0, "largest document accepted, in bytes")

	pf.String("output-dir", "", "directory that receives one file per paper")
	pf.String("format", "", "record file format: json or yaml")
	pf.Bool("timestamp", false, "append a YYYYMMDDhhmmss suffix to file names")
	pf.String("sqlite-path", "", "also upsert records into this SQLite catalog")
	pf.String("postgres-dsn", "", "also upsert records into this Postgres catalog")

	for _, name := range []string{
		"log-level", "log-format", "metrics-addr",
		"base-url", "workers", "fetch-timeout", "request-timeout", "user-agent",
		"max-retries", "max-document-bytes",
		"output-dir", "format", "timestamp", "sqlite-path", "postgres-dsn",
	} {
		if err := viper.BindPFlag(configKey(name), pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// configKey maps a flag name to its viper key ("fetch-timeout" -> "fetch_timeout").
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-harvest"))
		}
	}

	viper.SetEnvPrefix("PAPER_HARVEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
