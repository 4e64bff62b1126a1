// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-harvest/internal/harvest"
	"github.com/pdiddy/paper-harvest/internal/pdftext"
	"github.com/pdiddy/paper-harvest/internal/secrets"
	"github.com/pdiddy/paper-harvest/internal/store"
	"github.com/pdiddy/paper-harvest/internal/store/filestore"
	"github.com/pdiddy/paper-harvest/internal/store/postgres"
	"github.com/pdiddy/paper-harvest/internal/store/sqlite"
	"github.com/pdiddy/paper-harvest/pkg/types"
)

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("base_url", harvest.DefaultBaseURL)
	viper.SetDefault("workers", harvest.DefaultWorkers)
	viper.SetDefault("fetch_timeout", pdftext.DefaultTimeout)
	viper.SetDefault("request_timeout", harvest.DefaultRequestTimeout)
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("max_document_bytes", int64(pdftext.DefaultMaxBytes))
	viper.SetDefault("output_dir", filestore.DefaultDir)
	viper.SetDefault("format", string(types.FormatJSON))
}

func harvestConfig() types.HarvestConfig {
	ua := loadedSecrets.Fill(viper.GetString("user_agent"), secrets.KeyUserAgent)
	if ua == "" {
		ua = "paper-harvest/" + version
	}
	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    durationOr("request_timeout", harvest.DefaultRequestTimeout),
			UserAgent:  ua,
			MaxRetries: viper.GetInt("max_retries"),
		},
		BaseURL:          viper.GetString("base_url"),
		Workers:          viper.GetInt("workers"),
		FetchTimeout:     durationOr("fetch_timeout", pdftext.DefaultTimeout),
		MaxDocumentBytes: viper.GetInt64("max_document_bytes"),
	}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		OutputDir:    viper.GetString("output_dir"),
		Format:       types.FileFormat(viper.GetString("format")),
		AddTimestamp: viper.GetBool("timestamp"),
		SQLitePath:   viper.GetString("sqlite_path"),
		PostgresDSN:  loadedSecrets.Fill(viper.GetString("postgres_dsn"), secrets.KeyPostgresDSN),
	}
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// openSinks opens the file store plus any configured catalogs. withFiles
// false skips the file store.
func openSinks(ctx context.Context, cfg types.StoreConfig, withFiles bool) (store.Sink, error) {
	var sinks []store.Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if withFiles {
		fs, err := filestore.New(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("writing record files", "dir", fs.Dir(), "format", cfg.Format)
		sinks = append(sinks, fs)
	}
	if cfg.SQLitePath != "" {
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("opening sqlite catalog: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.PostgresDSN != "" {
		s, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("opening postgres catalog: %w", err)
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return store.Multi(sinks...), nil
	}
}

func newPipeline(cfg types.HarvestConfig, sink store.Sink) *harvest.Pipeline {
	return harvest.New(harvest.Options{
		Config: cfg,
		Client: &http.Client{},
		Sink:   sink,
		Logger: logger,
	})
}
