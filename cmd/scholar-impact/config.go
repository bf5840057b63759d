package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/scholar-impact/pkg/importer"
	"github.com/hazyhaar/scholar-impact/pkg/journal"
	"github.com/hazyhaar/scholar-impact/pkg/page"
	"github.com/hazyhaar/scholar-impact/pkg/rerun"
)

type config struct {
	Addr     string `yaml:"addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Table source, first match wins: table_file, table_url, table_dir.
	TableDir  string `yaml:"table_dir" validate:"required_without_all=TableFile TableURL"`
	TableFile string `yaml:"table_file"`
	TableURL  string `yaml:"table_url" validate:"omitempty,url"`

	SourcesDB     string          `yaml:"sources_db" validate:"required"`
	CheckInterval time.Duration   `yaml:"check_interval" validate:"gt=0"`
	Sources       []importer.Spec `yaml:"sources" validate:"dive"`

	Warmup    time.Duration  `yaml:"warmup" validate:"gt=0"`
	Debounce  time.Duration  `yaml:"debounce" validate:"gt=0"`
	Selectors page.Selectors `yaml:"selectors"`
	Denylist  []string       `yaml:"denylist"`
}

func defaultConfig() config {
	return config{
		Addr:          ":8421",
		LogLevel:      "info",
		TableDir:      filepath.Join("tables", "impact-factor"),
		SourcesDB:     filepath.Join("tables", "sources.db"),
		CheckInterval: 6 * time.Hour,
		Warmup:        rerun.DefaultWarmup,
		Debounce:      rerun.DefaultDebounce,
		Selectors:     page.DefaultSelectors(),
	}
}

// loadConfig reads the YAML file at path over the defaults. A missing file
// means defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// tableLoader picks the table source configured in c.
func tableLoader(ctx context.Context, c config) journal.Loader {
	switch {
	case c.TableFile != "":
		m := &journal.Manifest{
			ID:       strings.TrimSuffix(filepath.Base(c.TableFile), filepath.Ext(c.TableFile)),
			DataFile: filepath.Base(c.TableFile),
		}
		return func() (*journal.Table, journal.LoadStats, error) {
			return journal.LoadCSVFile(c.TableFile, m)
		}
	case c.TableURL != "":
		return importer.RemoteLoader(ctx, importer.Spec{ID: "remote", URL: c.TableURL})
	default:
		return func() (*journal.Table, journal.LoadStats, error) {
			return journal.LoadTable(c.TableDir)
		}
	}
}

// openStore loads the configured table. Load failures are logged by the
// store and never fatal: an unreadable source leaves an empty (or partial)
// table and every missing lookup simply misses.
func openStore(ctx context.Context, c config) *journal.Store {
	store := journal.NewStore(tableLoader(ctx, c), c.Denylist, logger)
	_ = store.Load()
	return store
}
