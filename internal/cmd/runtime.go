package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/archmetrics/internal/batch"
	"github.com/Iron-Ham/archmetrics/internal/config"
	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/logging"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/source"
	"github.com/Iron-Ham/archmetrics/internal/store"
)

// appFs is the filesystem used for documents and output files.
var appFs = afero.NewOsFs()

// runtime bundles what a command needs to compute metrics.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	engine *metrics.Engine
	runner *batch.Runner
}

// newRuntime loads the configuration and builds the engine for the selected
// metrics (empty means all).
func newRuntime(selected []string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.File, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	engine, err := metrics.NewEngine(engineOptions(cfg, selected), logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	runner, err := batch.NewRunner(engine, batch.Options{
		Workers:         cfg.Batch.WorkerCount(),
		DocumentTimeout: cfg.Batch.DocumentTimeout(),
		CacheSize:       cfg.Watch.CacheSize,
	}, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, engine: engine, runner: runner}, nil
}

func (r *runtime) Close() error {
	return r.logger.Close()
}

// source opens the document folder with the configured file pattern.
func (r *runtime) source(dir string) (*source.Source, error) {
	return source.New(appFs, dir, r.cfg.Batch.Pattern)
}

// engineOptions maps the configuration onto engine options.
func engineOptions(cfg *config.Config, selected []string) metrics.Options {
	return metrics.Options{
		Parse: decomposition.Options{
			StructuralLayer: cfg.Layers.Structural,
			BusinessLayer:   cfg.Layers.Business,
			UseCaseMarker:   cfg.Metrics.UseCaseMarker,
		},
		SizeConstant:     cfg.Metrics.SizeConstant,
		DepthConstant:    cfg.Metrics.DepthConstant,
		PathSearchBudget: cfg.Metrics.PathSearchBudget,
		Metrics:          selected,
	}
}

// storePath resolves the --store flag: an explicit path wins, then the
// configured path, then the default database in the config directory when
// the flag was given without a value.
func storePath(flagValue string, flagSet bool, cfg *config.Config) string {
	switch {
	case flagValue != "" && flagValue != defaultStoreSentinel:
		return flagValue
	case cfg.Store.Path != "":
		return cfg.Store.Path
	case flagSet:
		return filepath.Join(config.ConfigDir(), store.DefaultFileName)
	default:
		return ""
	}
}

// defaultStoreSentinel is the value of a bare --store flag.
const defaultStoreSentinel = "default"
