package commands

import (
	"context"
	"fmt"

	"github.com/wonny/gem/backend/internal/audit"
	"github.com/wonny/gem/backend/internal/composite"
	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/pkg/config"
	"github.com/wonny/gem/backend/pkg/database"
	"github.com/wonny/gem/backend/pkg/logger"
)

// loadConfig loads the environment config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		switch env {
		case "development", "staging", "production":
			cfg.Env = env
		default:
			return nil, fmt.Errorf("--env must be one of: development, staging, production")
		}
	}
	if compositeFile != "" {
		cfg.Composite.ConfigPath = compositeFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// compositeRuntime bundles the evaluation pipeline built from one config file
type compositeRuntime struct {
	evaluator  *composite.Evaluator
	batch      *composite.Batch
	configYAML []byte
}

func newCompositeRuntime(cfg *config.Config, log *logger.Logger) (*compositeRuntime, error) {
	ccfg, raw, err := compositeconfig.LoadOrDefault(cfg.Composite.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load compositing config: %w", err)
	}

	for _, w := range compositeconfig.Warn(ccfg) {
		log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	evaluator, err := composite.NewEvaluator(ccfg, log)
	if err != nil {
		return nil, fmt.Errorf("create evaluator: %w", err)
	}

	return &compositeRuntime{
		evaluator:  evaluator,
		batch:      composite.NewBatch(evaluator, cfg.Composite.Workers, log),
		configYAML: raw,
	}, nil
}

// openAudit connects to PostgreSQL and applies the run schema
func openAudit(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.DB, *audit.Repository, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := audit.MigrateUp(db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	log.Info("Connected to audit database")
	return db, audit.NewRepository(db.Pool), nil
}
