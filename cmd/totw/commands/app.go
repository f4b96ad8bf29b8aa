package commands

import (
	"fmt"

	"github.com/wonny/totw/internal/backtest"
	"github.com/wonny/totw/internal/ingest"
	"github.com/wonny/totw/internal/ingest/fpl"
	"github.com/wonny/totw/internal/ingest/understat"
	"github.com/wonny/totw/internal/predict"
	"github.com/wonny/totw/internal/ruleset"
	"github.com/wonny/totw/internal/store"
	"github.com/wonny/totw/pkg/config"
	"github.com/wonny/totw/pkg/database"
	"github.com/wonny/totw/pkg/httputil"
	"github.com/wonny/totw/pkg/logger"
	"github.com/wonny/totw/pkg/redis"
)

// app holds the wired services every command starts from.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	store *store.Postgres
	rules *ruleset.Rules

	ingest  *ingest.Service
	predict *predict.Service
	harness *backtest.Harness
}

// initApp loads config and connects every dependency. Callers must Close.
func initApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Load formation and model rules
	rules, err := ruleset.LoadOrDefault(cfg.Model.RulesPath)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}

	// 6. Create store and external clients
	pg := store.NewPostgres(db.Pool)

	httpClient := httputil.New(log)
	fplClient := fpl.NewClient(cfg.FPL, httpClient, redis.NewCache(redisClient, "fpl"), log)
	understatClient := understat.NewClient(cfg.Understat, httpClient, log)

	// 7. Create services
	ingestSvc := ingest.NewService(fplClient, understatClient, pg, log)
	predictSvc := predict.NewService(pg, pg, rules, cfg.Model, log.Zerolog())
	harness := backtest.New(predictSvc, pg, pg, cfg.Model, log.Zerolog())

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   redisClient,
		store:   pg,
		rules:   rules,
		ingest:  ingestSvc,
		predict: predictSvc,
		harness: harness,
	}, nil
}

// newHarnessWith rebuilds the backtest harness after a model config change,
// e.g. a --workers flag override.
func newHarnessWith(a *app) *backtest.Harness {
	return backtest.New(a.predict, a.store, a.store, a.cfg.Model, a.log.Zerolog())
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
