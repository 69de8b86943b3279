package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/bizauthz/pkg/catalog"
	"github.com/platinummonkey/bizauthz/pkg/config"
	"github.com/platinummonkey/bizauthz/pkg/observability"
	"github.com/platinummonkey/bizauthz/pkg/rbac"
)

// environment is the wiring shared by commands that touch the catalog store
type environment struct {
	config  *config.Config
	log     *logrus.Logger
	logger  *observability.Logger
	db      *sql.DB
	redis   *redis.Client
	manager *rbac.Manager
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// openEnvironment loads configuration from the environment, connects to
// PostgreSQL (and Redis when configured) and builds a Manager. metrics may
// be nil.
func openEnvironment(ctx context.Context, metrics *observability.Metrics) (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log := setupLogger(cfg.LogLevel)

	db, err := catalog.OpenDB(ctx, catalog.DBConfig{
		URL:      cfg.PostgresURL,
		MaxConns: cfg.PostgresMaxConns,
		MinConns: cfg.PostgresMinConns,
		Timeout:  cfg.PostgresTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Debug("connected to postgres")

	env := &environment{config: cfg, log: log, db: db}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		env.redis = redis.NewClient(opts)
		log.Debug("redis cache tier enabled")
	}

	engineConfig := rbac.DefaultConfig()
	engineConfig.CacheSize = cfg.CacheConfig.Size
	engineConfig.CacheTTL = cfg.CacheConfig.TTL
	engineConfig.Redis = env.redis
	engineConfig.DefaultPageSize = cfg.DefaultPageSize
	engineConfig.MaxPageSize = cfg.MaxPageSize
	env.logger = observability.NewLogger(cfg.Level(), os.Stderr)
	engineConfig.Logger = env.logger
	engineConfig.Metrics = metrics

	env.manager = rbac.NewManager(catalog.NewSQLRepository(db), engineConfig)
	return env, nil
}

func (e *environment) Close() {
	if err := e.manager.Close(); err != nil {
		e.log.Warnf("failed to stop cache invalidation listener: %v", err)
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.log.Warnf("failed to close redis client: %v", err)
		}
	}
	if err := e.db.Close(); err != nil {
		e.log.Warnf("failed to close database: %v", err)
	}
}
