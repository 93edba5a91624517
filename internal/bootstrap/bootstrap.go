// Package bootstrap opens the posting history backends named in the
// configuration. Both the worker manager and the report tool use it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ghostjob-workers/internal/common/config"
	"ghostjob-workers/internal/common/database"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/store"
	"ghostjob-workers/internal/store/cache"
	"ghostjob-workers/internal/store/elastic"
	"ghostjob-workers/internal/store/memory"
	"ghostjob-workers/internal/store/postgres"
	"ghostjob-workers/pkg/registry"
)

// FleetTaskType is the worker whose report cache needs Redis.
const FleetTaskType = "list-suspicious-companies"

type Options struct {
	// Attempts and Delay control the connection retry; Delay doubles after
	// every failed attempt.
	Attempts int
	Delay    time.Duration
}

func DefaultOptions() Options {
	return Options{Attempts: 10, Delay: 2 * time.Second}
}

// Resources holds the opened history store and the optional Redis client.
type Resources struct {
	Store   store.HistoryStore
	Backend string
	// Redis is nil when neither the history cache nor the fleet report cache
	// is configured.
	Redis *redis.Client

	closers []func() error
}

// Open connects the configured backend, wraps it with metrics and, when
// enabled, the Redis read-through cache.
func Open(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Resources, error) {
	res := &Resources{Backend: cfg.Store.Backend}

	inner, err := res.openBackend(ctx, cfg, opts, log)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Store = store.NewInstrumented(inner, cfg.Store.Backend)

	if NeedsRedis(cfg) {
		rc := database.NewRedis(cfg.Database.Redis)
		err := Retry(func() error { return rc.Ping(ctx) }, opts, log, "Redis connection")
		if err != nil {
			_ = rc.Close()
			res.Close()
			return nil, err
		}
		res.Redis = rc.Client
		res.closers = append(res.closers, rc.Close)
		log.Info("Redis connected successfully", map[string]interface{}{"address": cfg.Database.Redis.Address})
	}

	if cfg.Store.Cache.Enabled && res.Redis != nil {
		ttl := config.GetDuration(cfg.Store.Cache.TTL)
		res.Store = cache.New(res.Store, res.Redis, ttl, log)
		log.Info("history cache enabled", map[string]interface{}{"ttl": ttl.String()})
	}

	return res, nil
}

func (r *Resources) openBackend(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (store.HistoryStore, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, pg.Close)
		if err := Retry(func() error { return pg.Ping(ctx) }, opts, log, "PostgreSQL connection"); err != nil {
			return nil, err
		}
		st := postgres.New(pg.DB, cfg.Store.Table)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare posting table: %w", err)
		}
		log.Info("PostgreSQL connected successfully", map[string]interface{}{"table": cfg.Store.Table})
		return st, nil

	case config.BackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		if err := Retry(func() error { return es.Ping(ctx) }, opts, log, "Elasticsearch connection"); err != nil {
			return nil, err
		}
		st := elastic.New(es.Client, cfg.Store.Index)
		if err := st.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("prepare posting index: %w", err)
		}
		log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": cfg.Store.Index})
		return st, nil

	case config.BackendMemory:
		log.Warn("using in-memory posting history; records are lost on restart", nil)
		return memory.New(), nil
	}
	return nil, fmt.Errorf("store backend %q is not supported", cfg.Store.Backend)
}

// NeedsRedis reports whether any configured feature uses Redis.
func NeedsRedis(cfg *config.Config) bool {
	if cfg.Store.Cache.Enabled {
		return true
	}
	w, ok := cfg.Workers[FleetTaskType]
	return ok && w.Enabled && w.CacheTTL > 0 && cfg.Database.Redis.Address != ""
}

// Close releases every opened connection in reverse order.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
	r.closers = nil
}

// Retry runs operation until it succeeds or opts.Attempts is exhausted,
// doubling the delay between attempts.
func Retry(operation func() error, opts Options, log logger.Logger, operationName string) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i < attempts-1 {
			log.Warn(operationName+" failed, retrying...", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  attempts,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, err)
}

// WorkerConfig returns the configured settings of taskType with the job
// timeout taken from the activity registry. The configured timeout only
// applies to task types the registry gives no timeout.
func WorkerConfig(cfg *config.Config, reg *registry.ActivityRegistry, taskType string) config.WorkerConfig {
	wc := config.GetWorkerConfig(cfg, taskType)
	if reg != nil {
		wc.Timeout = int(reg.TimeoutFor(taskType, config.GetDuration(wc.Timeout)).Milliseconds())
	}
	return wc
}
