package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"formnotif/internal/config"
	"formnotif/internal/store"
	"formnotif/internal/store/memory"
	"formnotif/internal/store/pg"
	redisstore "formnotif/internal/store/redis"
)

type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// Backend is an opened dispatch log store plus its lifecycle hooks.
type Backend struct {
	Name   string
	Store  store.LogStore
	Ready  func(ctx context.Context) error
	Pruner Pruner
	Close  func()
}

// Open selects the store named by LOG_STORE.
func Open(ctx context.Context, cfg config.LogStorage) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.LogStore))
	switch name {
	case "", "memory":
		s := memory.New(cfg.LogMaxEntries)
		return Backend{
			Name:   "memory",
			Store:  s,
			Ready:  func(context.Context) error { return nil },
			Pruner: s,
			Close:  func() {},
		}, nil

	case "redis":
		client := redisstore.NewClient(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s := redisstore.New(client, cfg.LogMaxEntries)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return Backend{}, fmt.Errorf("backend: redis ping: %w", err)
		}
		return Backend{
			Name:  name,
			Store: s,
			Ready: s.Ping,
			Close: func() { _ = client.Close() },
		}, nil

	case "postgres", "pg":
		if cfg.DBDSN == "" {
			return Backend{}, fmt.Errorf("backend: DB_DSN is required for LOG_STORE=%s", name)
		}
		pool, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{
			MaxConns:          cfg.DBPoolMaxConns,
			MinConns:          cfg.DBPoolMinConns,
			MaxConnLifetime:   cfg.DBPoolMaxConnLifetime,
			MaxConnIdleTime:   cfg.DBPoolMaxConnIdleTime,
			HealthCheckPeriod: cfg.DBPoolHealthCheckPeriod,
		})
		if err != nil {
			return Backend{}, fmt.Errorf("backend: postgres pool: %w", err)
		}
		s := pg.New(pool)
		return Backend{
			Name:   "postgres",
			Store:  s,
			Ready:  pool.Ping,
			Pruner: s,
			Close:  pool.Close,
		}, nil
	}
	return Backend{}, fmt.Errorf("backend: unknown LOG_STORE %q", cfg.LogStore)
}

// RunPruner deletes expired results every interval until ctx is done. It is a
// no-op for backends that expire entries on their own (redis key TTL).
func (b Backend) RunPruner(ctx context.Context, interval time.Duration) {
	if b.Pruner == nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := b.Pruner.Prune(ctx, now.UTC())
			if err != nil {
				slog.Error("prune dispatch logs failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned dispatch logs", "rows", n)
			}
		}
	}
}
