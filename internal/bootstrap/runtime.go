// Package bootstrap wires the process-wide runtime shared by the server and
// the operator commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"skillshare/internal/cache"
	"skillshare/internal/config"
	"skillshare/internal/database"
	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is stamped into traces.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	ServiceName string
	// SeedDemo fills an empty development database with demo data.
	SeedDemo   bool
	SeedPreset string
}

// Runtime holds the connections opened by InitRuntime.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime starts tracing, connects to the database and Redis, and
// optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	name := opts.ServiceName
	if name == "" {
		name = "skillshare-api"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{DB: db, Redis: cache.GetClient(), shutdownTracing: shutdown}

	if opts.SeedDemo {
		if err := seedDemoIfEmpty(context.Background(), cfg, db, opts.SeedPreset); err != nil {
			_ = rt.Close(context.Background())
			return nil, fmt.Errorf("demo seed failed: %w", err)
		}
	}
	return rt, nil
}

// ShutdownTracing flushes pending spans. Use it when the server owns the
// connections and closes them itself.
func (r *Runtime) ShutdownTracing(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// Close flushes traces and releases connections.
func (r *Runtime) Close(ctx context.Context) error {
	firstErr := r.ShutdownTracing(ctx)
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// seedDemoIfEmpty only runs in development and only when no users exist.
func seedDemoIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB, preset string) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "demo seed skipped, database not empty", slog.Int64("users", users))
		return nil
	}

	if preset == "" {
		preset = "demo"
	}
	presets, err := seed.LoadPresets("")
	if err != nil {
		return err
	}
	opts, err := seed.ApplyPreset(seed.Options{}, presets, preset)
	if err != nil {
		return err
	}
	report, err := seed.NewSeeder(db, opts).Run(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development demo data seeded",
		slog.String("preset", preset), slog.String("report", report.String()))
	return nil
}
