package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookfinder/internal/config"
	"bookfinder/internal/metrics"
	"bookfinder/internal/platform/openlibrary"
	"bookfinder/internal/platform/wikipedia"
	"bookfinder/internal/recent"
	"bookfinder/internal/session"
	"bookfinder/internal/view"
)

// cliSessionID scopes the recent-activity cache of a terminal run.
const cliSessionID = "cli"

// app holds the collaborators shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Registry

	catalog *openlibrary.Client
	wiki    *wikipedia.Client
	store   recent.Store
	redis   *redis.Client
	recent  *recent.Service
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Registry) (*app, error) {
	userAgent := cfg.OpenLibrary.UserAgent
	if userAgent == "" {
		userAgent = "bookfinder/" + version
	}

	catalog, err := openlibrary.NewClient(openlibrary.Config{
		BaseURL:    cfg.OpenLibrary.BaseURL,
		UserAgent:  userAgent,
		RPS:        cfg.OpenLibrary.RPS,
		Burst:      cfg.OpenLibrary.Burst,
		MaxRetries: cfg.OpenLibrary.MaxRetries,
		Timeout:    cfg.OpenLibrary.Timeout,
	}, m, log)
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}

	wiki := wikipedia.NewClient(wikipedia.Config{
		BaseURL:   cfg.Wikipedia.BaseURL,
		UserAgent: userAgent,
		Timeout:   cfg.Wikipedia.Timeout,
	}, m, log)

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		catalog: catalog,
		wiki:    wiki,
	}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc := cfg.Cache.Redis
		client, err := recent.NewRedisClient(ctx, recent.RedisConfig{
			URL:      rc.URL,
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.store = recent.NewRedisStore(client, rc.Prefix, cfg.Session.TTL)
		target := rc.Addr
		if rc.URL != "" {
			target = recent.RedactURL(rc.URL)
		}
		log.Info("recent cache backed by redis", zap.String("redis", target))
	default:
		a.store = recent.NewMemoryStore()
	}

	a.recent = recent.NewService(catalog, a.store, recent.Config{
		Freshness: cfg.Recent.Freshness,
		FanOut:    cfg.Recent.FanOut,
		Timeout:   cfg.Recent.Timeout,
	}, m)
	return a, nil
}

// screens builds the controllers of one session.
func (a *app) screens(sessionID string) *session.Screens {
	return &session.Screens{
		Recent:   view.NewRecentController(a.recent, sessionID),
		Search:   view.NewSearchController(a.catalog),
		Advanced: view.NewAdvancedController(a.catalog),
		Detail:   view.NewDetailController(a.catalog, a.wiki),
	}
}

// ready reports whether the cache backend is reachable.
func (a *app) ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Ping(ctx).Err()
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("close redis", zap.Error(err))
		}
	}
}
