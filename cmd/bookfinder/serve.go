package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apphttp "bookfinder/internal/http"
	"bookfinder/internal/httpx"
	"bookfinder/internal/metrics"
	"bookfinder/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `serve starts the HTTP API. Each visitor gets a session cookie that keeps
their screens (recent feed, search, advanced search, detail) between
requests. Idle sessions expire after session.ttl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			appConfig.App.Addr = addr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides app.addr)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, log := appConfig, appLogger
	m := metrics.New()

	a, err := newApp(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer a.close()

	sessions := session.NewManager(session.Config{
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
	}, a.screens, m, log)
	sessions.OnExpire(func(ctx context.Context, sessionID string) {
		if err := a.recent.Forget(ctx, sessionID); err != nil {
			log.Warn("drop recent cache entry", zap.String("session_id", sessionID), zap.Error(err))
		}
	})

	var limiter *httpx.RateLimitMiddleware
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = httpx.NewRateLimitMiddleware(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, cfg.HTTP.TrustProxy)
		go limiter.Run(ctx)
	}
	go sessions.Run(ctx)

	router := apphttp.NewRouter(apphttp.NewHandler(), apphttp.RouterConfig{
		Sessions:      sessions,
		Metrics:       m,
		Logger:        log,
		RateLimit:     limiter,
		CORSOrigins:   cfg.HTTP.CORSAllowOrigins,
		EnableHSTS:    cfg.HTTP.EnableHSTS,
		SecureCookies: cfg.HTTP.SecureCookies,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		Ready:         a.ready,
	})

	httpServer := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.App.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("cache", cfg.Cache.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
