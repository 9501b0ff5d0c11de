package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bookfinder/internal/httpx"
	"bookfinder/internal/metrics"
)

// RouterConfig collects what the router needs besides the handler.
type RouterConfig struct {
	Sessions      httpx.SessionResolver
	Metrics       *metrics.Registry
	Logger        *zap.Logger
	RateLimit     *httpx.RateLimitMiddleware
	CORSOrigins   []string
	EnableHSTS    bool
	SecureCookies bool
	MaxBodyBytes  int64
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter wires the API routes and the middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/recent", h.Recent)
	api.HandleFunc("GET /v1/search", h.Search)
	api.HandleFunc("POST /v1/search/more", h.SearchMore)
	api.HandleFunc("GET /v1/advanced-search", h.AdvancedSearch)
	api.HandleFunc("DELETE /v1/advanced-search", h.ResetAdvancedSearch)
	api.HandleFunc("GET /v1/books/{id}", h.BookDetail)

	apiMiddlewares := []func(http.Handler) http.Handler{}
	if cfg.RateLimit != nil {
		apiMiddlewares = append(apiMiddlewares, cfg.RateLimit.Middleware)
	}
	apiMiddlewares = append(apiMiddlewares, httpx.SessionMiddleware(cfg.Sessions, cfg.SecureCookies))

	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				http.Error(w, "cache not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", cfg.Metrics.Handler())
	router.Handle("/v1/", httpx.Chain(api, apiMiddlewares...))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware(cfg.Logger),
		httpx.AccessLogMiddleware(cfg.Metrics),
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}
