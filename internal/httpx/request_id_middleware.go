package httpx

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookfinder/internal/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware tags each request with an id and a logger carrying it.
func RequestIDMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			w.Header().Set(requestIDHeader, requestID)
			ctx := logger.WithRequestID(r.Context(), log, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
