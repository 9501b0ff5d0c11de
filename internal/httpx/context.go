package httpx

import (
	"context"
	"net/http"

	"bookfinder/internal/logger"
	"bookfinder/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// RequestIDFrom retrieves the request id from the request context.
func RequestIDFrom(r *http.Request) string {
	return logger.RequestID(r.Context())
}

// SessionFrom retrieves the browsing session from the request context.
func SessionFrom(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(sessionKey).(*session.Session); ok {
		return s
	}
	return nil
}

// SessionIDFrom retrieves the browsing session id from the request context.
func SessionIDFrom(r *http.Request) string {
	if s := SessionFrom(r); s != nil {
		return s.ID
	}
	return ""
}

// ContextWithSession returns a new context carrying the session.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
