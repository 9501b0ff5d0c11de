package httpx

import (
	"net/http"

	"go.uber.org/zap"

	"bookfinder/internal/logger"
	"bookfinder/internal/session"
)

// SessionCookie names the cookie carrying the browsing session id.
const SessionCookie = "bookfinder_session"

// SessionResolver finds or starts a browsing session.
type SessionResolver interface {
	Resolve(id string) (*session.Session, bool)
}

// SessionMiddleware attaches the visitor's session to the request, issuing a
// new cookie when the presented one is unknown or expired. The cookie has no
// expiry so it ends with the browser session.
func SessionMiddleware(sessions SessionResolver, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var presented string
			if c, err := r.Cookie(SessionCookie); err == nil {
				presented = c.Value
			}

			s, created := sessions.Resolve(presented)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    s.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := ContextWithSession(r.Context(), s)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("session_id", s.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
