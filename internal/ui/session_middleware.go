package ui

import (
	"context"
	"net/http"

	"github.com/mgruber/texpad/internal/editor"
)

type contextKey struct{}

var sessionKey contextKey

// RequireSession is middleware that resolves the session cookie and injects
// the editor session into the request context.
func RequireSession(registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"no session"}`, http.StatusUnauthorized)
				return
			}

			sess := registry.Get(cookie.Value)
			if sess == nil {
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *editor.Session {
	sess, _ := r.Context().Value(sessionKey).(*editor.Session)
	return sess
}
