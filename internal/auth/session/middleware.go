package session

import (
	"context"
	"net/http"
	"time"
)

type contextKey struct{}

// ContextWithClaims returns ctx carrying verified session claims.
func ContextWithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClaimsFrom returns the verified claims carried by ctx, if any.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(Claims)
	return c, ok
}

// Attach verifies the session cookie (when present) and injects the claims
// into the request context. Invalid or expired tokens are treated as
// anonymous, not as errors; guards downstream decide what requires auth.
func (m *Manager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := m.FromRequest(r); ok {
			if claims, err := m.Verify(tok, time.Now().UTC()); err == nil {
				r = r.WithContext(ContextWithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects unauthenticated requests by delegating to onFail.
// Composed at route-registration time so the capability check always runs
// before the handler.
func Require(next http.Handler, onFail http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFrom(r.Context()); !ok {
			onFail.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectOnFail sends unauthenticated page requests back to the entry page.
func RedirectOnFail(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Protected pages must not be cached by the browser.
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
