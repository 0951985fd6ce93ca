package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"scorify/internal/domain"
)

// CookieName holds the session token.
const CookieName = "token"

// Identity is the authenticated caller.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  domain.Role
}

func (id Identity) IsAdmin() bool { return id.Role == domain.RoleAdmin }

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware rejects requests without a valid session token, read from the
// token cookie or an Authorization bearer header. A stale cookie does not
// shadow a valid header.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, raw := range tokensFromRequest(r) {
			claims, err := i.Verify(raw)
			if err != nil {
				continue
			}
			id := Identity{ID: claims.ID, Email: claims.Email, Name: claims.Name, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			return
		}
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	})
}

// RequireRole rejects authenticated callers without role.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if id.Role != role {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ScopeOwner decides whose records a report covers. Sales users only ever
// see their own; admins see the requested owner, or everyone when requested
// is empty or "all".
func ScopeOwner(id Identity, requested string) string {
	if !id.IsAdmin() {
		return id.ID
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, "all") {
		return ""
	}
	return requested
}

// tokensFromRequest returns the candidate tokens in the order they are
// tried: cookie first, then bearer header.
func tokensFromRequest(r *http.Request) []string {
	var out []string
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		out = append(out, c.Value)
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if tok := strings.TrimSpace(h[7:]); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
