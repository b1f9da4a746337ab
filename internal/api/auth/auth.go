// Package auth resolves bearer tokens into tenant principals and gates
// routes by role. It sits below both the router and the handlers so either
// side can read the request principal.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/domain"
)

// Principal is the resolved caller identity on tenant routes.
type Principal struct {
	TenantID     string
	UserID       string
	Roles        []domain.Role
	FeatureFlags map[string]bool
}

// HasRole reports whether the principal carries the role. ADMIN implies
// every other role.
func (p *Principal) HasRole(role domain.Role) bool {
	for _, r := range p.Roles {
		if r == role || r == domain.RoleAdmin {
			return true
		}
	}
	return false
}

// TokenResolver turns a bearer token into a principal. The identity service
// lives outside this module; implementations typically call it over HTTP and
// cache the result.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

type principalKey struct{}

// PrincipalFrom returns the principal stored by Middleware, or nil on
// unauthenticated routes.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// WithPrincipal attaches a principal to the context the way Middleware does.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Middleware resolves the Authorization header and rejects requests
// without a valid bearer token.
func Middleware(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
				return
			}
			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil || principal == nil || principal.TenantID == "" {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole gates a subtree to principals holding at least one of the
// given roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			for _, role := range roles {
				if p.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
		})
	}
}
