package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/courtly/leaguecore/internal/domain"
)

// HTTPResolver introspects bearer tokens against the identity service.
// Successful lookups are cached briefly so hot tenants do not hammer it.
type HTTPResolver struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	cache map[string]cachedPrincipal
}

type cachedPrincipal struct {
	principal *Principal
	expiresAt time.Time
}

const principalCacheTTL = 60 * time.Second

func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   make(map[string]cachedPrincipal),
	}
}

type introspection struct {
	TenantID     string          `json:"tenant_id"`
	UserID       string          `json:"user_id"`
	Roles        []string        `json:"roles"`
	FeatureFlags map[string]bool `json:"feature_flags"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	r.mu.Lock()
	if c, ok := r.cache[token]; ok && time.Now().Before(c.expiresAt) {
		r.mu.Unlock()
		return c.principal, nil
	}
	r.mu.Unlock()

	var out introspection
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/introspect", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := r.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return backoff.Permanent(fmt.Errorf("token rejected: %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("identity service returned %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode introspection: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	roles := make([]domain.Role, 0, len(out.Roles))
	for _, s := range out.Roles {
		role, err := domain.ParseRole(s)
		if err != nil {
			continue
		}
		roles = append(roles, role)
	}
	principal := &Principal{
		TenantID:     out.TenantID,
		UserID:       out.UserID,
		Roles:        roles,
		FeatureFlags: out.FeatureFlags,
	}

	r.mu.Lock()
	r.cache[token] = cachedPrincipal{principal: principal, expiresAt: time.Now().Add(principalCacheTTL)}
	r.mu.Unlock()
	return principal, nil
}

// DevResolver parses "tenant:user:role" tokens. Local development only.
type DevResolver struct{}

func (DevResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("dev token must be tenant:user:role")
	}
	role, err := domain.ParseRole(parts[2])
	if err != nil {
		return nil, err
	}
	return &Principal{
		TenantID: parts[0],
		UserID:   parts[1],
		Roles:    []domain.Role{role},
	}, nil
}
