package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// TenantKey is the context key for the tenant identifier.
const TenantKey contextKey = "tenant"

// DefaultTenant is used when a request carries no tenant information.
const DefaultTenant = "default"

// TenantExtractor resolves the tenant for a request: the X-Tenant-Id header
// first, then the tenant query parameter, then the default. Session-based
// tenant resolution belongs to the platform's auth layer, which fronts this
// service.
func TenantExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
		if tenant == "" {
			tenant = strings.TrimSpace(r.URL.Query().Get("tenant"))
		}
		if tenant == "" {
			tenant = DefaultTenant
		}

		ctx := context.WithValue(r.Context(), TenantKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenant retrieves the tenant identifier from the request context.
func GetTenant(ctx context.Context) string {
	if v, ok := ctx.Value(TenantKey).(string); ok {
		return v
	}
	return DefaultTenant
}
