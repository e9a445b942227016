// internal/service/tenant.go
package service

import "context"

type tenantKey struct{}

// WithTenant returns a context carrying the tenant ID the request runs against.
// An empty ID selects the default database.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFrom returns the tenant ID stored in ctx, or "" for the default database.
func TenantFrom(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey{}).(string)
	return tenant
}
