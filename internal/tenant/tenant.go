// Package tenant holds the small amount of shared logic around the
// opaque tenant id that every ledger, balance, and cube operation is
// scoped by. Unlike the teacher's auth middleware, which stashed the
// caller's workspace id into the request context for handlers to pull
// out implicitly, every exported method in this module takes tenantID
// as an explicit first argument -- there is no HTTP layer here to
// inject it, and implicit context values make it too easy to build a
// query that silently spans tenants.
package tenant

import (
	"context"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// Validate rejects the empty tenant id. Every service method calls
// this before touching a repository.
func Validate(tenantID string) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	return nil
}

type logFieldKey struct{}

// WithLogField attaches tenantID to ctx for structured logging in
// background work (the cube backfill walk) that has no per-request
// caller to thread it from otherwise.
func WithLogField(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, logFieldKey{}, tenantID)
}

// FromLogField retrieves a tenant id attached with WithLogField, or
// "" if none was attached.
func FromLogField(ctx context.Context) string {
	v, _ := ctx.Value(logFieldKey{}).(string)
	return v
}
