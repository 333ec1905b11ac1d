// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them, services read them, without
// services having to import net/http.
package requestcontext

import "context"

type requestIDKey struct{}

// ContextKeyRequestID is exported for tests that need raw context.WithValue.
var ContextKeyRequestID = requestIDKey{}

// RequestID retrieves the request correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
