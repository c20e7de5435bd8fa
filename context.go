package wfaclient

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a caller-chosen request correlation ID to
// ctx. The transport sends it as X-Request-ID; without one, a fresh
// UUID is generated per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
