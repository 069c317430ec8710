package correlation

import (
	"context"

	"github.com/google/uuid"
)

type key string

const contextKey = key("x-correlation-id")

// WithID returns a context carrying the given correlation id.
// It mints a fresh id when the provided one is empty.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return context.WithValue(ctx, contextKey, generate())
	}

	return context.WithValue(ctx, contextKey, id)
}

// FromContext returns the correlation id from ctx if available.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey).(string)

	return id
}

// Ensure returns a context guaranteed to carry a correlation id,
// minting one when the incoming context has none.
func Ensure(ctx context.Context) context.Context {
	if FromContext(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey, generate())
}

// generate returns a uuid-v4 string to use as a correlation id.
func generate() string {
	return uuid.NewString()
}
