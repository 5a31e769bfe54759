package observability

import (
	"context"

	"github.com/google/uuid"
)

// runIDKey is the context key for the run identifier.
// Using a distinct type prevents collisions with other packages.
type runIDKey struct{}

// NewRunContext attaches a fresh run identifier to ctx and returns it along
// with the generated ID. Hook implementations can use the ID to correlate
// events from the same placement run.
func NewRunContext(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, runIDKey{}, id), id
}

// RunID returns the run identifier attached to ctx, or "" if none was set.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
