package persistence

import (
	"context"

	"github.com/iota-uz/staffing/pkg/versioned"
)

// inSnapshot runs load on one consistent read, so the row, links and children
// of an aggregate agree on a single version.
func inSnapshot[T any](ctx context.Context, m *versioned.Materializer, load func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := m.Read(ctx, func(ctx context.Context) error {
		var err error
		out, err = load(ctx)
		return err
	})
	return out, err
}
