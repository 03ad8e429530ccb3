package versioned

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Materializer is the read path. Reads are not version-checked; group the
// statements of one aggregate with Read.
type Materializer struct {
	schema  *Schema
	backend Backend
}

func NewMaterializer(schema *Schema, backend Backend) *Materializer {
	return &Materializer{schema: schema, backend: backend}
}

// Read runs fn on one consistent snapshot, so a row and the links loaded with
// it belong to the same version.
func (m *Materializer) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.backend.ReadTx(ctx, fn)
}

// Row scans the scalar columns of k into dest, in Kind.Columns order.
func (m *Materializer) Row(ctx context.Context, k *Kind, id uuid.UUID, dest ...any) (Token, bool, error) {
	if len(dest) != len(k.Columns) {
		return Token{}, false, errors.Errorf("%s: got %d destinations for %d columns", k.Name, len(dest), len(k.Columns))
	}
	version, found, err := m.backend.Scan(ctx, k, id, dest...)
	if err != nil {
		return Token{}, false, errors.Wrapf(err, "scan %s", k.Name)
	}
	return version, found, nil
}

func (m *Materializer) Links(ctx context.Context, r *Relation, owner uuid.UUID) ([]Link, error) {
	links, err := m.backend.Links(ctx, r, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s links", r.Name)
	}
	return links, nil
}

// Children returns the ids of k rows owned by parent.
func (m *Materializer) Children(ctx context.Context, k *Kind, parent uuid.UUID) ([]uuid.UUID, error) {
	dep, ok := m.schema.ParentOf(k)
	if !ok {
		return nil, errors.Errorf("%s has no parent", k.Name)
	}
	ids, err := m.backend.Select(ctx, k, dep.Column, parent)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s children", k.Name)
	}
	return ids, nil
}

// IDs lists every row of k in no particular order.
func (m *Materializer) IDs(ctx context.Context, k *Kind) ([]uuid.UUID, error) {
	ids, err := m.backend.IDs(ctx, k)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", k.Name)
	}
	return ids, nil
}

// Version returns the current token of the row without reading its columns.
func (m *Materializer) Version(ctx context.Context, k *Kind, id uuid.UUID) (Token, bool, error) {
	v, found, err := m.backend.Version(ctx, k, id)
	if err != nil {
		return Token{}, false, errors.Wrapf(err, "read %s version", k.Name)
	}
	return v, found, nil
}
