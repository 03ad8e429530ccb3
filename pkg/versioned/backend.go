package versioned

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is an id with the token it carries after a write.
type Row struct {
	ID      uuid.UUID
	Version Token
}

// Backend is the storage the protocol runs on. Every method resolves its
// connection or transaction from ctx.
type Backend interface {
	// InTx runs fn in one unit of work. Nested calls run in a savepoint and a
	// returned error rolls back only the inner unit.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// ReadTx runs fn against one consistent view of committed state. Inside
	// a unit of work fn runs in it.
	ReadTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Version returns the stored token of the row, found=false when absent.
	Version(ctx context.Context, k *Kind, id uuid.UUID) (Token, bool, error)
	// Insert creates the row unless the id exists. ok=false means another
	// writer created it first.
	Insert(ctx context.Context, k *Kind, id uuid.UUID, version Token, values []any) (bool, error)
	// CompareAndSwap writes values and next in one statement guarded by
	// the stored token equalling expected.
	CompareAndSwap(ctx context.Context, k *Kind, id uuid.UUID, expected, next Token, values []any) (bool, error)
	// Touch bumps each existing row to max(now, current+Resolution).
	Touch(ctx context.Context, k *Kind, ids []uuid.UUID, now time.Time) ([]Row, error)
	Delete(ctx context.Context, k *Kind, id uuid.UUID) (bool, error)

	// Scan reads Kind.Columns into dest in order.
	Scan(ctx context.Context, k *Kind, id uuid.UUID, dest ...any) (Token, bool, error)
	IDs(ctx context.Context, k *Kind) ([]uuid.UUID, error)
	// Select returns ids of rows whose column equals value.
	Select(ctx context.Context, k *Kind, column string, value uuid.UUID) ([]uuid.UUID, error)
	// Lookup maps each id to the non-null uuid stored in column.
	Lookup(ctx context.Context, k *Kind, ids []uuid.UUID, column string) (map[uuid.UUID]uuid.UUID, error)
	// LabelTaken reports whether a row other than except carries label, ignoring case.
	LabelTaken(ctx context.Context, k *Kind, label string, except uuid.UUID) (bool, error)

	// Links returns the owner's pairs with the target's label.
	Links(ctx context.Context, r *Relation, owner uuid.UUID) ([]Link, error)
	AddLinks(ctx context.Context, r *Relation, owner uuid.UUID, links []Link) error
	RemoveLinks(ctx context.Context, r *Relation, owner uuid.UUID, refs []uuid.UUID) error
	// Owners returns the owners referencing ref.
	Owners(ctx context.Context, r *Relation, ref uuid.UUID) ([]uuid.UUID, error)
	ClearOwner(ctx context.Context, r *Relation, owner uuid.UUID) (int64, error)
	ClearTarget(ctx context.Context, r *Relation, ref uuid.UUID) (int64, error)
}
