// Package migrations holds the goose migrations of the staffing schema and
// applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

func NewProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return nil, errors.Wrap(err, "create goose provider")
	}
	return p, nil
}

// Up applies every pending migration through the pool.
func Up(ctx context.Context, pool *pgxpool.Pool) ([]*goose.MigrationResult, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	p, err := NewProvider(db)
	if err != nil {
		return nil, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return results, errors.Wrap(err, "apply migrations")
	}
	return results, nil
}

// Status lists every known migration with its state.
func Status(ctx context.Context, pool *pgxpool.Pool) ([]*goose.MigrationStatus, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	p, err := NewProvider(db)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read migration status")
	}
	return statuses, nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, pool *pgxpool.Pool) (*goose.MigrationResult, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	p, err := NewProvider(db)
	if err != nil {
		return nil, err
	}
	res, err := p.Down(ctx)
	if err != nil {
		return res, errors.Wrap(err, "roll back migration")
	}
	return res, nil
}

// Pending counts migrations that are not applied yet.
func Pending(statuses []*goose.MigrationStatus) int {
	n := 0
	for _, s := range statuses {
		if s.State != goose.StateApplied {
			n++
		}
	}
	return n
}
