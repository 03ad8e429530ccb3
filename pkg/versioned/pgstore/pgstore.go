// Package pgstore runs the versioned protocol on PostgreSQL through pgx. The
// connection is resolved from the context: the transaction placed there by
// InTx, otherwise the pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/staffing/pkg/composables"
	"github.com/iota-uz/staffing/pkg/repo"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type Store struct{}

func New() *Store {
	return &Store{}
}

var _ versioned.Backend = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.WithinTx(ctx, fn)
}

// ReadTx runs fn on one read-only REPEATABLE READ snapshot, or inside the
// transaction ctx already carries.
func (s *Store) ReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.WithinReadTx(ctx, fn)
}

func (s *Store) Version(ctx context.Context, k *versioned.Kind, id uuid.UUID) (versioned.Token, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return versioned.Token{}, false, err
	}
	var ts time.Time
	err = tx.QueryRow(ctx, versionQuery(k), id).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return versioned.Token{}, false, nil
	}
	if err != nil {
		return versioned.Token{}, false, err
	}
	return versioned.TokenOf(ts), true, nil
}

func (s *Store) Insert(ctx context.Context, k *versioned.Kind, id uuid.UUID, version versioned.Token, values []any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	args := make([]any, 0, len(values)+2)
	args = append(args, id)
	args = append(args, values...)
	args = append(args, version.Time())
	tag, err := tx.Exec(ctx, insertQuery(k), args...)
	if err != nil {
		return false, uniqueViolation(k, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, k *versioned.Kind, id uuid.UUID, expected, next versioned.Token, values []any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	args := make([]any, 0, len(values)+3)
	args = append(args, id, expected.Time())
	args = append(args, values...)
	args = append(args, next.Time())
	tag, err := tx.Exec(ctx, compareAndSwapQuery(k), args...)
	if err != nil {
		return false, uniqueViolation(k, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Touch(ctx context.Context, k *versioned.Kind, ids []uuid.UUID, now time.Time) ([]versioned.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, touchQuery(k), ids, versioned.TokenOf(now).Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]versioned.Row, 0, len(ids))
	for rows.Next() {
		var (
			id uuid.UUID
			ts time.Time
		)
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, err
		}
		out = append(out, versioned.Row{ID: id, Version: versioned.TokenOf(ts)})
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, k *versioned.Kind, id uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", repo.Quote(k.Table), repo.Quote(k.IDColumn)), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Scan(ctx context.Context, k *versioned.Kind, id uuid.UUID, dest ...any) (versioned.Token, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return versioned.Token{}, false, err
	}
	var ts time.Time
	targets := append(append(make([]any, 0, len(dest)+1), dest...), &ts)
	err = tx.QueryRow(ctx, scanQuery(k), id).Scan(targets...)
	if errors.Is(err, pgx.ErrNoRows) {
		return versioned.Token{}, false, nil
	}
	if err != nil {
		return versioned.Token{}, false, err
	}
	return versioned.TokenOf(ts), true, nil
}

func (s *Store) IDs(ctx context.Context, k *versioned.Kind) ([]uuid.UUID, error) {
	return s.ids(ctx, fmt.Sprintf("SELECT %s FROM %s", repo.Quote(k.IDColumn), repo.Quote(k.Table)))
}

func (s *Store) Select(ctx context.Context, k *versioned.Kind, column string, value uuid.UUID) ([]uuid.UUID, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", repo.Quote(k.IDColumn), repo.Quote(k.Table), repo.Quote(column))
	return s.ids(ctx, q, value)
}

func (s *Store) Lookup(ctx context.Context, k *versioned.Kind, ids []uuid.UUID, column string) (map[uuid.UUID]uuid.UUID, error) {
	out := make(map[uuid.UUID]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	col := repo.Quote(column)
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ANY($1::uuid[]) AND %s IS NOT NULL",
		repo.Quote(k.IDColumn), col, repo.Quote(k.Table), repo.Quote(k.IDColumn), col)
	rows, err := tx.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, ref uuid.UUID
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, err
		}
		out[id] = ref
	}
	return out, rows.Err()
}

func (s *Store) LabelTaken(ctx context.Context, k *versioned.Kind, label string, except uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE lower(%s) = lower($1) AND %s <> $2)",
		repo.Quote(k.Table), repo.Quote(k.LabelColumn), repo.Quote(k.IDColumn))
	var taken bool
	if err := tx.QueryRow(ctx, q, label, except).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (s *Store) Links(ctx context.Context, r *versioned.Relation, owner uuid.UUID) ([]versioned.Link, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, linksQuery(r), owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []versioned.Link
	for rows.Next() {
		var l versioned.Link
		if err := rows.Scan(&l.Ref, &l.Level, &l.Label); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) AddLinks(ctx context.Context, r *versioned.Relation, owner uuid.UUID, links []versioned.Link) error {
	if len(links) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	columns := []string{r.OwnerColumn, r.RefColumn}
	if r.Leveled() {
		columns = append(columns, r.LevelColumn)
	}
	_, err = tx.CopyFrom(ctx, repo.Identifier(r.JoinTable), columns,
		pgx.CopyFromSlice(len(links), func(i int) ([]any, error) {
			if r.Leveled() {
				return []any{owner, links[i].Ref, links[i].Level}, nil
			}
			return []any{owner, links[i].Ref}, nil
		}),
	)
	return err
}

func (s *Store) RemoveLinks(ctx context.Context, r *versioned.Relation, owner uuid.UUID, refs []uuid.UUID) error {
	if len(refs) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = ANY($2::uuid[])",
		repo.Quote(r.JoinTable), repo.Quote(r.OwnerColumn), repo.Quote(r.RefColumn))
	_, err = tx.Exec(ctx, q, owner, refs)
	return err
}

func (s *Store) Owners(ctx context.Context, r *versioned.Relation, ref uuid.UUID) ([]uuid.UUID, error) {
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s = $1",
		repo.Quote(r.OwnerColumn), repo.Quote(r.JoinTable), repo.Quote(r.RefColumn))
	return s.ids(ctx, q, ref)
}

func (s *Store) ClearOwner(ctx context.Context, r *versioned.Relation, owner uuid.UUID) (int64, error) {
	return s.clear(ctx, r, r.OwnerColumn, owner)
}

func (s *Store) ClearTarget(ctx context.Context, r *versioned.Relation, ref uuid.UUID) (int64, error) {
	return s.clear(ctx, r, r.RefColumn, ref)
}

func (s *Store) clear(ctx context.Context, r *versioned.Relation, column string, id uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", repo.Quote(r.JoinTable), repo.Quote(column)), id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ids(ctx context.Context, q string, args ...any) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// uniqueViolation wraps a 23505 raised by any constraint but the primary key
// with versioned.ErrDuplicate. Id clashes are settled by ON CONFLICT.
func uniqueViolation(k *versioned.Kind, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if pgErr.ConstraintName == k.Table+"_pkey" {
		return err
	}
	return fmt.Errorf("%w: %s (%s)", versioned.ErrDuplicate, pgErr.ConstraintName, pgErr.Detail)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = repo.Quote(n)
	}
	return out
}

func versionQuery(k *versioned.Kind) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		repo.Quote(k.VersionColumn), repo.Quote(k.Table), repo.Quote(k.IDColumn))
}

func scanQuery(k *versioned.Kind) string {
	cols := append(quoteAll(k.Columns), repo.Quote(k.VersionColumn))
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(cols, ", "), repo.Quote(k.Table), repo.Quote(k.IDColumn))
}

func insertQuery(k *versioned.Kind) string {
	cols := make([]string, 0, len(k.Columns)+2)
	cols = append(cols, repo.Quote(k.IDColumn))
	cols = append(cols, quoteAll(k.Columns)...)
	cols = append(cols, repo.Quote(k.VersionColumn))
	params := make([]string, len(cols))
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		repo.Quote(k.Table), strings.Join(cols, ", "), strings.Join(params, ", "), repo.Quote(k.IDColumn))
}

// compareAndSwapQuery binds $1 id, $2 expected token, then the columns, then
// the next token.
func compareAndSwapQuery(k *versioned.Kind) string {
	set := make([]string, 0, len(k.Columns)+1)
	for i, c := range k.Columns {
		set = append(set, fmt.Sprintf("%s = $%d", repo.Quote(c), i+3))
	}
	set = append(set, fmt.Sprintf("%s = $%d", repo.Quote(k.VersionColumn), len(k.Columns)+3))
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 AND %s = $2",
		repo.Quote(k.Table), strings.Join(set, ", "), repo.Quote(k.IDColumn), repo.Quote(k.VersionColumn))
}

func touchQuery(k *versioned.Kind) string {
	v := repo.Quote(k.VersionColumn)
	return fmt.Sprintf(
		"UPDATE %s SET %s = GREATEST($2::timestamptz, %s + interval '1 microsecond') WHERE %s = ANY($1::uuid[]) RETURNING %s, %s",
		repo.Quote(k.Table), v, v, repo.Quote(k.IDColumn), repo.Quote(k.IDColumn), v)
}

func linksQuery(r *versioned.Relation) string {
	level := "''"
	if r.Leveled() {
		level = "j." + repo.Quote(r.LevelColumn)
	}
	label := "''"
	if r.Target.LabelColumn != "" {
		label = fmt.Sprintf("COALESCE(t.%s::text, '')", repo.Quote(r.Target.LabelColumn))
	}
	return fmt.Sprintf(
		"SELECT j.%s, %s, %s FROM %s j LEFT JOIN %s t ON t.%s = j.%s WHERE j.%s = $1 ORDER BY j.%s",
		repo.Quote(r.RefColumn), level, label,
		repo.Quote(r.JoinTable), repo.Quote(r.Target.Table),
		repo.Quote(r.Target.IDColumn), repo.Quote(r.RefColumn),
		repo.Quote(r.OwnerColumn), repo.Quote(r.RefColumn))
}
