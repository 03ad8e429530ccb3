// Package memstore is an in-process versioned.Backend. Units of work are
// serialized and roll back by restoring a copy of the state taken when they
// began. Reads outside a unit of work or ReadTx observe uncommitted writes.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrDuplicateLink = errors.New("memstore: duplicate link")

type txKey struct{}

type row struct {
	version versioned.Token
	values  []any
}

type state struct {
	rows  map[string]map[uuid.UUID]row
	links map[string]map[uuid.UUID]map[uuid.UUID]string
}

func (s state) clone() state {
	out := state{
		rows:  make(map[string]map[uuid.UUID]row, len(s.rows)),
		links: make(map[string]map[uuid.UUID]map[uuid.UUID]string, len(s.links)),
	}
	for table, rows := range s.rows {
		cp := make(map[uuid.UUID]row, len(rows))
		for id, r := range rows {
			cp[id] = row{version: r.version, values: slices.Clone(r.values)}
		}
		out.rows[table] = cp
	}
	for table, owners := range s.links {
		cp := make(map[uuid.UUID]map[uuid.UUID]string, len(owners))
		for owner, refs := range owners {
			m := make(map[uuid.UUID]string, len(refs))
			for ref, level := range refs {
				m[ref] = level
			}
			cp[owner] = m
		}
		out.links[table] = cp
	}
	return out
}

// Stats counts statements that changed state.
type Stats struct {
	Inserts     int
	Updates     int
	Touches     int
	Deletes     int
	LinkInserts int
	LinkDeletes int
}

// Writes is the total number of state-changing statements.
func (s Stats) Writes() int {
	return s.Inserts + s.Updates + s.Touches + s.Deletes + s.LinkInserts + s.LinkDeletes
}

type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	st    state
	stats Stats
}

func New() *Store {
	return &Store{st: state{
		rows:  map[string]map[uuid.UUID]row{},
		links: map[string]map[uuid.UUID]map[uuid.UUID]string{},
	}}
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, true)
	}

	s.mu.RLock()
	saved := s.st.clone()
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// ReadTx keeps units of work from committing while fn reads. Inside a unit of
// work fn runs directly.
func (s *Store) ReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, true)
	}
	return fn(ctx)
}

func (s *Store) table(k *versioned.Kind) map[uuid.UUID]row {
	t, ok := s.st.rows[k.Table]
	if !ok {
		t = map[uuid.UUID]row{}
		s.st.rows[k.Table] = t
	}
	return t
}

func (s *Store) join(r *versioned.Relation) map[uuid.UUID]map[uuid.UUID]string {
	j, ok := s.st.links[r.JoinTable]
	if !ok {
		j = map[uuid.UUID]map[uuid.UUID]string{}
		s.st.links[r.JoinTable] = j
	}
	return j
}

func (s *Store) Version(ctx context.Context, k *versioned.Kind, id uuid.UUID) (versioned.Token, bool, error) {
	if err := ctx.Err(); err != nil {
		return versioned.Token{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.st.rows[k.Table][id]
	return r.version, ok, nil
}

func (s *Store) Insert(ctx context.Context, k *versioned.Kind, id uuid.UUID, version versioned.Token, values []any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(k)
	if _, exists := t[id]; exists {
		return false, nil
	}
	t[id] = row{version: version, values: normalize(values)}
	s.stats.Inserts++
	return true, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, k *versioned.Kind, id uuid.UUID, expected, next versioned.Token, values []any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(k)
	r, ok := t[id]
	if !ok || !r.version.Equal(expected) {
		return false, nil
	}
	t[id] = row{version: next, values: normalize(values)}
	s.stats.Updates++
	return true, nil
}

func (s *Store) Touch(ctx context.Context, k *versioned.Kind, ids []uuid.UUID, now time.Time) ([]versioned.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(k)
	out := make([]versioned.Row, 0, len(ids))
	for _, id := range ids {
		r, ok := t[id]
		if !ok {
			continue
		}
		r.version = versioned.Next(now, r.version)
		t[id] = r
		out = append(out, versioned.Row{ID: id, Version: r.version})
	}
	if len(out) > 0 {
		s.stats.Touches++
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, k *versioned.Kind, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(k)
	if _, ok := t[id]; !ok {
		return false, nil
	}
	delete(t, id)
	s.stats.Deletes++
	return true, nil
}

func (s *Store) Scan(ctx context.Context, k *versioned.Kind, id uuid.UUID, dest ...any) (versioned.Token, bool, error) {
	if err := ctx.Err(); err != nil {
		return versioned.Token{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.st.rows[k.Table][id]
	if !ok {
		return versioned.Token{}, false, nil
	}
	if len(dest) != len(r.values) {
		return versioned.Token{}, false, errors.Errorf("memstore: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := assign(d, r.values[i]); err != nil {
			return versioned.Token{}, false, errors.Wrapf(err, "column %s", k.Columns[i])
		}
	}
	return r.version, true, nil
}

func (s *Store) IDs(ctx context.Context, k *versioned.Kind) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.st.rows[k.Table]))
	for id := range s.st.rows[k.Table] {
		out = append(out, id)
	}
	sortIDs(out)
	return out, nil
}

func (s *Store) Select(ctx context.Context, k *versioned.Kind, column string, value uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := slices.Index(k.Columns, column)
	if idx < 0 {
		return nil, errors.Errorf("memstore: %s has no column %s", k.Name, column)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for id, r := range s.st.rows[k.Table] {
		if v, ok := uuidOf(r.values[idx]); ok && v == value {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out, nil
}

func (s *Store) Lookup(ctx context.Context, k *versioned.Kind, ids []uuid.UUID, column string) (map[uuid.UUID]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := slices.Index(k.Columns, column)
	if idx < 0 {
		return nil, errors.Errorf("memstore: %s has no column %s", k.Name, column)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]uuid.UUID, len(ids))
	for _, id := range ids {
		r, ok := s.st.rows[k.Table][id]
		if !ok {
			continue
		}
		if v, ok := uuidOf(r.values[idx]); ok {
			out[id] = v
		}
	}
	return out, nil
}

func (s *Store) LabelTaken(ctx context.Context, k *versioned.Kind, label string, except uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	idx := slices.Index(k.Columns, k.LabelColumn)
	if idx < 0 {
		return false, errors.Errorf("memstore: %s has no label column", k.Name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, r := range s.st.rows[k.Table] {
		if id != except && strings.EqualFold(text(r.values[idx]), label) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Links(ctx context.Context, r *versioned.Relation, owner uuid.UUID) ([]versioned.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := s.st.links[r.JoinTable][owner]
	labelIdx := slices.Index(r.Target.Columns, r.Target.LabelColumn)
	out := make([]versioned.Link, 0, len(refs))
	for ref, level := range refs {
		l := versioned.Link{Ref: ref, Level: level}
		if target, ok := s.st.rows[r.Target.Table][ref]; ok && labelIdx >= 0 {
			l.Label = text(target.values[labelIdx])
		}
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b versioned.Link) int {
		return bytes.Compare(a.Ref[:], b.Ref[:])
	})
	return out, nil
}

func (s *Store) AddLinks(ctx context.Context, r *versioned.Relation, owner uuid.UUID, links []versioned.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.join(r)
	refs, ok := j[owner]
	if !ok {
		refs = map[uuid.UUID]string{}
		j[owner] = refs
	}
	for _, l := range links {
		if _, dup := refs[l.Ref]; dup {
			return fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateLink, r.JoinTable, owner, l.Ref)
		}
	}
	for _, l := range links {
		refs[l.Ref] = l.Level
		s.stats.LinkInserts++
	}
	return nil
}

func (s *Store) RemoveLinks(ctx context.Context, r *versioned.Relation, owner uuid.UUID, refs []uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.join(r)[owner]
	for _, ref := range refs {
		if _, ok := current[ref]; ok {
			delete(current, ref)
			s.stats.LinkDeletes++
		}
	}
	return nil
}

func (s *Store) Owners(ctx context.Context, r *versioned.Relation, ref uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for owner, refs := range s.st.links[r.JoinTable] {
		if _, ok := refs[ref]; ok {
			out = append(out, owner)
		}
	}
	sortIDs(out)
	return out, nil
}

func (s *Store) ClearOwner(ctx context.Context, r *versioned.Relation, owner uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.join(r)
	n := int64(len(j[owner]))
	delete(j, owner)
	s.stats.LinkDeletes += int(n)
	return n, nil
}

func (s *Store) ClearTarget(ctx context.Context, r *versioned.Relation, ref uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, refs := range s.join(r) {
		if _, ok := refs[ref]; ok {
			delete(refs, ref)
			n++
		}
	}
	s.stats.LinkDeletes += int(n)
	return n, nil
}

func sortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
}

var _ versioned.Backend = (*Store)(nil)
