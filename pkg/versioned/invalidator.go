package versioned

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Invalidator bumps the tokens of aggregates affected by a change they did not
// make themselves, and performs cascading deletes.
type Invalidator struct {
	schema  *Schema
	backend Backend
	clock   clockwork.Clock
	log     *logrus.Entry
	metrics *metrics
}

func NewInvalidator(schema *Schema, backend Backend, clock clockwork.Clock, log *logrus.Entry) *Invalidator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logrusNop()
	}
	return &Invalidator{schema: schema, backend: backend, clock: clock, log: log, metrics: metricsSingleton()}
}

// skipSet holds rows that are being written by the current unit of work and
// must not be touched by it.
type skipSet map[uuid.UUID]struct{}

func (s skipSet) with(id uuid.UUID) skipSet {
	out := make(skipSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

func (s skipSet) has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Touch bumps ids of kind k, then walks depth parent hops above them.
func (inv *Invalidator) Touch(ctx context.Context, k *Kind, ids []uuid.UUID, depth Depth) ([]Row, error) {
	if !inv.schema.has(k) {
		return nil, unknownKind(k.Name)
	}
	if depth == InheritDepth {
		depth = inv.schema.DefaultDepth()
	}
	var rows []Row
	err := inv.backend.InTx(ctx, func(ctx context.Context) error {
		var err error
		rows, err = inv.touch(ctx, k, ids, depth.hops(), nil)
		return err
	})
	return rows, err
}

// touch bumps ids, then follows parent links for hops levels (-1 for no limit).
// Skipped rows are not bumped but the walk continues through them.
func (inv *Invalidator) touch(ctx context.Context, k *Kind, ids []uuid.UUID, hops int, skip skipSet) ([]Row, error) {
	var out []Row
	visited := make(map[uuid.UUID]struct{})
	for k != nil && len(ids) > 0 {
		fresh := make([]uuid.UUID, 0, len(ids))
		bump := make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if _, ok := visited[id]; ok {
				continue
			}
			visited[id] = struct{}{}
			fresh = append(fresh, id)
			if !skip.has(id) {
				bump = append(bump, id)
			}
		}
		if len(bump) > 0 {
			rows, err := inv.backend.Touch(ctx, k, bump, inv.clock.Now())
			if err != nil {
				return nil, errors.Wrapf(err, "touch %s", k.Name)
			}
			inv.metrics.touched(k, len(rows))
			out = append(out, rows...)
		}

		if hops == 0 {
			break
		}
		dep, ok := inv.schema.ParentOf(k)
		if !ok {
			break
		}
		parents, err := inv.backend.Lookup(ctx, k, fresh, dep.Column)
		if err != nil {
			return nil, errors.Wrapf(err, "lookup %s parents", k.Name)
		}
		ids = distinct(parents)
		k = dep.On
		if hops > 0 {
			hops--
		}
	}
	return out, nil
}

// touchReferrers bumps every owner referencing id through a relation
// targeting k, plus each relation's configured ancestors.
func (inv *Invalidator) touchReferrers(ctx context.Context, k *Kind, id uuid.UUID, skip skipSet) (int, error) {
	touched := 0
	for _, r := range inv.schema.RelationsTo(k) {
		owners, err := inv.backend.Owners(ctx, r, id)
		if err != nil {
			return 0, errors.Wrapf(err, "read %s owners", r.Name)
		}
		rows, err := inv.touch(ctx, r.Owner, owners, inv.schema.DepthOf(r).hops(), skip)
		if err != nil {
			return 0, err
		}
		touched += len(rows)
	}
	return touched, nil
}

// Delete removes the row and everything depending on it in one unit of work.
// Aggregates that referenced it and the row's parent are touched first.
func (inv *Invalidator) Delete(ctx context.Context, k *Kind, id uuid.UUID) (DeleteResult, error) {
	if !inv.schema.has(k) {
		return DeleteResult{}, unknownKind(k.Name)
	}
	var res DeleteResult
	err := inv.backend.InTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = inv.remove(ctx, k, id, nil)
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}
	inv.log.WithFields(logrus.Fields{"kind": k.Name, "id": id, "found": res.Found, "touched": res.Touched}).Debug("deleted")
	return res, nil
}

func (inv *Invalidator) remove(ctx context.Context, k *Kind, id uuid.UUID, skip skipSet) (DeleteResult, error) {
	if _, found, err := inv.backend.Version(ctx, k, id); err != nil {
		return DeleteResult{}, errors.Wrapf(err, "read %s version", k.Name)
	} else if !found {
		inv.metrics.deleted(k, false)
		return DeleteResult{}, nil
	}

	var (
		parentID  uuid.UUID
		parentDep Dependency
		hasParent bool
	)
	if dep, ok := inv.schema.ParentOf(k); ok {
		parents, err := inv.backend.Lookup(ctx, k, []uuid.UUID{id}, dep.Column)
		if err != nil {
			return DeleteResult{}, errors.Wrapf(err, "lookup %s parent", k.Name)
		}
		parentID, hasParent = parents[id]
		parentDep = dep
	}

	res := DeleteResult{Found: true}
	inner := skip.with(id)

	n, err := inv.touchReferrers(ctx, k, id, inner)
	if err != nil {
		return DeleteResult{}, err
	}
	res.Touched += n

	for _, d := range inv.schema.Dependents(k) {
		ids, err := inv.backend.Select(ctx, d.Kind, d.Dependency.Column, id)
		if err != nil {
			return DeleteResult{}, errors.Wrapf(err, "read %s dependents", d.Kind.Name)
		}
		for _, dependent := range ids {
			sub, err := inv.remove(ctx, d.Kind, dependent, inner)
			if err != nil {
				return DeleteResult{}, err
			}
			res.Touched += sub.Touched
		}
	}

	for _, r := range inv.schema.RelationsOf(k) {
		if _, err := inv.backend.ClearOwner(ctx, r, id); err != nil {
			return DeleteResult{}, errors.Wrapf(err, "clear %s links", r.Name)
		}
	}
	for _, r := range inv.schema.RelationsTo(k) {
		if _, err := inv.backend.ClearTarget(ctx, r, id); err != nil {
			return DeleteResult{}, errors.Wrapf(err, "clear %s references", r.Name)
		}
	}
	if _, err := inv.backend.Delete(ctx, k, id); err != nil {
		return DeleteResult{}, errors.Wrapf(err, "delete %s", k.Name)
	}
	inv.metrics.deleted(k, true)

	if hasParent {
		rows, err := inv.touchParent(ctx, parentDep.On, []uuid.UUID{parentID}, skip)
		if err != nil {
			return DeleteResult{}, err
		}
		res.Touched += len(rows)
		for _, r := range rows {
			if r.ID == parentID {
				res.ParentVersion = r.Version
			}
		}
	}
	return res, nil
}

// touchParent bumps parents of a changed child. The parent is the first hop;
// the schema default bounds the rest.
func (inv *Invalidator) touchParent(ctx context.Context, k *Kind, ids []uuid.UUID, skip skipSet) ([]Row, error) {
	hops := inv.schema.DefaultDepth().hops()
	if hops > 0 {
		hops--
	}
	return inv.touch(ctx, k, ids, hops, skip)
}

func distinct(m map[uuid.UUID]uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for _, v := range m {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
