package versioned

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/iota-uz/staffing/pkg/versioned"

// Snapshot is the desired state of one aggregate: its scalar values in
// Kind.Columns order, every relation set it manages and its child lists.
type Snapshot struct {
	Kind      *Kind
	ID        uuid.UUID
	Version   Token
	Values    []any
	Relations []RelationSet
	Children  []ChildSet
}

type RelationSet struct {
	Relation *Relation
	Links    []Link
}

// ChildSet is the complete list of Kind rows owned by the snapshot. Persisted
// children missing from Items are deleted.
type ChildSet struct {
	Kind  *Kind
	Items []Snapshot
}

type Options struct {
	Clock  clockwork.Clock
	Logger *logrus.Entry
	Tracer trace.Tracer
}

func (o *Options) setDefaults() {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = logrusNop()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
}

// Engine runs guarded upserts and cascading deletes of the aggregates
// described by one Schema.
type Engine struct {
	schema       *Schema
	backend      Backend
	guard        *Guard
	synchronizer *Synchronizer
	invalidator  *Invalidator
	materializer *Materializer
	log          *logrus.Entry
	tracer       trace.Tracer
}

func New(schema *Schema, backend Backend, opts Options) *Engine {
	opts.setDefaults()
	return &Engine{
		schema:       schema,
		backend:      backend,
		guard:        NewGuard(backend, opts.Clock, opts.Logger),
		synchronizer: NewSynchronizer(backend),
		invalidator:  NewInvalidator(schema, backend, opts.Clock, opts.Logger),
		materializer: NewMaterializer(schema, backend),
		log:          opts.Logger,
		tracer:       opts.Tracer,
	}
}

func (e *Engine) Schema() *Schema { return e.schema }

func (e *Engine) Materializer() *Materializer { return e.materializer }

func (e *Engine) Invalidator() *Invalidator { return e.invalidator }

func (e *Engine) Synchronizer() *Synchronizer { return e.synchronizer }

// InTx groups several engine calls into one unit of work.
func (e *Engine) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.backend.InTx(ctx, fn)
}

// abort rolls back a unit of work whose outcome is not an error.
type abort struct {
	result Result
}

func (a *abort) Error() string {
	return fmt.Sprintf("versioned: aborted with %s", a.result.Outcome)
}

// Upsert writes the snapshot, reconciles its relation sets and child lists and
// applies mutation touches, all in one unit of work. Any Conflict or Rejected
// outcome, including one of a child, rolls the whole unit back.
func (e *Engine) Upsert(ctx context.Context, s Snapshot) (Result, error) {
	if s.Kind == nil || !e.schema.has(s.Kind) {
		name := "<nil>"
		if s.Kind != nil {
			name = s.Kind.Name
		}
		return Result{}, unknownKind(name)
	}

	ctx, span := e.tracer.Start(ctx, "versioned.Upsert", trace.WithAttributes(
		attribute.String("versioned.kind", s.Kind.Name),
		attribute.String("versioned.id", s.ID.String()),
	))
	defer span.End()

	var res Result
	err := e.backend.InTx(ctx, func(ctx context.Context) error {
		r, err := e.upsert(ctx, s, nil)
		if err != nil {
			return err
		}
		if !r.Outcome.Succeeded() {
			return &abort{result: r}
		}
		res = r
		return nil
	})

	var a *abort
	switch {
	case errors.As(err, &a):
		res = a.result
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	span.SetAttributes(attribute.String("versioned.outcome", res.Outcome.String()))
	e.log.WithFields(logrus.Fields{
		"kind":    s.Kind.Name,
		"id":      s.ID,
		"outcome": res.Outcome,
		"version": res.Version,
	}).Debug("upsert")
	return res, nil
}

func (e *Engine) upsert(ctx context.Context, s Snapshot, skip skipSet) (Result, error) {
	k := s.Kind
	if len(s.Values) != len(k.Columns) {
		return Result{}, errors.Errorf("%s: got %d values for %d columns", k.Name, len(s.Values), len(k.Columns))
	}
	if k.UniqueLabel {
		label, ok := labelOf(s.Values[k.columnIndex(k.LabelColumn)])
		if !ok {
			return rejected(errors.Errorf("%s: %s is not text", k.Name, k.LabelColumn)), nil
		}
		taken, err := e.backend.LabelTaken(ctx, k, label, s.ID)
		if err != nil {
			return Result{}, errors.Wrapf(err, "check %s label", k.Name)
		}
		if taken {
			return rejected(fmt.Errorf("%w: %s %q", ErrNameTaken, k.Name, label)), nil
		}
	}

	dep, hasParent := e.schema.ParentOf(k)
	var formerParent uuid.UUID
	if hasParent {
		parents, err := e.backend.Lookup(ctx, k, []uuid.UUID{s.ID}, dep.Column)
		if err != nil {
			return Result{}, errors.Wrapf(err, "lookup %s parent", k.Name)
		}
		formerParent = parents[s.ID]
	}

	res, err := e.guard.Upsert(ctx, k, s.ID, s.Version, s.Values)
	if err != nil || !res.Outcome.Succeeded() {
		return res, err
	}
	inner := skip.with(s.ID)

	for _, set := range s.Relations {
		if set.Relation == nil || set.Relation.Owner != k || !e.schema.hasRelation(set.Relation) {
			return Result{}, errors.Errorf("%s: relation set is not owned by this kind", k.Name)
		}
		if _, err := e.synchronizer.Reconcile(ctx, set.Relation, s.ID, set.Links); err != nil {
			return Result{}, err
		}
	}

	for _, cs := range s.Children {
		children, out, err := e.reconcileChildren(ctx, s, cs, inner)
		if err != nil || !out.Outcome.Succeeded() {
			return out, err
		}
		if res.Children == nil {
			res.Children = make(map[uuid.UUID]Result, len(children))
		}
		for id, r := range children {
			res.Children[id] = r
		}
	}

	if res.Outcome == Updated && k.TouchOnUpdate {
		if _, err := e.invalidator.touchReferrers(ctx, k, s.ID, inner); err != nil {
			return Result{}, err
		}
	}
	if hasParent {
		v, err := e.touchParents(ctx, k, dep, s.ID, formerParent, skip)
		if err != nil {
			return Result{}, err
		}
		res.ParentVersion = v
	}
	return res, nil
}

// touchParents bumps the parent a child row had before the write and the one
// it has after it, unless the current unit of work is writing them. It returns
// the new token of the current parent.
func (e *Engine) touchParents(ctx context.Context, k *Kind, dep Dependency, id, former uuid.UUID, skip skipSet) (Token, error) {
	parents, err := e.backend.Lookup(ctx, k, []uuid.UUID{id}, dep.Column)
	if err != nil {
		return Token{}, errors.Wrapf(err, "lookup %s parent", k.Name)
	}
	current := parents[id]

	ids := make([]uuid.UUID, 0, 2)
	for _, p := range []uuid.UUID{current, former} {
		if p == uuid.Nil || skip.has(p) || slices.Contains(ids, p) {
			continue
		}
		ids = append(ids, p)
	}
	if len(ids) == 0 {
		return Token{}, nil
	}
	rows, err := e.invalidator.touchParent(ctx, dep.On, ids, skip)
	if err != nil {
		return Token{}, err
	}
	for _, r := range rows {
		if r.ID == current {
			return r.Version, nil
		}
	}
	return Token{}, nil
}

// reconcileChildren deletes persisted children that are no longer listed and
// upserts the listed ones with their parent column pointing at the owner.
func (e *Engine) reconcileChildren(ctx context.Context, owner Snapshot, cs ChildSet, skip skipSet) (map[uuid.UUID]Result, Result, error) {
	if cs.Kind == nil || !e.schema.has(cs.Kind) {
		return nil, Result{}, errors.Errorf("%s: child list of an unregistered kind", owner.Kind.Name)
	}
	dep, hasParent := e.schema.ParentOf(cs.Kind)
	if !hasParent || dep.On != owner.Kind {
		return nil, Result{}, errors.Errorf("%s: %s rows are not owned by this kind", owner.Kind.Name, cs.Kind.Name)
	}
	col := cs.Kind.columnIndex(dep.Column)

	persisted, err := e.backend.Select(ctx, cs.Kind, dep.Column, owner.ID)
	if err != nil {
		return nil, Result{}, errors.Wrapf(err, "read %s children", cs.Kind.Name)
	}
	wanted := make(map[uuid.UUID]struct{}, len(cs.Items))
	listed := make([]uuid.UUID, 0, len(cs.Items))
	for _, item := range cs.Items {
		wanted[item.ID] = struct{}{}
		listed = append(listed, item.ID)
	}
	owners, err := e.backend.Lookup(ctx, cs.Kind, listed, dep.Column)
	if err != nil {
		return nil, Result{}, errors.Wrapf(err, "lookup %s owners", cs.Kind.Name)
	}
	for id, current := range owners {
		if current != owner.ID {
			return nil, rejected(fmt.Errorf("%w: %s %s is owned by %s %s",
				ErrForeignChild, cs.Kind.Name, id, owner.Kind.Name, current)), nil
		}
	}
	for _, id := range persisted {
		if _, keep := wanted[id]; keep {
			continue
		}
		if _, err := e.invalidator.remove(ctx, cs.Kind, id, skip); err != nil {
			return nil, Result{}, err
		}
	}

	results := make(map[uuid.UUID]Result, len(cs.Items))
	for _, item := range cs.Items {
		item.Kind = cs.Kind
		if len(item.Values) != len(cs.Kind.Columns) {
			return nil, Result{}, errors.Errorf("%s: got %d values for %d columns", cs.Kind.Name, len(item.Values), len(cs.Kind.Columns))
		}
		values := make([]any, len(item.Values))
		copy(values, item.Values)
		values[col] = owner.ID
		item.Values = values

		r, err := e.upsert(ctx, item, skip)
		if err != nil {
			return nil, Result{}, err
		}
		if !r.Outcome.Succeeded() {
			return nil, Result{Outcome: r.Outcome, Reason: r.Reason}, nil
		}
		results[item.ID] = r
	}
	return results, Result{Outcome: Updated}, nil
}

// Delete removes the row with its dependents, touching every aggregate that
// referenced it and its parent.
func (e *Engine) Delete(ctx context.Context, k *Kind, id uuid.UUID) (DeleteResult, error) {
	name := "<nil>"
	if k != nil {
		name = k.Name
	}
	ctx, span := e.tracer.Start(ctx, "versioned.Delete", trace.WithAttributes(
		attribute.String("versioned.kind", name),
		attribute.String("versioned.id", id.String()),
	))
	defer span.End()

	if k == nil {
		return DeleteResult{}, unknownKind(name)
	}
	res, err := e.invalidator.Delete(ctx, k, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DeleteResult{}, err
	}
	span.SetAttributes(
		attribute.Bool("versioned.found", res.Found),
		attribute.Int("versioned.touched", res.Touched),
	)
	return res, nil
}

func labelOf(v any) (string, bool) {
	switch l := v.(type) {
	case string:
		return l, true
	case *string:
		if l == nil {
			return "", false
		}
		return *l, true
	case fmt.Stringer:
		return l.String(), true
	default:
		return "", false
	}
}
