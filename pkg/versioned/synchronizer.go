package versioned

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Delta is the minimal set of join-row writes turning persisted into desired.
type Delta struct {
	Removed []uuid.UUID
	Added   []Link
}

func (d Delta) Empty() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0
}

// Diff compares link sets by reference id. On leveled relations a changed level
// is a removal of the old pair plus an addition of the new one. Duplicate ids in
// desired collapse to their last occurrence.
func Diff(persisted, desired []Link, leveled bool) Delta {
	want := make(map[uuid.UUID]Link, len(desired))
	order := make([]uuid.UUID, 0, len(desired))
	for _, l := range desired {
		if _, seen := want[l.Ref]; !seen {
			order = append(order, l.Ref)
		}
		want[l.Ref] = Link{Ref: l.Ref, Level: l.Level}
	}

	have := make(map[uuid.UUID]string, len(persisted))
	var d Delta
	for _, l := range persisted {
		have[l.Ref] = l.Level
		w, keep := want[l.Ref]
		if !keep || (leveled && w.Level != l.Level) {
			d.Removed = append(d.Removed, l.Ref)
		}
	}
	for _, ref := range order {
		level, exists := have[ref]
		if !exists || (leveled && want[ref].Level != level) {
			d.Added = append(d.Added, want[ref])
		}
	}
	if !leveled {
		for i := range d.Added {
			d.Added[i].Level = ""
		}
	}
	return d
}

// Synchronizer applies full-replace reconciliation of relation sets. It is
// only called after the owner's compare-and-swap succeeded.
type Synchronizer struct {
	backend Backend
	metrics *metrics
}

func NewSynchronizer(backend Backend) *Synchronizer {
	return &Synchronizer{backend: backend, metrics: metricsSingleton()}
}

func (s *Synchronizer) Reconcile(ctx context.Context, r *Relation, owner uuid.UUID, desired []Link) (Delta, error) {
	persisted, err := s.backend.Links(ctx, r, owner)
	if err != nil {
		return Delta{}, errors.Wrapf(err, "read %s links", r.Name)
	}
	d := Diff(persisted, desired, r.Leveled())
	if d.Empty() {
		return d, nil
	}
	if len(d.Removed) > 0 {
		if err := s.backend.RemoveLinks(ctx, r, owner, d.Removed); err != nil {
			return Delta{}, errors.Wrapf(err, "remove %s links", r.Name)
		}
	}
	if len(d.Added) > 0 {
		if err := s.backend.AddLinks(ctx, r, owner, d.Added); err != nil {
			return Delta{}, errors.Wrapf(err, "add %s links", r.Name)
		}
	}
	s.metrics.links(r, d)
	return d, nil
}
