package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type ShownPropertyRepository struct {
	engine *versioned.Engine
}

func NewShownPropertyRepository(engine *versioned.Engine) shownproperty.Repository {
	return &ShownPropertyRepository{engine: engine}
}

func (r *ShownPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (shownproperty.ShownEmployeeProperty, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) (shownproperty.ShownEmployeeProperty, error) {
		return loadShownProperty(ctx, m, id)
	})
}

func loadShownProperty(ctx context.Context, m *versioned.Materializer, id uuid.UUID) (shownproperty.ShownEmployeeProperty, error) {
	p := shownproperty.ShownEmployeeProperty{ID: id}
	version, found, err := m.Row(ctx, ShownProperties, id, &p.OfferID, &p.EmployeeID, &p.Headline)
	if err != nil {
		return shownproperty.ShownEmployeeProperty{}, err
	}
	if !found {
		return shownproperty.ShownEmployeeProperty{}, shownproperty.ErrShownPropertyNotFound
	}
	p.Version = version

	sets := []struct {
		rel  *versioned.Relation
		fill func([]versioned.Link)
	}{
		{PropertyFields, func(l []versioned.Link) { p.Fields = toDomainRefs(l) }},
		{PropertyRoles, func(l []versioned.Link) { p.Roles = toDomainRefs(l) }},
		{PropertySoftSkills, func(l []versioned.Link) { p.SoftSkills = toDomainRefs(l) }},
		{PropertyProjects, func(l []versioned.Link) { p.Projects = toDomainRefs(l) }},
		{PropertyHardSkills, func(l []versioned.Link) { p.HardSkills = toDomainLeveledRefs(l) }},
		{PropertyLanguages, func(l []versioned.Link) { p.Languages = toDomainLeveledRefs(l) }},
	}
	for _, s := range sets {
		links, err := m.Links(ctx, s.rel, id)
		if err != nil {
			return shownproperty.ShownEmployeeProperty{}, err
		}
		s.fill(links)
	}
	return p, nil
}

// loadShownProperties reads every property of ids, skipping rows deleted
// meanwhile, ordered by id.
func loadShownProperties(ctx context.Context, m *versioned.Materializer, ids []uuid.UUID) ([]shownproperty.ShownEmployeeProperty, error) {
	out := make([]shownproperty.ShownEmployeeProperty, 0, len(ids))
	for _, id := range ids {
		p, err := loadShownProperty(ctx, m, id)
		if errors.Is(err, shownproperty.ErrShownPropertyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *ShownPropertyRepository) GetAll(ctx context.Context) ([]shownproperty.ShownEmployeeProperty, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) ([]shownproperty.ShownEmployeeProperty, error) {
		ids, err := m.IDs(ctx, ShownProperties)
		if err != nil {
			return nil, err
		}
		return loadShownProperties(ctx, m, ids)
	})
}

func (r *ShownPropertyRepository) GetByOffer(ctx context.Context, offerID uuid.UUID) ([]shownproperty.ShownEmployeeProperty, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) ([]shownproperty.ShownEmployeeProperty, error) {
		ids, err := m.Children(ctx, ShownProperties, offerID)
		if err != nil {
			return nil, err
		}
		return loadShownProperties(ctx, m, ids)
	})
}

// Upsert writes one property on its own. The owning offer is touched in the
// same unit of work; Result.ParentVersion is its new version.
func (r *ShownPropertyRepository) Upsert(ctx context.Context, p shownproperty.ShownEmployeeProperty) (versioned.Result, error) {
	return r.engine.Upsert(ctx, toDBShownProperty(p))
}

func (r *ShownPropertyRepository) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, ShownProperties, id)
}
