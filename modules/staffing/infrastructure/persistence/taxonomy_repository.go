package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type TaxonomyRepository struct {
	engine *versioned.Engine
}

func NewTaxonomyRepository(engine *versioned.Engine) taxonomy.Repository {
	return &TaxonomyRepository{engine: engine}
}

func (r *TaxonomyRepository) GetByID(ctx context.Context, k taxonomy.Kind, id uuid.UUID) (taxonomy.Item, error) {
	desc, err := TaxonomyKind(k)
	if err != nil {
		return taxonomy.Item{}, err
	}
	var name string
	version, found, err := r.engine.Materializer().Row(ctx, desc, id, &name)
	if err != nil {
		return taxonomy.Item{}, err
	}
	if !found {
		return taxonomy.Item{}, taxonomy.ErrItemNotFound
	}
	return taxonomy.Hydrate(k, id, name, version), nil
}

// GetAll returns the items of one taxonomy ordered by name.
func (r *TaxonomyRepository) GetAll(ctx context.Context, k taxonomy.Kind) ([]taxonomy.Item, error) {
	desc, err := TaxonomyKind(k)
	if err != nil {
		return nil, err
	}
	ids, err := r.engine.Materializer().IDs(ctx, desc)
	if err != nil {
		return nil, err
	}
	items := make([]taxonomy.Item, 0, len(ids))
	for _, id := range ids {
		item, err := r.GetByID(ctx, k, id)
		if errors.Is(err, taxonomy.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name()) < strings.ToLower(items[j].Name())
	})
	return items, nil
}

func (r *TaxonomyRepository) Upsert(ctx context.Context, item taxonomy.Item) (versioned.Result, error) {
	desc, err := TaxonomyKind(item.Kind())
	if err != nil {
		return versioned.Result{}, err
	}
	return r.engine.Upsert(ctx, versioned.Snapshot{
		Kind:    desc,
		ID:      item.ID(),
		Version: item.Version(),
		Values:  []any{item.Name()},
	})
}

// Delete removes the item and touches every aggregate that referenced it.
func (r *TaxonomyRepository) Delete(ctx context.Context, k taxonomy.Kind, id uuid.UUID) (versioned.DeleteResult, error) {
	desc, err := TaxonomyKind(k)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	return r.engine.Delete(ctx, desc, id)
}
