package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type TaxonomyService struct {
	repo      taxonomy.Repository
	publisher eventbus.EventBus
}

func NewTaxonomyService(repo taxonomy.Repository, publisher eventbus.EventBus) *TaxonomyService {
	return &TaxonomyService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *TaxonomyService) GetByID(ctx context.Context, kind taxonomy.Kind, id uuid.UUID) (taxonomy.Item, error) {
	return s.repo.GetByID(ctx, kind, id)
}

func (s *TaxonomyService) GetAll(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Item, error) {
	return s.repo.GetAll(ctx, kind)
}

func (s *TaxonomyService) Create(ctx context.Context, dto *taxonomy.CreateDTO) (taxonomy.Item, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, string(dto.Kind), uuid.Nil, versioned.Token{}, res)
		return taxonomy.Item{}, res, nil
	}
	return s.write(ctx, dto.ToEntity())
}

// Rename changes the item's name. Every aggregate referencing it gets a new
// version.
func (s *TaxonomyService) Rename(ctx context.Context, dto *taxonomy.UpdateDTO) (taxonomy.Item, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, string(dto.Kind), dto.ID, dto.Version, res)
		return taxonomy.Item{}, res, nil
	}
	return s.write(ctx, dto.ToEntity())
}

func (s *TaxonomyService) write(ctx context.Context, item taxonomy.Item) (taxonomy.Item, versioned.Result, error) {
	res, err := s.repo.Upsert(ctx, item)
	if err != nil {
		return taxonomy.Item{}, versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, string(item.Kind()), item.ID(), item.Version(), res)
	if res.Outcome.Succeeded() {
		item = item.WithVersion(res.Version)
	}
	return item, res, nil
}

func (s *TaxonomyService) Delete(ctx context.Context, kind taxonomy.Kind, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, kind, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, string(kind), id, res)
	return res, nil
}
