package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/project"
	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type ProjectService struct {
	repo      project.Repository
	publisher eventbus.EventBus
	cache     cache.Cache
}

func NewProjectService(repo project.Repository, publisher eventbus.EventBus, c cache.Cache) *ProjectService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProjectService{
		repo:      repo,
		publisher: publisher,
		cache:     c,
	}
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return cachedGet(ctx, s.cache, events.EntityProject, id, s.repo.Version, s.repo.GetByID,
		func(p *project.Project) versioned.Token { return p.Version })
}

func (s *ProjectService) GetAll(ctx context.Context) ([]*project.Project, error) {
	return s.repo.GetAll(ctx)
}

func (s *ProjectService) Upsert(ctx context.Context, dto *project.UpsertDTO) (*project.Project, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, events.EntityProject, dto.ID, dto.Version, res)
		return nil, res, nil
	}
	p := dto.ToEntity()
	stale := p.Version
	res, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, events.EntityProject, p.ID, stale, res)
	if !res.Outcome.Succeeded() {
		return nil, res, nil
	}
	return p, res, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityProject, id, res)
	return res, nil
}

// DeleteActivity removes one activity. The result carries the project's new
// version so an open editor can keep writing without a conflict.
func (s *ProjectService) DeleteActivity(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.DeleteActivity(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityProjectActivity, id, res)
	return res, nil
}
