package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/entities/docconfig"
	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type DocumentConfigurationService struct {
	repo      docconfig.Repository
	publisher eventbus.EventBus
}

func NewDocumentConfigurationService(repo docconfig.Repository, publisher eventbus.EventBus) *DocumentConfigurationService {
	return &DocumentConfigurationService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *DocumentConfigurationService) GetByID(ctx context.Context, id uuid.UUID) (docconfig.DocumentConfiguration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DocumentConfigurationService) GetAll(ctx context.Context) ([]docconfig.DocumentConfiguration, error) {
	return s.repo.GetAll(ctx)
}

func (s *DocumentConfigurationService) Upsert(ctx context.Context, dto *docconfig.UpsertDTO) (docconfig.DocumentConfiguration, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, events.EntityDocumentConfiguration, dto.ID, dto.Version, res)
		return docconfig.DocumentConfiguration{}, res, nil
	}
	c := dto.ToEntity()
	res, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return docconfig.DocumentConfiguration{}, versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, events.EntityDocumentConfiguration, c.ID, c.Version, res)
	if !res.Outcome.Succeeded() {
		return docconfig.DocumentConfiguration{}, res, nil
	}
	c.Version = res.Version
	return c, res, nil
}

func (s *DocumentConfigurationService) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityDocumentConfiguration, id, res)
	return res, nil
}
