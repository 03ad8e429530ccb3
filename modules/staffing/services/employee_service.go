package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/employee"
	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type EmployeeService struct {
	repo      employee.Repository
	publisher eventbus.EventBus
	cache     cache.Cache
}

func NewEmployeeService(repo employee.Repository, publisher eventbus.EventBus, c cache.Cache) *EmployeeService {
	if c == nil {
		c = cache.Noop{}
	}
	return &EmployeeService{
		repo:      repo,
		publisher: publisher,
		cache:     c,
	}
}

func (s *EmployeeService) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return cachedGet(ctx, s.cache, events.EntityEmployee, id, s.repo.Version, s.repo.GetByID,
		func(e *employee.Employee) versioned.Token { return e.Version })
}

func (s *EmployeeService) GetAll(ctx context.Context) ([]*employee.Employee, error) {
	return s.repo.GetAll(ctx)
}

// Upsert validates dto and writes it. Invalid input is Rejected without a
// write; a stale dto.Version yields Conflict and the caller must re-read.
func (s *EmployeeService) Upsert(ctx context.Context, dto *employee.UpsertDTO) (*employee.Employee, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, events.EntityEmployee, dto.ID, dto.Version, res)
		return nil, res, nil
	}
	e := dto.ToEntity()
	stale := e.Version
	res, err := s.repo.Upsert(ctx, e)
	if err != nil {
		return nil, versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, events.EntityEmployee, e.ID, stale, res)
	if !res.Outcome.Succeeded() {
		return nil, res, nil
	}
	return e, res, nil
}

// Delete removes the employee, their shown properties in offers and their
// activity memberships.
func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityEmployee, id, res)
	return res, nil
}
