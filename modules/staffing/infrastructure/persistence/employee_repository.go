package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/employee"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type EmployeeRepository struct {
	engine *versioned.Engine
}

func NewEmployeeRepository(engine *versioned.Engine) employee.Repository {
	return &EmployeeRepository{engine: engine}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) (*employee.Employee, error) {
		return loadEmployee(ctx, m, id)
	})
}

func loadEmployee(ctx context.Context, m *versioned.Materializer, id uuid.UUID) (*employee.Employee, error) {
	e := &employee.Employee{ID: id}
	version, found, err := m.Row(ctx, Employees, id, employeeDest(e)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, employee.ErrEmployeeNotFound
	}
	e.Version = version

	sets := []struct {
		rel  *versioned.Relation
		fill func([]versioned.Link)
	}{
		{EmployeeFields, func(l []versioned.Link) { e.Fields = toDomainRefs(l) }},
		{EmployeeRoles, func(l []versioned.Link) { e.Roles = toDomainRefs(l) }},
		{EmployeeSoftSkills, func(l []versioned.Link) { e.SoftSkills = toDomainRefs(l) }},
		{EmployeeHardSkills, func(l []versioned.Link) { e.HardSkills = toDomainLeveledRefs(l) }},
		{EmployeeLanguages, func(l []versioned.Link) { e.Languages = toDomainLeveledRefs(l) }},
		{EmployeeProjects, func(l []versioned.Link) { e.Projects = toDomainRefs(l) }},
	}
	for _, s := range sets {
		links, err := m.Links(ctx, s.rel, id)
		if err != nil {
			return nil, err
		}
		s.fill(links)
	}
	return e, nil
}

// GetAll returns every employee ordered by last and first name.
func (r *EmployeeRepository) GetAll(ctx context.Context) ([]*employee.Employee, error) {
	ids, err := r.engine.Materializer().IDs(ctx, Employees)
	if err != nil {
		return nil, err
	}
	out := make([]*employee.Employee, 0, len(ids))
	for _, id := range ids {
		e, err := r.GetByID(ctx, id)
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *EmployeeRepository) Version(ctx context.Context, id uuid.UUID) (versioned.Token, error) {
	v, found, err := r.engine.Materializer().Version(ctx, Employees, id)
	if err != nil {
		return versioned.Token{}, err
	}
	if !found {
		return versioned.Token{}, employee.ErrEmployeeNotFound
	}
	return v, nil
}

// Upsert writes the employee with every relation set. On success e.Version
// holds the new token.
func (r *EmployeeRepository) Upsert(ctx context.Context, e *employee.Employee) (versioned.Result, error) {
	res, err := r.engine.Upsert(ctx, toDBEmployee(e))
	if err != nil {
		return versioned.Result{}, err
	}
	if res.Outcome.Succeeded() {
		e.Version = res.Version
	}
	return res, nil
}

// Delete removes the employee together with the offers' shown properties of
// that employee and touches the project activities that named them.
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, Employees, id)
}
