package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/project"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type ProjectRepository struct {
	engine *versioned.Engine
}

func NewProjectRepository(engine *versioned.Engine) project.Repository {
	return &ProjectRepository{engine: engine}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) (*project.Project, error) {
		return loadProject(ctx, m, id)
	})
}

func loadProject(ctx context.Context, m *versioned.Materializer, id uuid.UUID) (*project.Project, error) {
	p := &project.Project{ID: id}
	version, found, err := m.Row(ctx, Projects, id, projectDest(p)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, project.ErrProjectNotFound
	}
	p.Version = version

	fields, err := m.Links(ctx, ProjectFields, id)
	if err != nil {
		return nil, err
	}
	skills, err := m.Links(ctx, ProjectHardSkills, id)
	if err != nil {
		return nil, err
	}
	p.Fields = toDomainRefs(fields)
	p.HardSkills = toDomainRefs(skills)

	ids, err := m.Children(ctx, ProjectActivities, id)
	if err != nil {
		return nil, err
	}
	p.Activities = make([]project.Activity, 0, len(ids))
	for _, aid := range ids {
		a, err := loadActivity(ctx, m, aid)
		if errors.Is(err, project.ErrActivityNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p.Activities = append(p.Activities, a)
	}
	sort.Slice(p.Activities, func(i, j int) bool {
		return p.Activities[i].ID.String() < p.Activities[j].ID.String()
	})
	return p, nil
}

func loadActivity(ctx context.Context, m *versioned.Materializer, id uuid.UUID) (project.Activity, error) {
	a := project.Activity{ID: id}
	var projectID uuid.UUID
	version, found, err := m.Row(ctx, ProjectActivities, id, &projectID, &a.Description)
	if err != nil {
		return project.Activity{}, err
	}
	if !found {
		return project.Activity{}, project.ErrActivityNotFound
	}
	a.Version = version
	members, err := m.Links(ctx, ActivityEmployees, id)
	if err != nil {
		return project.Activity{}, err
	}
	a.Employees = toDomainIDs(members)
	return a, nil
}

func (r *ProjectRepository) GetAll(ctx context.Context) ([]*project.Project, error) {
	ids, err := r.engine.Materializer().IDs(ctx, Projects)
	if err != nil {
		return nil, err
	}
	out := make([]*project.Project, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetByID(ctx, id)
		if errors.Is(err, project.ErrProjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *ProjectRepository) Version(ctx context.Context, id uuid.UUID) (versioned.Token, error) {
	v, found, err := r.engine.Materializer().Version(ctx, Projects, id)
	if err != nil {
		return versioned.Token{}, err
	}
	if !found {
		return versioned.Token{}, project.ErrProjectNotFound
	}
	return v, nil
}

// Upsert writes the project, its relation sets and its activity list. Stored
// activities missing from p.Activities are deleted. On success the project
// and activity versions are updated in place.
func (r *ProjectRepository) Upsert(ctx context.Context, p *project.Project) (versioned.Result, error) {
	res, err := r.engine.Upsert(ctx, toDBProject(p))
	if err != nil {
		return versioned.Result{}, err
	}
	if !res.Outcome.Succeeded() {
		return res, nil
	}
	p.Version = res.Version
	for i := range p.Activities {
		if child, ok := res.Children[p.Activities[i].ID]; ok {
			p.Activities[i].Version = child.Version
		}
	}
	return res, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, Projects, id)
}

func (r *ProjectRepository) DeleteActivity(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, ProjectActivities, id)
}
