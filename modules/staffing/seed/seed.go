package seed

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/employee"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/offer"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/project"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/docconfig"
	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/modules/staffing/services"
	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/versioned"
)

// Stats counts the outcomes of one seed run.
type Stats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

func (s *Stats) record(res versioned.Result) {
	switch res.Outcome {
	case versioned.Inserted:
		s.Inserted++
	case versioned.Updated:
		s.Updated++
	}
}

// Seeder resolves fixture references while its steps run. Steps must run in
// the order returned by Steps.
type Seeder struct {
	fixtures *Fixtures
	names    map[taxonomy.Kind]map[string]taxonomy.Ref
	Stats    Stats
}

func New(f *Fixtures) *Seeder {
	return &Seeder{fixtures: f, names: make(map[taxonomy.Kind]map[string]taxonomy.Ref)}
}

// Steps returns the seed functions in dependency order. Projects are written
// before employees so memberships resolve, and their activities after, so
// activity members resolve.
func (s *Seeder) Steps() []application.SeedFunc {
	return []application.SeedFunc{
		s.seedTaxonomy,
		s.seedProjects,
		s.seedEmployees,
		s.seedActivities,
		s.seedOffers,
		s.seedDocumentConfigurations,
	}
}

// Register adds the steps to an application seeder.
func (s *Seeder) Register(seeder application.Seeder) {
	seeder.Register(s.Steps()...)
}

func check(what string, id uuid.UUID, res versioned.Result) error {
	if err := res.Err(); err != nil {
		return errors.Wrapf(err, "seed %s %s", what, id)
	}
	return nil
}

func (s *Seeder) seedTaxonomy(ctx context.Context, app application.Application) error {
	svc := app.Service(services.TaxonomyService{}).(*services.TaxonomyService)
	for _, kind := range taxonomy.Kinds {
		existing, err := svc.GetAll(ctx, kind)
		if err != nil {
			return err
		}
		byName := make(map[string]taxonomy.Ref, len(existing))
		for _, item := range existing {
			byName[strings.ToLower(item.Name())] = taxonomy.Ref{ID: item.ID(), Name: item.Name()}
		}
		for _, name := range s.fixtures.Taxonomy[kind] {
			key := strings.ToLower(strings.TrimSpace(name))
			if _, ok := byName[key]; ok {
				s.Stats.Skipped++
				continue
			}
			item, res, err := svc.Create(ctx, &taxonomy.CreateDTO{Kind: kind, Name: name})
			if err != nil {
				return err
			}
			if err := check(string(kind), item.ID(), res); err != nil {
				return err
			}
			s.Stats.record(res)
			byName[key] = taxonomy.Ref{ID: item.ID(), Name: item.Name()}
		}
		s.names[kind] = byName
	}
	app.Logger().Infof("seed: taxonomy ready")
	return nil
}

func (s *Seeder) ref(kind taxonomy.Kind, name string) (uuid.UUID, error) {
	r, ok := s.names[kind][strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return uuid.Nil, errors.Errorf("unknown %s %q", kind, name)
	}
	return r.ID, nil
}

func (s *Seeder) refs(kind taxonomy.Kind, names []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, err := s.ref(kind, name)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *Seeder) leveled(kind taxonomy.Kind, in map[string]string) ([]employee.LeveledDTO, error) {
	out := make([]employee.LeveledDTO, 0, len(in))
	for name, level := range in {
		id, err := s.ref(kind, name)
		if err != nil {
			return nil, err
		}
		out = append(out, employee.LeveledDTO{ID: id, Level: taxonomy.Level(strings.ToLower(level))})
	}
	return out, nil
}

func (s *Seeder) seedProjects(ctx context.Context, app application.Application) error {
	svc := app.Service(services.ProjectService{}).(*services.ProjectService)
	for _, f := range s.fixtures.Projects {
		id, err := parseID("project", f.ID)
		if err != nil {
			return err
		}
		dto := &project.UpsertDTO{ID: id, Title: f.Title, Client: f.Client, Description: f.Description}
		if dto.Start, err = parseDate("project start", f.Start); err != nil {
			return err
		}
		if dto.End, err = parseDate("project end", f.End); err != nil {
			return err
		}
		if dto.Fields, err = s.refs(taxonomy.Field, f.Fields); err != nil {
			return err
		}
		if dto.HardSkills, err = s.refs(taxonomy.HardSkill, f.HardSkills); err != nil {
			return err
		}

		// Activities of an existing project are kept until seedActivities
		// replaces them.
		existing, err := svc.GetByID(ctx, id)
		switch {
		case err == nil:
			dto.Version = existing.Version
			dto.Activities = activityDTOs(existing.Activities)
		case !errors.Is(err, project.ErrProjectNotFound):
			return err
		}

		_, res, err := svc.Upsert(ctx, dto)
		if err != nil {
			return err
		}
		if err := check("project", id, res); err != nil {
			return err
		}
		s.Stats.record(res)
	}
	return nil
}

func activityDTOs(in []project.Activity) []project.ActivityDTO {
	out := make([]project.ActivityDTO, 0, len(in))
	for _, a := range in {
		out = append(out, project.ActivityDTO{ID: a.ID, Version: a.Version, Description: a.Description, Employees: a.Employees})
	}
	return out
}

func (s *Seeder) seedEmployees(ctx context.Context, app application.Application) error {
	svc := app.Service(services.EmployeeService{}).(*services.EmployeeService)
	for _, f := range s.fixtures.Employees {
		id, err := parseID("employee", f.ID)
		if err != nil {
			return err
		}
		dto := &employee.UpsertDTO{
			ID:          id,
			FirstName:   f.FirstName,
			LastName:    f.LastName,
			Title:       f.Title,
			Email:       f.Email,
			Description: f.Description,
		}
		if dto.ExperienceSince, err = parseDate("experience_since", f.ExperienceSince); err != nil {
			return err
		}
		if dto.HourlyRate, err = parseDecimal("hourly_rate", f.HourlyRate); err != nil {
			return err
		}
		if dto.Fields, err = s.refs(taxonomy.Field, f.Fields); err != nil {
			return err
		}
		if dto.Roles, err = s.refs(taxonomy.Role, f.Roles); err != nil {
			return err
		}
		if dto.SoftSkills, err = s.refs(taxonomy.SoftSkill, f.SoftSkills); err != nil {
			return err
		}
		if dto.HardSkills, err = s.leveled(taxonomy.HardSkill, f.HardSkills); err != nil {
			return err
		}
		if dto.Languages, err = s.leveled(taxonomy.Language, f.Languages); err != nil {
			return err
		}
		if dto.Projects, err = parseIDs("employee project", f.Projects); err != nil {
			return err
		}

		existing, err := svc.GetByID(ctx, id)
		switch {
		case err == nil:
			dto.Version = existing.Version
		case !errors.Is(err, employee.ErrEmployeeNotFound):
			return err
		}

		_, res, err := svc.Upsert(ctx, dto)
		if err != nil {
			return err
		}
		if err := check("employee", id, res); err != nil {
			return err
		}
		s.Stats.record(res)
	}
	return nil
}

func (s *Seeder) seedActivities(ctx context.Context, app application.Application) error {
	svc := app.Service(services.ProjectService{}).(*services.ProjectService)
	for _, f := range s.fixtures.Projects {
		if len(f.Activities) == 0 {
			continue
		}
		id, err := parseID("project", f.ID)
		if err != nil {
			return err
		}
		p, err := svc.GetByID(ctx, id)
		if err != nil {
			return err
		}
		versions := make(map[uuid.UUID]versioned.Token, len(p.Activities))
		for _, a := range p.Activities {
			versions[a.ID] = a.Version
		}

		dto := &project.UpsertDTO{
			ID:          p.ID,
			Version:     p.Version,
			Title:       p.Title,
			Client:      p.Client,
			Description: p.Description,
			Start:       p.Start,
			End:         p.End,
			Fields:      refIDs(p.Fields),
			HardSkills:  refIDs(p.HardSkills),
		}
		for _, af := range f.Activities {
			aid, err := parseID("activity", af.ID)
			if err != nil {
				return err
			}
			members, err := parseIDs("activity employee", af.Employees)
			if err != nil {
				return err
			}
			dto.Activities = append(dto.Activities, project.ActivityDTO{
				ID:          aid,
				Version:     versions[aid],
				Description: af.Description,
				Employees:   members,
			})
		}

		_, res, err := svc.Upsert(ctx, dto)
		if err != nil {
			return err
		}
		if err := check("project activities", id, res); err != nil {
			return err
		}
		s.Stats.record(res)
	}
	return nil
}

func refIDs(in []taxonomy.Ref) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	for _, r := range in {
		out = append(out, r.ID)
	}
	return out
}

func (s *Seeder) seedOffers(ctx context.Context, app application.Application) error {
	svc := app.Service(services.OfferService{}).(*services.OfferService)
	for _, f := range s.fixtures.Offers {
		id, err := parseID("offer", f.ID)
		if err != nil {
			return err
		}
		dto := &offer.UpsertDTO{
			ID:          id,
			Title:       f.Title,
			Client:      f.Client,
			Description: f.Description,
			Status:      offer.Status(strings.ToLower(f.Status)),
		}
		if dto.DailyRate, err = parseDecimal("daily_rate", f.DailyRate); err != nil {
			return err
		}
		if dto.ValidUntil, err = parseDate("valid_until", f.ValidUntil); err != nil {
			return err
		}

		shown := make(map[uuid.UUID]offer.PropertyDTO)
		existing, err := svc.GetByID(ctx, id)
		switch {
		case err == nil:
			dto.Version = existing.Version
			for _, p := range existing.Properties {
				shown[p.EmployeeID] = offer.PropertyDTO{ID: p.ID, Version: p.Version}
			}
		case !errors.Is(err, offer.ErrOfferNotFound):
			return err
		}

		for _, pf := range f.Properties {
			p, err := s.property(pf, shown)
			if err != nil {
				return err
			}
			dto.Properties = append(dto.Properties, p)
		}

		_, res, err := svc.Upsert(ctx, dto)
		if err != nil {
			return err
		}
		if err := check("offer", id, res); err != nil {
			return err
		}
		s.Stats.record(res)
	}
	return nil
}

// property keeps the id and version of a property already shown for the same
// employee so a re-run updates it in place.
func (s *Seeder) property(f PropertyFixture, shown map[uuid.UUID]offer.PropertyDTO) (offer.PropertyDTO, error) {
	employeeID, err := parseID("shown employee", f.Employee)
	if err != nil {
		return offer.PropertyDTO{}, err
	}
	p := shown[employeeID]
	p.EmployeeID = employeeID
	p.Headline = f.Headline
	if p.Fields, err = s.refs(taxonomy.Field, f.Fields); err != nil {
		return offer.PropertyDTO{}, err
	}
	if p.Roles, err = s.refs(taxonomy.Role, f.Roles); err != nil {
		return offer.PropertyDTO{}, err
	}
	if p.SoftSkills, err = s.refs(taxonomy.SoftSkill, f.SoftSkills); err != nil {
		return offer.PropertyDTO{}, err
	}
	if p.Projects, err = parseIDs("shown project", f.Projects); err != nil {
		return offer.PropertyDTO{}, err
	}
	hard, err := s.leveled(taxonomy.HardSkill, f.HardSkills)
	if err != nil {
		return offer.PropertyDTO{}, err
	}
	langs, err := s.leveled(taxonomy.Language, f.Languages)
	if err != nil {
		return offer.PropertyDTO{}, err
	}
	p.HardSkills = offerLeveled(hard)
	p.Languages = offerLeveled(langs)
	return p, nil
}

func offerLeveled(in []employee.LeveledDTO) []offer.LeveledDTO {
	out := make([]offer.LeveledDTO, 0, len(in))
	for _, l := range in {
		out = append(out, offer.LeveledDTO{ID: l.ID, Level: l.Level})
	}
	return out
}

func (s *Seeder) seedDocumentConfigurations(ctx context.Context, app application.Application) error {
	svc := app.Service(services.DocumentConfigurationService{}).(*services.DocumentConfigurationService)
	for _, f := range s.fixtures.DocumentConfigurations {
		id, err := parseID("document configuration", f.ID)
		if err != nil {
			return err
		}
		dto := &docconfig.UpsertDTO{
			ID:               id,
			Title:            f.Title,
			ShowCover:        flag(f.ShowCover),
			ShowRequirements: flag(f.ShowRequirements),
			ShowContact:      flag(f.ShowContact),
			ShowProjects:     flag(f.ShowProjects),
		}
		if strings.TrimSpace(f.Offer) != "" {
			offerID, err := parseID("document configuration offer", f.Offer)
			if err != nil {
				return err
			}
			dto.OfferID = &offerID
		}

		existing, err := svc.GetByID(ctx, id)
		switch {
		case err == nil:
			dto.Version = existing.Version
		case !errors.Is(err, docconfig.ErrDocumentConfigurationNotFound):
			return err
		}

		_, res, err := svc.Upsert(ctx, dto)
		if err != nil {
			return err
		}
		if err := check("document configuration", id, res); err != nil {
			return err
		}
		s.Stats.record(res)
	}
	return nil
}
