package persistence

import (
	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/employee"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/offer"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/project"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/docconfig"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

func toLinks(refs []taxonomy.Ref) []versioned.Link {
	links := make([]versioned.Link, len(refs))
	for i, r := range refs {
		links[i] = versioned.Link{Ref: r.ID}
	}
	return links
}

func toLeveledLinks(refs []taxonomy.LeveledRef) []versioned.Link {
	links := make([]versioned.Link, len(refs))
	for i, r := range refs {
		links[i] = versioned.Link{Ref: r.ID, Level: string(r.Level)}
	}
	return links
}

func idLinks(ids []uuid.UUID) []versioned.Link {
	links := make([]versioned.Link, len(ids))
	for i, id := range ids {
		links[i] = versioned.Link{Ref: id}
	}
	return links
}

func toDomainRefs(links []versioned.Link) []taxonomy.Ref {
	refs := make([]taxonomy.Ref, len(links))
	for i, l := range links {
		refs[i] = taxonomy.Ref{ID: l.Ref, Name: l.Label}
	}
	return refs
}

func toDomainLeveledRefs(links []versioned.Link) []taxonomy.LeveledRef {
	refs := make([]taxonomy.LeveledRef, len(links))
	for i, l := range links {
		refs[i] = taxonomy.LeveledRef{ID: l.Ref, Name: l.Label, Level: taxonomy.Level(l.Level)}
	}
	return refs
}

func toDomainIDs(links []versioned.Link) []uuid.UUID {
	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.Ref
	}
	return ids
}

func employeeValues(e *employee.Employee) []any {
	return []any{e.FirstName, e.LastName, e.Title, e.Email, e.Description, e.ExperienceSince, e.HourlyRate}
}

func employeeDest(e *employee.Employee) []any {
	return []any{&e.FirstName, &e.LastName, &e.Title, &e.Email, &e.Description, &e.ExperienceSince, &e.HourlyRate}
}

func toDBEmployee(e *employee.Employee) versioned.Snapshot {
	return versioned.Snapshot{
		Kind:    Employees,
		ID:      e.ID,
		Version: e.Version,
		Values:  employeeValues(e),
		Relations: []versioned.RelationSet{
			{Relation: EmployeeFields, Links: toLinks(e.Fields)},
			{Relation: EmployeeRoles, Links: toLinks(e.Roles)},
			{Relation: EmployeeSoftSkills, Links: toLinks(e.SoftSkills)},
			{Relation: EmployeeHardSkills, Links: toLeveledLinks(e.HardSkills)},
			{Relation: EmployeeLanguages, Links: toLeveledLinks(e.Languages)},
			{Relation: EmployeeProjects, Links: toLinks(e.Projects)},
		},
	}
}

func projectValues(p *project.Project) []any {
	return []any{p.Title, p.Client, p.Description, p.Start, p.End}
}

func projectDest(p *project.Project) []any {
	return []any{&p.Title, &p.Client, &p.Description, &p.Start, &p.End}
}

func toDBActivity(projectID uuid.UUID, a project.Activity) versioned.Snapshot {
	return versioned.Snapshot{
		Kind:      ProjectActivities,
		ID:        a.ID,
		Version:   a.Version,
		Values:    []any{projectID, a.Description},
		Relations: []versioned.RelationSet{{Relation: ActivityEmployees, Links: idLinks(a.Employees)}},
	}
}

func toDBProject(p *project.Project) versioned.Snapshot {
	activities := make([]versioned.Snapshot, len(p.Activities))
	for i, a := range p.Activities {
		activities[i] = toDBActivity(p.ID, a)
	}
	return versioned.Snapshot{
		Kind:    Projects,
		ID:      p.ID,
		Version: p.Version,
		Values:  projectValues(p),
		Relations: []versioned.RelationSet{
			{Relation: ProjectFields, Links: toLinks(p.Fields)},
			{Relation: ProjectHardSkills, Links: toLinks(p.HardSkills)},
		},
		Children: []versioned.ChildSet{{Kind: ProjectActivities, Items: activities}},
	}
}

func offerValues(o *offer.Offer) []any {
	return []any{o.Title, o.Client, o.Description, string(o.Status), o.DailyRate, o.ValidUntil}
}

func offerDest(o *offer.Offer) []any {
	return []any{&o.Title, &o.Client, &o.Description, &o.Status, &o.DailyRate, &o.ValidUntil}
}

func toDBShownProperty(p shownproperty.ShownEmployeeProperty) versioned.Snapshot {
	return versioned.Snapshot{
		Kind:    ShownProperties,
		ID:      p.ID,
		Version: p.Version,
		Values:  []any{p.OfferID, p.EmployeeID, p.Headline},
		Relations: []versioned.RelationSet{
			{Relation: PropertyFields, Links: toLinks(p.Fields)},
			{Relation: PropertyRoles, Links: toLinks(p.Roles)},
			{Relation: PropertySoftSkills, Links: toLinks(p.SoftSkills)},
			{Relation: PropertyProjects, Links: toLinks(p.Projects)},
			{Relation: PropertyHardSkills, Links: toLeveledLinks(p.HardSkills)},
			{Relation: PropertyLanguages, Links: toLeveledLinks(p.Languages)},
		},
	}
}

func toDBOffer(o *offer.Offer) versioned.Snapshot {
	properties := make([]versioned.Snapshot, len(o.Properties))
	for i, p := range o.Properties {
		p.OfferID = o.ID
		properties[i] = toDBShownProperty(p)
	}
	return versioned.Snapshot{
		Kind:     Offers,
		ID:       o.ID,
		Version:  o.Version,
		Values:   offerValues(o),
		Children: []versioned.ChildSet{{Kind: ShownProperties, Items: properties}},
	}
}

func docConfigValues(c docconfig.DocumentConfiguration) []any {
	return []any{c.Title, c.ShowCover, c.ShowRequirements, c.ShowContact, c.ShowProjects, c.OfferID}
}

func docConfigDest(c *docconfig.DocumentConfiguration) []any {
	return []any{&c.Title, &c.ShowCover, &c.ShowRequirements, &c.ShowContact, &c.ShowProjects, &c.OfferID}
}

func toDBDocConfig(c docconfig.DocumentConfiguration) versioned.Snapshot {
	return versioned.Snapshot{
		Kind:    DocumentConfigurations,
		ID:      c.ID,
		Version: c.Version,
		Values:  docConfigValues(c),
	}
}
