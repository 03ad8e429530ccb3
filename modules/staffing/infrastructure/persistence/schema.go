package persistence

import (
	"fmt"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

func kind(name, table string, columns ...string) *versioned.Kind {
	return &versioned.Kind{
		Name:          name,
		Table:         table,
		IDColumn:      "id",
		VersionColumn: "last_changed",
		Columns:       columns,
	}
}

func taxonomyKind(k taxonomy.Kind, table string) *versioned.Kind {
	d := kind(string(k), table, "name")
	d.LabelColumn = "name"
	d.UniqueLabel = true
	d.TouchOnUpdate = true
	return d
}

var (
	Fields     = taxonomyKind(taxonomy.Field, "fields")
	Roles      = taxonomyKind(taxonomy.Role, "roles")
	SoftSkills = taxonomyKind(taxonomy.SoftSkill, "soft_skills")
	HardSkills = taxonomyKind(taxonomy.HardSkill, "hard_skills")
	Languages  = taxonomyKind(taxonomy.Language, "languages")

	// Activities reference employees by id only; an employee update touches nothing.
	Employees = func() *versioned.Kind {
		k := kind("employee", "employees",
			"first_name", "last_name", "title", "email", "description", "experience_since", "hourly_rate")
		k.LabelColumn = "last_name"
		return k
	}()

	// Employees and shown properties carry project titles.
	Projects = func() *versioned.Kind {
		k := kind("project", "projects", "title", "client", "description", "start_date", "end_date")
		k.LabelColumn = "title"
		k.TouchOnUpdate = true
		return k
	}()

	ProjectActivities = func() *versioned.Kind {
		k := kind("project_activity", "project_activities", "project_id", "description")
		k.Dependencies = []versioned.Dependency{{Column: "project_id", On: Projects, Parent: true}}
		return k
	}()

	Offers = func() *versioned.Kind {
		k := kind("offer", "offers", "title", "client", "description", "status", "daily_rate", "valid_until")
		k.LabelColumn = "title"
		return k
	}()

	ShownProperties = func() *versioned.Kind {
		k := kind("shown_employee_property", "shown_employee_properties", "offer_id", "employee_id", "headline")
		k.Dependencies = []versioned.Dependency{
			{Column: "offer_id", On: Offers, Parent: true},
			{Column: "employee_id", On: Employees},
		}
		return k
	}()

	DocumentConfigurations = func() *versioned.Kind {
		k := kind("document_configuration", "document_configurations",
			"title", "show_cover", "show_requirements", "show_contact", "show_projects", "offer_id")
		k.Dependencies = []versioned.Dependency{{Column: "offer_id", On: Offers}}
		return k
	}()
)

func relation(owner *versioned.Kind, ownerColumn string, target *versioned.Kind, refColumn, joinTable string) *versioned.Relation {
	return &versioned.Relation{
		Name:        joinTable,
		Owner:       owner,
		Target:      target,
		JoinTable:   joinTable,
		OwnerColumn: ownerColumn,
		RefColumn:   refColumn,
	}
}

func leveledRelation(owner *versioned.Kind, ownerColumn string, target *versioned.Kind, refColumn, joinTable string) *versioned.Relation {
	r := relation(owner, ownerColumn, target, refColumn, joinTable)
	r.LevelColumn = "level"
	return r
}

var (
	EmployeeFields     = relation(Employees, "employee_id", Fields, "field_id", "employee_fields")
	EmployeeRoles      = relation(Employees, "employee_id", Roles, "role_id", "employee_roles")
	EmployeeSoftSkills = relation(Employees, "employee_id", SoftSkills, "soft_skill_id", "employee_soft_skills")
	EmployeeHardSkills = leveledRelation(Employees, "employee_id", HardSkills, "hard_skill_id", "employee_hard_skills")
	EmployeeLanguages  = leveledRelation(Employees, "employee_id", Languages, "language_id", "employee_languages")
	EmployeeProjects   = relation(Employees, "employee_id", Projects, "project_id", "employee_projects")

	ProjectFields     = relation(Projects, "project_id", Fields, "field_id", "project_fields")
	ProjectHardSkills = relation(Projects, "project_id", HardSkills, "hard_skill_id", "project_hard_skills")
	ActivityEmployees = relation(ProjectActivities, "activity_id", Employees, "employee_id", "project_activity_employees")

	PropertyFields     = relation(ShownProperties, "property_id", Fields, "field_id", "shown_employee_property_fields")
	PropertyRoles      = relation(ShownProperties, "property_id", Roles, "role_id", "shown_employee_property_roles")
	PropertySoftSkills = relation(ShownProperties, "property_id", SoftSkills, "soft_skill_id", "shown_employee_property_soft_skills")
	PropertyProjects   = relation(ShownProperties, "property_id", Projects, "project_id", "shown_employee_property_projects")
	PropertyHardSkills = leveledRelation(ShownProperties, "property_id", HardSkills, "hard_skill_id", "shown_employee_property_hard_skills")
	PropertyLanguages  = leveledRelation(ShownProperties, "property_id", Languages, "language_id", "shown_employee_property_languages")
)

var taxonomyKinds = map[taxonomy.Kind]*versioned.Kind{
	taxonomy.Field:     Fields,
	taxonomy.Role:      Roles,
	taxonomy.SoftSkill: SoftSkills,
	taxonomy.HardSkill: HardSkills,
	taxonomy.Language:  Languages,
}

// TaxonomyKind returns the descriptor of a taxonomy kind.
func TaxonomyKind(k taxonomy.Kind) (*versioned.Kind, error) {
	d, ok := taxonomyKinds[k]
	if !ok {
		return nil, fmt.Errorf("%w: taxonomy %q", versioned.ErrUnknownKind, k)
	}
	return d, nil
}

// NewSchema builds the staffing schema. ancestorDepth is the number of parent
// hops touched above an aggregate that referenced a deleted or renamed row.
func NewSchema(ancestorDepth int) (*versioned.Schema, error) {
	return versioned.NewSchema(versioned.Hops(ancestorDepth),
		[]*versioned.Kind{
			Fields, Roles, SoftSkills, HardSkills, Languages,
			Employees, Projects, ProjectActivities, Offers, ShownProperties, DocumentConfigurations,
		},
		[]*versioned.Relation{
			EmployeeFields, EmployeeRoles, EmployeeSoftSkills, EmployeeHardSkills, EmployeeLanguages, EmployeeProjects,
			ProjectFields, ProjectHardSkills, ActivityEmployees,
			PropertyFields, PropertyRoles, PropertySoftSkills, PropertyProjects, PropertyHardSkills, PropertyLanguages,
		},
	)
}
