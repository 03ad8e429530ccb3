package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/employee"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/offer"
	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/project"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/docconfig"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/persistence"
	"github.com/iota-uz/staffing/pkg/versioned"
	"github.com/iota-uz/staffing/pkg/versioned/memstore"
)

type repos struct {
	ctx        context.Context
	clock      *clockwork.FakeClock
	taxonomy   taxonomy.Repository
	employees  employee.Repository
	projects   project.Repository
	offers     offer.Repository
	properties shownproperty.Repository
	configs    docconfig.Repository
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	schema, err := persistence.NewSchema(1)
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC))
	engine := versioned.New(schema, memstore.New(), versioned.Options{Clock: clock})
	return &repos{
		ctx:        context.Background(),
		clock:      clock,
		taxonomy:   persistence.NewTaxonomyRepository(engine),
		employees:  persistence.NewEmployeeRepository(engine),
		projects:   persistence.NewProjectRepository(engine),
		offers:     persistence.NewOfferRepository(engine),
		properties: persistence.NewShownPropertyRepository(engine),
		configs:    persistence.NewDocumentConfigurationRepository(engine),
	}
}

func (r *repos) item(t *testing.T, k taxonomy.Kind, name string) taxonomy.Item {
	t.Helper()
	item := taxonomy.New(k, name)
	res, err := r.taxonomy.Upsert(r.ctx, item)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	r.clock.Advance(time.Second)
	return item.WithVersion(res.Version)
}

func (r *repos) employee(t *testing.T, e *employee.Employee) *employee.Employee {
	t.Helper()
	res, err := r.employees.Upsert(r.ctx, e)
	require.NoError(t, err)
	require.True(t, res.Outcome.Succeeded(), "outcome %s", res.Outcome)
	r.clock.Advance(time.Second)
	return e
}

func TestNewSchema(t *testing.T) {
	schema, err := persistence.NewSchema(1)
	require.NoError(t, err)
	require.Equal(t, versioned.Depth(1), schema.DefaultDepth())

	owner, err := persistence.NewSchema(0)
	require.NoError(t, err)
	require.Equal(t, versioned.OwnerOnly, owner.DefaultDepth())

	for _, k := range taxonomy.Kinds {
		d, err := persistence.TaxonomyKind(k)
		require.NoError(t, err)
		registered, err := schema.Kind(string(k))
		require.NoError(t, err)
		require.Same(t, d, registered)
	}
	_, err = persistence.TaxonomyKind("colour")
	require.ErrorIs(t, err, versioned.ErrUnknownKind)
}

func TestEmployeeRepository_RoundTrip(t *testing.T) {
	r := newRepos(t)
	golang := r.item(t, taxonomy.HardSkill, "Go")
	german := r.item(t, taxonomy.Language, "German")
	backend := r.item(t, taxonomy.Field, "Backend")

	since := time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC)
	e := employee.New("Grace", "Hopper")
	e.Email = "grace@example.com"
	e.ExperienceSince = &since
	e.HourlyRate = decimal.NewNullDecimal(decimal.RequireFromString("95.50"))
	e.Fields = []taxonomy.Ref{{ID: backend.ID()}}
	e.SetHardSkill(golang.ID(), taxonomy.LevelExpert)
	e.SetLanguage(german.ID(), taxonomy.LevelB2)
	r.employee(t, e)

	got, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	require.True(t, got.Version.Equal(e.Version))
	require.Equal(t, "Grace Hopper", got.FullName())
	require.Equal(t, since, *got.ExperienceSince)
	require.True(t, got.HourlyRate.Valid)
	require.True(t, got.HourlyRate.Decimal.Equal(decimal.RequireFromString("95.5")))
	require.Equal(t, []taxonomy.Ref{{ID: backend.ID(), Name: "Backend"}}, got.Fields)
	require.Equal(t, []taxonomy.LeveledRef{{ID: golang.ID(), Name: "Go", Level: taxonomy.LevelExpert}}, got.HardSkills)
	require.Equal(t, []taxonomy.LeveledRef{{ID: german.ID(), Name: "German", Level: taxonomy.LevelB2}}, got.Languages)
	require.Empty(t, got.Roles)

	_, err = r.employees.GetByID(r.ctx, uuid.New())
	require.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestEmployeeRepository_StaleUpsertConflicts(t *testing.T) {
	r := newRepos(t)
	e := r.employee(t, employee.New("Ada", "Lovelace"))

	first, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	second, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)

	first.Title = "Analyst"
	res, err := r.employees.Upsert(r.ctx, first)
	require.NoError(t, err)
	require.Equal(t, versioned.Updated, res.Outcome)

	second.Title = "Engineer"
	staleVersion := second.Version
	res, err = r.employees.Upsert(r.ctx, second)
	require.NoError(t, err)
	require.Equal(t, versioned.Conflict, res.Outcome)
	require.ErrorIs(t, res.Err(), versioned.ErrConflict)
	require.True(t, second.Version.Equal(staleVersion), "a conflict must not move the caller's version")

	stored, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Analyst", stored.Title)
}

func TestEmployeeRepository_LeveledReplace(t *testing.T) {
	r := newRepos(t)
	golang := r.item(t, taxonomy.HardSkill, "Go")
	e := employee.New("Linus", "T")
	e.SetHardSkill(golang.ID(), taxonomy.LevelBasic)
	r.employee(t, e)

	e.SetHardSkill(golang.ID(), taxonomy.LevelAdvanced)
	r.employee(t, e)

	got, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got.HardSkills, 1)
	require.Equal(t, taxonomy.LevelAdvanced, got.HardSkills[0].Level)
}

func TestTaxonomyRepository(t *testing.T) {
	r := newRepos(t)
	golang := r.item(t, taxonomy.HardSkill, "Go")
	r.item(t, taxonomy.HardSkill, "ansible")

	t.Run("name is unique ignoring case", func(t *testing.T) {
		res, err := r.taxonomy.Upsert(r.ctx, taxonomy.New(taxonomy.HardSkill, "GO"))
		require.NoError(t, err)
		require.Equal(t, versioned.Rejected, res.Outcome)
		require.ErrorIs(t, res.Err(), versioned.ErrNameTaken)
	})

	t.Run("same name in another taxonomy is fine", func(t *testing.T) {
		res, err := r.taxonomy.Upsert(r.ctx, taxonomy.New(taxonomy.Field, "Go"))
		require.NoError(t, err)
		require.Equal(t, versioned.Inserted, res.Outcome)
	})

	items, err := r.taxonomy.GetAll(r.ctx, taxonomy.HardSkill)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "ansible", items[0].Name())
	require.Equal(t, "Go", items[1].Name())

	t.Run("rename touches referrers", func(t *testing.T) {
		e := employee.New("Rob", "Pike")
		e.SetHardSkill(golang.ID(), taxonomy.LevelExpert)
		r.employee(t, e)
		before := e.Version

		res, err := r.taxonomy.Upsert(r.ctx, golang.Rename("Golang"))
		require.NoError(t, err)
		require.Equal(t, versioned.Updated, res.Outcome)

		got, err := r.employees.GetByID(r.ctx, e.ID)
		require.NoError(t, err)
		require.True(t, got.Version.After(before))
		require.Equal(t, "Golang", got.HardSkills[0].Name)
	})

	_, err = r.taxonomy.GetByID(r.ctx, taxonomy.HardSkill, uuid.New())
	require.ErrorIs(t, err, taxonomy.ErrItemNotFound)
}

func TestTaxonomyRepository_DeleteTouchesReferrers(t *testing.T) {
	r := newRepos(t)
	role := r.item(t, taxonomy.Role, "Architect")
	e := employee.New("Barbara", "Liskov")
	e.Roles = []taxonomy.Ref{{ID: role.ID()}}
	r.employee(t, e)
	before := e.Version

	res, err := r.taxonomy.Delete(r.ctx, taxonomy.Role, role.ID())
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 1, res.Touched)

	got, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	require.True(t, got.Version.After(before))
	require.Empty(t, got.Roles)

	again, err := r.taxonomy.Delete(r.ctx, taxonomy.Role, role.ID())
	require.NoError(t, err)
	require.False(t, again.Found)
}

func TestProjectRepository_Activities(t *testing.T) {
	r := newRepos(t)
	alice := r.employee(t, employee.New("Alice", "A"))
	bob := r.employee(t, employee.New("Bob", "B"))

	p := project.New("Migration")
	keep := p.AddActivity("Design", alice.ID)
	drop := p.AddActivity("Cutover", alice.ID, bob.ID)
	res, err := r.projects.Upsert(r.ctx, p)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	require.Len(t, res.Children, 2)
	for _, a := range p.Activities {
		require.False(t, a.Version.IsZero())
	}
	r.clock.Advance(time.Second)

	require.True(t, p.RemoveActivity(drop.ID))
	res, err = r.projects.Upsert(r.ctx, p)
	require.NoError(t, err)
	require.Equal(t, versioned.Updated, res.Outcome)

	got, err := r.projects.GetByID(r.ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.Version.Equal(p.Version))
	require.Len(t, got.Activities, 1)
	require.Equal(t, keep.ID, got.Activities[0].ID)
	require.Equal(t, []uuid.UUID{alice.ID}, got.Activities[0].Employees)
	r.clock.Advance(time.Second)

	t.Run("deleting a member touches the project", func(t *testing.T) {
		before := got.Version
		_, err := r.employees.Delete(r.ctx, alice.ID)
		require.NoError(t, err)

		v, err := r.projects.Version(r.ctx, p.ID)
		require.NoError(t, err)
		require.True(t, v.After(before))
	})

	t.Run("deleting an activity reports the project version", func(t *testing.T) {
		del, err := r.projects.DeleteActivity(r.ctx, keep.ID)
		require.NoError(t, err)
		require.True(t, del.Found)

		v, err := r.projects.Version(r.ctx, p.ID)
		require.NoError(t, err)
		require.True(t, del.ParentVersion.Equal(v))
	})
}

func TestOfferRepository_PropertiesAndCascade(t *testing.T) {
	r := newRepos(t)
	skill := r.item(t, taxonomy.HardSkill, "Kubernetes")
	alice := r.employee(t, employee.New("Alice", "A"))
	bob := r.employee(t, employee.New("Bob", "B"))

	o := offer.New("Platform team", "ACME")
	o.DailyRate = decimal.NewNullDecimal(decimal.NewFromInt(800))
	shown := o.Show(alice.ID)
	shown.Headline = "Lead"
	shown.HardSkills = []taxonomy.LeveledRef{{ID: skill.ID(), Level: taxonomy.LevelExpert}}
	o.Show(bob.ID)
	res, err := r.offers.Upsert(r.ctx, o)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	r.clock.Advance(time.Second)

	cfg := docconfig.Default("ACME deck")
	cfg.OfferID = uuid.NullUUID{UUID: o.ID, Valid: true}
	global := docconfig.Default("Default")
	for _, c := range []docconfig.DocumentConfiguration{cfg, global} {
		res, err := r.configs.Upsert(r.ctx, c)
		require.NoError(t, err)
		require.Equal(t, versioned.Inserted, res.Outcome)
	}
	r.clock.Advance(time.Second)

	got, err := r.offers.GetByID(r.ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, offer.StatusDraft, got.Status)
	require.True(t, got.DailyRate.Decimal.Equal(decimal.NewFromInt(800)))
	require.Len(t, got.Properties, 2)

	props, err := r.properties.GetByOffer(r.ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, props, 2)

	t.Run("deleting an employee removes their property and touches the offer", func(t *testing.T) {
		before := got.Version
		_, err := r.employees.Delete(r.ctx, bob.ID)
		require.NoError(t, err)

		after, err := r.offers.GetByID(r.ctx, o.ID)
		require.NoError(t, err)
		require.True(t, after.Version.After(before))
		require.Len(t, after.Properties, 1)
		require.Equal(t, alice.ID, after.Properties[0].EmployeeID)
		require.Equal(t, "Kubernetes", after.Properties[0].HardSkills[0].Name)
	})

	t.Run("deleting the offer removes scoped configurations", func(t *testing.T) {
		del, err := r.offers.Delete(r.ctx, o.ID)
		require.NoError(t, err)
		require.True(t, del.Found)

		_, err = r.configs.GetByID(r.ctx, cfg.ID)
		require.ErrorIs(t, err, docconfig.ErrDocumentConfigurationNotFound)
		kept, err := r.configs.GetByID(r.ctx, global.ID)
		require.NoError(t, err)
		require.False(t, kept.OfferID.Valid)

		all, err := r.properties.GetAll(r.ctx)
		require.NoError(t, err)
		require.Empty(t, all)
	})
}

func TestProjectRepository_RenameTouchesReferrers(t *testing.T) {
	r := newRepos(t)
	p := project.New("Old title")
	res, err := r.projects.Upsert(r.ctx, p)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	r.clock.Advance(time.Second)

	e := employee.New("Alice", "A")
	e.Projects = []taxonomy.Ref{{ID: p.ID}}
	r.employee(t, e)

	o := offer.New("Platform team", "ACME")
	o.Show(e.ID).Projects = []taxonomy.Ref{{ID: p.ID}}
	res, err = r.offers.Upsert(r.ctx, o)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	prop := o.Properties[0]
	r.clock.Advance(time.Second)

	p.Title = "New title"
	res, err = r.projects.Upsert(r.ctx, p)
	require.NoError(t, err)
	require.Equal(t, versioned.Updated, res.Outcome)

	got, err := r.employees.GetByID(r.ctx, e.ID)
	require.NoError(t, err)
	require.True(t, got.Version.After(e.Version))
	require.Equal(t, "New title", got.Projects[0].Name)

	shown, err := r.properties.GetByID(r.ctx, prop.ID)
	require.NoError(t, err)
	require.True(t, shown.Version.After(prop.Version))
	require.Equal(t, "New title", shown.Projects[0].Name)

	after, err := r.offers.GetByID(r.ctx, o.ID)
	require.NoError(t, err)
	require.True(t, after.Version.After(o.Version), "the offer is one hop above its property")
}

func TestShownPropertyRepository_UpsertTouchesOffer(t *testing.T) {
	r := newRepos(t)
	alice := r.employee(t, employee.New("Alice", "A"))

	o := offer.New("Platform team", "ACME")
	o.Show(alice.ID).Headline = "old"
	res, err := r.offers.Upsert(r.ctx, o)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	r.clock.Advance(time.Second)

	p := o.Properties[0]
	p.Headline = "new"
	res, err = r.properties.Upsert(r.ctx, p)
	require.NoError(t, err)
	require.Equal(t, versioned.Updated, res.Outcome)
	require.True(t, res.ParentVersion.After(o.Version))

	got, err := r.offers.GetByID(r.ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.Version.Equal(res.ParentVersion))
	require.Equal(t, "new", got.Properties[0].Headline)

	stale, err := r.offers.Upsert(r.ctx, o)
	require.NoError(t, err)
	require.Equal(t, versioned.Conflict, stale.Outcome)

	// The offer's writer refreshes both tokens and carries on.
	o.Version = res.ParentVersion
	o.Properties[0].Version = res.Version
	o.Properties[0].Headline = "newer"
	res, err = r.offers.Upsert(r.ctx, o)
	require.NoError(t, err)
	require.Equal(t, versioned.Updated, res.Outcome)
}

func TestOfferRepository_PropertyOfAnotherOfferIsRejected(t *testing.T) {
	r := newRepos(t)
	alice := r.employee(t, employee.New("Alice", "A"))

	first := offer.New("Platform team", "ACME")
	first.Show(alice.ID).Headline = "Lead"
	res, err := r.offers.Upsert(r.ctx, first)
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)
	r.clock.Advance(time.Second)

	second := offer.New("Data team", "ACME")
	second.Properties = []shownproperty.ShownEmployeeProperty{first.Properties[0]}
	res, err = r.offers.Upsert(r.ctx, second)
	require.NoError(t, err)
	require.Equal(t, versioned.Rejected, res.Outcome)
	require.ErrorIs(t, res.Err(), versioned.ErrForeignChild)

	_, err = r.offers.GetByID(r.ctx, second.ID)
	require.ErrorIs(t, err, offer.ErrOfferNotFound)

	got, err := r.offers.GetByID(r.ctx, first.ID)
	require.NoError(t, err)
	require.True(t, got.Version.Equal(first.Version))
	require.Len(t, got.Properties, 1)
	require.Equal(t, "Lead", got.Properties[0].Headline)
}
