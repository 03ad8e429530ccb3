package versioned_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/pkg/versioned"
	"github.com/iota-uz/staffing/pkg/versioned/memstore"
)

func kind(name string, columns ...string) *versioned.Kind {
	return &versioned.Kind{
		Name:          name,
		Table:         name + "s",
		IDColumn:      "id",
		VersionColumn: "last_changed",
		Columns:       columns,
	}
}

type fixture struct {
	skill, employee, account, offer, sep, project, activity *versioned.Kind

	employeeSkills, sepSkills, activityMembers *versioned.Relation
}

func newFixture() *fixture {
	f := &fixture{}
	f.skill = kind("skill", "name")
	f.skill.LabelColumn = "name"
	f.skill.UniqueLabel = true
	f.skill.TouchOnUpdate = true

	f.employee = kind("employee", "name")
	f.employee.LabelColumn = "name"
	f.account = kind("account", "name")
	f.offer = kind("offer", "title", "account_id")
	f.offer.Dependencies = []versioned.Dependency{{Column: "account_id", On: f.account, Parent: true}}
	f.sep = kind("sep", "offer_id", "employee_id", "headline")
	f.sep.Dependencies = []versioned.Dependency{
		{Column: "offer_id", On: f.offer, Parent: true},
		{Column: "employee_id", On: f.employee},
	}
	f.project = kind("project", "title")
	f.activity = kind("activity", "project_id", "description")
	f.activity.Dependencies = []versioned.Dependency{{Column: "project_id", On: f.project, Parent: true}}

	f.employeeSkills = &versioned.Relation{
		Name: "employee_skills", Owner: f.employee, Target: f.skill,
		JoinTable: "employee_skills", OwnerColumn: "employee_id", RefColumn: "skill_id", LevelColumn: "level",
	}
	f.sepSkills = &versioned.Relation{
		Name: "sep_skills", Owner: f.sep, Target: f.skill,
		JoinTable: "sep_skills", OwnerColumn: "sep_id", RefColumn: "skill_id", LevelColumn: "level",
	}
	f.activityMembers = &versioned.Relation{
		Name: "activity_members", Owner: f.activity, Target: f.employee,
		JoinTable: "activity_members", OwnerColumn: "activity_id", RefColumn: "employee_id",
	}
	return f
}

func (f *fixture) kinds() []*versioned.Kind {
	return []*versioned.Kind{f.skill, f.employee, f.account, f.offer, f.sep, f.project, f.activity}
}

func (f *fixture) relations() []*versioned.Relation {
	return []*versioned.Relation{f.employeeSkills, f.sepSkills, f.activityMembers}
}

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	*fixture
	ctx    context.Context
	store  *memstore.Store
	clock  *clockwork.FakeClock
	engine *versioned.Engine
}

func newHarness(t *testing.T, depth versioned.Depth) *harness {
	t.Helper()
	f := newFixture()
	schema, err := versioned.NewSchema(depth, f.kinds(), f.relations())
	require.NoError(t, err)
	store := memstore.New()
	clock := clockwork.NewFakeClockAt(t0)
	return &harness{
		fixture: f,
		ctx:     context.Background(),
		store:   store,
		clock:   clock,
		engine:  versioned.New(schema, store, versioned.Options{Clock: clock}),
	}
}

func (h *harness) upsert(t *testing.T, s versioned.Snapshot) versioned.Result {
	t.Helper()
	res, err := h.engine.Upsert(h.ctx, s)
	require.NoError(t, err)
	return res
}

func (h *harness) mustInsert(t *testing.T, s versioned.Snapshot) versioned.Token {
	t.Helper()
	res := h.upsert(t, s)
	require.Equal(t, versioned.Inserted, res.Outcome)
	h.clock.Advance(time.Second)
	return res.Version
}

func (h *harness) version(t *testing.T, k *versioned.Kind, id uuid.UUID) versioned.Token {
	t.Helper()
	v, found, err := h.store.Version(h.ctx, k, id)
	require.NoError(t, err)
	require.True(t, found, "%s %s not found", k.Name, id)
	return v
}

func (h *harness) links(t *testing.T, r *versioned.Relation, owner uuid.UUID) []versioned.Link {
	t.Helper()
	links, err := h.engine.Materializer().Links(h.ctx, r, owner)
	require.NoError(t, err)
	return links
}

func (h *harness) skillSnap(id uuid.UUID, name string) versioned.Snapshot {
	return versioned.Snapshot{Kind: h.skill, ID: id, Values: []any{name}}
}

func (h *harness) employeeSnap(id uuid.UUID, v versioned.Token, name string, skills ...versioned.Link) versioned.Snapshot {
	return versioned.Snapshot{
		Kind:      h.employee,
		ID:        id,
		Version:   v,
		Values:    []any{name},
		Relations: []versioned.RelationSet{{Relation: h.employeeSkills, Links: skills}},
	}
}

func refs(links []versioned.Link) []uuid.UUID {
	out := make([]uuid.UUID, len(links))
	for i, l := range links {
		out[i] = l.Ref
	}
	return out
}
