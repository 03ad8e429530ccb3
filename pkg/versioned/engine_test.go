package versioned_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/pkg/versioned"
)

func TestEngine_ConcurrentWritersScenario(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	a, b, e := uuid.New(), uuid.New(), uuid.New()
	h.mustInsert(t, h.skillSnap(a, "A"))
	h.mustInsert(t, h.skillSnap(b, "B"))
	t0 := h.mustInsert(t, h.employeeSnap(e, versioned.Token{}, "E", versioned.Link{Ref: a, Level: "expert"}))

	writer1 := h.upsert(t, h.employeeSnap(e, t0, "E",
		versioned.Link{Ref: a, Level: "expert"},
		versioned.Link{Ref: b, Level: "beginner"},
	))
	require.Equal(t, versioned.Updated, writer1.Outcome)
	t1 := writer1.Version
	require.True(t, t1.After(t0))

	writer2 := h.upsert(t, h.employeeSnap(e, t0, "E", versioned.Link{Ref: b, Level: "beginner"}))
	require.Equal(t, versioned.Conflict, writer2.Outcome)
	require.ErrorIs(t, writer2.Err(), versioned.ErrConflict)

	require.ElementsMatch(t, []uuid.UUID{a, b}, refs(h.links(t, h.employeeSkills, e)))
	require.True(t, h.version(t, h.employee, e).Equal(t1))
}

func TestEngine_VersionsStrictlyIncrease(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	id := uuid.New()
	prev := h.mustInsert(t, h.employeeSnap(id, versioned.Token{}, "E"))

	for i := 0; i < 5; i++ {
		// Frozen clock on even rounds.
		if i%2 == 1 {
			h.clock.Advance(time.Millisecond)
		}
		res := h.upsert(t, h.employeeSnap(id, prev, "E"))
		require.Equal(t, versioned.Updated, res.Outcome)
		require.True(t, res.Version.After(prev), "round %d", i)
		prev = res.Version
	}
}

func TestEngine_FullReplaceIsIdempotent(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	a, b, e := uuid.New(), uuid.New(), uuid.New()
	h.mustInsert(t, h.skillSnap(a, "A"))
	h.mustInsert(t, h.skillSnap(b, "B"))
	skills := []versioned.Link{{Ref: a, Level: "expert"}, {Ref: b, Level: "beginner"}}
	v := h.mustInsert(t, h.employeeSnap(e, versioned.Token{}, "E", skills...))

	before := h.store.Stats()
	res := h.upsert(t, h.employeeSnap(e, v, "E", skills...))
	require.Equal(t, versioned.Updated, res.Outcome)

	after := h.store.Stats()
	require.Equal(t, before.LinkInserts, after.LinkInserts)
	require.Equal(t, before.LinkDeletes, after.LinkDeletes)
}

func TestEngine_InsertThenLoadRoundTrip(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	a, b, e := uuid.New(), uuid.New(), uuid.New()
	h.mustInsert(t, h.skillSnap(a, "Go"))
	h.mustInsert(t, h.skillSnap(b, "SQL"))
	res := h.upsert(t, h.employeeSnap(e, versioned.Token{}, "Grace",
		versioned.Link{Ref: b, Level: "intermediate"},
		versioned.Link{Ref: a, Level: "expert"},
	))
	require.Equal(t, versioned.Inserted, res.Outcome)

	var name string
	version, found, err := h.engine.Materializer().Row(h.ctx, h.employee, e, &name)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, version.Equal(res.Version))
	require.Equal(t, "Grace", name)
	require.ElementsMatch(t, []versioned.Link{
		{Ref: a, Level: "expert", Label: "Go"},
		{Ref: b, Level: "intermediate", Label: "SQL"},
	}, h.links(t, h.employeeSkills, e))

	_, found, err = h.engine.Materializer().Row(h.ctx, h.employee, uuid.New(), &name)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEngine_DeleteReferenceTouchesEveryReferrer(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	s, x, y, z := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	h.mustInsert(t, h.skillSnap(s, "Cobol"))
	xv := h.mustInsert(t, h.employeeSnap(x, versioned.Token{}, "X", versioned.Link{Ref: s, Level: "expert"}))
	yv := h.mustInsert(t, h.employeeSnap(y, versioned.Token{}, "Y", versioned.Link{Ref: s, Level: "beginner"}))
	zv := h.mustInsert(t, h.employeeSnap(z, versioned.Token{}, "Z"))

	res, err := h.engine.Delete(h.ctx, h.skill, s)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 2, res.Touched)
	require.True(t, res.ParentVersion.IsZero())

	require.True(t, h.version(t, h.employee, x).After(xv))
	require.True(t, h.version(t, h.employee, y).After(yv))
	require.True(t, h.version(t, h.employee, z).Equal(zv))
	require.Empty(t, h.links(t, h.employeeSkills, x))

	stale := h.upsert(t, h.employeeSnap(x, xv, "X"))
	require.Equal(t, versioned.Conflict, stale.Outcome)
}

func TestEngine_DeleteMissingRow(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	res, err := h.engine.Delete(h.ctx, h.skill, uuid.New())
	require.NoError(t, err)
	require.False(t, res.Found)
}

type offerTree struct {
	account, offer, sep, employee, skill uuid.UUID
	accountV, offerV, sepV               versioned.Token
}

func (h *harness) seedOffer(t *testing.T) offerTree {
	t.Helper()
	tree := offerTree{account: uuid.New(), offer: uuid.New(), sep: uuid.New(), employee: uuid.New(), skill: uuid.New()}
	h.mustInsert(t, h.skillSnap(tree.skill, "Go"))
	h.mustInsert(t, h.employeeSnap(tree.employee, versioned.Token{}, "E"))
	tree.accountV = h.mustInsert(t, versioned.Snapshot{Kind: h.account, ID: tree.account, Values: []any{"ACME"}})

	res := h.upsert(t, versioned.Snapshot{
		Kind:   h.offer,
		ID:     tree.offer,
		Values: []any{"Platform team", tree.account},
		Children: []versioned.ChildSet{{Kind: h.sep, Items: []versioned.Snapshot{{
			ID:        tree.sep,
			Values:    []any{nil, tree.employee, "Backend lead"},
			Relations: []versioned.RelationSet{{Relation: h.sepSkills, Links: []versioned.Link{{Ref: tree.skill, Level: "expert"}}}},
		}}}},
	})
	require.Equal(t, versioned.Inserted, res.Outcome)
	require.Contains(t, res.Children, tree.sep)
	tree.offerV = res.Version
	tree.sepV = res.Children[tree.sep].Version

	// A new offer changes its account.
	require.True(t, res.ParentVersion.After(tree.accountV))
	tree.accountV = h.version(t, h.account, tree.account)
	require.True(t, tree.accountV.Equal(res.ParentVersion))
	h.clock.Advance(time.Second)
	return tree
}

func TestEngine_CascadeDepth(t *testing.T) {
	tests := []struct {
		name         string
		depth        versioned.Depth
		offerTouched bool
		acctTouched  bool
	}{
		{name: "default walks one parent hop", depth: versioned.InheritDepth, offerTouched: true},
		{name: "owner only", depth: versioned.OwnerOnly},
		{name: "unbounded reaches the root", depth: versioned.Unbounded, offerTouched: true, acctTouched: true},
		{name: "two hops", depth: versioned.Hops(2), offerTouched: true, acctTouched: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.depth)
			tree := h.seedOffer(t)

			_, err := h.engine.Delete(h.ctx, h.skill, tree.skill)
			require.NoError(t, err)

			require.True(t, h.version(t, h.sep, tree.sep).After(tree.sepV))
			require.Equal(t, tt.offerTouched, h.version(t, h.offer, tree.offer).After(tree.offerV))
			require.Equal(t, tt.acctTouched, h.version(t, h.account, tree.account).After(tree.accountV))
		})
	}
}

func TestEngine_DeleteChildTouchesParent(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)

	res, err := h.engine.Delete(h.ctx, h.sep, tree.sep)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.False(t, res.ParentVersion.IsZero())
	require.True(t, res.ParentVersion.After(tree.offerV))
	require.True(t, h.version(t, h.offer, tree.offer).Equal(res.ParentVersion))
	require.True(t, h.version(t, h.account, tree.account).Equal(tree.accountV))
	require.Empty(t, h.links(t, h.sepSkills, tree.sep))

	// The caller refreshes its copy from ParentVersion and keeps writing.
	next := h.upsert(t, versioned.Snapshot{
		Kind: h.offer, ID: tree.offer, Version: res.ParentVersion,
		Values:   []any{"Platform team", tree.account},
		Children: []versioned.ChildSet{{Kind: h.sep}},
	})
	require.Equal(t, versioned.Updated, next.Outcome)
}

func TestEngine_ChildWrittenAloneTouchesParent(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)

	res := h.upsert(t, versioned.Snapshot{
		Kind: h.sep, ID: tree.sep, Version: tree.sepV,
		Values: []any{tree.offer, tree.employee, "Staff engineer"},
	})
	require.Equal(t, versioned.Updated, res.Outcome)
	require.True(t, res.ParentVersion.After(tree.offerV))
	require.True(t, h.version(t, h.offer, tree.offer).Equal(res.ParentVersion))
	require.True(t, h.version(t, h.account, tree.account).Equal(tree.accountV), "the default depth stops at the parent")

	stale := h.upsert(t, versioned.Snapshot{
		Kind: h.offer, ID: tree.offer, Version: tree.offerV,
		Values: []any{"Platform team", tree.account},
	})
	require.Equal(t, versioned.Conflict, stale.Outcome)
}

func TestEngine_ChildMovedAloneTouchesBothParents(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)
	other := uuid.New()
	otherV := h.mustInsert(t, versioned.Snapshot{Kind: h.offer, ID: other, Values: []any{"Data team", tree.account}})

	res := h.upsert(t, versioned.Snapshot{
		Kind: h.sep, ID: tree.sep, Version: tree.sepV,
		Values: []any{other, tree.employee, "Backend lead"},
	})
	require.Equal(t, versioned.Updated, res.Outcome)
	require.True(t, h.version(t, h.offer, other).Equal(res.ParentVersion))
	require.True(t, res.ParentVersion.After(otherV))
	require.True(t, h.version(t, h.offer, tree.offer).After(tree.offerV))
}

func TestEngine_ChildListedUnderAnotherOwnerIsRejected(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)
	before := h.store.Stats()

	res := h.upsert(t, versioned.Snapshot{
		Kind:   h.offer,
		ID:     uuid.New(),
		Values: []any{"Poacher", tree.account},
		Children: []versioned.ChildSet{{Kind: h.sep, Items: []versioned.Snapshot{{
			ID: tree.sep, Values: []any{nil, tree.employee, "Moved"},
		}}}},
	})
	require.Equal(t, versioned.Rejected, res.Outcome)
	require.ErrorIs(t, res.Reason, versioned.ErrForeignChild)

	var offerID, employeeID uuid.UUID
	var headline string
	version, found, err := h.engine.Materializer().Row(h.ctx, h.sep, tree.sep, &offerID, &employeeID, &headline)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, tree.offer, offerID)
	require.Equal(t, "Backend lead", headline)
	require.True(t, version.Equal(tree.sepV))
	require.True(t, h.version(t, h.offer, tree.offer).Equal(tree.offerV))
	require.Equal(t, before.Writes()+1, h.store.Stats().Writes(), "only the rolled back owner insert is counted")
}

func TestEngine_DeleteDependencyRemovesDependents(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)

	res, err := h.engine.Delete(h.ctx, h.employee, tree.employee)
	require.NoError(t, err)
	require.True(t, res.Found)

	_, found, err := h.store.Version(h.ctx, h.sep, tree.sep)
	require.NoError(t, err)
	require.False(t, found)
	require.True(t, h.version(t, h.offer, tree.offer).After(tree.offerV))
	require.Empty(t, h.links(t, h.sepSkills, tree.sep))
}

func TestEngine_ChildListReconciliation(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	p, a1, a2, e1, e2 := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	h.mustInsert(t, h.employeeSnap(e1, versioned.Token{}, "E1"))
	h.mustInsert(t, h.employeeSnap(e2, versioned.Token{}, "E2"))

	activity := func(id uuid.UUID, v versioned.Token, desc string, members ...uuid.UUID) versioned.Snapshot {
		links := make([]versioned.Link, len(members))
		for i, m := range members {
			links[i] = versioned.Link{Ref: m}
		}
		return versioned.Snapshot{
			ID: id, Version: v, Values: []any{uuid.Nil, desc},
			Relations: []versioned.RelationSet{{Relation: h.activityMembers, Links: links}},
		}
	}
	project := func(v versioned.Token, items ...versioned.Snapshot) versioned.Snapshot {
		return versioned.Snapshot{
			Kind: h.project, ID: p, Version: v, Values: []any{"Migration"},
			Children: []versioned.ChildSet{{Kind: h.activity, Items: items}},
		}
	}

	first := h.upsert(t, project(versioned.Token{}, activity(a1, versioned.Token{}, "design", e1), activity(a2, versioned.Token{}, "build", e2)))
	require.Equal(t, versioned.Inserted, first.Outcome)
	require.Equal(t, versioned.Inserted, first.Children[a1].Outcome)
	require.Equal(t, versioned.Inserted, first.Children[a2].Outcome)
	h.clock.Advance(time.Second)

	second := h.upsert(t, project(first.Version, activity(a1, first.Children[a1].Version, "design", e1, e2)))
	require.Equal(t, versioned.Updated, second.Outcome)
	require.Len(t, second.Children, 1)
	require.True(t, h.version(t, h.project, p).Equal(second.Version), "removing a child must not invalidate the writer's own token")

	ids, err := h.engine.Materializer().Children(h.ctx, h.activity, p)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a1}, ids)
	require.ElementsMatch(t, []uuid.UUID{e1, e2}, refs(h.links(t, h.activityMembers, a1)))
	require.Empty(t, h.links(t, h.activityMembers, a2))
}

func TestEngine_ChildConflictAbortsWholeUpsert(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)
	before := h.store.Stats()

	res := h.upsert(t, versioned.Snapshot{
		Kind: h.offer, ID: tree.offer, Version: tree.offerV,
		Values: []any{"Renamed", tree.account},
		Children: []versioned.ChildSet{{Kind: h.sep, Items: []versioned.Snapshot{{
			ID:      tree.sep,
			Version: versioned.TokenOf(t0.Add(-time.Hour)),
			Values:  []any{nil, tree.employee, "Stale headline"},
		}}}},
	})
	require.Equal(t, versioned.Conflict, res.Outcome)
	require.True(t, res.Version.IsZero())
	require.Empty(t, res.Children)

	var title string
	var account uuid.UUID
	version, _, err := h.engine.Materializer().Row(h.ctx, h.offer, tree.offer, &title, &account)
	require.NoError(t, err)
	require.Equal(t, "Platform team", title)
	require.True(t, version.Equal(tree.offerV))
	require.Len(t, h.links(t, h.sepSkills, tree.sep), 1)
	require.Equal(t, before.Writes()+1, h.store.Stats().Writes(), "only the rolled back parent write is counted")
}

func TestEngine_UniqueLabelRejected(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	goID := uuid.New()
	v := h.mustInsert(t, h.skillSnap(goID, "Go"))

	res := h.upsert(t, h.skillSnap(uuid.New(), "GO"))
	require.Equal(t, versioned.Rejected, res.Outcome)
	require.ErrorIs(t, res.Reason, versioned.ErrNameTaken)
	require.ErrorIs(t, res.Err(), versioned.ErrRejected)

	own := h.upsert(t, versioned.Snapshot{Kind: h.skill, ID: goID, Version: v, Values: []any{"go"}})
	require.Equal(t, versioned.Updated, own.Outcome)
}

func TestEngine_RenamingReferenceTouchesReferrers(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	s, e := uuid.New(), uuid.New()
	sv := h.mustInsert(t, h.skillSnap(s, "Golang"))
	ev := h.mustInsert(t, h.employeeSnap(e, versioned.Token{}, "E", versioned.Link{Ref: s, Level: "expert"}))

	res := h.upsert(t, versioned.Snapshot{Kind: h.skill, ID: s, Version: sv, Values: []any{"Go"}})
	require.Equal(t, versioned.Updated, res.Outcome)
	require.True(t, h.version(t, h.employee, e).After(ev))
	require.Equal(t, "Go", h.links(t, h.employeeSkills, e)[0].Label)
}

func TestEngine_TouchWalksParents(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	tree := h.seedOffer(t)

	rows, err := h.engine.Invalidator().Touch(h.ctx, h.sep, []uuid.UUID{tree.sep}, versioned.Unbounded)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.True(t, h.version(t, h.account, tree.account).After(tree.accountV))
}

func TestEngine_UnknownKind(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	_, err := h.engine.Upsert(h.ctx, versioned.Snapshot{Kind: kind("ghost", "x"), ID: uuid.New(), Values: []any{1}})
	require.ErrorIs(t, err, versioned.ErrUnknownKind)

	_, err = h.engine.Delete(h.ctx, kind("ghost"), uuid.New())
	require.ErrorIs(t, err, versioned.ErrUnknownKind)
}

func TestEngine_RelationSetOfAnotherKindFails(t *testing.T) {
	h := newHarness(t, versioned.InheritDepth)
	_, err := h.engine.Upsert(h.ctx, versioned.Snapshot{
		Kind: h.employee, ID: uuid.New(), Values: []any{"E"},
		Relations: []versioned.RelationSet{{Relation: h.sepSkills}},
	})
	require.Error(t, err)

	ids, err := h.engine.Materializer().IDs(h.ctx, h.employee)
	require.NoError(t, err)
	require.Empty(t, ids, "the failed upsert must roll back its insert")
}
