package versioned

import (
	"slices"

	"github.com/google/uuid"
)

// Depth bounds how many parent hops a touch walks above the rows it starts from.
type Depth int

const (
	// InheritDepth uses the schema-wide default.
	InheritDepth Depth = 0
	// OwnerOnly touches the referencing rows and nothing above them.
	OwnerOnly Depth = -1
	// Unbounded walks parent links up to the root.
	Unbounded Depth = -2
)

// Hops maps a configured hop count to a Depth: 0 is OwnerOnly and negative
// counts are Unbounded.
func Hops(n int) Depth {
	switch {
	case n == 0:
		return OwnerOnly
	case n < 0:
		return Unbounded
	default:
		return Depth(n)
	}
}

// hops returns the number of parent hops, -1 for unbounded.
func (d Depth) hops() int {
	switch {
	case d == OwnerOnly || d == InheritDepth:
		return 0
	case d == Unbounded || d < 0:
		return -1
	default:
		return int(d)
	}
}

// Kind maps one aggregate kind to its table. Columns lists the scalar columns in
// the order snapshot values and scan destinations use.
type Kind struct {
	Name          string
	Table         string
	IDColumn      string
	VersionColumn string
	Columns       []string

	// LabelColumn is the human-readable column shown by referencing aggregates.
	LabelColumn string
	// UniqueLabel rejects a write whose label matches another row case-insensitively.
	UniqueLabel bool
	// TouchOnUpdate invalidates every referencing aggregate when a row is updated.
	TouchOnUpdate bool

	Dependencies []Dependency
}

// Dependency marks a scalar column pointing at a row of another kind. Rows are
// deleted together with the row they depend on. At most one dependency per
// kind may be the Parent, which owns the row as a child-list member.
type Dependency struct {
	Column string
	On     *Kind
	Parent bool
}

func (k *Kind) columnIndex(name string) int {
	return slices.Index(k.Columns, name)
}

func (k *Kind) parent() (Dependency, bool) {
	for _, d := range k.Dependencies {
		if d.Parent {
			return d, true
		}
	}
	return Dependency{}, false
}

// Relation maps a many-to-many collection of Owner rows referencing Target rows
// to its join table. A non-empty LevelColumn makes it a leveled set.
type Relation struct {
	Name        string
	Owner       *Kind
	Target      *Kind
	JoinTable   string
	OwnerColumn string
	RefColumn   string
	LevelColumn string

	// AncestorDepth bounds the parent walk after touching owners that referenced
	// a deleted or mutated target.
	AncestorDepth Depth
}

func (r *Relation) Leveled() bool {
	return r.LevelColumn != ""
}

// Link is one persisted pair. Label is only filled on reads.
type Link struct {
	Ref   uuid.UUID
	Level string
	Label string
}

// Dependent is a kind holding a dependency on another kind.
type Dependent struct {
	Kind       *Kind
	Dependency Dependency
}

// Schema is the validated, immutable set of kinds and relations one Engine serves.
type Schema struct {
	kinds        []*Kind
	byName       map[string]*Kind
	relations    []*Relation
	defaultDepth Depth
}

// NewSchema validates descriptors. Dependencies and relations may only point at
// kinds that are part of the schema.
func NewSchema(defaultDepth Depth, kinds []*Kind, relations []*Relation) (*Schema, error) {
	if defaultDepth == InheritDepth {
		defaultDepth = Hops(1)
	}
	s := &Schema{
		byName:       make(map[string]*Kind, len(kinds)),
		defaultDepth: defaultDepth,
	}

	for _, k := range kinds {
		if err := validateKind(k); err != nil {
			return nil, err
		}
		if _, dup := s.byName[k.Name]; dup {
			return nil, invalid("kind %q registered twice", k.Name)
		}
		s.byName[k.Name] = k
		s.kinds = append(s.kinds, k)
	}

	for _, k := range s.kinds {
		parents := 0
		for _, d := range k.Dependencies {
			if d.On == nil || s.byName[d.On.Name] != d.On {
				return nil, invalid("kind %q depends on an unregistered kind", k.Name)
			}
			if k.columnIndex(d.Column) < 0 {
				return nil, invalid("kind %q: dependency column %q is not a column", k.Name, d.Column)
			}
			if d.Parent {
				parents++
			}
		}
		if parents > 1 {
			return nil, invalid("kind %q declares %d parents", k.Name, parents)
		}
	}

	seen := make(map[string]bool, len(relations))
	for _, r := range relations {
		switch {
		case r == nil || r.Name == "":
			return nil, invalid("relation without a name")
		case seen[r.Name]:
			return nil, invalid("relation %q registered twice", r.Name)
		case r.Owner == nil || s.byName[r.Owner.Name] != r.Owner:
			return nil, invalid("relation %q: owner is not registered", r.Name)
		case r.Target == nil || s.byName[r.Target.Name] != r.Target:
			return nil, invalid("relation %q: target is not registered", r.Name)
		case r.JoinTable == "" || r.OwnerColumn == "" || r.RefColumn == "":
			return nil, invalid("relation %q: join table and columns are required", r.Name)
		}
		seen[r.Name] = true
		s.relations = append(s.relations, r)
	}
	return s, nil
}

func validateKind(k *Kind) error {
	switch {
	case k == nil || k.Name == "":
		return invalid("kind without a name")
	case k.Table == "" || k.IDColumn == "" || k.VersionColumn == "":
		return invalid("kind %q: table, id column and version column are required", k.Name)
	case k.LabelColumn != "" && k.columnIndex(k.LabelColumn) < 0:
		return invalid("kind %q: label column %q is not a column", k.Name, k.LabelColumn)
	case k.UniqueLabel && k.LabelColumn == "":
		return invalid("kind %q: unique label requires a label column", k.Name)
	}
	return nil
}

func (s *Schema) Kind(name string) (*Kind, error) {
	k, ok := s.byName[name]
	if !ok {
		return nil, unknownKind(name)
	}
	return k, nil
}

func (s *Schema) Kinds() []*Kind {
	return slices.Clone(s.kinds)
}

func (s *Schema) Relations() []*Relation {
	return slices.Clone(s.relations)
}

func (s *Schema) has(k *Kind) bool {
	return k != nil && s.byName[k.Name] == k
}

func (s *Schema) hasRelation(r *Relation) bool {
	return slices.Contains(s.relations, r)
}

// RelationsOf returns the relations owned by k.
func (s *Schema) RelationsOf(k *Kind) []*Relation {
	var out []*Relation
	for _, r := range s.relations {
		if r.Owner == k {
			out = append(out, r)
		}
	}
	return out
}

// RelationsTo returns the relations targeting k.
func (s *Schema) RelationsTo(k *Kind) []*Relation {
	var out []*Relation
	for _, r := range s.relations {
		if r.Target == k {
			out = append(out, r)
		}
	}
	return out
}

// Dependents returns every kind whose rows are deleted with a row of k.
func (s *Schema) Dependents(k *Kind) []Dependent {
	var out []Dependent
	for _, other := range s.kinds {
		for _, d := range other.Dependencies {
			if d.On == k {
				out = append(out, Dependent{Kind: other, Dependency: d})
			}
		}
	}
	return out
}

// ParentOf returns the parent dependency of k, if any.
func (s *Schema) ParentOf(k *Kind) (Dependency, bool) {
	return k.parent()
}

// DepthOf resolves the effective ancestor depth of r.
func (s *Schema) DepthOf(r *Relation) Depth {
	if r.AncestorDepth == InheritDepth {
		return s.defaultDepth
	}
	return r.AncestorDepth
}

func (s *Schema) DefaultDepth() Depth {
	return s.defaultDepth
}
