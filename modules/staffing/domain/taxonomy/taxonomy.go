// Package taxonomy holds the reference entities employees, projects and offers
// point at: fields, roles, soft skills, hard skills and languages.
package taxonomy

import (
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/versioned"
)

type Kind string

const (
	Field     Kind = "field"
	Role      Kind = "role"
	SoftSkill Kind = "soft_skill"
	HardSkill Kind = "hard_skill"
	Language  Kind = "language"
)

var Kinds = []Kind{Field, Role, SoftSkill, HardSkill, Language}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Leveled reports whether references to items of this kind carry a level.
func (k Kind) Leveled() bool {
	return k == HardSkill || k == Language
}

type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"

	LevelA1     Level = "a1"
	LevelA2     Level = "a2"
	LevelB1     Level = "b1"
	LevelB2     Level = "b2"
	LevelC1     Level = "c1"
	LevelC2     Level = "c2"
	LevelNative Level = "native"
)

var (
	SkillLevels    = []Level{LevelBasic, LevelIntermediate, LevelAdvanced, LevelExpert}
	LanguageLevels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2, LevelNative}
)

// ValidFor reports whether l is one of the levels used by references to k.
func (l Level) ValidFor(k Kind) bool {
	levels := SkillLevels
	if k == Language {
		levels = LanguageLevels
	}
	for _, known := range levels {
		if l == known {
			return true
		}
	}
	return false
}

type Item struct {
	kind    Kind
	id      uuid.UUID
	name    string
	version versioned.Token
}

func New(kind Kind, name string) Item {
	return Item{kind: kind, id: uuid.New(), name: strings.TrimSpace(name)}
}

func Hydrate(kind Kind, id uuid.UUID, name string, version versioned.Token) Item {
	return Item{kind: kind, id: id, name: strings.TrimSpace(name), version: version}
}

func (i Item) Kind() Kind               { return i.kind }
func (i Item) ID() uuid.UUID            { return i.id }
func (i Item) Name() string             { return i.name }
func (i Item) Version() versioned.Token { return i.version }
func (i Item) IsZero() bool             { return i.id == uuid.Nil }

func (i Item) Rename(name string) Item {
	i.name = strings.TrimSpace(name)
	return i
}

func (i Item) WithVersion(v versioned.Token) Item {
	i.version = v
	return i
}

// Ref points at a taxonomy item from an aggregate. Name is filled on read.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// LeveledRef is a Ref qualified by a level. An aggregate holds at most one
// LeveledRef per item.
type LeveledRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Level Level     `json:"level"`
}
