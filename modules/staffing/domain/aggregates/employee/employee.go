// Package employee is the employee profile aggregate.
package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type Employee struct {
	ID      uuid.UUID       `json:"id"`
	Version versioned.Token `json:"version"`

	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	Title           string              `json:"title"`
	Email           string              `json:"email"`
	Description     string              `json:"description"`
	ExperienceSince *time.Time          `json:"experience_since,omitempty"`
	HourlyRate      decimal.NullDecimal `json:"hourly_rate"`

	Fields     []taxonomy.Ref        `json:"fields"`
	Roles      []taxonomy.Ref        `json:"roles"`
	SoftSkills []taxonomy.Ref        `json:"soft_skills"`
	HardSkills []taxonomy.LeveledRef `json:"hard_skills"`
	Languages  []taxonomy.LeveledRef `json:"languages"`
	// Projects the employee worked on, by project id.
	Projects []taxonomy.Ref `json:"projects"`
}

func New(firstName, lastName string) *Employee {
	return &Employee{ID: uuid.New(), FirstName: firstName, LastName: lastName}
}

func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	if e.FirstName == "" {
		return e.LastName
	}
	return e.FirstName + " " + e.LastName
}

// YearsOfExperience counts whole years from ExperienceSince to now.
func (e *Employee) YearsOfExperience(now time.Time) int {
	if e.ExperienceSince == nil {
		return 0
	}
	since := *e.ExperienceSince
	years := now.Year() - since.Year()
	if now.YearDay() < since.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// SetHardSkill adds the skill or replaces its level.
func (e *Employee) SetHardSkill(id uuid.UUID, level taxonomy.Level) {
	e.HardSkills = setLeveled(e.HardSkills, id, level)
}

func (e *Employee) SetLanguage(id uuid.UUID, level taxonomy.Level) {
	e.Languages = setLeveled(e.Languages, id, level)
}

func setLeveled(refs []taxonomy.LeveledRef, id uuid.UUID, level taxonomy.Level) []taxonomy.LeveledRef {
	for i := range refs {
		if refs[i].ID == id {
			refs[i].Level = level
			return refs
		}
	}
	return append(refs, taxonomy.LeveledRef{ID: id, Level: level})
}
