package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/constants"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type LeveledDTO struct {
	ID    uuid.UUID      `json:"id" validate:"required"`
	Level taxonomy.Level `json:"level" validate:"required"`
}

// UpsertDTO is the full desired state of an employee. A zero Version creates
// the employee.
type UpsertDTO struct {
	ID              uuid.UUID        `json:"id"`
	Version         versioned.Token  `json:"version"`
	FirstName       string           `json:"first_name" validate:"required,max=255"`
	LastName        string           `json:"last_name" validate:"required,max=255"`
	Title           string           `json:"title" validate:"max=255"`
	Email           string           `json:"email" validate:"omitempty,email"`
	Description     string           `json:"description"`
	ExperienceSince *time.Time       `json:"experience_since"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate"`
	Fields          []uuid.UUID      `json:"fields"`
	Roles           []uuid.UUID      `json:"roles"`
	SoftSkills      []uuid.UUID      `json:"soft_skills"`
	HardSkills      []LeveledDTO     `json:"hard_skills" validate:"dive"`
	Languages       []LeveledDTO     `json:"languages" validate:"dive"`
	Projects        []uuid.UUID      `json:"projects"`
}

func (d *UpsertDTO) Ok() (serrors.ValidationErrors, bool) {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)

	errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
	if d.HourlyRate != nil && d.HourlyRate.IsNegative() {
		errs = add(errs, "HourlyRate", "must not be negative")
	}
	for _, s := range d.HardSkills {
		if !s.Level.ValidFor(taxonomy.HardSkill) {
			errs = add(errs, "HardSkills", "unknown level "+string(s.Level))
		}
	}
	for _, l := range d.Languages {
		if !l.Level.ValidFor(taxonomy.Language) {
			errs = add(errs, "Languages", "unknown level "+string(l.Level))
		}
	}
	if errs != nil {
		return errs, false
	}
	return nil, true
}

func add(errs serrors.ValidationErrors, field, msg string) serrors.ValidationErrors {
	if errs == nil {
		errs = make(serrors.ValidationErrors)
	}
	errs[field] = msg
	return errs
}

func (d *UpsertDTO) ToEntity() *Employee {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	e := &Employee{
		ID:              id,
		Version:         d.Version,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Title:           d.Title,
		Email:           d.Email,
		Description:     d.Description,
		ExperienceSince: d.ExperienceSince,
		Fields:          refs(d.Fields),
		Roles:           refs(d.Roles),
		SoftSkills:      refs(d.SoftSkills),
		Projects:        refs(d.Projects),
	}
	if d.HourlyRate != nil {
		e.HourlyRate = decimal.NewNullDecimal(*d.HourlyRate)
	}
	for _, s := range d.HardSkills {
		e.SetHardSkill(s.ID, s.Level)
	}
	for _, l := range d.Languages {
		e.SetLanguage(l.ID, l.Level)
	}
	return e
}

func refs(ids []uuid.UUID) []taxonomy.Ref {
	out := make([]taxonomy.Ref, len(ids))
	for i, id := range ids {
		out[i] = taxonomy.Ref{ID: id}
	}
	return out
}
