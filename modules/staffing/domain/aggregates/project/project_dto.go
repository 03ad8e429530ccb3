package project

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/constants"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type ActivityDTO struct {
	ID          uuid.UUID       `json:"id"`
	Version     versioned.Token `json:"version"`
	Description string          `json:"description" validate:"required"`
	Employees   []uuid.UUID     `json:"employees"`
}

type UpsertDTO struct {
	ID          uuid.UUID       `json:"id"`
	Version     versioned.Token `json:"version"`
	Title       string          `json:"title" validate:"required,max=255"`
	Client      string          `json:"client" validate:"max=255"`
	Description string          `json:"description"`
	Start       *time.Time      `json:"start"`
	End         *time.Time      `json:"end"`
	Fields      []uuid.UUID     `json:"fields"`
	HardSkills  []uuid.UUID     `json:"hard_skills"`
	Activities  []ActivityDTO   `json:"activities" validate:"dive"`
}

func (d *UpsertDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Title = strings.TrimSpace(d.Title)
	d.Client = strings.TrimSpace(d.Client)
	for i := range d.Activities {
		d.Activities[i].Description = strings.TrimSpace(d.Activities[i].Description)
	}
	errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
	if d.Start != nil && d.End != nil && d.End.Before(*d.Start) {
		if errs == nil {
			errs = make(serrors.ValidationErrors)
		}
		errs["End"] = "must not be before Start"
	}
	if errs != nil {
		return errs, false
	}
	return nil, true
}

func (d *UpsertDTO) ToEntity() *Project {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	p := &Project{
		ID:          id,
		Version:     d.Version,
		Title:       d.Title,
		Client:      d.Client,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		Fields:      refs(d.Fields),
		HardSkills:  refs(d.HardSkills),
		Activities:  make([]Activity, len(d.Activities)),
	}
	for i, a := range d.Activities {
		aid := a.ID
		if aid == uuid.Nil {
			aid = uuid.New()
		}
		p.Activities[i] = Activity{ID: aid, Version: a.Version, Description: a.Description, Employees: a.Employees}
	}
	return p
}

func refs(ids []uuid.UUID) []taxonomy.Ref {
	out := make([]taxonomy.Ref, len(ids))
	for i, id := range ids {
		out[i] = taxonomy.Ref{ID: id}
	}
	return out
}
