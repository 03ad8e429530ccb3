package offer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/constants"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type LeveledDTO struct {
	ID    uuid.UUID      `json:"id" validate:"required"`
	Level taxonomy.Level `json:"level" validate:"required"`
}

type PropertyDTO struct {
	ID         uuid.UUID       `json:"id"`
	Version    versioned.Token `json:"version"`
	EmployeeID uuid.UUID       `json:"employee_id" validate:"required"`
	Headline   string          `json:"headline" validate:"max=255"`
	Fields     []uuid.UUID     `json:"fields"`
	Roles      []uuid.UUID     `json:"roles"`
	SoftSkills []uuid.UUID     `json:"soft_skills"`
	Projects   []uuid.UUID     `json:"projects"`
	HardSkills []LeveledDTO    `json:"hard_skills" validate:"dive"`
	Languages  []LeveledDTO    `json:"languages" validate:"dive"`
}

type UpsertDTO struct {
	ID          uuid.UUID        `json:"id"`
	Version     versioned.Token  `json:"version"`
	Title       string           `json:"title" validate:"required,max=255"`
	Client      string           `json:"client" validate:"max=255"`
	Description string           `json:"description"`
	Status      Status           `json:"status" validate:"omitempty,oneof=draft sent accepted rejected"`
	DailyRate   *decimal.Decimal `json:"daily_rate"`
	ValidUntil  *time.Time       `json:"valid_until"`
	Properties  []PropertyDTO    `json:"properties" validate:"dive"`
}

func (d *UpsertDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Title = strings.TrimSpace(d.Title)
	d.Client = strings.TrimSpace(d.Client)
	if d.Status == "" {
		d.Status = StatusDraft
	}
	errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
	if d.DailyRate != nil && d.DailyRate.IsNegative() {
		if errs == nil {
			errs = make(serrors.ValidationErrors)
		}
		errs["DailyRate"] = "must not be negative"
	}
	seen := make(map[uuid.UUID]struct{}, len(d.Properties))
	for _, p := range d.Properties {
		if _, dup := seen[p.EmployeeID]; dup {
			if errs == nil {
				errs = make(serrors.ValidationErrors)
			}
			errs["Properties"] = "employee " + p.EmployeeID.String() + " is shown twice"
		}
		seen[p.EmployeeID] = struct{}{}
	}
	if errs != nil {
		return errs, false
	}
	return nil, true
}

func (d *UpsertDTO) ToEntity() *Offer {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	o := &Offer{
		ID:          id,
		Version:     d.Version,
		Title:       d.Title,
		Client:      d.Client,
		Description: d.Description,
		Status:      d.Status,
		ValidUntil:  d.ValidUntil,
		Properties:  make([]shownproperty.ShownEmployeeProperty, len(d.Properties)),
	}
	if d.DailyRate != nil {
		o.DailyRate = decimal.NewNullDecimal(*d.DailyRate)
	}
	for i, p := range d.Properties {
		pid := p.ID
		if pid == uuid.Nil {
			pid = uuid.New()
		}
		o.Properties[i] = shownproperty.ShownEmployeeProperty{
			ID:         pid,
			Version:    p.Version,
			OfferID:    id,
			EmployeeID: p.EmployeeID,
			Headline:   strings.TrimSpace(p.Headline),
			Fields:     refs(p.Fields),
			Roles:      refs(p.Roles),
			SoftSkills: refs(p.SoftSkills),
			Projects:   refs(p.Projects),
			HardSkills: leveled(p.HardSkills),
			Languages:  leveled(p.Languages),
		}
	}
	return o
}

func refs(ids []uuid.UUID) []taxonomy.Ref {
	out := make([]taxonomy.Ref, len(ids))
	for i, id := range ids {
		out[i] = taxonomy.Ref{ID: id}
	}
	return out
}

func leveled(in []LeveledDTO) []taxonomy.LeveledRef {
	out := make([]taxonomy.LeveledRef, len(in))
	for i, l := range in {
		out[i] = taxonomy.LeveledRef{ID: l.ID, Level: l.Level}
	}
	return out
}
