package taxonomy

import (
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/constants"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type CreateDTO struct {
	Kind Kind   `json:"kind" validate:"required,oneof=field role soft_skill hard_skill language"`
	Name string `json:"name" validate:"required,max=255"`
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Name = strings.TrimSpace(d.Name)
	if errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d)); errs != nil {
		return errs, false
	}
	return nil, true
}

func (d *CreateDTO) ToEntity() Item {
	return New(d.Kind, d.Name)
}

type UpdateDTO struct {
	Kind    Kind            `json:"kind" validate:"required,oneof=field role soft_skill hard_skill language"`
	ID      uuid.UUID       `json:"id" validate:"required"`
	Version versioned.Token `json:"version"`
	Name    string          `json:"name" validate:"required,max=255"`
}

func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Name = strings.TrimSpace(d.Name)
	if errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d)); errs != nil {
		return errs, false
	}
	return nil, true
}

func (d *UpdateDTO) ToEntity() Item {
	return Hydrate(d.Kind, d.ID, d.Name, d.Version)
}
