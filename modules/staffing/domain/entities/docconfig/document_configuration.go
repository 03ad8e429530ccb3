// Package docconfig holds the settings used when an offer is rendered into a
// client document.
package docconfig

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/pkg/constants"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

var ErrDocumentConfigurationNotFound = errors.New("document configuration not found")

type DocumentConfiguration struct {
	ID      uuid.UUID       `json:"id"`
	Version versioned.Token `json:"version"`

	Title            string `json:"title"`
	ShowCover        bool   `json:"show_cover"`
	ShowRequirements bool   `json:"show_requirements"`
	ShowContact      bool   `json:"show_contact"`
	ShowProjects     bool   `json:"show_projects"`
	// OfferID scopes the configuration to one offer. A scoped configuration
	// is deleted with its offer.
	OfferID uuid.NullUUID `json:"offer_id"`
}

// Default returns a configuration showing every section.
func Default(title string) DocumentConfiguration {
	return DocumentConfiguration{
		ID:               uuid.New(),
		Title:            title,
		ShowCover:        true,
		ShowRequirements: true,
		ShowContact:      true,
		ShowProjects:     true,
	}
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (DocumentConfiguration, error)
	GetAll(ctx context.Context) ([]DocumentConfiguration, error)
	Upsert(ctx context.Context, c DocumentConfiguration) (versioned.Result, error)
	Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error)
}

type UpsertDTO struct {
	ID               uuid.UUID       `json:"id"`
	Version          versioned.Token `json:"version"`
	Title            string          `json:"title" validate:"required,max=255"`
	ShowCover        bool            `json:"show_cover"`
	ShowRequirements bool            `json:"show_requirements"`
	ShowContact      bool            `json:"show_contact"`
	ShowProjects     bool            `json:"show_projects"`
	OfferID          *uuid.UUID      `json:"offer_id"`
}

func (d *UpsertDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Title = strings.TrimSpace(d.Title)
	if errs := serrors.ProcessValidatorErrors(constants.Validate.Struct(d)); errs != nil {
		return errs, false
	}
	return nil, true
}

func (d *UpsertDTO) ToEntity() DocumentConfiguration {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	c := DocumentConfiguration{
		ID:               id,
		Version:          d.Version,
		Title:            d.Title,
		ShowCover:        d.ShowCover,
		ShowRequirements: d.ShowRequirements,
		ShowContact:      d.ShowContact,
		ShowProjects:     d.ShowProjects,
	}
	if d.OfferID != nil {
		c.OfferID = uuid.NullUUID{UUID: *d.OfferID, Valid: true}
	}
	return c
}
